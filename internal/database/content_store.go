package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/marketminds/engine/internal/models"
)

// ContentStore persists aggregated content items in Postgres. The
// table carries a UNIQUE(user_id, natural_key) constraint, so the
// upsert is the single atomic dedup point even under concurrent runs.
type ContentStore struct {
	db *DB
}

func NewContentStore(db *DB) *ContentStore {
	return &ContentStore{db: db}
}

// ExistsByURL reports whether the owner already has an item with the
// given canonical URL as its natural key.
func (s *ContentStore) ExistsByURL(ctx context.Context, ownerID, url string) (bool, error) {
	return s.exists(ctx, ownerID, url)
}

// ExistsByExternalID reports whether the owner already has an item
// keyed by (sourceKey, externalID).
func (s *ContentStore) ExistsByExternalID(ctx context.Context, ownerID, sourceKey, externalID string) (bool, error) {
	return s.exists(ctx, ownerID, NaturalKey(sourceKey, externalID))
}

func (s *ContentStore) exists(ctx context.Context, ownerID, naturalKey string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM content_items WHERE user_id = $1 AND natural_key = $2)`,
		ownerID, naturalKey,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check content existence: %w", err)
	}
	return exists, nil
}

// NaturalKey builds the dedup identity for items keyed by source and
// external id rather than URL.
func NaturalKey(sourceKey, externalID string) string {
	return sourceKey + ":" + externalID
}

// Upsert atomically inserts a content item, or refreshes the existing
// row when the owner already has one with the same natural key.
// Re-running ingestion against an unchanged feed never creates
// duplicate rows.
func (s *ContentStore) Upsert(ctx context.Context, item *models.ContentItem) (*models.ContentItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.NaturalKey == "" {
		item.NaturalKey = item.OriginalURL
	}

	metadata, err := json.Marshal(item.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal content metadata: %w", err)
	}

	var folderID sql.NullString
	if item.FolderID != "" {
		folderID = sql.NullString{String: item.FolderID, Valid: true}
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO content_items (
			id, user_id, title, content_type, platform,
			original_url, author, summary, full_content,
			metadata, folder_id, natural_key,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12,
			NOW(), NOW()
		)
		ON CONFLICT (user_id, natural_key) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			full_content = EXCLUDED.full_content,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`,
		item.ID,
		item.OwnerID,
		item.Title,
		item.ContentType,
		item.Platform,
		nullString(item.OriginalURL),
		nullString(item.Author),
		nullString(item.Summary),
		nullString(item.FullContent),
		metadata,
		folderID,
		item.NaturalKey,
	)

	if err := row.Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert content item: %w", err)
	}

	return item, nil
}

// ListByOwner returns the owner's content, newest first
func (s *ContentStore) ListByOwner(ctx context.Context, ownerID string, params models.ContentListParams) ([]models.ContentItem, error) {
	query := `
		SELECT id, user_id, title, content_type, platform,
		       original_url, author, summary, full_content,
		       metadata, folder_id, created_at, updated_at
		FROM content_items
		WHERE user_id = $1`
	args := []interface{}{ownerID}

	if params.Platform != "" {
		query += fmt.Sprintf(" AND platform = $%d", len(args)+1)
		args = append(args, params.Platform)
	}

	query += " ORDER BY created_at DESC"

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, params.Limit, params.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query content items: %w", err)
	}
	defer rows.Close()

	return scanContentItems(rows)
}

// ListByPlatform returns the owner's newest items for one platform.
// Used by the uploads adapter, which reads already-persisted content
// instead of fetching externally.
func (s *ContentStore) ListByPlatform(ctx context.Context, ownerID, platform string, limit int) ([]models.ContentItem, error) {
	return s.ListByOwner(ctx, ownerID, models.ContentListParams{Platform: platform, Limit: limit})
}

func scanContentItems(rows *sql.Rows) ([]models.ContentItem, error) {
	items := make([]models.ContentItem, 0)
	for rows.Next() {
		var item models.ContentItem
		var originalURL, author, summary, fullContent, folderID sql.NullString
		var metadata []byte

		if err := rows.Scan(
			&item.ID,
			&item.OwnerID,
			&item.Title,
			&item.ContentType,
			&item.Platform,
			&originalURL,
			&author,
			&summary,
			&fullContent,
			&metadata,
			&folderID,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan content item: %w", err)
		}

		item.OriginalURL = originalURL.String
		item.Author = author.String
		item.Summary = summary.String
		item.FullContent = fullContent.String
		item.FolderID = folderID.String

		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &item.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal content metadata: %w", err)
			}
		}

		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content items: %w", err)
	}
	return items, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
