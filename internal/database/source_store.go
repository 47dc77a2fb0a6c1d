package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/marketminds/engine/internal/models"
)

// SourceStore persists user-configured influencer sources
type SourceStore struct {
	db *DB
}

func NewSourceStore(db *DB) *SourceStore {
	return &SourceStore{db: db}
}

// Create inserts a new source for the owner
func (s *SourceStore) Create(ctx context.Context, ownerID string, params models.CreateSourceParams) (*models.Source, error) {
	identifiers, err := json.Marshal(params.PlatformIdentifiers)
	if err != nil {
		return nil, fmt.Errorf("marshal platform identifiers: %w", err)
	}

	platforms := params.SelectedPlatforms
	if platforms == nil {
		platforms = []string{}
	}

	source := &models.Source{
		ID:                  uuid.NewString(),
		OwnerID:             ownerID,
		SourceName:          params.SourceName,
		SelectedPlatforms:   platforms,
		PlatformIdentifiers: params.PlatformIdentifiers,
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO sources (id, user_id, source_name, selected_platforms, platform_identifiers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`, source.ID, ownerID, params.SourceName, pq.Array(platforms), identifiers)

	if err := row.Scan(&source.CreatedAt, &source.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert source: %w", err)
	}

	return source, nil
}

// Get returns one source owned by ownerID, or nil when absent
func (s *SourceStore) Get(ctx context.Context, ownerID, sourceID string) (*models.Source, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, source_name, selected_platforms, platform_identifiers, created_at, updated_at
		FROM sources
		WHERE id = $1 AND user_id = $2
	`, sourceID, ownerID)

	source, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	return source, nil
}

// ListByOwner returns all of an owner's sources in creation order
func (s *SourceStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Source, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, source_name, selected_platforms, platform_identifiers, created_at, updated_at
		FROM sources
		WHERE user_id = $1
		ORDER BY created_at
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	sources := make([]models.Source, 0)
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, *source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}

// ListOwnersWithSources returns the distinct owner IDs that have at
// least one configured source. Drives the scheduled sweep.
func (s *SourceStore) ListOwnersWithSources(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM sources ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query source owners: %w", err)
	}
	defer rows.Close()

	owners := make([]string, 0)
	for rows.Next() {
		var ownerID string
		if err := rows.Scan(&ownerID); err != nil {
			return nil, fmt.Errorf("scan owner id: %w", err)
		}
		owners = append(owners, ownerID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source owners: %w", err)
	}
	return owners, nil
}

// Update applies the non-nil fields of params to the source
func (s *SourceStore) Update(ctx context.Context, ownerID, sourceID string, params models.UpdateSourceParams) (*models.Source, error) {
	existing, err := s.Get(ctx, ownerID, sourceID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if params.SourceName != nil {
		existing.SourceName = *params.SourceName
	}
	if params.SelectedPlatforms != nil {
		existing.SelectedPlatforms = *params.SelectedPlatforms
	}
	if params.PlatformIdentifiers != nil {
		existing.PlatformIdentifiers = *params.PlatformIdentifiers
	}

	identifiers, err := json.Marshal(existing.PlatformIdentifiers)
	if err != nil {
		return nil, fmt.Errorf("marshal platform identifiers: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE sources
		SET source_name = $1, selected_platforms = $2, platform_identifiers = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5
		RETURNING updated_at
	`, existing.SourceName, pq.Array(existing.SelectedPlatforms), identifiers, sourceID, ownerID)

	if err := row.Scan(&existing.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update source: %w", err)
	}

	return existing, nil
}

// Delete removes a source owned by ownerID
func (s *SourceStore) Delete(ctx context.Context, ownerID, sourceID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE id = $1 AND user_id = $2`, sourceID, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete source: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSource(row rowScanner) (*models.Source, error) {
	var source models.Source
	var platforms pq.StringArray
	var identifiers []byte

	if err := row.Scan(
		&source.ID,
		&source.OwnerID,
		&source.SourceName,
		&platforms,
		&identifiers,
		&source.CreatedAt,
		&source.UpdatedAt,
	); err != nil {
		return nil, err
	}

	source.SelectedPlatforms = []string(platforms)
	if source.SelectedPlatforms == nil {
		source.SelectedPlatforms = []string{}
	}

	if len(identifiers) > 0 {
		if err := json.Unmarshal(identifiers, &source.PlatformIdentifiers); err != nil {
			return nil, fmt.Errorf("unmarshal platform identifiers: %w", err)
		}
	}
	if source.PlatformIdentifiers == nil {
		source.PlatformIdentifiers = map[string]string{}
	}

	return &source, nil
}
