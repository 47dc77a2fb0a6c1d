package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/marketminds/engine/internal/models"
)

// CredentialStore persists per-owner OAuth credentials for mail
// integrations.
type CredentialStore struct {
	db *DB
}

func NewCredentialStore(db *DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// Get returns the stored credentials for an owner and provider, or nil
// when the owner never connected the integration.
func (s *CredentialStore) Get(ctx context.Context, ownerID, provider string) (*models.EmailCredentials, error) {
	var creds models.EmailCredentials
	var refreshToken sql.NullString
	var expiresAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, provider, access_token, refresh_token, expires_at, updated_at
		FROM email_credentials
		WHERE user_id = $1 AND provider = $2
	`, ownerID, provider).Scan(
		&creds.OwnerID,
		&creds.Provider,
		&creds.AccessToken,
		&refreshToken,
		&expiresAt,
		&creds.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get email credentials: %w", err)
	}

	creds.RefreshToken = refreshToken.String
	if expiresAt.Valid {
		creds.ExpiresAt = expiresAt.Time
	}
	return &creds, nil
}

// Put stores or replaces the credentials for an owner and provider.
// Called on first connect and again after every transparent refresh.
func (s *CredentialStore) Put(ctx context.Context, creds *models.EmailCredentials) error {
	var refreshToken sql.NullString
	if creds.RefreshToken != "" {
		refreshToken = sql.NullString{String: creds.RefreshToken, Valid: true}
	}
	var expiresAt sql.NullTime
	if !creds.ExpiresAt.IsZero() {
		expiresAt = sql.NullTime{Time: creds.ExpiresAt, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO email_credentials (user_id, provider, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), email_credentials.refresh_token),
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
	`, creds.OwnerID, creds.Provider, creds.AccessToken, refreshToken, expiresAt)
	if err != nil {
		return fmt.Errorf("store email credentials: %w", err)
	}

	creds.UpdatedAt = time.Now()
	return nil
}

// Delete removes stored credentials, disconnecting the integration
func (s *CredentialStore) Delete(ctx context.Context, ownerID, provider string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM email_credentials WHERE user_id = $1 AND provider = $2`,
		ownerID, provider,
	); err != nil {
		return fmt.Errorf("delete email credentials: %w", err)
	}
	return nil
}
