package models

import "time"

// Source is a user-configured influencer source tracked across one or
// more platforms.
type Source struct {
	ID                  string            `json:"id"`
	OwnerID             string            `json:"ownerId"`
	SourceName          string            `json:"sourceName"`
	SelectedPlatforms   []string          `json:"selectedPlatforms"`
	PlatformIdentifiers map[string]string `json:"platformIdentifiers"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

// Identifier returns the configured identifier for a normalized
// platform key, or "" when the user never set one.
func (s *Source) Identifier(platform string) string {
	if s.PlatformIdentifiers == nil {
		return ""
	}
	return s.PlatformIdentifiers[platform]
}

// CreateSourceParams is the payload for creating a source
type CreateSourceParams struct {
	SourceName          string            `json:"sourceName"`
	SelectedPlatforms   []string          `json:"selectedPlatforms"`
	PlatformIdentifiers map[string]string `json:"platformIdentifiers"`
}

// UpdateSourceParams is the payload for updating a source
type UpdateSourceParams struct {
	SourceName          *string            `json:"sourceName,omitempty"`
	SelectedPlatforms   *[]string          `json:"selectedPlatforms,omitempty"`
	PlatformIdentifiers *map[string]string `json:"platformIdentifiers,omitempty"`
}

// EmailCredentials is the stored OAuth credential shape for a
// per-owner mail integration.
type EmailCredentials struct {
	OwnerID      string    `json:"ownerId"`
	Provider     string    `json:"provider"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expiresAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Expired reports whether the access token needs a refresh before use
func (c *EmailCredentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
