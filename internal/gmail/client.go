// Package gmail implements the OAuth-backed mail integration behind
// the email adapter: authorization-code exchange on connect,
// transparent token refresh before each use, and inbox fetching over
// the Gmail REST API.
package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/marketminds/engine/internal/logging"
	"github.com/marketminds/engine/internal/models"
)

const (
	Provider = "gmail"

	gmailAPIBase = "https://gmail.googleapis.com/gmail/v1/users/me"
	gmailScope   = "https://www.googleapis.com/auth/gmail.readonly"

	requestTimeout = 30 * time.Second
)

// CredentialStore persists per-owner OAuth credentials
type CredentialStore interface {
	Get(ctx context.Context, ownerID, provider string) (*models.EmailCredentials, error)
	Put(ctx context.Context, creds *models.EmailCredentials) error
}

// Config holds the OAuth client settings
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Integration is the Gmail OAuth integration for all owners; per-owner
// state lives in the credential store.
type Integration struct {
	conf   *oauth2.Config
	store  CredentialStore
	logger *logging.Logger
}

func New(cfg Config, store CredentialStore, logger *logging.Logger) *Integration {
	return &Integration{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{gmailScope},
			Endpoint:     google.Endpoint,
		},
		store:  store,
		logger: logger,
	}
}

// Configured reports whether an OAuth client is set up at all
func (g *Integration) Configured() bool {
	return g.conf.ClientID != "" && g.conf.ClientSecret != ""
}

// Connect exchanges an authorization code for tokens and stores them
// for the owner. Called once when the user first links their inbox.
func (g *Integration) Connect(ctx context.Context, ownerID, code string) error {
	if !g.Configured() {
		return fmt.Errorf("gmail integration not configured")
	}

	token, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("authorization code exchange failed: %w", err)
	}

	if err := g.store.Put(ctx, &models.EmailCredentials{
		OwnerID:      ownerID,
		Provider:     Provider,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}); err != nil {
		return err
	}

	g.logger.Info("Gmail integration connected", logging.WithField("owner", ownerID))
	return nil
}

// httpClient returns an authenticated HTTP client for the owner,
// refreshing the access token transparently when it has expired and
// writing the refreshed credentials back to the store.
func (g *Integration) httpClient(ctx context.Context, ownerID string) (*http.Client, error) {
	creds, err := g.store.Get(ctx, ownerID, Provider)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, fmt.Errorf("gmail not connected for this user")
	}

	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.ExpiresAt,
	}

	source := g.conf.TokenSource(ctx, token)
	fresh, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	if fresh.AccessToken != creds.AccessToken {
		creds.AccessToken = fresh.AccessToken
		creds.ExpiresAt = fresh.Expiry
		if fresh.RefreshToken != "" {
			creds.RefreshToken = fresh.RefreshToken
		}
		if err := g.store.Put(ctx, creds); err != nil {
			g.logger.Warn("Failed to persist refreshed Gmail token", logging.WithField("error", err.Error()))
		}
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(fresh))
	client.Timeout = requestTimeout
	return client, nil
}

// Message is one fetched inbox message
type Message struct {
	ID      string
	Subject string
	From    string
	Snippet string
	Body    string
	Date    time.Time
}

type messageListResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type messagePart struct {
	MimeType string `json:"mimeType"`
	Body     struct {
		Data string `json:"data"`
	} `json:"body"`
	Parts []messagePart `json:"parts"`
}

type messageResponse struct {
	ID           string `json:"id"`
	Snippet      string `json:"snippet"`
	InternalDate string `json:"internalDate"`
	Payload      struct {
		Headers []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"headers"`
		messagePart
	} `json:"payload"`
}

// FetchInbox returns up to max recent inbox messages for the owner
func (g *Integration) FetchInbox(ctx context.Context, ownerID string, max int) ([]Message, error) {
	client, err := g.httpClient(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	listURL := fmt.Sprintf("%s/messages?maxResults=%d&labelIds=INBOX", gmailAPIBase, max)
	var list messageListResponse
	if err := g.getJSON(ctx, client, listURL, &list); err != nil {
		return nil, fmt.Errorf("failed to list inbox messages: %w", err)
	}

	messages := make([]Message, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msgURL := fmt.Sprintf("%s/messages/%s?format=full", gmailAPIBase, ref.ID)
		var raw messageResponse
		if err := g.getJSON(ctx, client, msgURL, &raw); err != nil {
			g.logger.Warn("Failed to fetch message", logging.WithFields(map[string]interface{}{
				"message": ref.ID,
				"error":   err.Error(),
			}))
			continue
		}
		messages = append(messages, decodeMessage(raw))
	}

	return messages, nil
}

func (g *Integration) getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("gmail authorization rejected (HTTP %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gmail returned HTTP %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeMessage(raw messageResponse) Message {
	msg := Message{
		ID:      raw.ID,
		Snippet: raw.Snippet,
	}

	for _, header := range raw.Payload.Headers {
		switch header.Name {
		case "Subject":
			msg.Subject = header.Value
		case "From":
			msg.From = header.Value
		}
	}

	if ms, err := parseInternalDate(raw.InternalDate); err == nil {
		msg.Date = ms
	}

	msg.Body = extractBody(raw.Payload.messagePart)
	return msg
}

func parseInternalDate(internalDate string) (time.Time, error) {
	var ms int64
	if _, err := fmt.Sscanf(internalDate, "%d", &ms); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

// extractBody walks the MIME tree for a text part, preferring plain
// text and converting HTML parts to text.
func extractBody(part messagePart) string {
	if text := findPart(part, "text/plain"); text != "" {
		return text
	}
	if html := findPart(part, "text/html"); html != "" {
		return htmlToText(html)
	}
	return ""
}

func findPart(part messagePart, mimeType string) string {
	if part.MimeType == mimeType && part.Body.Data != "" {
		if decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(part.Body.Data); err == nil {
			return string(decoded)
		}
	}
	for _, child := range part.Parts {
		if found := findPart(child, mimeType); found != "" {
			return found
		}
	}
	return ""
}
