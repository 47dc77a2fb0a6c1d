package models

import "time"

// Item statuses reported by adapters for individual pieces of content.
const (
	ItemStatusProcessed = "processed"
	ItemStatusSkipped   = "skipped"
	ItemStatusError     = "error"
	ItemStatusFetched   = "fetched"
)

// Sentiment labels produced by summarization.
const (
	SentimentBullish = "bullish"
	SentimentBearish = "bearish"
	SentimentNeutral = "neutral"
)

// NormalizedItem is the common adapter output shape. Each adapter only
// fills the fields meaningful to its platform; Status records what
// happened to the item during the run.
type NormalizedItem struct {
	Title           string    `json:"title,omitempty"`
	URL             string    `json:"url,omitempty"`
	Author          string    `json:"author,omitempty"`
	PublishedAt     time.Time `json:"publishedAt,omitempty"`
	Summary         string    `json:"summary,omitempty"`
	Content         string    `json:"content,omitempty"`
	ExternalID      string    `json:"externalId,omitempty"`
	AudioURL        string    `json:"audioUrl,omitempty"`
	DurationSeconds int       `json:"durationSeconds,omitempty"`
	Text            string    `json:"text,omitempty"`
	User            string    `json:"user,omitempty"`
	Timestamp       string    `json:"ts,omitempty"`
	Type            string    `json:"type,omitempty"`
	Status          string    `json:"status,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	ContentID       string    `json:"contentId,omitempty"`
}

// ContentMetadata is the JSON metadata column of a content item
type ContentMetadata struct {
	Tags        []string  `json:"tags,omitempty"`
	Sentiment   string    `json:"sentiment,omitempty"`
	ProcessedAt time.Time `json:"processedAt,omitempty"`
}

// ContentItem is a persisted piece of aggregated content. No two items
// for the same owner share a natural key.
type ContentItem struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"ownerId"`
	Title       string          `json:"title"`
	ContentType string          `json:"contentType"`
	Platform    string          `json:"platform"`
	OriginalURL string          `json:"originalUrl,omitempty"`
	Author      string          `json:"author,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	FullContent string          `json:"fullContent,omitempty"`
	Metadata    ContentMetadata `json:"metadata"`
	FolderID    string          `json:"folderId,omitempty"`
	NaturalKey  string          `json:"-"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ContentListParams filters content listings
type ContentListParams struct {
	Platform string
	Limit    int
	Offset   int
}
