// Package summarize defines the summarization delegate used by the
// feed adapters and its implementations: an LLM-backed summarizer and
// a local sentiment scorer for content that already carries a summary.
package summarize

import "context"

// Length hints accepted by Summarize.
const (
	LengthBrief    = "brief"
	LengthStandard = "standard"
	LengthDetailed = "detailed"
)

// Summary is the normalized summarization result
type Summary struct {
	Summary   string   `json:"summary"`
	Tags      []string `json:"tags"`
	Sentiment string   `json:"sentiment"`
}

// Summarizer turns raw content into a summary with tags and a
// market-sentiment label. Failures propagate as adapter-level errors.
type Summarizer interface {
	Summarize(ctx context.Context, text string, lengthHint string) (*Summary, error)
}

// SentimentScorer labels text bullish, bearish, or neutral without an
// LLM round trip.
type SentimentScorer interface {
	Score(text string) string
}
