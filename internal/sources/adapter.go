// Package sources contains the per-platform feed adapters and the
// dispatch registry that maps normalized platform keys onto them.
//
// Adapters share one contract: Fetch never lets an error or panic
// escape its boundary — every failure is folded into the returned
// FetchResult — and an upstream that was reached but held zero items
// is a success with a warning, never an error.
package sources

import (
	"context"
	"time"

	"github.com/marketminds/engine/internal/models"
	"github.com/marketminds/engine/internal/platform"
)

// Adapter translates one platform's native fetch/parse logic into the
// common normalized-item contract.
type Adapter interface {
	Platform() string
	Fetch(ctx context.Context, req FetchRequest) FetchResult
}

// FetchRequest carries the source being aggregated and its resolved
// platform identifier (channel id, handle, feed URL, subreddit, ...).
// Identifier may be empty or malformed; adapters must tolerate that
// without crashing the run.
type FetchRequest struct {
	Source     models.Source
	Identifier string
	MaxItems   int
}

// FetchResult is the structured outcome of one adapter invocation
type FetchResult struct {
	Success        bool                    `json:"success"`
	ProcessedItems int                     `json:"processedItems"`
	Items          []models.NormalizedItem `json:"items"`
	Error          string                  `json:"error,omitempty"`
	Warnings       []string                `json:"warnings,omitempty"`
	Details        map[string]interface{}  `json:"details,omitempty"`
}

// failure builds a recoverable adapter failure
func failure(msg string) FetchResult {
	return FetchResult{
		Success: false,
		Error:   msg,
		Items:   []models.NormalizedItem{},
	}
}

// emptyResult builds a successful zero-item result. The warning keeps
// "nothing new upstream" distinguishable from a transport failure.
func emptyResult(warning string, items []models.NormalizedItem) FetchResult {
	if items == nil {
		items = []models.NormalizedItem{}
	}
	return FetchResult{
		Success:  true,
		Items:    items,
		Warnings: []string{warning},
	}
}

// ContentStore is the persistence and dedup gate adapters write
// through. Upsert is atomic on (owner, natural key); the existence
// checks let adapters skip re-summarization of known content.
type ContentStore interface {
	ExistsByURL(ctx context.Context, ownerID, url string) (bool, error)
	ExistsByExternalID(ctx context.Context, ownerID, sourceKey, externalID string) (bool, error)
	Upsert(ctx context.Context, item *models.ContentItem) (*models.ContentItem, error)
	ListByPlatform(ctx context.Context, ownerID, platform string, limit int) ([]models.ContentItem, error)
}

// AdapterConfig holds shared fetch tuning
type AdapterConfig struct {
	Timeout   time.Duration
	MaxItems  int
	UserAgent string
}

// DefaultConfig returns the shared adapter defaults
func DefaultConfig() AdapterConfig {
	return AdapterConfig{
		Timeout:   30 * time.Second,
		MaxItems:  5,
		UserAgent: "MarketMindsBot/1.0",
	}
}

// maxItems resolves the per-request cap against the adapter default
func (c AdapterConfig) maxItems(requested int) int {
	if requested > 0 {
		return requested
	}
	return c.MaxItems
}

// Registry maps canonical platform keys to adapters
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its platform key
func (r *Registry) Register(adapter Adapter) {
	r.adapters[adapter.Platform()] = adapter
}

// Resolve normalizes a raw platform key and returns the responsible
// adapter, or nil when none is registered. Callers turn nil into a
// failed outcome so the run continues for other platforms.
func (r *Registry) Resolve(rawPlatform string) Adapter {
	return r.adapters[platform.Normalize(rawPlatform)]
}

// Platforms returns the registered platform keys
func (r *Registry) Platforms() []string {
	keys := make([]string, 0, len(r.adapters))
	for key := range r.adapters {
		keys = append(keys, key)
	}
	return keys
}
