// Package aggregator orchestrates a user's content run: it fans each
// of the user's sources out across its selected platforms, collects
// per-pair outcomes, and folds them into a run report. One bad pair
// never takes down the run.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/marketminds/engine/internal/cache"
	"github.com/marketminds/engine/internal/logging"
	"github.com/marketminds/engine/internal/models"
	"github.com/marketminds/engine/internal/platform"
	"github.com/marketminds/engine/internal/sources"
)

const (
	defaultConcurrency = 4
	defaultPairTimeout = 2 * time.Minute

	reportCacheTTL = time.Hour
)

// SourceStore lists the sources a run iterates over
type SourceStore interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Source, error)
	ListOwnersWithSources(ctx context.Context) ([]string, error)
}

// Aggregator runs content aggregation for one user at a time
type Aggregator struct {
	store       SourceStore
	registry    *sources.Registry
	cache       cache.Cache
	logger      *logging.Logger
	concurrency int
	pairTimeout time.Duration
}

// Option tunes the aggregator
type Option func(*Aggregator)

// WithConcurrency caps how many source/platform pairs run at once
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithPairTimeout bounds how long a single adapter invocation may run
func WithPairTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.pairTimeout = d
		}
	}
}

// WithCache enables caching of the latest run report per owner
func WithCache(c cache.Cache) Option {
	return func(a *Aggregator) {
		a.cache = c
	}
}

func New(store SourceStore, registry *sources.Registry, logger *logging.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:       store,
		registry:    registry,
		logger:      logger,
		concurrency: defaultConcurrency,
		pairTimeout: defaultPairTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// pair is one unit of fan-out work: a source crossed with one of its
// selected platforms.
type pair struct {
	index      int
	source     models.Source
	platform   string
	identifier string
}

// Run aggregates all of the owner's sources across their selected
// platforms. Adapter failures become failed entries in the report; the
// only error return is failing to list the sources at all.
func (a *Aggregator) Run(ctx context.Context, ownerID string) (*models.RunReport, error) {
	started := time.Now()

	srcs, err := a.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	pairs := expandPairs(srcs)

	a.logger.Info("Starting aggregation run", logging.WithFields(map[string]interface{}{
		"owner":   ownerID,
		"sources": len(srcs),
		"pairs":   len(pairs),
	}))

	outcomes := make([]models.AggregationOutcome, len(pairs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, a.concurrency)

	for _, p := range pairs {
		wg.Add(1)
		go func(p pair) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcomes[p.index] = a.runPair(ctx, p)
		}(p)
	}
	wg.Wait()

	report := &models.RunReport{
		Success: true,
		Results: outcomes,
	}
	for _, outcome := range outcomes {
		report.ProcessedCount += outcome.ProcessedItems
	}

	a.logger.Info("Aggregation run complete", logging.WithFields(map[string]interface{}{
		"owner":     ownerID,
		"processed": report.ProcessedCount,
		"duration":  time.Since(started).String(),
	}))

	if a.cache != nil {
		if data, err := json.Marshal(report); err == nil {
			a.cache.SetWithTTL(reportCacheKey(ownerID), data, reportCacheTTL)
		}
	}

	return report, nil
}

// runPair invokes one adapter under the pair timeout, converting
// panics and missing handlers into failed outcomes.
func (a *Aggregator) runPair(ctx context.Context, p pair) (outcome models.AggregationOutcome) {
	outcome = models.AggregationOutcome{
		SourceID:   p.source.ID,
		SourceName: p.source.SourceName,
		Platform:   p.platform,
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Adapter panicked", logging.WithFields(map[string]interface{}{
				"source":   p.source.ID,
				"platform": p.platform,
				"panic":    fmt.Sprintf("%v", r),
			}))
			outcome.Success = false
			outcome.ProcessedItems = 0
			outcome.Items = []models.NormalizedItem{}
			outcome.Error = fmt.Sprintf("internal error: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		outcome.Error = "run aborted: " + err.Error()
		outcome.Items = []models.NormalizedItem{}
		return outcome
	}

	adapter := a.registry.Resolve(p.platform)
	if adapter == nil {
		outcome.Error = "no handler for platform: " + p.platform
		outcome.Items = []models.NormalizedItem{}
		return outcome
	}

	pairCtx, cancel := context.WithTimeout(ctx, a.pairTimeout)
	defer cancel()

	result := adapter.Fetch(pairCtx, sources.FetchRequest{
		Source:     p.source,
		Identifier: p.identifier,
	})

	outcome.Success = result.Success
	outcome.ProcessedItems = result.ProcessedItems
	outcome.Items = result.Items
	outcome.Error = result.Error
	outcome.Warnings = result.Warnings
	if outcome.Items == nil {
		outcome.Items = []models.NormalizedItem{}
	}
	return outcome
}

// expandPairs crosses each source with its selected platforms,
// preserving source order and each source's platform order.
func expandPairs(srcs []models.Source) []pair {
	pairs := make([]pair, 0, len(srcs))
	for _, src := range srcs {
		for _, platformKey := range src.SelectedPlatforms {
			// Identifiers may be stored under either the raw key the
			// user picked or its canonical form.
			identifier := src.Identifier(platformKey)
			if identifier == "" {
				identifier = src.Identifier(platform.Normalize(platformKey))
			}
			pairs = append(pairs, pair{
				index:      len(pairs),
				source:     src,
				platform:   platformKey,
				identifier: identifier,
			})
		}
	}
	return pairs
}

// CachedReport returns the owner's most recent cached run report
func (a *Aggregator) CachedReport(ownerID string) (*models.RunReport, bool) {
	if a.cache == nil {
		return nil, false
	}

	data, ok := a.cache.Get(reportCacheKey(ownerID))
	if !ok {
		return nil, false
	}

	var report models.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false
	}
	return &report, true
}

func reportCacheKey(ownerID string) string {
	return "run_report:" + ownerID
}
