package aggregator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/marketminds/engine/internal/cache"
	"github.com/marketminds/engine/internal/logging"
	"github.com/marketminds/engine/internal/models"
	"github.com/marketminds/engine/internal/sources"
)

type fakeSourceStore struct {
	sources map[string][]models.Source
	owners  []string
	listErr map[string]error
	allErr  error
}

func (s *fakeSourceStore) ListByOwner(_ context.Context, ownerID string) ([]models.Source, error) {
	if err := s.listErr[ownerID]; err != nil {
		return nil, err
	}
	return s.sources[ownerID], nil
}

func (s *fakeSourceStore) ListOwnersWithSources(_ context.Context) ([]string, error) {
	if s.allErr != nil {
		return nil, s.allErr
	}
	return s.owners, nil
}

// stubAdapter returns a canned result and records invocations
type stubAdapter struct {
	platform string
	result   sources.FetchResult
	calls    int
	lastReq  sources.FetchRequest
}

func (a *stubAdapter) Platform() string { return a.platform }

func (a *stubAdapter) Fetch(_ context.Context, req sources.FetchRequest) sources.FetchResult {
	a.calls++
	a.lastReq = req
	return a.result
}

type panicAdapter struct {
	platform string
}

func (a *panicAdapter) Platform() string { return a.platform }

func (a *panicAdapter) Fetch(context.Context, sources.FetchRequest) sources.FetchResult {
	panic("adapter blew up")
}

func testLogger() *logging.Logger {
	return logging.New(logging.LevelError)
}

func okResult(processed int) sources.FetchResult {
	return sources.FetchResult{
		Success:        true,
		ProcessedItems: processed,
		Items:          make([]models.NormalizedItem, processed),
	}
}

func TestRunFansOutAcrossPlatforms(t *testing.T) {
	store := &fakeSourceStore{sources: map[string][]models.Source{
		"owner-1": {
			{
				ID:                "src-1",
				OwnerID:           "owner-1",
				SourceName:        "Analyst A",
				SelectedPlatforms: []string{"youtube", "rss"},
				PlatformIdentifiers: map[string]string{
					"youtube": "UCabc",
					"rss":     "https://a.example.com/feed",
				},
			},
			{
				ID:                  "src-2",
				OwnerID:             "owner-1",
				SourceName:          "Analyst B",
				SelectedPlatforms:   []string{"reddit"},
				PlatformIdentifiers: map[string]string{"reddit": "stocks"},
			},
		},
	}}

	yt := &stubAdapter{platform: "youtube", result: okResult(2)}
	rss := &stubAdapter{platform: "rss", result: okResult(1)}
	reddit := &stubAdapter{platform: "reddit", result: okResult(3)}

	registry := sources.NewRegistry()
	registry.Register(yt)
	registry.Register(rss)
	registry.Register(reddit)

	agg := New(store, registry, testLogger())
	report, err := agg.Run(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !report.Success {
		t.Error("report.Success must be true even for mixed outcomes")
	}
	if report.ProcessedCount != 6 {
		t.Errorf("ProcessedCount = %d, want 6", report.ProcessedCount)
	}
	if len(report.Results) != 3 {
		t.Fatalf("len(Results) = %d, want 3", len(report.Results))
	}

	// Outcomes appear in source listing order, platforms in each
	// source's configured order.
	wantOrder := []struct{ sourceID, platform string }{
		{"src-1", "youtube"},
		{"src-1", "rss"},
		{"src-2", "reddit"},
	}
	for i, want := range wantOrder {
		got := report.Results[i]
		if got.SourceID != want.sourceID || got.Platform != want.platform {
			t.Errorf("Results[%d] = (%s, %s), want (%s, %s)", i, got.SourceID, got.Platform, want.sourceID, want.platform)
		}
	}

	if yt.lastReq.Identifier != "UCabc" {
		t.Errorf("youtube identifier = %q, want UCabc", yt.lastReq.Identifier)
	}
}

func TestRunMissingHandlerIsFailedOutcome(t *testing.T) {
	store := &fakeSourceStore{sources: map[string][]models.Source{
		"owner-1": {
			{
				ID:                "src-1",
				OwnerID:           "owner-1",
				SelectedPlatforms: []string{"tiktok", "rss"},
				PlatformIdentifiers: map[string]string{
					"rss": "https://a.example.com/feed",
				},
			},
		},
	}}

	registry := sources.NewRegistry()
	registry.Register(&stubAdapter{platform: "rss", result: okResult(1)})

	agg := New(store, registry, testLogger())
	report, err := agg.Run(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Results[0].Success {
		t.Error("unhandled platform must produce a failed outcome")
	}
	if !strings.Contains(report.Results[0].Error, "no handler for platform: tiktok") {
		t.Errorf("Error = %q", report.Results[0].Error)
	}
	if !report.Results[1].Success {
		t.Error("other platforms must still run")
	}
	if report.ProcessedCount != 1 {
		t.Errorf("ProcessedCount = %d, want 1", report.ProcessedCount)
	}
}

func TestRunIsolatesPanickingAdapter(t *testing.T) {
	store := &fakeSourceStore{sources: map[string][]models.Source{
		"owner-1": {
			{
				ID:                "src-1",
				OwnerID:           "owner-1",
				SelectedPlatforms: []string{"youtube", "rss"},
			},
		},
	}}

	registry := sources.NewRegistry()
	registry.Register(&panicAdapter{platform: "youtube"})
	registry.Register(&stubAdapter{platform: "rss", result: okResult(2)})

	agg := New(store, registry, testLogger())
	report, err := agg.Run(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("a panicking adapter must not fail the run: %v", err)
	}

	if report.Results[0].Success {
		t.Error("panicked pair must be a failed outcome")
	}
	if !strings.Contains(report.Results[0].Error, "internal error") {
		t.Errorf("Error = %q", report.Results[0].Error)
	}
	if !report.Results[1].Success || report.ProcessedCount != 2 {
		t.Errorf("healthy pair must complete; report = %+v", report)
	}
}

func TestRunSourceListingFailure(t *testing.T) {
	store := &fakeSourceStore{listErr: map[string]error{"owner-1": errors.New("db down")}}

	agg := New(store, sources.NewRegistry(), testLogger())
	if _, err := agg.Run(context.Background(), "owner-1"); err == nil {
		t.Fatal("expected error when the source listing fails")
	}
}

func TestRunNoSources(t *testing.T) {
	store := &fakeSourceStore{}

	agg := New(store, sources.NewRegistry(), testLogger())
	report, err := agg.Run(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !report.Success || len(report.Results) != 0 || report.ProcessedCount != 0 {
		t.Errorf("empty owner should yield an empty successful report, got %+v", report)
	}
}

func TestRunCachesReport(t *testing.T) {
	store := &fakeSourceStore{sources: map[string][]models.Source{
		"owner-1": {
			{
				ID:                  "src-1",
				OwnerID:             "owner-1",
				SelectedPlatforms:   []string{"rss"},
				PlatformIdentifiers: map[string]string{"rss": "https://a.example.com/feed"},
			},
		},
	}}

	registry := sources.NewRegistry()
	registry.Register(&stubAdapter{platform: "rss", result: okResult(4)})

	c := cache.NewMemory(time.Minute)
	agg := New(store, registry, testLogger(), WithCache(c))

	if _, ok := agg.CachedReport("owner-1"); ok {
		t.Fatal("no report should be cached before a run")
	}

	if _, err := agg.Run(context.Background(), "owner-1"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	cached, ok := agg.CachedReport("owner-1")
	if !ok {
		t.Fatal("expected a cached report after the run")
	}
	if cached.ProcessedCount != 4 {
		t.Errorf("cached ProcessedCount = %d, want 4", cached.ProcessedCount)
	}
}

func TestSyncAllContinuesPastFailingOwner(t *testing.T) {
	store := &fakeSourceStore{
		owners: []string{"owner-1", "owner-2", "owner-3"},
		sources: map[string][]models.Source{
			"owner-1": {{ID: "s1", OwnerID: "owner-1", SelectedPlatforms: []string{"rss"}}},
			"owner-3": {{ID: "s3", OwnerID: "owner-3", SelectedPlatforms: []string{"rss"}}},
		},
		listErr: map[string]error{"owner-2": errors.New("db down")},
	}

	registry := sources.NewRegistry()
	registry.Register(&stubAdapter{platform: "rss", result: okResult(2)})

	agg := New(store, registry, testLogger())
	summary, err := agg.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll() error = %v", err)
	}

	if summary.TotalUsers != 3 {
		t.Errorf("TotalUsers = %d, want 3", summary.TotalUsers)
	}
	if summary.SuccessfulUsers != 2 {
		t.Errorf("SuccessfulUsers = %d, want 2", summary.SuccessfulUsers)
	}
	if summary.FailedUsers != 1 {
		t.Errorf("FailedUsers = %d, want 1", summary.FailedUsers)
	}
	if summary.TotalItemsProcessed != 4 {
		t.Errorf("TotalItemsProcessed = %d, want 4", summary.TotalItemsProcessed)
	}

	if len(summary.UserResults) != 3 {
		t.Fatalf("len(UserResults) = %d, want 3", len(summary.UserResults))
	}
	if summary.UserResults[1].Success || summary.UserResults[1].Error == "" {
		t.Errorf("owner-2 result = %+v, want recorded failure", summary.UserResults[1])
	}
}

func TestSyncAllOwnerListingFailure(t *testing.T) {
	store := &fakeSourceStore{allErr: errors.New("db down")}

	agg := New(store, sources.NewRegistry(), testLogger())
	if _, err := agg.SyncAll(context.Background()); err == nil {
		t.Fatal("expected error when the owner listing fails")
	}
}

func TestRunConcurrencyBound(t *testing.T) {
	const pairCount = 12

	srcs := make([]models.Source, pairCount)
	for i := range srcs {
		srcs[i] = models.Source{
			ID:                "src",
			OwnerID:           "owner-1",
			SelectedPlatforms: []string{"rss"},
		}
	}
	store := &fakeSourceStore{sources: map[string][]models.Source{"owner-1": srcs}}

	var mu = make(chan struct{}, 1)
	active, peak := 0, 0
	adapter := &concurrencyProbe{platform: "rss", mu: mu, active: &active, peak: &peak}

	registry := sources.NewRegistry()
	registry.Register(adapter)

	agg := New(store, registry, testLogger(), WithConcurrency(3))
	if _, err := agg.Run(context.Background(), "owner-1"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if peak > 3 {
		t.Errorf("peak concurrency = %d, want at most 3", peak)
	}
}

type concurrencyProbe struct {
	platform string
	mu       chan struct{}
	active   *int
	peak     *int
}

func (a *concurrencyProbe) Platform() string { return a.platform }

func (a *concurrencyProbe) Fetch(context.Context, sources.FetchRequest) sources.FetchResult {
	a.mu <- struct{}{}
	*a.active++
	if *a.active > *a.peak {
		*a.peak = *a.active
	}
	<-a.mu

	time.Sleep(5 * time.Millisecond)

	a.mu <- struct{}{}
	*a.active--
	<-a.mu

	return sources.FetchResult{Success: true}
}
