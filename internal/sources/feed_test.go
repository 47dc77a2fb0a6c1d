package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>Market Wire</title>
    <item>
      <title>Fed holds rates steady</title>
      <link>https://example.com/fed-holds</link>
      <guid>fed-holds-1</guid>
      <description>The central bank left rates unchanged.</description>
      <category>macro</category>
      <pubDate>Mon, 15 Jan 2024 10:00:00 GMT</pubDate>
      <itunes:duration>12:30</itunes:duration>
      <enclosure url="https://cdn.example.com/ep1.mp3" type="audio/mpeg" length="1024"/>
    </item>
    <item>
      <title>Chip stocks extend rally</title>
      <link>https://example.com/chips</link>
      <guid>chips-2</guid>
      <description>Semis led the market higher.</description>
    </item>
  </channel>
</rss>`

func TestGofeedParserParsesRSS(t *testing.T) {
	var gotUserAgent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer ts.Close()

	parser := newFeedParser(DefaultConfig())
	entries, err := parser.parseFeed(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("parseFeed() error = %v", err)
	}

	if gotUserAgent != DefaultConfig().UserAgent {
		t.Errorf("User-Agent = %q, want %q", gotUserAgent, DefaultConfig().UserAgent)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	first := entries[0]
	if first.Title != "Fed holds rates steady" || first.GUID != "fed-holds-1" {
		t.Errorf("first entry = %+v", first)
	}
	if first.Duration != "12:30" {
		t.Errorf("Duration = %q, want 12:30", first.Duration)
	}
	if first.AudioURL != "https://cdn.example.com/ep1.mp3" {
		t.Errorf("AudioURL = %q", first.AudioURL)
	}
	if len(first.Categories) != 1 || first.Categories[0] != "macro" {
		t.Errorf("Categories = %v", first.Categories)
	}
	if first.Published.IsZero() {
		t.Error("Published should be parsed from pubDate")
	}
}

func TestGofeedParserHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	parser := newFeedParser(DefaultConfig())
	_, err := parser.parseFeed(context.Background(), ts.URL)
	if err == nil {
		t.Fatal("expected error for HTTP 429")
	}

	statusErr, ok := err.(*httpStatusError)
	if !ok {
		t.Fatalf("error type = %T, want *httpStatusError", err)
	}
	if statusErr.status != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", statusErr.status)
	}
}

func TestGofeedParserMalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a feed"))
	}))
	defer ts.Close()

	parser := newFeedParser(DefaultConfig())
	if _, err := parser.parseFeed(context.Background(), ts.URL); err == nil {
		t.Fatal("expected error for non-XML body")
	}
}

// End-to-end: a real feed served over httptest flowing through the RSS
// adapter twice; the second run must skip everything the first
// persisted.
func TestRSSAdapterIdempotentAcrossRuns(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleRSS))
	}))
	defer ts.Close()

	store := newFakeStore()
	adapter := NewRSSAdapter(store, fakeScorer{}, testLimiter(), DefaultConfig(), testLogger())

	req := FetchRequest{Source: testSource(), Identifier: ts.URL}

	first := adapter.Fetch(context.Background(), req)
	if !first.Success || first.ProcessedItems != 2 {
		t.Fatalf("first run = %+v", first)
	}

	second := adapter.Fetch(context.Background(), req)
	if !second.Success {
		t.Fatalf("second run failed: %q", second.Error)
	}
	if second.ProcessedItems != 0 {
		t.Errorf("second run ProcessedItems = %d, want 0", second.ProcessedItems)
	}
	if len(store.persisted) != 2 {
		t.Errorf("persisted %d items total, want 2", len(store.persisted))
	}
}
