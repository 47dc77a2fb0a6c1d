package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// RawEntry is the platform-neutral view of one feed entry. The feed
// adapters map these into normalized items; parsing stays behind this
// boundary so adapter logic never touches XML.
type RawEntry struct {
	Title       string
	Link        string
	Author      string
	GUID        string
	Description string
	Content     string
	Published   time.Time
	Categories  []string
	Duration    string
	AudioURL    string
}

// feedParser fetches and parses an RSS/Atom feed into raw entries
type feedParser interface {
	parseFeed(ctx context.Context, url string) ([]RawEntry, error)
}

// httpStatusError reports a non-2xx feed response with its status code
type httpStatusError struct {
	status int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("feed request returned HTTP %d", e.status)
}

// gofeedParser implements feedParser over gofeed, handling RSS, Atom,
// and the iTunes podcast extensions uniformly.
type gofeedParser struct {
	parser    *gofeed.Parser
	client    *http.Client
	userAgent string
}

func newFeedParser(config AdapterConfig) *gofeedParser {
	return &gofeedParser{
		parser:    gofeed.NewParser(),
		client:    &http.Client{Timeout: config.Timeout},
		userAgent: config.UserAgent,
	}
}

func (p *gofeedParser) parseFeed(ctx context.Context, url string) ([]RawEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &httpStatusError{status: resp.StatusCode}
	}

	feed, err := p.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]RawEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entry := RawEntry{
			Title:       item.Title,
			Link:        item.Link,
			GUID:        item.GUID,
			Description: item.Description,
			Content:     item.Content,
			Categories:  item.Categories,
		}

		if item.PublishedParsed != nil {
			entry.Published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			entry.Published = *item.UpdatedParsed
		}

		if item.Author != nil {
			entry.Author = item.Author.Name
		}

		if item.ITunesExt != nil {
			entry.Duration = item.ITunesExt.Duration
		}
		for _, enclosure := range item.Enclosures {
			if enclosure.URL != "" {
				entry.AudioURL = enclosure.URL
				break
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
