package sources

import (
	"context"
	"crypto/sha1"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marketminds/engine/internal/logging"
	"github.com/marketminds/engine/internal/models"
	"github.com/marketminds/engine/internal/platform"
	"github.com/marketminds/engine/internal/ratelimit"
	"github.com/marketminds/engine/internal/summarize"
)

// RSSAdapter ingests RSS/Atom feeds. Newsletters and Substack
// publications dispatch here via platform-key normalization.
type RSSAdapter struct {
	parser  feedParser
	store   ContentStore
	scorer  summarize.SentimentScorer
	limiter *ratelimit.Limiter
	config  AdapterConfig
	logger  *logging.Logger
}

func NewRSSAdapter(store ContentStore, scorer summarize.SentimentScorer, limiter *ratelimit.Limiter, config AdapterConfig, logger *logging.Logger) *RSSAdapter {
	return &RSSAdapter{
		parser:  newFeedParser(config),
		store:   store,
		scorer:  scorer,
		limiter: limiter,
		config:  config,
		logger:  logger,
	}
}

func (a *RSSAdapter) Platform() string {
	return platform.RSS
}

func (a *RSSAdapter) Fetch(ctx context.Context, req FetchRequest) FetchResult {
	feedURL := strings.TrimSpace(req.Identifier)
	if feedURL == "" {
		return failure("no feed URL configured for this source")
	}

	a.limiter.Wait(hostOf(feedURL))

	entries, err := a.parser.parseFeed(ctx, feedURL)
	if err != nil {
		return failure(fmt.Sprintf("failed to fetch feed %s: %v", feedURL, err))
	}

	max := a.config.maxItems(req.MaxItems)
	items := make([]models.NormalizedItem, 0, max)
	processed := 0

	for i, entry := range entries {
		if i >= max {
			break
		}

		externalID := externalEntryID(entry)
		item := models.NormalizedItem{
			Title:       entry.Title,
			URL:         entry.Link,
			Author:      entry.Author,
			PublishedAt: entry.Published,
			Summary:     entry.Description,
			ExternalID:  externalID,
		}

		exists, err := a.store.ExistsByExternalID(ctx, req.Source.OwnerID, req.Source.ID, externalID)
		if err != nil {
			item.Status = models.ItemStatusError
			item.Reason = err.Error()
			items = append(items, item)
			continue
		}
		if exists {
			item.Status = models.ItemStatusSkipped
			item.Reason = "Already processed"
			items = append(items, item)
			continue
		}

		content := &models.ContentItem{
			OwnerID:     req.Source.OwnerID,
			Title:       entry.Title,
			ContentType: "article",
			Platform:    platform.RSS,
			OriginalURL: entry.Link,
			Author:      entry.Author,
			Summary:     entry.Description,
			FullContent: entry.Content,
			NaturalKey:  req.Source.ID + ":" + externalID,
			Metadata: models.ContentMetadata{
				Tags:        entry.Categories,
				Sentiment:   a.scorer.Score(entry.Title + " " + entry.Description),
				ProcessedAt: time.Now().UTC(),
			},
		}

		persisted, err := a.store.Upsert(ctx, content)
		if err != nil {
			item.Status = models.ItemStatusError
			item.Reason = err.Error()
			items = append(items, item)
			continue
		}

		item.Status = models.ItemStatusProcessed
		item.ContentID = persisted.ID
		items = append(items, item)
		processed++
	}

	if processed == 0 && !hasErrors(items) {
		result := emptyResult("No new feed items found", items)
		return result
	}

	return FetchResult{
		Success:        true,
		ProcessedItems: processed,
		Items:          items,
	}
}

// externalEntryID derives the dedup identity of a feed entry: the guid
// when present, a hash of the link otherwise, and a random token when
// the entry has neither.
func externalEntryID(entry RawEntry) string {
	if entry.GUID != "" {
		return entry.GUID
	}
	if entry.Link != "" {
		return fmt.Sprintf("%x", sha1.Sum([]byte(entry.Link)))
	}
	return uuid.NewString()
}

func hasErrors(items []models.NormalizedItem) bool {
	for _, item := range items {
		if item.Status == models.ItemStatusError {
			return true
		}
	}
	return false
}

func hostOf(rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return rawURL
}
