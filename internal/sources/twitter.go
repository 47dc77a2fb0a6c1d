package sources

import (
	"context"
	"crypto/sha1"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marketminds/engine/internal/logging"
	"github.com/marketminds/engine/internal/models"
	"github.com/marketminds/engine/internal/platform"
	"github.com/marketminds/engine/internal/ratelimit"
	"github.com/marketminds/engine/internal/summarize"
)

// TwitterAdapter ingests a profile timeline through an RSS mirror.
// Public mirrors rotate, so the base URL is configurable.
type TwitterAdapter struct {
	parser    feedParser
	store     ContentStore
	scorer    summarize.SentimentScorer
	limiter   *ratelimit.Limiter
	config    AdapterConfig
	mirrorURL string
	logger    *logging.Logger
}

func NewTwitterAdapter(store ContentStore, scorer summarize.SentimentScorer, limiter *ratelimit.Limiter, config AdapterConfig, mirrorURL string, logger *logging.Logger) *TwitterAdapter {
	if mirrorURL == "" {
		mirrorURL = "https://nitter.net"
	}
	return &TwitterAdapter{
		parser:    newFeedParser(config),
		store:     store,
		scorer:    scorer,
		limiter:   limiter,
		config:    config,
		mirrorURL: strings.TrimRight(mirrorURL, "/"),
		logger:    logger,
	}
}

func (a *TwitterAdapter) Platform() string {
	return platform.Twitter
}

func (a *TwitterAdapter) Fetch(ctx context.Context, req FetchRequest) FetchResult {
	handle := strings.TrimPrefix(strings.TrimSpace(req.Identifier), "@")
	if handle == "" {
		return failure("no Twitter handle configured for this source")
	}

	a.limiter.Wait(hostOf(a.mirrorURL))

	feedURL := fmt.Sprintf("%s/%s/rss", a.mirrorURL, handle)
	entries, err := a.parser.parseFeed(ctx, feedURL)
	if err != nil {
		return failure(fmt.Sprintf("failed to fetch timeline for @%s: %v", handle, err))
	}

	max := a.config.maxItems(req.MaxItems)
	items := make([]models.NormalizedItem, 0, max)
	processed := 0

	for i, entry := range entries {
		if i >= max {
			break
		}

		externalID := tweetID(entry)
		item := models.NormalizedItem{
			Title:       entry.Title,
			URL:         entry.Link,
			Author:      "@" + handle,
			PublishedAt: entry.Published,
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

		persisted, err := a.store.Upsert(ctx, &models.ContentItem{
			OwnerID:     req.Source.OwnerID,
			Title:       entry.Title,
			ContentType: "tweet",
			Platform:    platform.Twitter,
			OriginalURL: entry.Link,
			Author:      "@" + handle,
			FullContent: entry.Description,
			NaturalKey:  req.Source.ID + ":" + externalID,
			Metadata: models.ContentMetadata{
				Sentiment:   a.scorer.Score(entry.Title),
				ProcessedAt: time.Now().UTC(),
			},
		})
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
		return emptyResult(fmt.Sprintf("No new tweets found for @%s", handle), items)
	}

	return FetchResult{
		Success:        true,
		ProcessedItems: processed,
		Items:          items,
	}
}

// tweetID generates an entry id falling back through guid, title, and
// link. Titles and links are hashed so the id stays a compact token.
func tweetID(entry RawEntry) string {
	if entry.GUID != "" {
		return entry.GUID
	}
	if entry.Title != "" {
		return fmt.Sprintf("%x", sha1.Sum([]byte(entry.Title)))
	}
	if entry.Link != "" {
		return fmt.Sprintf("%x", sha1.Sum([]byte(entry.Link)))
	}
	return uuid.NewString()
}
