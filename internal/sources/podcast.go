package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/marketminds/engine/internal/logging"
	"github.com/marketminds/engine/internal/models"
	"github.com/marketminds/engine/internal/platform"
	"github.com/marketminds/engine/internal/ratelimit"
	"github.com/marketminds/engine/internal/summarize"
)

// PodcastAdapter ingests podcast RSS feeds, carrying episode audio
// URLs and durations alongside the usual feed fields.
type PodcastAdapter struct {
	parser  feedParser
	store   ContentStore
	scorer  summarize.SentimentScorer
	limiter *ratelimit.Limiter
	config  AdapterConfig
	logger  *logging.Logger
}

func NewPodcastAdapter(store ContentStore, scorer summarize.SentimentScorer, limiter *ratelimit.Limiter, config AdapterConfig, logger *logging.Logger) *PodcastAdapter {
	return &PodcastAdapter{
		parser:  newFeedParser(config),
		store:   store,
		scorer:  scorer,
		limiter: limiter,
		config:  config,
		logger:  logger,
	}
}

func (a *PodcastAdapter) Platform() string {
	return platform.Podcasts
}

func (a *PodcastAdapter) Fetch(ctx context.Context, req FetchRequest) FetchResult {
	feedURL := strings.TrimSpace(req.Identifier)
	if feedURL == "" {
		return failure("no podcast feed URL configured for this source")
	}

	a.limiter.Wait(hostOf(feedURL))

	entries, err := a.parser.parseFeed(ctx, feedURL)
	if err != nil {
		return failure(fmt.Sprintf("failed to fetch podcast feed %s: %v", feedURL, err))
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
			Title:           entry.Title,
			URL:             entry.Link,
			Author:          entry.Author,
			PublishedAt:     entry.Published,
			Summary:         entry.Description,
			ExternalID:      externalID,
			AudioURL:        entry.AudioURL,
			DurationSeconds: parseDurationSeconds(entry.Duration),
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
			ContentType: "podcast",
			Platform:    platform.Podcasts,
			OriginalURL: entry.Link,
			Author:      entry.Author,
			Summary:     entry.Description,
			NaturalKey:  req.Source.ID + ":" + externalID,
			Metadata: models.ContentMetadata{
				Sentiment:   a.scorer.Score(entry.Title + " " + entry.Description),
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
		return emptyResult("No new episodes found", items)
	}

	return FetchResult{
		Success:        true,
		ProcessedItems: processed,
		Items:          items,
	}
}

// parseDurationSeconds converts an itunes:duration string in
// HH:MM:SS, MM:SS, or SS form to total seconds. Unparseable input
// yields zero.
func parseDurationSeconds(duration string) int {
	duration = strings.TrimSpace(duration)
	if duration == "" {
		return 0
	}

	parts := strings.Split(duration, ":")
	if len(parts) > 3 {
		return 0
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}
