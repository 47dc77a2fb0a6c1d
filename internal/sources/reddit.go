package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/marketminds/engine/internal/logging"
	"github.com/marketminds/engine/internal/models"
	"github.com/marketminds/engine/internal/platform"
	"github.com/marketminds/engine/internal/ratelimit"
	"github.com/marketminds/engine/internal/summarize"
)

// RedditAdapter ingests a subreddit's public Atom feed
type RedditAdapter struct {
	parser  feedParser
	store   ContentStore
	scorer  summarize.SentimentScorer
	limiter *ratelimit.Limiter
	config  AdapterConfig
	logger  *logging.Logger
}

func NewRedditAdapter(store ContentStore, scorer summarize.SentimentScorer, limiter *ratelimit.Limiter, config AdapterConfig, logger *logging.Logger) *RedditAdapter {
	return &RedditAdapter{
		parser:  newFeedParser(config),
		store:   store,
		scorer:  scorer,
		limiter: limiter,
		config:  config,
		logger:  logger,
	}
}

func (a *RedditAdapter) Platform() string {
	return platform.Reddit
}

func (a *RedditAdapter) Fetch(ctx context.Context, req FetchRequest) FetchResult {
	subreddit := canonicalSubreddit(req.Identifier)
	if subreddit == "" {
		return failure("no subreddit configured for this source")
	}

	a.limiter.Wait("www.reddit.com")

	feedURL := fmt.Sprintf("https://www.reddit.com/r/%s.rss", subreddit)
	entries, err := a.parser.parseFeed(ctx, feedURL)
	if err != nil {
		return failure(fmt.Sprintf("failed to fetch r/%s: %v", subreddit, err))
	}

	max := a.config.maxItems(req.MaxItems)
	items := make([]models.NormalizedItem, 0, max)
	processed := 0

	for i, entry := range entries {
		if i >= max {
			break
		}

		item := models.NormalizedItem{
			Title:       entry.Title,
			URL:         entry.Link,
			Author:      entry.Author,
			PublishedAt: entry.Published,
			Content:     entry.Content,
		}

		exists, err := a.store.ExistsByURL(ctx, req.Source.OwnerID, entry.Link)
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
			ContentType: "post",
			Platform:    platform.Reddit,
			OriginalURL: entry.Link,
			Author:      entry.Author,
			FullContent: entry.Content,
			NaturalKey:  entry.Link,
			Metadata: models.ContentMetadata{
				Sentiment:   a.scorer.Score(entry.Title + " " + entry.Content),
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
		return emptyResult(fmt.Sprintf("No new posts found in r/%s", subreddit), items)
	}

	return FetchResult{
		Success:        true,
		ProcessedItems: processed,
		Items:          items,
	}
}

// canonicalSubreddit converts "r/stocks", "/r/stocks/", or a bare
// "stocks" to the plain subreddit name.
func canonicalSubreddit(identifier string) string {
	name := strings.TrimSpace(identifier)
	name = strings.Trim(name, "/")
	name = strings.TrimPrefix(name, "r/")
	return strings.Trim(name, "/")
}
