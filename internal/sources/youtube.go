package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/marketminds/engine/internal/logging"
	"github.com/marketminds/engine/internal/models"
	"github.com/marketminds/engine/internal/platform"
	"github.com/marketminds/engine/internal/ratelimit"
	"github.com/marketminds/engine/internal/summarize"
)

const youtubeSearchURL = "https://www.googleapis.com/youtube/v3/search"

// youtubeMaxResults keeps per-run quota spend small; each processed
// video also costs a summarization call.
const youtubeMaxResults = 3

// YouTubeAdapter searches a channel's recent uploads, skips videos the
// owner already ingested, and summarizes the rest.
type YouTubeAdapter struct {
	apiKey     string
	store      ContentStore
	summarizer summarize.Summarizer
	limiter    *ratelimit.Limiter
	config     AdapterConfig
	client     *http.Client
	logger     *logging.Logger
}

func NewYouTubeAdapter(apiKey string, store ContentStore, summarizer summarize.Summarizer, limiter *ratelimit.Limiter, config AdapterConfig, logger *logging.Logger) *YouTubeAdapter {
	return &YouTubeAdapter{
		apiKey:     apiKey,
		store:      store,
		summarizer: summarizer,
		limiter:    limiter,
		config:     config,
		client:     &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

func (a *YouTubeAdapter) Platform() string {
	return platform.YouTube
}

type youtubeSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

func (a *YouTubeAdapter) Fetch(ctx context.Context, req FetchRequest) FetchResult {
	if a.apiKey == "" {
		return failure("YouTube API key not configured")
	}

	channelID := extractChannelID(req.Identifier)
	if channelID == "" {
		return failure("no YouTube channel configured for this source")
	}

	a.limiter.Wait("www.googleapis.com")

	videos, err := a.searchVideos(ctx, channelID)
	if err != nil {
		return failure(fmt.Sprintf("YouTube search failed for channel %s: %v", channelID, err))
	}

	items := make([]models.NormalizedItem, 0, len(videos.Items))
	processed := 0

	for _, video := range videos.Items {
		if video.ID.VideoID == "" {
			continue
		}

		watchURL := "https://www.youtube.com/watch?v=" + video.ID.VideoID
		publishedAt, _ := time.Parse(time.RFC3339, video.Snippet.PublishedAt)

		item := models.NormalizedItem{
			Title:       video.Snippet.Title,
			URL:         watchURL,
			Author:      video.Snippet.ChannelTitle,
			PublishedAt: publishedAt,
		}

		exists, err := a.store.ExistsByURL(ctx, req.Source.OwnerID, watchURL)
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

		summary, err := a.summarizer.Summarize(ctx,
			video.Snippet.Title+"\n\n"+video.Snippet.Description,
			summarize.LengthStandard,
		)
		if err != nil {
			item.Status = models.ItemStatusError
			item.Reason = fmt.Sprintf("summarization failed: %v", err)
			items = append(items, item)
			continue
		}

		persisted, err := a.store.Upsert(ctx, &models.ContentItem{
			OwnerID:     req.Source.OwnerID,
			Title:       video.Snippet.Title,
			ContentType: "video",
			Platform:    platform.YouTube,
			OriginalURL: watchURL,
			Author:      video.Snippet.ChannelTitle,
			Summary:     summary.Summary,
			FullContent: video.Snippet.Description,
			NaturalKey:  watchURL,
			Metadata: models.ContentMetadata{
				Tags:        summary.Tags,
				Sentiment:   summary.Sentiment,
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
		item.Summary = summary.Summary
		item.ContentID = persisted.ID
		items = append(items, item)
		processed++
	}

	if processed == 0 && !hasErrors(items) {
		return emptyResult("No new videos found", items)
	}

	return FetchResult{
		Success:        true,
		ProcessedItems: processed,
		Items:          items,
	}
}

func (a *YouTubeAdapter) searchVideos(ctx context.Context, channelID string) (*youtubeSearchResponse, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("channelId", channelID)
	params.Set("order", "date")
	params.Set("type", "video")
	params.Set("maxResults", fmt.Sprintf("%d", youtubeMaxResults))
	params.Set("key", a.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, youtubeSearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned HTTP %d", resp.StatusCode)
	}

	var data youtubeSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return &data, nil
}

var youtubeChannelRe = regexp.MustCompile(`(?:channel|user)/([a-zA-Z0-9_-]+)`)

// extractChannelID accepts a bare channel id or a full channel/user
// URL and returns the channel identifier.
func extractChannelID(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return ""
	}

	if matches := youtubeChannelRe.FindStringSubmatch(identifier); len(matches) > 1 {
		return matches[1]
	}

	// Bare identifiers pass through; anything else URL-shaped that we
	// could not pattern-match is unusable.
	if strings.Contains(identifier, "/") {
		return ""
	}
	return identifier
}
