package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/marketminds/engine/internal/gmail"
	"github.com/marketminds/engine/internal/logging"
	"github.com/marketminds/engine/internal/models"
	"github.com/marketminds/engine/internal/platform"
	"github.com/marketminds/engine/internal/summarize"
)

// mailFetcher is the slice of the Gmail integration the adapter needs
type mailFetcher interface {
	Configured() bool
	FetchInbox(ctx context.Context, ownerID string, max int) ([]gmail.Message, error)
}

// EmailAdapter ingests the owner's connected inbox: messages that look
// like market content are summarized and persisted, the rest are
// dropped before they cost a summarization call.
type EmailAdapter struct {
	mail       mailFetcher
	store      ContentStore
	summarizer summarize.Summarizer
	config     AdapterConfig
	logger     *logging.Logger
}

func NewEmailAdapter(mail mailFetcher, store ContentStore, summarizer summarize.Summarizer, config AdapterConfig, logger *logging.Logger) *EmailAdapter {
	return &EmailAdapter{
		mail:       mail,
		store:      store,
		summarizer: summarizer,
		config:     config,
		logger:     logger,
	}
}

func (a *EmailAdapter) Platform() string {
	return platform.Email
}

func (a *EmailAdapter) Fetch(ctx context.Context, req FetchRequest) FetchResult {
	if a.mail == nil || !a.mail.Configured() {
		return failure("email integration not configured")
	}

	messages, err := a.mail.FetchInbox(ctx, req.Source.OwnerID, a.config.maxItems(req.MaxItems))
	if err != nil {
		return failure(fmt.Sprintf("failed to fetch inbox: %v", err))
	}

	items := make([]models.NormalizedItem, 0, len(messages))
	processed := 0
	filtered := 0

	for _, msg := range messages {
		if !gmail.Relevant(msg) {
			filtered++
			continue
		}

		externalID := "gmail:" + msg.ID
		item := models.NormalizedItem{
			Title:       msg.Subject,
			Author:      msg.From,
			PublishedAt: msg.Date,
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

		body := msg.Body
		if body == "" {
			body = msg.Snippet
		}

		summary, err := a.summarizer.Summarize(ctx, msg.Subject+"\n\n"+body, summarize.LengthBrief)
		if err != nil {
			item.Status = models.ItemStatusError
			item.Reason = fmt.Sprintf("summarization failed: %v", err)
			items = append(items, item)
			continue
		}

		persisted, err := a.store.Upsert(ctx, &models.ContentItem{
			OwnerID:     req.Source.OwnerID,
			Title:       msg.Subject,
			ContentType: "email",
			Platform:    platform.Email,
			Author:      msg.From,
			Summary:     summary.Summary,
			FullContent: body,
			NaturalKey:  req.Source.ID + ":" + externalID,
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

	if filtered > 0 {
		a.logger.Debug("Filtered irrelevant inbox messages", logging.WithField("count", filtered))
	}

	if processed == 0 && !hasErrors(items) {
		return emptyResult("No new relevant emails found", items)
	}

	return FetchResult{
		Success:        true,
		ProcessedItems: processed,
		Items:          items,
	}
}
