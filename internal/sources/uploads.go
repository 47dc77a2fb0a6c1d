package sources

import (
	"context"
	"fmt"

	"github.com/marketminds/engine/internal/logging"
	"github.com/marketminds/engine/internal/models"
	"github.com/marketminds/engine/internal/platform"
)

// UploadsAdapter surfaces the owner's previously uploaded documents.
// Uploads enter the system through the HTTP API, so a fetch is a pure
// read of what is already persisted; nothing new is ingested here.
type UploadsAdapter struct {
	store  ContentStore
	config AdapterConfig
	logger *logging.Logger
}

func NewUploadsAdapter(store ContentStore, config AdapterConfig, logger *logging.Logger) *UploadsAdapter {
	return &UploadsAdapter{
		store:  store,
		config: config,
		logger: logger,
	}
}

func (a *UploadsAdapter) Platform() string {
	return platform.Uploads
}

func (a *UploadsAdapter) Fetch(ctx context.Context, req FetchRequest) FetchResult {
	existing, err := a.store.ListByPlatform(ctx, req.Source.OwnerID, platform.Uploads, a.config.maxItems(req.MaxItems))
	if err != nil {
		return failure(fmt.Sprintf("failed to list uploaded documents: %v", err))
	}

	items := make([]models.NormalizedItem, 0, len(existing))
	for _, doc := range existing {
		items = append(items, models.NormalizedItem{
			Title:       doc.Title,
			URL:         doc.OriginalURL,
			Author:      doc.Author,
			PublishedAt: doc.CreatedAt,
			Summary:     doc.Summary,
			ContentID:   doc.ID,
			Status:      models.ItemStatusFetched,
		})
	}

	if len(items) == 0 {
		return emptyResult("No uploaded documents found", items)
	}

	return FetchResult{
		Success:        true,
		ProcessedItems: len(items),
		Items:          items,
	}
}
