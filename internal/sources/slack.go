package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/marketminds/engine/internal/logging"
	"github.com/marketminds/engine/internal/models"
	"github.com/marketminds/engine/internal/platform"
)

// slackHistoryClient is the slice of the Slack Web API the adapter
// needs; narrowed for testability.
type slackHistoryClient interface {
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
}

// SlackAdapter reads recent messages from a channel via the Slack Web
// API. Messages are surfaced to the run transiently; they are not
// persisted as content items.
type SlackAdapter struct {
	client slackHistoryClient
	config AdapterConfig
	logger *logging.Logger
}

// NewSlackAdapter creates the adapter. token may be empty when the
// workspace integration is not configured; Fetch then reports a
// recoverable failure instead of crashing the run.
func NewSlackAdapter(token string, config AdapterConfig, logger *logging.Logger) *SlackAdapter {
	var client slackHistoryClient
	if token != "" {
		client = slack.New(token)
	}
	return &SlackAdapter{
		client: client,
		config: config,
		logger: logger,
	}
}

func (a *SlackAdapter) Platform() string {
	return platform.Slack
}

func (a *SlackAdapter) Fetch(ctx context.Context, req FetchRequest) FetchResult {
	if a.client == nil {
		return failure("Slack integration not configured: missing bot token")
	}

	channelID := strings.TrimSpace(req.Identifier)
	if channelID == "" {
		return failure("no Slack channel configured for this source")
	}

	history, err := a.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     a.config.maxItems(req.MaxItems),
	})
	if err != nil {
		return failure(fmt.Sprintf("failed to fetch Slack history for %s: %v", channelID, err))
	}

	items := make([]models.NormalizedItem, 0, len(history.Messages))
	for _, msg := range history.Messages {
		items = append(items, models.NormalizedItem{
			Text:        msg.Text,
			User:        msg.User,
			Timestamp:   msg.Timestamp,
			PublishedAt: slackTimestamp(msg.Timestamp),
			Type:        msg.Type,
			Status:      models.ItemStatusFetched,
		})
	}

	if len(items) == 0 {
		return emptyResult("No messages found in channel", items)
	}

	return FetchResult{
		Success:        true,
		ProcessedItems: len(items),
		Items:          items,
	}
}

// slackTimestamp converts Slack's fractional-seconds "ts" value
// (e.g. "1705318496.001400") to a UTC instant.
func slackTimestamp(ts string) time.Time {
	secPart, fracPart, _ := strings.Cut(ts, ".")

	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return time.Time{}
	}

	var nsec int64
	if fracPart != "" {
		// Slack uses microsecond precision; pad/truncate to 6 digits.
		if len(fracPart) > 6 {
			fracPart = fracPart[:6]
		}
		for len(fracPart) < 6 {
			fracPart += "0"
		}
		if micros, err := strconv.ParseInt(fracPart, 10, 64); err == nil {
			nsec = micros * 1000
		}
	}

	return time.Unix(sec, nsec).UTC()
}
