package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/marketminds/engine/internal/logging"
	"github.com/marketminds/engine/internal/models"
)

const openAIRequestTimeout = 60 * time.Second

const systemPrompt = `You are a financial research assistant. Summarize the provided content for an investor audience.
Respond with a JSON object only, no prose: {"summary": string, "tags": [string], "sentiment": "bullish"|"bearish"|"neutral"}.`

var lengthInstructions = map[string]string{
	LengthBrief:    "Keep the summary to 1-2 sentences.",
	LengthStandard: "Keep the summary to one short paragraph.",
	LengthDetailed: "Write a detailed multi-paragraph summary covering all key points.",
}

// OpenAISummarizer implements Summarizer against the OpenAI chat API
type OpenAISummarizer struct {
	client *openai.Client
	model  string
	logger *logging.Logger
}

// NewOpenAI creates an OpenAI-backed summarizer. model may be empty to
// use the default.
func NewOpenAI(apiKey, model string, logger *logging.Logger) *OpenAISummarizer {
	if model == "" {
		model = openai.GPT4oMini
	}

	config := openai.DefaultConfig(apiKey)
	config.HTTPClient = &http.Client{Timeout: openAIRequestTimeout}

	return &OpenAISummarizer{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger,
	}
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, text string, lengthHint string) (*Summary, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("nothing to summarize")
	}

	instruction, ok := lengthInstructions[lengthHint]
	if !ok {
		instruction = lengthInstructions[LengthStandard]
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt + " " + instruction},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("summarization request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("summarization returned no choices")
	}

	summary, err := parseSummaryResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Summarized content", logging.WithFields(map[string]interface{}{
		"chars":     len(text),
		"sentiment": summary.Sentiment,
	}))

	return summary, nil
}

// parseSummaryResponse decodes the model's JSON reply, tolerating
// markdown code fences some models insist on adding.
func parseSummaryResponse(content string) (*Summary, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var summary Summary
	if err := json.Unmarshal([]byte(content), &summary); err != nil {
		return nil, fmt.Errorf("unexpected summarization response shape: %w", err)
	}

	switch summary.Sentiment {
	case models.SentimentBullish, models.SentimentBearish, models.SentimentNeutral:
	default:
		summary.Sentiment = models.SentimentNeutral
	}
	if summary.Tags == nil {
		summary.Tags = []string{}
	}

	return &summary, nil
}

var _ Summarizer = (*OpenAISummarizer)(nil)
