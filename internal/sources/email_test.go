package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marketminds/engine/internal/gmail"
	"github.com/marketminds/engine/internal/models"
	"github.com/marketminds/engine/internal/summarize"
)

type fakeMail struct {
	configured bool
	messages   []gmail.Message
	err        error
}

func (f *fakeMail) Configured() bool { return f.configured }

func (f *fakeMail) FetchInbox(_ context.Context, _ string, _ int) ([]gmail.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.messages, nil
}

func TestEmailAdapterNotConfigured(t *testing.T) {
	adapter := NewEmailAdapter(&fakeMail{configured: false}, newFakeStore(), &fakeSummarizer{}, DefaultConfig(), testLogger())

	result := adapter.Fetch(context.Background(), FetchRequest{Source: testSource()})

	if result.Success {
		t.Fatal("expected failure when the integration is not configured")
	}
}

func TestEmailAdapterProcessesRelevantMessages(t *testing.T) {
	store := newFakeStore()
	mail := &fakeMail{
		configured: true,
		messages: []gmail.Message{
			{ID: "m1", Subject: "Market recap: stocks rally", Body: "The S&P gained 2%.", Date: time.Now()},
			{ID: "m2", Subject: "Your receipt", Body: "Thanks for your order."},
		},
	}
	summarizer := &fakeSummarizer{summary: &summarize.Summary{
		Summary:   "Stocks rallied.",
		Tags:      []string{"stocks"},
		Sentiment: models.SentimentBullish,
	}}

	adapter := NewEmailAdapter(mail, store, summarizer, DefaultConfig(), testLogger())
	result := adapter.Fetch(context.Background(), FetchRequest{Source: testSource()})

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.ProcessedItems != 1 {
		t.Fatalf("ProcessedItems = %d, want 1 (receipt filtered)", result.ProcessedItems)
	}
	if len(store.persisted) != 1 {
		t.Fatalf("persisted %d items, want 1", len(store.persisted))
	}

	stored := store.persisted[0]
	if stored.NaturalKey != "src-1:gmail:m1" {
		t.Errorf("NaturalKey = %q, want src-1:gmail:m1", stored.NaturalKey)
	}
	if stored.Metadata.Sentiment != models.SentimentBullish {
		t.Errorf("Sentiment = %q, want bullish", stored.Metadata.Sentiment)
	}
}

func TestEmailAdapterSkipsKnownMessages(t *testing.T) {
	store := newFakeStore()
	store.byExtID["owner-1|src-1:gmail:m1"] = true

	mail := &fakeMail{
		configured: true,
		messages: []gmail.Message{
			{ID: "m1", Subject: "Market recap", Body: "stocks"},
		},
	}

	adapter := NewEmailAdapter(mail, store, &fakeSummarizer{}, DefaultConfig(), testLogger())
	result := adapter.Fetch(context.Background(), FetchRequest{Source: testSource()})

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.ProcessedItems != 0 {
		t.Errorf("ProcessedItems = %d, want 0", result.ProcessedItems)
	}
	if result.Items[0].Status != models.ItemStatusSkipped {
		t.Errorf("Status = %q, want skipped", result.Items[0].Status)
	}
}

func TestEmailAdapterSummarizerFailureIsItemError(t *testing.T) {
	mail := &fakeMail{
		configured: true,
		messages: []gmail.Message{
			{ID: "m1", Subject: "Earnings preview", Body: "big tech earnings"},
		},
	}

	adapter := NewEmailAdapter(mail, newFakeStore(), &fakeSummarizer{err: errors.New("model unavailable")}, DefaultConfig(), testLogger())
	result := adapter.Fetch(context.Background(), FetchRequest{Source: testSource()})

	if !result.Success {
		t.Fatal("summarizer failure must not fail the whole fetch")
	}
	if result.Items[0].Status != models.ItemStatusError {
		t.Errorf("Status = %q, want error", result.Items[0].Status)
	}
}

func TestEmailAdapterInboxFailure(t *testing.T) {
	mail := &fakeMail{configured: true, err: errors.New("token revoked")}

	adapter := NewEmailAdapter(mail, newFakeStore(), &fakeSummarizer{}, DefaultConfig(), testLogger())
	result := adapter.Fetch(context.Background(), FetchRequest{Source: testSource()})

	if result.Success {
		t.Fatal("expected failure when the inbox fetch errors")
	}
}
