package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marketminds/engine/internal/models"
)

type fakeContentLister struct {
	items      []models.ContentItem
	lastParams models.ContentListParams
}

func (f *fakeContentLister) ListByOwner(_ context.Context, _ string, params models.ContentListParams) ([]models.ContentItem, error) {
	f.lastParams = params
	return f.items, nil
}

func TestContentList(t *testing.T) {
	svc, middleware := testAuth(t)
	lister := &fakeContentLister{items: []models.ContentItem{
		{ID: "c-1", Title: "Fed minutes recap", Platform: "rss"},
		{ID: "c-2", Title: "Earnings call breakdown", Platform: "youtube"},
	}}
	server := New(&fakeRunner{}, nil, lister, nil, middleware, "", testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/content?platform=Substack&limit=10&offset=5", nil)
	req.Header.Set("Authorization", bearerFor(t, svc, "user-1"))
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	// The raw platform key is canonicalized before it reaches storage.
	if lister.lastParams.Platform != "rss" {
		t.Errorf("Platform = %q, want rss", lister.lastParams.Platform)
	}
	if lister.lastParams.Limit != 10 || lister.lastParams.Offset != 5 {
		t.Errorf("params = %+v", lister.lastParams)
	}

	var response struct {
		Items []models.ContentItem `json:"items"`
		Count int                  `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Count != 2 {
		t.Errorf("count = %d, want 2", response.Count)
	}
}

func TestContentListRequiresAuth(t *testing.T) {
	_, middleware := testAuth(t)
	server := New(&fakeRunner{}, nil, &fakeContentLister{}, nil, middleware, "", testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/content", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
