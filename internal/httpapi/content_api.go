package httpapi

import (
	"net/http"
	"strconv"

	"github.com/marketminds/engine/internal/auth"
	"github.com/marketminds/engine/internal/logging"
	"github.com/marketminds/engine/internal/models"
	"github.com/marketminds/engine/internal/platform"
)

// ContentAPI handles HTTP API requests for aggregated content
type ContentAPI struct {
	contentSvc     ContentLister
	authMiddleware *auth.Middleware
	logger         *logging.Logger
}

// NewContentAPI creates a new content API handler
func NewContentAPI(contentSvc ContentLister, authMiddleware *auth.Middleware, logger *logging.Logger) *ContentAPI {
	return &ContentAPI{
		contentSvc:     contentSvc,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

// RegisterRoutes registers content routes on the given mux
func (api *ContentAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/content", corsMiddleware(api.authMiddleware.RequireAuth(api.handleContent)))
}

// handleContent lists the authenticated user's content, newest first
func (api *ContentAPI) handleContent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := auth.GetUserID(r.Context())
	query := r.URL.Query()

	params := models.ContentListParams{
		Limit: 50,
	}

	if p := query.Get("platform"); p != "" {
		params.Platform = platform.Normalize(p)
	}
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			params.Limit = parsed
		}
	}
	if o := query.Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			params.Offset = parsed
		}
	}

	items, err := api.contentSvc.ListByOwner(r.Context(), userID, params)
	if err != nil {
		api.logger.Error("Content list failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}
