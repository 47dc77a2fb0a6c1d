package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/marketminds/engine/internal/auth"
	"github.com/marketminds/engine/internal/logging"
	"github.com/marketminds/engine/internal/models"
	"github.com/marketminds/engine/internal/platform"
)

// SourcesAPI handles HTTP API requests for source management
type SourcesAPI struct {
	sourceSvc      SourceService
	authMiddleware *auth.Middleware
	logger         *logging.Logger
}

// NewSourcesAPI creates a new sources API handler
func NewSourcesAPI(sourceSvc SourceService, authMiddleware *auth.Middleware, logger *logging.Logger) *SourcesAPI {
	return &SourcesAPI{
		sourceSvc:      sourceSvc,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

// RegisterRoutes registers source routes on the given mux
func (api *SourcesAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/sources", corsMiddleware(api.authMiddleware.RequireAuth(api.handleSources)))
	mux.HandleFunc("/api/sources/", corsMiddleware(api.authMiddleware.RequireAuth(api.handleSourceItem)))
}

// handleSources handles list and create operations
func (api *SourcesAPI) handleSources(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		api.listSources(w, r)
	case http.MethodPost:
		api.createSource(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSourceItem handles operations on a single source
func (api *SourcesAPI) handleSourceItem(w http.ResponseWriter, r *http.Request) {
	sourceID := strings.TrimPrefix(r.URL.Path, "/api/sources/")
	if sourceID == "" || strings.Contains(sourceID, "/") {
		writeError(w, http.StatusNotFound, "not_found", "source not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		api.getSource(w, r, sourceID)
	case http.MethodPut, http.MethodPatch:
		api.updateSource(w, r, sourceID)
	case http.MethodDelete:
		api.deleteSource(w, r, sourceID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *SourcesAPI) listSources(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	srcs, err := api.sourceSvc.ListByOwner(r.Context(), userID)
	if err != nil {
		api.logger.Error("Source list failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sources": srcs,
		"count":   len(srcs),
	})
}

func (api *SourcesAPI) createSource(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())

	var params models.CreateSourceParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}

	if strings.TrimSpace(params.SourceName) == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "sourceName is required")
		return
	}
	if len(params.SelectedPlatforms) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_input", "at least one platform is required")
		return
	}
	for _, key := range params.SelectedPlatforms {
		if !platform.Known(platform.Normalize(key)) {
			writeError(w, http.StatusBadRequest, "invalid_input", "unknown platform: "+key)
			return
		}
	}

	source, err := api.sourceSvc.Create(r.Context(), userID, params)
	if err != nil {
		api.logger.Error("Source create failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, source)
}

func (api *SourcesAPI) getSource(w http.ResponseWriter, r *http.Request, sourceID string) {
	userID := auth.GetUserID(r.Context())

	source, err := api.sourceSvc.Get(r.Context(), userID, sourceID)
	if err != nil {
		api.logger.Error("Source get failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if source == nil {
		writeError(w, http.StatusNotFound, "not_found", "source not found")
		return
	}

	writeJSON(w, http.StatusOK, source)
}

func (api *SourcesAPI) updateSource(w http.ResponseWriter, r *http.Request, sourceID string) {
	userID := auth.GetUserID(r.Context())

	var params models.UpdateSourceParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}

	if params.SelectedPlatforms != nil {
		for _, key := range *params.SelectedPlatforms {
			if !platform.Known(platform.Normalize(key)) {
				writeError(w, http.StatusBadRequest, "invalid_input", "unknown platform: "+key)
				return
			}
		}
	}

	source, err := api.sourceSvc.Update(r.Context(), userID, sourceID, params)
	if err != nil {
		api.logger.Error("Source update failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if source == nil {
		writeError(w, http.StatusNotFound, "not_found", "source not found")
		return
	}

	writeJSON(w, http.StatusOK, source)
}

func (api *SourcesAPI) deleteSource(w http.ResponseWriter, r *http.Request, sourceID string) {
	userID := auth.GetUserID(r.Context())

	deleted, err := api.sourceSvc.Delete(r.Context(), userID, sourceID)
	if err != nil {
		api.logger.Error("Source delete failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "not_found", "source not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
