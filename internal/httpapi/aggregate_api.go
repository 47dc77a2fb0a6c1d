package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/marketminds/engine/internal/auth"
	"github.com/marketminds/engine/internal/logging"
)

// aggregateTimeout bounds a full per-user run triggered over HTTP
const aggregateTimeout = 10 * time.Minute

// AggregateAPI handles per-user aggregation triggers
type AggregateAPI struct {
	runner         Runner
	authMiddleware *auth.Middleware
	logger         *logging.Logger
}

// NewAggregateAPI creates a new aggregation API handler
func NewAggregateAPI(runner Runner, authMiddleware *auth.Middleware, logger *logging.Logger) *AggregateAPI {
	return &AggregateAPI{
		runner:         runner,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

// RegisterRoutes registers aggregation routes on the given mux
func (api *AggregateAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/aggregate", corsMiddleware(api.authMiddleware.RequireAuth(api.handleAggregate)))
	mux.HandleFunc("/api/aggregate/latest", corsMiddleware(api.authMiddleware.RequireAuth(api.handleLatest)))
}

// handleAggregate runs aggregation for the authenticated user
func (api *AggregateAPI) handleAggregate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := auth.GetUserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), aggregateTimeout)
	defer cancel()

	report, err := api.runner.Run(ctx, userID)
	if err != nil {
		api.logger.Error("Aggregation run failed", logging.WithFields(map[string]interface{}{
			"owner": userID,
			"error": err.Error(),
		}))
		writeError(w, http.StatusInternalServerError, "aggregation_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// handleLatest returns the user's most recent cached run report
func (api *AggregateAPI) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := auth.GetUserID(r.Context())

	report, ok := api.runner.CachedReport(userID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no recent run report")
		return
	}

	writeJSON(w, http.StatusOK, report)
}
