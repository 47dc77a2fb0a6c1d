package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/marketminds/engine/internal/logging"
)

// syncTimeout bounds the all-owner sweep
const syncTimeout = 30 * time.Minute

// SyncAPI handles the scheduler-triggered all-owner sweep. The route
// is gated by a shared secret instead of user auth because the caller
// is a cron job, not a user.
type SyncAPI struct {
	runner Runner
	secret string
	logger *logging.Logger
}

// NewSyncAPI creates a new sync API handler
func NewSyncAPI(runner Runner, secret string, logger *logging.Logger) *SyncAPI {
	return &SyncAPI{
		runner: runner,
		secret: secret,
		logger: logger,
	}
}

// RegisterRoutes registers the sync route on the given mux
func (api *SyncAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/sync", corsMiddleware(api.handleSync))
}

// handleSync runs aggregation for every owner with sources. The
// secret check happens before any work starts.
func (api *SyncAPI) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if api.secret == "" {
		writeError(w, http.StatusServiceUnavailable, "sync_disabled", "scheduled sync is not configured")
		return
	}

	if !api.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid scheduler credentials")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), syncTimeout)
	defer cancel()

	summary, err := api.runner.SyncAll(ctx)
	if err != nil {
		api.logger.Error("Scheduled sync failed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "sync_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (api *SyncAPI) authorized(r *http.Request) bool {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(parts[1]), []byte(api.secret)) == 1
}
