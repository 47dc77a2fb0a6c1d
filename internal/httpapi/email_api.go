package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/marketminds/engine/internal/auth"
	"github.com/marketminds/engine/internal/logging"
)

// EmailAPI handles the email integration OAuth handshake
type EmailAPI struct {
	mail           MailConnector
	authMiddleware *auth.Middleware
	logger         *logging.Logger
}

// NewEmailAPI creates a new email API handler
func NewEmailAPI(mail MailConnector, authMiddleware *auth.Middleware, logger *logging.Logger) *EmailAPI {
	return &EmailAPI{
		mail:           mail,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

// RegisterRoutes registers email routes on the given mux
func (api *EmailAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/email/connect", corsMiddleware(api.authMiddleware.RequireAuth(api.handleConnect)))
}

// handleConnect exchanges the authorization code the client obtained
// and stores the resulting credentials for the user.
func (api *EmailAPI) handleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !api.mail.Configured() {
		writeError(w, http.StatusServiceUnavailable, "email_disabled", "email integration is not configured")
		return
	}

	userID := auth.GetUserID(r.Context())

	var params struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body")
		return
	}
	if strings.TrimSpace(params.Code) == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "code is required")
		return
	}

	if err := api.mail.Connect(r.Context(), userID, params.Code); err != nil {
		api.logger.Error("Email connect failed", logging.WithFields(map[string]interface{}{
			"owner": userID,
			"error": err.Error(),
		}))
		writeError(w, http.StatusBadGateway, "connect_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}
