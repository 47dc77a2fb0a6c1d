// Package httpapi exposes the HTTP surface of the service: the
// per-user aggregation trigger, the scheduler sweep, source and
// content management, and the email integration handshake.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/marketminds/engine/internal/auth"
	"github.com/marketminds/engine/internal/logging"
	"github.com/marketminds/engine/internal/models"
)

// Runner triggers aggregation work
type Runner interface {
	Run(ctx context.Context, ownerID string) (*models.RunReport, error)
	SyncAll(ctx context.Context) (*models.SyncSummary, error)
	CachedReport(ownerID string) (*models.RunReport, bool)
}

// SourceService manages a user's configured sources
type SourceService interface {
	Create(ctx context.Context, ownerID string, params models.CreateSourceParams) (*models.Source, error)
	Get(ctx context.Context, ownerID, sourceID string) (*models.Source, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Source, error)
	Update(ctx context.Context, ownerID, sourceID string, params models.UpdateSourceParams) (*models.Source, error)
	Delete(ctx context.Context, ownerID, sourceID string) (bool, error)
}

// ContentLister reads a user's persisted content
type ContentLister interface {
	ListByOwner(ctx context.Context, ownerID string, params models.ContentListParams) ([]models.ContentItem, error)
}

// MailConnector completes the email integration handshake
type MailConnector interface {
	Configured() bool
	Connect(ctx context.Context, ownerID, code string) error
}

type Server struct {
	runner          Runner
	sourceSvc       SourceService
	contentSvc      ContentLister
	mail            MailConnector
	authMiddleware  *auth.Middleware
	schedulerSecret string
	logger          *logging.Logger
	server          *http.Server
}

func New(runner Runner, sourceSvc SourceService, contentSvc ContentLister, mail MailConnector, authMiddleware *auth.Middleware, schedulerSecret string, logger *logging.Logger) *Server {
	return &Server{
		runner:          runner,
		sourceSvc:       sourceSvc,
		contentSvc:      contentSvc,
		mail:            mail,
		authMiddleware:  authMiddleware,
		schedulerSecret: schedulerSecret,
		logger:          logger,
	}
}

// Handler builds the full route table. Split from Start so tests can
// drive the mux directly.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	aggregateAPI := NewAggregateAPI(s.runner, s.authMiddleware, s.logger)
	aggregateAPI.RegisterRoutes(mux, s.corsMiddleware)

	syncAPI := NewSyncAPI(s.runner, s.schedulerSecret, s.logger)
	syncAPI.RegisterRoutes(mux, s.corsMiddleware)

	sourcesAPI := NewSourcesAPI(s.sourceSvc, s.authMiddleware, s.logger)
	sourcesAPI.RegisterRoutes(mux, s.corsMiddleware)

	contentAPI := NewContentAPI(s.contentSvc, s.authMiddleware, s.logger)
	contentAPI.RegisterRoutes(mux, s.corsMiddleware)

	if s.mail != nil {
		emailAPI := NewEmailAPI(s.mail, s.authMiddleware, s.logger)
		emailAPI.RegisterRoutes(mux, s.corsMiddleware)
	}

	mux.HandleFunc("/health", s.handleHealth)

	return mux
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("HTTP API server starting", logging.WithField("addr", addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":  code,
		"error": message,
	})
}
