// Package app wires configuration, storage, integrations, adapters,
// and the HTTP server into a runnable service.
package app

import (
	"context"

	"github.com/marketminds/engine/internal/aggregator"
	"github.com/marketminds/engine/internal/auth"
	"github.com/marketminds/engine/internal/cache"
	"github.com/marketminds/engine/internal/config"
	"github.com/marketminds/engine/internal/database"
	"github.com/marketminds/engine/internal/gmail"
	"github.com/marketminds/engine/internal/httpapi"
	"github.com/marketminds/engine/internal/logging"
	"github.com/marketminds/engine/internal/ratelimit"
	"github.com/marketminds/engine/internal/sources"
	"github.com/marketminds/engine/internal/summarize"
)

// App holds all application dependencies
type App struct {
	Config         *config.Config
	Logger         *logging.Logger
	Cache          cache.Cache
	Aggregator     *aggregator.Aggregator
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	HTTPServer     *httpapi.Server
	db             *database.DB
}

// New creates and initializes a new App instance
func New(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	app.Logger = app.initLogger()
	app.Cache = app.initCache()

	dbConfig := database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
		SSLMode:  cfg.Database.SSLMode,
	}

	db, err := database.New(dbConfig)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	app.db = db
	app.Logger.Info("Connected to PostgreSQL")

	sourceStore := database.NewSourceStore(db)
	contentStore := database.NewContentStore(db)
	credentialStore := database.NewCredentialStore(db)

	mail := gmail.New(gmail.Config{
		ClientID:     cfg.Integrations.GoogleClientID,
		ClientSecret: cfg.Integrations.GoogleClientSecret,
		RedirectURI:  cfg.Integrations.GoogleRedirectURI,
	}, credentialStore, app.Logger)

	registry := app.initAdapters(contentStore, mail)

	app.Aggregator = aggregator.New(sourceStore, registry, app.Logger,
		aggregator.WithCache(app.Cache),
	)

	app.AuthService = auth.NewService(cfg.Auth)
	app.AuthMiddleware = auth.NewMiddleware(app.AuthService)

	app.HTTPServer = httpapi.New(
		app.Aggregator,
		sourceStore,
		contentStore,
		mail,
		app.AuthMiddleware,
		cfg.Auth.SchedulerSecret,
		app.Logger,
	)

	return app, nil
}

// Run starts the HTTP server and, when configured, the background
// sync loop.
func (a *App) Run(ctx context.Context) error {
	if interval := a.Config.Server.SyncInterval; interval > 0 {
		a.Logger.Info("Background sync enabled", logging.WithField("interval", interval.String()))
		go a.Aggregator.RunPeriodic(ctx, interval)
	}

	return a.HTTPServer.Start(a.Config.Server.HTTPAddr)
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error("HTTP server shutdown error", logging.WithField("error", err.Error()))
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.Logger.Error("Database close error", logging.WithField("error", err.Error()))
		}
	}

	return nil
}

func (a *App) initLogger() *logging.Logger {
	level := logging.LevelInfo
	switch a.Config.Logging.Level {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	return logging.New(level)
}

func (a *App) initCache() cache.Cache {
	switch a.Config.Cache.Backend {
	case "redis":
		a.Logger.Info("Using Redis cache backend", logging.WithField("addr", a.Config.Cache.RedisAddr))
		redisCache, err := cache.NewRedis(cache.RedisConfig{
			Addr: a.Config.Cache.RedisAddr,
		}, a.Config.Cache.TTL)
		if err != nil {
			a.Logger.Error("Failed to connect to Redis, falling back to memory cache", logging.WithField("error", err.Error()))
			return cache.NewMemory(a.Config.Cache.TTL)
		}
		return redisCache
	default:
		a.Logger.Info("Using in-memory cache backend")
		return cache.NewMemory(a.Config.Cache.TTL)
	}
}

// initAdapters builds the platform adapter registry. Adapters whose
// integrations are unconfigured still register; they report a
// recoverable failure at fetch time instead of being absent.
func (a *App) initAdapters(contentStore *database.ContentStore, mail *gmail.Integration) *sources.Registry {
	limiter := ratelimit.New(a.Config.Fetch.RateLimitDur)
	adapterConfig := sources.DefaultConfig()
	if a.Config.Fetch.Timeout > 0 {
		adapterConfig.Timeout = a.Config.Fetch.Timeout
	}
	if a.Config.Fetch.MaxItems > 0 {
		adapterConfig.MaxItems = a.Config.Fetch.MaxItems
	}

	scorer := summarize.NewVader()
	summarizer := summarize.NewOpenAI(a.Config.Summarizer.OpenAIAPIKey, a.Config.Summarizer.Model, a.Logger)

	registry := sources.NewRegistry()
	registry.Register(sources.NewRSSAdapter(contentStore, scorer, limiter, adapterConfig, a.Logger))
	registry.Register(sources.NewRedditAdapter(contentStore, scorer, limiter, adapterConfig, a.Logger))
	registry.Register(sources.NewPodcastAdapter(contentStore, scorer, limiter, adapterConfig, a.Logger))
	registry.Register(sources.NewTwitterAdapter(contentStore, scorer, limiter, adapterConfig, a.Config.Integrations.TwitterMirrorURL, a.Logger))
	registry.Register(sources.NewYouTubeAdapter(a.Config.Integrations.YouTubeAPIKey, contentStore, summarizer, limiter, adapterConfig, a.Logger))
	registry.Register(sources.NewSlackAdapter(a.Config.Integrations.SlackBotToken, adapterConfig, a.Logger))
	registry.Register(sources.NewEmailAdapter(mail, contentStore, summarizer, adapterConfig, a.Logger))
	registry.Register(sources.NewUploadsAdapter(contentStore, adapterConfig, a.Logger))

	a.Logger.Info("Registered platform adapters", logging.WithField("count", len(registry.Platforms())))
	return registry
}
