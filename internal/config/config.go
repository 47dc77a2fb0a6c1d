package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig
	Cache        CacheConfig
	Database     DatabaseConfig
	Logging      LoggingConfig
	Auth         AuthConfig
	Summarizer   SummarizerConfig
	Integrations IntegrationsConfig
	Fetch        FetchConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr     string
	SyncInterval time.Duration
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	Backend   string // "memory" or "redis"
	TTL       time.Duration
	RedisAddr string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// SchedulerSecret gates the all-owner sync endpoint; requests
	// without it are rejected before any work starts.
	SchedulerSecret string
}

// SummarizerConfig holds LLM summarization settings
type SummarizerConfig struct {
	OpenAIAPIKey string
	Model        string
}

// IntegrationsConfig holds per-platform integration credentials.
// Empty values disable the corresponding adapter gracefully.
type IntegrationsConfig struct {
	YouTubeAPIKey      string
	SlackBotToken      string
	TwitterMirrorURL   string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
}

// FetchConfig holds shared adapter fetch tuning
type FetchConfig struct {
	Timeout      time.Duration
	MaxItems     int
	RateLimitDur time.Duration
}

// Load parses flags and environment variables to build configuration
func Load() *Config {
	cfg := &Config{}

	httpAddr := flag.String("http", ":8080", "HTTP server address")
	syncInterval := flag.Duration("sync-interval", 0, "Background all-user sync interval (0 disables)")
	cacheTTL := flag.Duration("cache-ttl", time.Hour, "Cache TTL for run reports")
	cacheBackend := flag.String("cache-backend", "memory", "Cache backend: memory or redis")
	redisAddr := flag.String("redis-addr", "localhost:6379", "Redis server address")
	rateLimitDur := flag.Duration("rate-limit", time.Second, "Minimum delay between requests to same host")
	fetchTimeout := flag.Duration("fetch-timeout", 30*time.Second, "Per-request timeout for platform fetches")
	maxItems := flag.Int("max-items", 5, "Maximum items processed per source platform per run")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	dbHost := flag.String("db-host", "localhost", "PostgreSQL host")
	dbPort := flag.Int("db-port", 5432, "PostgreSQL port")
	dbUser := flag.String("db-user", "postgres", "PostgreSQL user")
	dbPassword := flag.String("db-password", "postgres", "PostgreSQL password")
	dbName := flag.String("db-name", "marketminds", "PostgreSQL database name")
	dbSSLMode := flag.String("db-sslmode", "disable", "PostgreSQL SSL mode")

	flag.Parse()

	applyEnvOverrides(httpAddr, syncInterval, cacheTTL, cacheBackend, redisAddr, rateLimitDur, fetchTimeout, maxItems, logLevel, dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode)

	cfg.Server = ServerConfig{
		HTTPAddr:     *httpAddr,
		SyncInterval: *syncInterval,
	}

	cfg.Cache = CacheConfig{
		Backend:   *cacheBackend,
		TTL:       *cacheTTL,
		RedisAddr: *redisAddr,
	}

	cfg.Database = DatabaseConfig{
		Host:     *dbHost,
		Port:     *dbPort,
		User:     *dbUser,
		Password: *dbPassword,
		Database: *dbName,
		SSLMode:  *dbSSLMode,
	}

	cfg.Logging = LoggingConfig{
		Level: *logLevel,
	}

	cfg.Fetch = FetchConfig{
		Timeout:      *fetchTimeout,
		MaxItems:     *maxItems,
		RateLimitDur: *rateLimitDur,
	}

	cfg.Auth = loadAuthConfig()
	cfg.Summarizer = loadSummarizerConfig()
	cfg.Integrations = loadIntegrationsConfig()

	return cfg
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:       getEnvOrDefault("AUTH_JWT_SECRET", "change-me-in-production"),
		JWTIssuer:       getEnvOrDefault("AUTH_JWT_ISSUER", "marketminds"),
		JWTAudience:     getEnvOrDefault("AUTH_JWT_AUDIENCE", "marketminds-users"),
		SchedulerSecret: os.Getenv("SCHEDULER_SECRET"),
	}
}

func loadSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		Model:        os.Getenv("OPENAI_MODEL"),
	}
}

func loadIntegrationsConfig() IntegrationsConfig {
	return IntegrationsConfig{
		YouTubeAPIKey:      os.Getenv("YOUTUBE_API_KEY"),
		SlackBotToken:      os.Getenv("SLACK_BOT_TOKEN"),
		TwitterMirrorURL:   os.Getenv("TWITTER_MIRROR_URL"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		// The dashboard completes the OAuth redirect and relays the
		// code to /api/email/connect.
		GoogleRedirectURI: getEnvOrDefault("GOOGLE_REDIRECT_URI", "http://localhost:3000/email/callback"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func applyEnvOverrides(
	httpAddr *string,
	syncInterval *time.Duration,
	cacheTTL *time.Duration,
	cacheBackend *string,
	redisAddr *string,
	rateLimitDur *time.Duration,
	fetchTimeout *time.Duration,
	maxItems *int,
	logLevel *string,
	dbHost *string,
	dbPort *int,
	dbUser *string,
	dbPassword *string,
	dbName *string,
	dbSSLMode *string,
) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		*httpAddr = v
	}
	if v := os.Getenv("SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*syncInterval = d
		}
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*cacheTTL = d
		}
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		*cacheBackend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		*redisAddr = v
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*rateLimitDur = d
		}
	}
	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*fetchTimeout = d
		}
	}
	if v := os.Getenv("MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*maxItems = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		*logLevel = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		*dbHost = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			*dbPort = p
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		*dbUser = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		*dbPassword = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		*dbName = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		*dbSSLMode = v
	}
}
