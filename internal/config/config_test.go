package config

import (
	"flag"
	"io"
	"os"
	"testing"
	"time"
)

func loadWithArgs(t *testing.T, args ...string) *Config {
	t.Helper()

	if len(args) == 0 {
		args = []string{"test"}
	}

	oldCommandLine := flag.CommandLine
	oldArgs := os.Args

	flag.CommandLine = flag.NewFlagSet(args[0], flag.ContinueOnError)
	flag.CommandLine.SetOutput(io.Discard)
	os.Args = args

	t.Cleanup(func() {
		flag.CommandLine = oldCommandLine
		os.Args = oldArgs
	})

	return Load()
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadWithArgs(t, "test")

	if cfg.Server.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.Server.HTTPAddr)
	}
	if cfg.Server.SyncInterval != 0 {
		t.Errorf("SyncInterval = %v, want 0 (disabled)", cfg.Server.SyncInterval)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want memory", cfg.Cache.Backend)
	}
	if cfg.Fetch.MaxItems != 5 {
		t.Errorf("Fetch.MaxItems = %d, want 5", cfg.Fetch.MaxItems)
	}
	if cfg.Database.Database != "marketminds" {
		t.Errorf("Database.Database = %q, want marketminds", cfg.Database.Database)
	}
}

func TestLoad_SyncInterval_FromEnv(t *testing.T) {
	t.Setenv("SYNC_INTERVAL", "30m")
	cfg := loadWithArgs(t, "test")
	if cfg.Server.SyncInterval != 30*time.Minute {
		t.Fatalf("SyncInterval = %v, want 30m", cfg.Server.SyncInterval)
	}
}

func TestLoad_SyncInterval_FromFlag(t *testing.T) {
	cfg := loadWithArgs(t, "test", "-sync-interval", "1h")
	if cfg.Server.SyncInterval != time.Hour {
		t.Fatalf("SyncInterval = %v, want 1h", cfg.Server.SyncInterval)
	}
}

func TestLoad_SchedulerSecret_FromEnv(t *testing.T) {
	t.Setenv("SCHEDULER_SECRET", "sweep-secret")
	cfg := loadWithArgs(t, "test")
	if cfg.Auth.SchedulerSecret != "sweep-secret" {
		t.Fatalf("SchedulerSecret = %q, want sweep-secret", cfg.Auth.SchedulerSecret)
	}
}

func TestLoad_MaxItems_FromEnv(t *testing.T) {
	t.Setenv("MAX_ITEMS", "12")
	cfg := loadWithArgs(t, "test")
	if cfg.Fetch.MaxItems != 12 {
		t.Fatalf("MaxItems = %d, want 12", cfg.Fetch.MaxItems)
	}
}

func TestLoad_MaxItems_InvalidEnvIgnored(t *testing.T) {
	t.Setenv("MAX_ITEMS", "not-a-number")
	cfg := loadWithArgs(t, "test")
	if cfg.Fetch.MaxItems != 5 {
		t.Fatalf("MaxItems = %d, want default 5", cfg.Fetch.MaxItems)
	}
}

func TestLoad_DatabaseEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	cfg := loadWithArgs(t, "test")

	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %q, want db.internal", cfg.Database.Host)
	}
	if cfg.Database.Port != 5433 {
		t.Errorf("Database.Port = %d, want 5433", cfg.Database.Port)
	}
}

func TestLoad_IntegrationsFromEnv(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "yt-key")
	t.Setenv("TWITTER_MIRROR_URL", "https://mirror.example.com")
	cfg := loadWithArgs(t, "test")

	if cfg.Integrations.YouTubeAPIKey != "yt-key" {
		t.Errorf("YouTubeAPIKey = %q, want yt-key", cfg.Integrations.YouTubeAPIKey)
	}
	if cfg.Integrations.TwitterMirrorURL != "https://mirror.example.com" {
		t.Errorf("TwitterMirrorURL = %q", cfg.Integrations.TwitterMirrorURL)
	}
}
