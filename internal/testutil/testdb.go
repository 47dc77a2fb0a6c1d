// Package testutil provides utilities for testing
package testutil

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/marketminds/engine/internal/database"
)

// TestDB wraps a test database connection
type TestDB struct {
	*database.DB
	t *testing.T
}

// testConfig builds a database config from environment variables or
// defaults.
func testConfig() database.Config {
	cfg := database.DefaultConfig()
	cfg.Host = getEnvOrDefault("TEST_DB_HOST", "localhost")
	cfg.User = getEnvOrDefault("TEST_DB_USER", "test")
	cfg.Password = getEnvOrDefault("TEST_DB_PASSWORD", "test")
	cfg.Database = getEnvOrDefault("TEST_DB_NAME", "marketminds_test")
	cfg.SSLMode = getEnvOrDefault("TEST_DB_SSLMODE", "disable")
	if port, err := strconv.Atoi(getEnvOrDefault("TEST_DB_PORT", "5432")); err == nil {
		cfg.Port = port
	}
	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// NewTestDB opens a connection to the test database and applies the
// schema. It skips the test when no database is reachable, so the
// integration tests are a no-op on machines without Postgres.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	db, err := database.New(testConfig())
	if err != nil {
		t.Skipf("Skipping test: unable to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		t.Skipf("Skipping test: unable to migrate test database: %v", err)
	}

	return &TestDB{DB: db, t: t}
}

// Close closes the test database connection
func (tdb *TestDB) Close() {
	if err := tdb.DB.Close(); err != nil {
		tdb.t.Errorf("Failed to close test database: %v", err)
	}
}

// Cleanup removes all test data from tables
func (tdb *TestDB) Cleanup(ctx context.Context) {
	tdb.t.Helper()

	tables := []string{
		"email_credentials",
		"content_items",
		"sources",
		"users",
	}

	for _, table := range tables {
		_, err := tdb.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			// Table might not exist, that's ok
			tdb.t.Logf("Warning: failed to cleanup table %s: %v", table, err)
		}
	}
}

// MustExec executes a query and fails the test on error
func (tdb *TestDB) MustExec(ctx context.Context, query string, args ...interface{}) {
	tdb.t.Helper()
	_, err := tdb.ExecContext(ctx, query, args...)
	if err != nil {
		tdb.t.Fatalf("Failed to execute query: %v\nQuery: %s", err, query)
	}
}
