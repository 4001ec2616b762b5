// Package testsupport provides shared helpers for integration tests.
package testsupport

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"marketscope/internal/adapters/config"
	"marketscope/internal/adapters/postgres"
)

// PostgresTestHelper manages a database connection for integration tests.
// Tests write through the pooled connection and clean up their own rows;
// every derived table cascades from research_queries, so deleting the
// test query is enough.
type PostgresTestHelper struct {
	client *postgres.Client
}

// NewTestPostgres connects using .env.test (falling back to the ambient
// environment) and skips the test when no database is configured.
func NewTestPostgres(t *testing.T) *PostgresTestHelper {
	t.Helper()

	_ = godotenv.Load(".env.test", "../../../.env.test")

	var cfg config.PostgresConfig
	if err := envconfig.Process("", &cfg); err != nil || cfg.Host == "" {
		t.Skip("POSTGRES_* environment not configured, skipping integration test")
	}

	client, err := postgres.NewClient(cfg)
	if err != nil {
		t.Fatalf("failed to create postgres client: %v", err)
	}

	helper := &PostgresTestHelper{client: client}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return helper
}

// DB returns the underlying database handle.
func (h *PostgresTestHelper) DB() *sqlx.DB {
	return h.client.DB()
}
