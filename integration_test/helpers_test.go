//go:build integration

package integration_test

import (
	"context"
	"os"
	"testing"

	"github.com/getpup/persons-api/pkg/migrations"
	"github.com/getpup/persons-api/store/sqlstore"
	"github.com/jmoiron/sqlx"
)

// Tables used by the integration tests, kept apart from any real schema.
const (
	personsTable    = "persons_e2e"
	migrationsTable = "schema_migrations_e2e"
)

// getTestDB returns a database connection for integration tests.
// It reads the DATABASE_URL environment variable and skips the test if not set.
func getTestDB(t *testing.T) (*sqlx.DB, string) {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := sqlx.Open(sqlstore.DriverPostgres, dbURL)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	return db, dbURL
}

// setupTables applies every persons migration to the test tables.
func setupTables(t *testing.T, db *sqlx.DB) {
	t.Helper()

	s, err := sqlstore.New(db, migrations.Postgres, sqlstore.WithTableNames(personsTable, migrationsTable))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}
}

// cleanupTables truncates the persons table to clean up test data.
// Errors are logged but don't fail the test (cleanup is best-effort).
func cleanupTables(t *testing.T, db *sqlx.DB) {
	t.Helper()

	if _, err := db.Exec("TRUNCATE " + personsTable + " RESTART IDENTITY"); err != nil {
		t.Logf("warning: failed to truncate persons table: %v", err)
	}
}

// teardownTables drops the test tables.
// Errors are logged but don't fail the test.
func teardownTables(t *testing.T, db *sqlx.DB) {
	t.Helper()

	for _, table := range []string{personsTable, migrationsTable} {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			t.Logf("warning: failed to drop %s: %v", table, err)
		}
	}
}
