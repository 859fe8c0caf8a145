package database

import (
	"context"
	"database/sql"
	"os"
	"testing"
)

// TestDB returns a migrated connection for integration tests with all tables emptied.
// Skips the test if TEST_DATABASE_URL is not set.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	db, err := New(dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	if _, err := db.ExecContext(ctx,
		"TRUNCATE TABLE reconciliations, receipts, expenses, users RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	return db
}
