package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
)

// OpenPostgres connects to TEST_DATABASE_URL, applies the migrations and
// truncates every table. The test is skipped when the variable is unset.
func OpenPostgres(t testing.TB, migrationsPath string) *sqlx.DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL environment variable is not set")
	}

	ctx := context.Background()
	conn, err := sqlx.ConnectContext(ctx, "postgres", dbURL)
	if err != nil {
		t.Fatalf("connect test database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.RunMigrations(ctx, conn, migrationsPath); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `TRUNCATE schedules, content, devices, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate test database: %v", err)
	}
	return conn
}
