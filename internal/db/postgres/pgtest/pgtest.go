// Package pgtest starts a migrated PostgreSQL container for integration tests.
package pgtest

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kailas-cloud/mapsearch/internal/db/postgres"
)

// Start runs a PostgreSQL container, applies the repository migrations and
// returns an open DB. Skipped under -short. Everything is torn down with t.
func Start(t *testing.T) *postgres.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("mapsearch_test"),
		tcpostgres.WithUsername("test_user"),
		tcpostgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	d, err := postgres.Open(ctx, postgres.Config{
		DSN:            dsn,
		MaxConns:       5,
		MigrationsPath: "file://" + migrationsDir(),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(d.Close)

	if err := d.MigrateToLatest(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	// internal/db/postgres/pgtest -> repository root
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "migrations")
}
