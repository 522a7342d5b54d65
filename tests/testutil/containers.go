package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcwait "github.com/testcontainers/testcontainers-go/wait"
)

// TestDBContainer holds the PostgreSQL test container
type TestDBContainer struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
}

// SetupTestDBContainer starts a PostgreSQL test container with the schema applied.
// The container is terminated when the test finishes.
func SetupTestDBContainer(ctx context.Context, t *testing.T) *TestDBContainer {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("metrics_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			tcwait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}

	tc := &TestDBContainer{Container: pgContainer}
	t.Cleanup(func() { tc.Teardown(context.Background(), t) })

	tc.ConnString, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := RunMigrations(tc.ConnString); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	tc.Pool, err = pgxpool.New(ctx, tc.ConnString)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	if err := tc.Pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	return tc
}

// Teardown cleans up the test container
func (tc *TestDBContainer) Teardown(ctx context.Context, t *testing.T) {
	t.Helper()
	if tc.Pool != nil {
		tc.Pool.Close()
	}
	if tc.Container != nil {
		if err := tc.Container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}
}

// TruncateAll empties every table written by tests
func (tc *TestDBContainer) TruncateAll(ctx context.Context) error {
	tables := []string{"subscription_events", "payments", "partner_subscriptions", "rate_exchanges", "daily_stats_snapshots"}
	for _, table := range tables {
		if _, err := tc.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return err
		}
	}
	return nil
}
