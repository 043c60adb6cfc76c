//go:build integration

package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// StartPostgres runs a disposable PostgreSQL container for the test and returns its DSN.
// Set TEST_POSTGRES_DSN to reuse an existing server instead.
func StartPostgres(t *testing.T) string {
	t.Helper()

	if dsn := GetPostgresTestDSNFromEnv(); dsn != "" {
		return dsn
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		tcpostgres.WithDatabase("viewvault_test"),
		tcpostgres.WithUsername("viewvault"),
		tcpostgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to read postgres container DSN")
	return dsn
}
