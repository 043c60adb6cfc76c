package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/allisson/viewvault/internal/database"
)

// MigrationsDir is the root of the per-driver, per-tier migration folders.
const MigrationsDir = "migrations"

// MigrationTarget is one tier's schema and the store it lives in.
type MigrationTarget struct {
	Tier string
	DSN  string
}

// RunMigrations applies every pending migration of each target in order. Each tier keeps
// its own version table, so tiers can share a database or live in separate ones.
func RunMigrations(logger *slog.Logger, driver string, targets ...MigrationTarget) error {
	driverDir, err := migrationsDriverDir(driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	for _, target := range targets {
		logger.Info("running database migrations",
			slog.String("driver", driver),
			slog.String("tier", target.Tier),
		)

		sourceURL := fmt.Sprintf("file://%s/%s/%s", MigrationsDir, driverDir, target.Tier)
		m, err := migrate.New(sourceURL, migrationDSN(driver, target))
		if err != nil {
			return fmt.Errorf("failed to create migrate instance for %s: %w", target.Tier, err)
		}

		err = m.Up()
		closeMigrate(m, logger)
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to run %s migrations: %w", target.Tier, err)
		}

		logger.Info("migrations completed successfully", slog.String("tier", target.Tier))
	}

	return nil
}

func migrationsDriverDir(driver string) (string, error) {
	switch driver {
	case database.DriverPostgres:
		return "postgresql", nil
	case database.DriverMySQL:
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// migrationDSN turns a pool DSN into a golang-migrate URL with a per-tier version table.
func migrationDSN(driver string, target MigrationTarget) string {
	dsn := target.DSN
	params := []string{"x-migrations-table=schema_migrations_" + target.Tier}

	if driver == database.DriverMySQL {
		if !strings.HasPrefix(dsn, "mysql://") {
			dsn = "mysql://" + dsn
		}
		if !strings.Contains(dsn, "multiStatements=") {
			params = append(params, "multiStatements=true")
		}
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + strings.Join(params, "&")
}
