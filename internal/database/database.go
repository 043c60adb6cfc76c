// Package database provides the per-tier connection pools, the transaction manager,
// driver error classification and the advisory lock used by the reaper.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// pingTimeout bounds the startup check of a pool.
const pingTimeout = 5 * time.Second

// ErrUnsupportedDriver is returned for a DB_DRIVER other than postgres or mysql.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Config holds the settings of one tier's pool.
type Config struct {
	// Tier names the pool in errors ("analytics", "compliance", "vault", "audit").
	Tier               string
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// Connect opens the pool of one tier and checks it answers. Every tier gets its own
// pool even when the connection strings match, so exhausting one tier's connections
// cannot starve another.
func Connect(cfg Config) (*sql.DB, error) {
	if cfg.Driver != DriverPostgres && cfg.Driver != DriverMySQL {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("no connection string for the %s tier", cfg.Tier)
	}

	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Tier, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Tier, err)
	}

	return db, nil
}
