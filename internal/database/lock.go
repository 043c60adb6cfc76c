package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Locker takes a named, session-scoped advisory lock. TryLock never blocks: it
// reports acquired=false when another session holds the lock. The returned release
// function must be called when acquired is true.
type Locker interface {
	TryLock(ctx context.Context, name string) (release func() error, acquired bool, err error)
}

type advisoryLocker struct {
	db     *sql.DB
	driver string
}

// NewAdvisoryLocker creates a Locker backed by pg_try_advisory_lock on PostgreSQL
// or GET_LOCK on MySQL. The lock lives on a dedicated connection taken from db.
func NewAdvisoryLocker(db *sql.DB, driver string) Locker {
	return &advisoryLocker{db: db, driver: driver}
}

func (l *advisoryLocker) TryLock(ctx context.Context, name string) (func() error, bool, error) {
	var lockQuery, unlockQuery string
	switch l.driver {
	case DriverPostgres:
		lockQuery = `SELECT pg_try_advisory_lock(hashtext($1))`
		unlockQuery = `SELECT pg_advisory_unlock(hashtext($1))`
	case DriverMySQL:
		lockQuery = `SELECT COALESCE(GET_LOCK(?, 0), 0) = 1`
		unlockQuery = `SELECT RELEASE_LOCK(?)`
	default:
		return nil, false, fmt.Errorf("unsupported driver for advisory lock: %s", l.driver)
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, false, ClassifyError(err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, lockQuery, name).Scan(&acquired); err != nil {
		_ = conn.Close()
		return nil, false, ClassifyError(err)
	}
	if !acquired {
		_ = conn.Close()
		return nil, false, nil
	}

	release := func() error {
		defer func() {
			_ = conn.Close()
		}()
		_, err := conn.ExecContext(context.Background(), unlockQuery, name)
		return err
	}

	return release, true, nil
}
