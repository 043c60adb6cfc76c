package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	apperrors "github.com/allisson/viewvault/internal/errors"
)

// Transient PostgreSQL error classes: connection exception, transaction rollback
// (serialization failure, deadlock), insufficient resources and operator intervention.
var transientPostgresClasses = map[pq.ErrorClass]bool{
	"08": true,
	"40": true,
	"53": true,
	"57": true,
}

// Transient MySQL error numbers: lock wait timeout, deadlock, too many connections,
// server gone away and lost connection.
var transientMySQLErrors = map[uint16]bool{
	1205: true,
	1213: true,
	1040: true,
	2006: true,
	2013: true,
}

const (
	postgresUniqueViolation = "23505"
	mysqlDuplicateEntry     = 1062
)

// ClassifyError maps a driver error onto the domain sentinels. Transient failures
// wrap ErrUnavailable so callers can retry them, unique violations wrap ErrConflict
// and sql.ErrNoRows becomes ErrNotFound. Anything else is returned unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrNotFound
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == postgresUniqueViolation {
			return fmt.Errorf("%w: %w", apperrors.ErrConflict, err)
		}
		if transientPostgresClasses[pqErr.Code.Class()] {
			return fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
		}
		return err
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number == mysqlDuplicateEntry {
			return fmt.Errorf("%w: %w", apperrors.ErrConflict, err)
		}
		if transientMySQLErrors[myErr.Number] {
			return fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
	}

	return err
}
