package database

import (
	"context"
	"database/sql"
)

// txKey is a context key type for storing database transactions. It is keyed by
// pool so a transaction opened on one tier's store is never picked up by another's.
type txKey struct {
	db *sql.DB
}

// Querier represents a database query executor (either *sql.DB or *sql.Tx).
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxManager manages database transactions.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// sqlTxManager implements TxManager for SQL databases.
type sqlTxManager struct {
	db *sql.DB
}

// NewTxManager creates a new TxManager for the given database.
func NewTxManager(db *sql.DB) TxManager {
	return &sqlTxManager{db: db}
}

// WithTx executes the function within a database transaction. A transaction already
// open on the same pool is reused, so nested calls join the outer transaction.
func (m *sqlTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{db: m.db}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return ClassifyError(err)
	}

	ctx = context.WithValue(ctx, txKey{db: m.db}, tx)

	if err := fn(ctx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return rbErr
		}
		return err
	}

	return ClassifyError(tx.Commit())
}

// GetTx retrieves the transaction opened on db from context, or returns db itself.
func GetTx(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := ctx.Value(txKey{db: db}).(*sql.Tx); ok {
		return tx
	}
	return db
}
