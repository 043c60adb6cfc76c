package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/viewvault/internal/errors"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, mock
}

func TestNewTxManager(t *testing.T) {
	db, _ := newMockDB(t)

	txManager := NewTxManager(db)
	assert.NotNil(t, txManager)
	assert.IsType(t, &sqlTxManager{}, txManager)
}

func TestWithTx_Success(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	txManager := NewTxManager(db)
	err := txManager.WithTx(context.Background(), func(ctx context.Context) error {
		// Verify transaction is in context
		assert.IsType(t, &sql.Tx{}, GetTx(ctx, db))
		return nil
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	txManager := NewTxManager(db)
	testError := assert.AnError
	err := txManager.WithTx(context.Background(), func(ctx context.Context) error {
		return testError
	})

	assert.Equal(t, testError, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginTransientError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

	called := false
	err := NewTxManager(db).WithTx(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	assert.False(t, called)
}

func TestWithTx_NestedJoinsOuter(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	txManager := NewTxManager(db)
	err := txManager.WithTx(context.Background(), func(outer context.Context) error {
		return txManager.WithTx(outer, func(inner context.Context) error {
			assert.Same(t, GetTx(outer, db), GetTx(inner, db))
			return nil
		})
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTx_IsolatedPerPool(t *testing.T) {
	analyticsDB, analyticsMock := newMockDB(t)
	complianceDB, _ := newMockDB(t)
	analyticsMock.ExpectBegin()
	analyticsMock.ExpectCommit()

	err := NewTxManager(analyticsDB).WithTx(context.Background(), func(ctx context.Context) error {
		assert.IsType(t, &sql.Tx{}, GetTx(ctx, analyticsDB))
		assert.Same(t, complianceDB, GetTx(ctx, complianceDB))
		return nil
	})

	assert.NoError(t, err)
}

func TestGetTx_WithoutTransaction(t *testing.T) {
	db, _ := newMockDB(t)
	assert.Same(t, db, GetTx(context.Background(), db))
}
