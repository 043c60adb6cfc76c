// Package repository provides data persistence implementations for outbox entities.
package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/viewvault/internal/database"
	apperrors "github.com/allisson/viewvault/internal/errors"
	"github.com/allisson/viewvault/internal/outbox/domain"
)

const outboxColumns = `id, event_type, payload, status, retries, last_error, processed_at, created_at, updated_at`

// PostgreSQLOutboxEventRepository handles outbox event persistence for PostgreSQL
type PostgreSQLOutboxEventRepository struct {
	db *sql.DB
}

// NewPostgreSQLOutboxEventRepository creates a new PostgreSQLOutboxEventRepository
func NewPostgreSQLOutboxEventRepository(db *sql.DB) *PostgreSQLOutboxEventRepository {
	return &PostgreSQLOutboxEventRepository{
		db: db,
	}
}

// Create inserts a new outbox event
func (r *PostgreSQLOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO outbox_events (` + outboxColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(ctx, query, event.ID, event.EventType, event.Payload, event.Status,
		event.Retries, event.LastError, event.ProcessedAt, event.CreatedAt, event.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(database.ClassifyError(err), "failed to create outbox event")
	}
	return nil
}

// GetPendingEvents locks up to limit pending events, oldest first. Rows locked by
// another worker are skipped.
func (r *PostgreSQLOutboxEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + outboxColumns + `
			  FROM outbox_events
			  WHERE status = $1
			  ORDER BY created_at ASC
			  LIMIT $2
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, domain.OutboxEventStatusPending, limit)
	if err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to get pending outbox events")
	}
	defer rows.Close() //nolint:errcheck

	events := make([]*domain.OutboxEvent, 0)
	for rows.Next() {
		var event domain.OutboxEvent

		err := rows.Scan(&event.ID, &event.EventType, &event.Payload, &event.Status,
			&event.Retries, &event.LastError, &event.ProcessedAt, &event.CreatedAt, &event.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan outbox event")
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to iterate outbox events")
	}

	return events, nil
}

// Update stores the status, retry count and last error of an event.
func (r *PostgreSQLOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_events
			  SET status = $1, retries = $2, last_error = $3, processed_at = $4, updated_at = NOW()
			  WHERE id = $5`

	_, err := querier.ExecContext(ctx, query, event.Status, event.Retries, event.LastError,
		event.ProcessedAt, event.ID)
	if err != nil {
		return apperrors.Wrap(database.ClassifyError(err), "failed to update outbox event")
	}
	return nil
}

// CountByStatus reports how many events are in each status.
func (r *PostgreSQLOutboxEventRepository) CountByStatus(
	ctx context.Context,
) (map[domain.OutboxEventStatus]int64, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, `SELECT status, COUNT(*) FROM outbox_events GROUP BY status`)
	if err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to count outbox events")
	}
	return scanStatusCounts(rows)
}

func scanStatusCounts(rows *sql.Rows) (map[domain.OutboxEventStatus]int64, error) {
	defer rows.Close() //nolint:errcheck

	counts := make(map[domain.OutboxEventStatus]int64)
	for rows.Next() {
		var status domain.OutboxEventStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan outbox count")
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to iterate outbox counts")
	}
	return counts, nil
}
