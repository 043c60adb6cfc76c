package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/viewvault/internal/database"
	apperrors "github.com/allisson/viewvault/internal/errors"
	"github.com/allisson/viewvault/internal/outbox/domain"
)

// MySQLOutboxEventRepository handles outbox event persistence for MySQL
type MySQLOutboxEventRepository struct {
	db *sql.DB
}

// NewMySQLOutboxEventRepository creates a new MySQLOutboxEventRepository
func NewMySQLOutboxEventRepository(db *sql.DB) *MySQLOutboxEventRepository {
	return &MySQLOutboxEventRepository{
		db: db,
	}
}

// Create inserts a new outbox event
func (r *MySQLOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO outbox_events (` + outboxColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := event.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal outbox event id")
	}

	_, err = querier.ExecContext(ctx, query, idBytes, event.EventType, event.Payload, event.Status,
		event.Retries, event.LastError, event.ProcessedAt, event.CreatedAt, event.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(database.ClassifyError(err), "failed to create outbox event")
	}
	return nil
}

// GetPendingEvents locks up to limit pending events, oldest first. Rows locked by
// another worker are skipped.
func (r *MySQLOutboxEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + outboxColumns + `
			  FROM outbox_events
			  WHERE status = ?
			  ORDER BY created_at ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, domain.OutboxEventStatusPending, limit)
	if err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to get pending outbox events")
	}
	defer rows.Close() //nolint:errcheck

	events := make([]*domain.OutboxEvent, 0)
	for rows.Next() {
		var event domain.OutboxEvent
		var idBytes []byte

		err := rows.Scan(&idBytes, &event.EventType, &event.Payload, &event.Status,
			&event.Retries, &event.LastError, &event.ProcessedAt, &event.CreatedAt, &event.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan outbox event")
		}

		// Convert bytes back to UUID
		if err := event.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal outbox event id")
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to iterate outbox events")
	}

	return events, nil
}

// Update stores the status, retry count and last error of an event.
func (r *MySQLOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_events
			  SET status = ?, retries = ?, last_error = ?, processed_at = ?, updated_at = NOW()
			  WHERE id = ?`

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := event.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal outbox event id")
	}

	_, err = querier.ExecContext(ctx, query, event.Status, event.Retries, event.LastError,
		event.ProcessedAt, idBytes)
	if err != nil {
		return apperrors.Wrap(database.ClassifyError(err), "failed to update outbox event")
	}
	return nil
}

// CountByStatus reports how many events are in each status.
func (r *MySQLOutboxEventRepository) CountByStatus(
	ctx context.Context,
) (map[domain.OutboxEventStatus]int64, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, `SELECT status, COUNT(*) FROM outbox_events GROUP BY status`)
	if err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to count outbox events")
	}
	return scanStatusCounts(rows)
}
