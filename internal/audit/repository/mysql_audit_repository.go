package repository

import (
	"context"
	"database/sql"
	"strings"

	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
	"github.com/allisson/viewvault/internal/database"
	apperrors "github.com/allisson/viewvault/internal/errors"
)

// MySQLAuditRepository implements audit record persistence for MySQL.
// Uses BINARY(16) for UUID storage.
type MySQLAuditRepository struct {
	db *sql.DB
}

// NewMySQLAuditRepository creates a new MySQL audit repository.
func NewMySQLAuditRepository(db *sql.DB) *MySQLAuditRepository {
	return &MySQLAuditRepository{db: db}
}

// Create inserts an audit record.
func (m *MySQLAuditRepository) Create(ctx context.Context, record *auditDomain.AuditRecord) error {
	querier := database.GetTx(ctx, m.db)

	metadataJSON, err := marshalMetadata(record.Metadata)
	if err != nil {
		return err
	}

	id, err := record.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit record id")
	}

	query := `INSERT INTO audit_log (id, actor, action, target_id, reason, outcome, failure_kind, metadata,
			  signature, key_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		record.Actor,
		string(record.Action),
		record.TargetID,
		record.Reason,
		string(record.Outcome),
		record.FailureKind,
		metadataJSON,
		record.Signature,
		record.KeyID,
		record.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(database.ClassifyError(err), "failed to create audit record")
	}

	return nil
}

// List returns audit records matching filter, newest first. Both time boundaries are inclusive.
func (m *MySQLAuditRepository) List(
	ctx context.Context,
	filter auditDomain.ListFilter,
) ([]*auditDomain.AuditRecord, error) {
	querier := database.GetTx(ctx, m.db)

	var conditions []string
	var args []any

	if filter.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.TargetID != "" {
		conditions = append(conditions, "target_id = ?")
		args = append(args, filter.TargetID)
	}
	if filter.From != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *filter.To)
	}

	query := `SELECT id, actor, action, target_id, reason, outcome, failure_kind, metadata, signature,
			  key_id, created_at
			  FROM audit_log`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to list audit records")
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make([]*auditDomain.AuditRecord, 0)
	for rows.Next() {
		var record auditDomain.AuditRecord
		var idBinary, metadataJSON []byte
		var action, outcome string

		err := rows.Scan(
			&idBinary,
			&record.Actor,
			&action,
			&record.TargetID,
			&record.Reason,
			&outcome,
			&record.FailureKind,
			&metadataJSON,
			&record.Signature,
			&record.KeyID,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit record")
		}

		if err := record.ID.UnmarshalBinary(idBinary); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit record id")
		}
		record.Action = auditDomain.Action(action)
		record.Outcome = auditDomain.Outcome(outcome)
		if record.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
			return nil, err
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to iterate audit records")
	}

	return records, nil
}
