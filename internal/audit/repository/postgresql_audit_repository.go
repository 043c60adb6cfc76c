// Package repository implements audit record persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
	"github.com/allisson/viewvault/internal/database"
	apperrors "github.com/allisson/viewvault/internal/errors"
)

// PostgreSQLAuditRepository implements audit record persistence for PostgreSQL.
// It only inserts and reads; the audit_log table rejects UPDATE and DELETE.
type PostgreSQLAuditRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditRepository creates a new PostgreSQL audit repository.
func NewPostgreSQLAuditRepository(db *sql.DB) *PostgreSQLAuditRepository {
	return &PostgreSQLAuditRepository{db: db}
}

// Create inserts an audit record. Nil metadata and unsigned records are stored as NULL.
func (p *PostgreSQLAuditRepository) Create(ctx context.Context, record *auditDomain.AuditRecord) error {
	querier := database.GetTx(ctx, p.db)

	metadataJSON, err := marshalMetadata(record.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO audit_log (id, actor, action, target_id, reason, outcome, failure_kind, metadata,
			  signature, key_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = querier.ExecContext(
		ctx,
		query,
		record.ID,
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
func (p *PostgreSQLAuditRepository) List(
	ctx context.Context,
	filter auditDomain.ListFilter,
) ([]*auditDomain.AuditRecord, error) {
	querier := database.GetTx(ctx, p.db)

	var conditions []string
	var args []any
	placeholder := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Action != "" {
		conditions = append(conditions, "action = "+placeholder(string(filter.Action)))
	}
	if filter.TargetID != "" {
		conditions = append(conditions, "target_id = "+placeholder(filter.TargetID))
	}
	if filter.From != nil {
		conditions = append(conditions, "created_at >= "+placeholder(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "created_at <= "+placeholder(*filter.To))
	}

	query := `SELECT id, actor, action, target_id, reason, outcome, failure_kind, metadata, signature,
			  key_id, created_at
			  FROM audit_log`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT " + placeholder(filter.Limit) +
		" OFFSET " + placeholder(filter.Offset)

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
		var action, outcome string
		var metadataJSON []byte

		err := rows.Scan(
			&record.ID,
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

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal audit record metadata")
	}
	return b, nil
}

func unmarshalMetadata(b []byte) (map[string]any, error) {
	if b == nil {
		return nil, nil
	}
	var metadata map[string]any
	if err := json.Unmarshal(b, &metadata); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal audit record metadata")
	}
	return metadata, nil
}
