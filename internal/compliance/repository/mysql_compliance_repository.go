package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	complianceDomain "github.com/allisson/viewvault/internal/compliance/domain"
	"github.com/allisson/viewvault/internal/database"
	apperrors "github.com/allisson/viewvault/internal/errors"
)

// MySQLComplianceRepository implements compliance persistence for MySQL.
// Uses BINARY(16) for UUID storage.
type MySQLComplianceRepository struct {
	db *sql.DB
}

// NewMySQLComplianceRepository creates a new MySQL compliance repository.
func NewMySQLComplianceRepository(db *sql.DB) *MySQLComplianceRepository {
	return &MySQLComplianceRepository{db: db}
}

// Create inserts a compliance record.
func (m *MySQLComplianceRepository) Create(
	ctx context.Context,
	record *complianceDomain.ComplianceRecord,
) error {
	querier := database.GetTx(ctx, m.db)

	id, err := record.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal log id")
	}
	viewID, err := record.ViewID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal view id")
	}

	query := `INSERT INTO legal_compliance_logs (` + complianceColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		viewID,
		record.ProfileID,
		record.ViewerID,
		record.ViewedAt,
		record.EncryptedIP,
		record.EncryptedUserAgent,
		record.EncryptedReferrer,
		record.KeyVersion,
		record.RetentionExpiry,
		record.UnderInvestigation,
		record.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(database.ClassifyError(err), "failed to create compliance record")
	}
	return nil
}

// Get retrieves a compliance record by log id.
func (m *MySQLComplianceRepository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*complianceDomain.ComplianceRecord, error) {
	querier := database.GetTx(ctx, m.db)

	idBinary, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal log id")
	}

	query := `SELECT ` + complianceColumns + ` FROM legal_compliance_logs WHERE id = ?`

	record, err := scanMySQLRecord(querier.QueryRowContext(ctx, query, idBinary))
	if err != nil {
		return nil, notFoundOr(err, "failed to get compliance record")
	}
	return record, nil
}

// GetByViewID retrieves the compliance record linked to an analytics view.
func (m *MySQLComplianceRepository) GetByViewID(
	ctx context.Context,
	viewID uuid.UUID,
) (*complianceDomain.ComplianceRecord, error) {
	querier := database.GetTx(ctx, m.db)

	viewIDBinary, err := viewID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal view id")
	}

	query := `SELECT ` + complianceColumns + ` FROM legal_compliance_logs WHERE view_id = ?`

	record, err := scanMySQLRecord(querier.QueryRowContext(ctx, query, viewIDBinary))
	if err != nil {
		return nil, notFoundOr(err, "failed to get compliance record by view id")
	}
	return record, nil
}

// ListByProfile returns up to limit records of a profile viewed within [from, to], oldest first.
func (m *MySQLComplianceRepository) ListByProfile(
	ctx context.Context,
	profileID string,
	from, to time.Time,
	limit int,
) ([]*complianceDomain.ComplianceRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + complianceColumns + ` FROM legal_compliance_logs
			  WHERE profile_id = ? AND viewed_at >= ? AND viewed_at <= ?
			  ORDER BY viewed_at ASC, id ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, profileID, from, to, limit)
	if err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to list compliance records")
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make([]*complianceDomain.ComplianceRecord, 0)
	for rows.Next() {
		record, err := scanMySQLRecord(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan compliance record")
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to iterate compliance records")
	}
	return records, nil
}

// SetUnderInvestigation sets or clears the investigation hold of a record. MySQL
// reports changed rather than matched rows, so existence is checked by the caller.
func (m *MySQLComplianceRepository) SetUnderInvestigation(ctx context.Context, id uuid.UUID, held bool) error {
	querier := database.GetTx(ctx, m.db)

	idBinary, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal log id")
	}

	_, err = querier.ExecContext(
		ctx,
		`UPDATE legal_compliance_logs SET under_investigation = ? WHERE id = ?`,
		held,
		idBinary,
	)
	if err != nil {
		return apperrors.Wrap(database.ClassifyError(err), "failed to update investigation hold")
	}
	return nil
}

// ListReapableIDs returns up to limit ids of records past expiry and not held, in id
// order, starting after the given id.
func (m *MySQLComplianceRepository) ListReapableIDs(
	ctx context.Context,
	now time.Time,
	after uuid.UUID,
	limit int,
) ([]uuid.UUID, error) {
	querier := database.GetTx(ctx, m.db)

	afterBinary, err := after.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal cursor id")
	}

	query := `SELECT id FROM legal_compliance_logs
			  WHERE retention_expiry < ? AND under_investigation = FALSE AND id > ?
			  ORDER BY id ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, now, afterBinary, limit)
	if err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to list reapable records")
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := make([]uuid.UUID, 0, limit)
	for rows.Next() {
		var idBinary []byte
		if err := rows.Scan(&idBinary); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan reapable id")
		}
		var id uuid.UUID
		if err := id.UnmarshalBinary(idBinary); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal reapable id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to iterate reapable records")
	}
	return ids, nil
}

// DeleteIfReapable deletes the record only if it is still past expiry and not held.
func (m *MySQLComplianceRepository) DeleteIfReapable(
	ctx context.Context,
	id uuid.UUID,
	now time.Time,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	idBinary, err := id.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal log id")
	}

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM legal_compliance_logs
		 WHERE id = ? AND retention_expiry < ? AND under_investigation = FALSE`,
		idBinary,
		now,
	)
	if err != nil {
		return false, apperrors.Wrap(database.ClassifyError(err), "failed to delete compliance record")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to read affected rows")
	}
	return affected == 1, nil
}

// CountStats counts records by retention state at now.
func (m *MySQLComplianceRepository) CountStats(
	ctx context.Context,
	now time.Time,
) (*complianceDomain.Stats, error) {
	querier := database.GetTx(ctx, m.db)
	return countStats(ctx, querier, statsQuery("?"), now, now)
}

func scanMySQLRecord(row rowScanner) (*complianceDomain.ComplianceRecord, error) {
	var r complianceDomain.ComplianceRecord
	var id, viewID []byte
	err := row.Scan(
		&id,
		&viewID,
		&r.ProfileID,
		&r.ViewerID,
		&r.ViewedAt,
		&r.EncryptedIP,
		&r.EncryptedUserAgent,
		&r.EncryptedReferrer,
		&r.KeyVersion,
		&r.RetentionExpiry,
		&r.UnderInvestigation,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := r.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal log id")
	}
	if err := r.ViewID.UnmarshalBinary(viewID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal view id")
	}
	return &r, nil
}
