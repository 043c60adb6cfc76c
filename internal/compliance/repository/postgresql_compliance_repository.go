// Package repository implements Tier-2 compliance persistence for PostgreSQL and MySQL.
// Only ciphertext is ever written or read here.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	complianceDomain "github.com/allisson/viewvault/internal/compliance/domain"
	"github.com/allisson/viewvault/internal/database"
	apperrors "github.com/allisson/viewvault/internal/errors"
)

const complianceColumns = `id, view_id, profile_id, viewer_id, viewed_at, encrypted_ip, encrypted_user_agent,
			  encrypted_referrer, key_version, retention_expiry, under_investigation, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// PostgreSQLComplianceRepository implements compliance persistence for PostgreSQL.
type PostgreSQLComplianceRepository struct {
	db *sql.DB
}

// NewPostgreSQLComplianceRepository creates a new PostgreSQL compliance repository.
func NewPostgreSQLComplianceRepository(db *sql.DB) *PostgreSQLComplianceRepository {
	return &PostgreSQLComplianceRepository{db: db}
}

// Create inserts a compliance record.
func (p *PostgreSQLComplianceRepository) Create(
	ctx context.Context,
	record *complianceDomain.ComplianceRecord,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO legal_compliance_logs (` + complianceColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.ID,
		record.ViewID,
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
func (p *PostgreSQLComplianceRepository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*complianceDomain.ComplianceRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + complianceColumns + ` FROM legal_compliance_logs WHERE id = $1`

	record, err := scanPostgresRecord(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "failed to get compliance record")
	}
	return record, nil
}

// GetByViewID retrieves the compliance record linked to an analytics view.
func (p *PostgreSQLComplianceRepository) GetByViewID(
	ctx context.Context,
	viewID uuid.UUID,
) (*complianceDomain.ComplianceRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + complianceColumns + ` FROM legal_compliance_logs WHERE view_id = $1`

	record, err := scanPostgresRecord(querier.QueryRowContext(ctx, query, viewID))
	if err != nil {
		return nil, notFoundOr(err, "failed to get compliance record by view id")
	}
	return record, nil
}

// ListByProfile returns up to limit records of a profile viewed within [from, to], oldest first.
func (p *PostgreSQLComplianceRepository) ListByProfile(
	ctx context.Context,
	profileID string,
	from, to time.Time,
	limit int,
) ([]*complianceDomain.ComplianceRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + complianceColumns + ` FROM legal_compliance_logs
			  WHERE profile_id = $1 AND viewed_at >= $2 AND viewed_at <= $3
			  ORDER BY viewed_at ASC, id ASC
			  LIMIT $4`

	rows, err := querier.QueryContext(ctx, query, profileID, from, to, limit)
	if err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to list compliance records")
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make([]*complianceDomain.ComplianceRecord, 0)
	for rows.Next() {
		record, err := scanPostgresRecord(rows)
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

// SetUnderInvestigation sets or clears the investigation hold of a record.
func (p *PostgreSQLComplianceRepository) SetUnderInvestigation(ctx context.Context, id uuid.UUID, held bool) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`UPDATE legal_compliance_logs SET under_investigation = $1 WHERE id = $2`,
		held,
		id,
	)
	if err != nil {
		return apperrors.Wrap(database.ClassifyError(err), "failed to update investigation hold")
	}
	return requireOneRow(result)
}

// ListReapableIDs returns up to limit ids of records past expiry and not held, in id
// order, starting after the given id.
func (p *PostgreSQLComplianceRepository) ListReapableIDs(
	ctx context.Context,
	now time.Time,
	after uuid.UUID,
	limit int,
) ([]uuid.UUID, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id FROM legal_compliance_logs
			  WHERE retention_expiry < $1 AND under_investigation = FALSE AND id > $2
			  ORDER BY id ASC
			  LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, now, after, limit)
	if err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to list reapable records")
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := make([]uuid.UUID, 0, limit)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan reapable id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to iterate reapable records")
	}
	return ids, nil
}

// DeleteIfReapable deletes the record only if it is still past expiry and not held,
// so a hold set after the record was selected always wins.
func (p *PostgreSQLComplianceRepository) DeleteIfReapable(
	ctx context.Context,
	id uuid.UUID,
	now time.Time,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM legal_compliance_logs
		 WHERE id = $1 AND retention_expiry < $2 AND under_investigation = FALSE`,
		id,
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
func (p *PostgreSQLComplianceRepository) CountStats(
	ctx context.Context,
	now time.Time,
) (*complianceDomain.Stats, error) {
	querier := database.GetTx(ctx, p.db)
	return countStats(ctx, querier, statsQuery("$1"), now)
}

func statsQuery(placeholder string) string {
	return `SELECT COUNT(*),
			  COALESCE(SUM(CASE WHEN retention_expiry < ` + placeholder + ` AND under_investigation = FALSE THEN 1 ELSE 0 END), 0),
			  COALESCE(SUM(CASE WHEN under_investigation = TRUE THEN 1 ELSE 0 END), 0),
			  COALESCE(SUM(CASE WHEN retention_expiry < ` + placeholder + ` AND under_investigation = TRUE THEN 1 ELSE 0 END), 0)
			  FROM legal_compliance_logs`
}

func countStats(
	ctx context.Context,
	querier database.Querier,
	query string,
	args ...any,
) (*complianceDomain.Stats, error) {
	var stats complianceDomain.Stats
	err := querier.QueryRowContext(ctx, query, args...).
		Scan(&stats.Total, &stats.Expired, &stats.Held, &stats.HeldExpired)
	if err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to count compliance records")
	}
	return &stats, nil
}

func scanPostgresRecord(row rowScanner) (*complianceDomain.ComplianceRecord, error) {
	var r complianceDomain.ComplianceRecord
	err := row.Scan(
		&r.ID,
		&r.ViewID,
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
	return &r, nil
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return complianceDomain.ErrRecordNotFound
	}
	return apperrors.Wrap(database.ClassifyError(err), message)
}

func requireOneRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return complianceDomain.ErrRecordNotFound
	}
	return nil
}
