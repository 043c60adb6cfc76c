// Package repository implements Tier-3 persistence for PostgreSQL and MySQL: legal
// cases and the vault-key ciphertext sealed against them.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/viewvault/internal/database"
	apperrors "github.com/allisson/viewvault/internal/errors"
	vaultDomain "github.com/allisson/viewvault/internal/vault/domain"
)

const (
	caseColumns  = `id, order_reference, status, opened_by, created_at, closed_at`
	vaultColumns = `id, case_id, log_id, view_id, profile_id, encrypted_ip, encrypted_user_agent,
			  encrypted_referrer, authorizers, created_at, sealed_at`
)

type rowScanner interface {
	Scan(dest ...any) error
}

// PostgreSQLCaseRepository implements legal case persistence for PostgreSQL.
type PostgreSQLCaseRepository struct {
	db *sql.DB
}

// NewPostgreSQLCaseRepository creates a new PostgreSQL legal case repository.
func NewPostgreSQLCaseRepository(db *sql.DB) *PostgreSQLCaseRepository {
	return &PostgreSQLCaseRepository{db: db}
}

// Create inserts an open case.
func (p *PostgreSQLCaseRepository) Create(ctx context.Context, c *vaultDomain.LegalCase) error {
	querier := database.GetTx(ctx, p.db)

	_, err := querier.ExecContext(
		ctx,
		`INSERT INTO legal_cases (`+caseColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID,
		c.OrderReference,
		c.Status,
		c.OpenedBy,
		c.CreatedAt,
		c.ClosedAt,
	)
	if err != nil {
		return apperrors.Wrap(database.ClassifyError(err), "failed to create legal case")
	}
	return nil
}

// GetForUpdate retrieves a case and, inside a transaction, locks its row until commit.
func (p *PostgreSQLCaseRepository) GetForUpdate(ctx context.Context, id string) (*vaultDomain.LegalCase, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + caseColumns + ` FROM legal_cases WHERE id = $1 FOR UPDATE`

	c, err := scanCase(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, caseNotFoundOr(err)
	}
	return c, nil
}

// Close marks an open case closed.
func (p *PostgreSQLCaseRepository) Close(ctx context.Context, id string, closedAt time.Time) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`UPDATE legal_cases SET status = $1, closed_at = $2 WHERE id = $3 AND status = $4`,
		vaultDomain.CaseStatusClosed,
		closedAt,
		id,
		vaultDomain.CaseStatusOpen,
	)
	if err != nil {
		return apperrors.Wrap(database.ClassifyError(err), "failed to close legal case")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return vaultDomain.ErrCaseClosed
	}
	return nil
}

// PostgreSQLVaultRepository implements vault record persistence for PostgreSQL.
type PostgreSQLVaultRepository struct {
	db *sql.DB
}

// NewPostgreSQLVaultRepository creates a new PostgreSQL vault record repository.
func NewPostgreSQLVaultRepository(db *sql.DB) *PostgreSQLVaultRepository {
	return &PostgreSQLVaultRepository{db: db}
}

// Create inserts a vault record, pending or sealed.
func (p *PostgreSQLVaultRepository) Create(ctx context.Context, r *vaultDomain.VaultRecord) error {
	querier := database.GetTx(ctx, p.db)

	authorizers, err := marshalAuthorizers(r.Authorizers)
	if err != nil {
		return err
	}

	_, err = querier.ExecContext(
		ctx,
		`INSERT INTO legal_vault (`+vaultColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID,
		r.CaseID,
		r.LogID,
		r.ViewID,
		r.ProfileID,
		r.EncryptedIP,
		r.EncryptedUserAgent,
		r.EncryptedReferrer,
		authorizers,
		r.CreatedAt,
		r.SealedAt,
	)
	if err != nil {
		return apperrors.Wrap(database.ClassifyError(err), "failed to create vault record")
	}
	return nil
}

// GetPendingByViewID returns the oldest pending legal-hold record of a view.
func (p *PostgreSQLVaultRepository) GetPendingByViewID(
	ctx context.Context,
	viewID uuid.UUID,
) (*vaultDomain.VaultRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + vaultColumns + ` FROM legal_vault
			  WHERE view_id = $1 AND case_id IS NULL
			  ORDER BY created_at ASC LIMIT 1`

	r, err := scanPostgresVaultRecord(querier.QueryRowContext(ctx, query, viewID))
	if err != nil {
		return nil, recordNotFoundOr(err)
	}
	return r, nil
}

// ExistsInCase reports whether a view is already sealed into a case.
func (p *PostgreSQLVaultRepository) ExistsInCase(ctx context.Context, caseID string, viewID uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	var exists bool
	err := querier.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM legal_vault WHERE case_id = $1 AND view_id = $2)`,
		caseID,
		viewID,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(database.ClassifyError(err), "failed to check vault record")
	}
	return exists, nil
}

// Claim seals a pending record into a case. It returns false if the record was
// claimed or removed in the meantime.
func (p *PostgreSQLVaultRepository) Claim(
	ctx context.Context,
	id uuid.UUID,
	caseID string,
	authorizers []string,
	sealedAt time.Time,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	encoded, err := marshalAuthorizers(authorizers)
	if err != nil {
		return false, err
	}

	result, err := querier.ExecContext(
		ctx,
		`UPDATE legal_vault SET case_id = $1, authorizers = $2, sealed_at = $3
		 WHERE id = $4 AND case_id IS NULL`,
		caseID,
		encoded,
		sealedAt,
		id,
	)
	if err != nil {
		return false, apperrors.Wrap(database.ClassifyError(err), "failed to seal pending vault record")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to read affected rows")
	}
	return affected == 1, nil
}

// ListByCase returns the records sealed into a case, oldest first.
func (p *PostgreSQLVaultRepository) ListByCase(ctx context.Context, caseID string) ([]*vaultDomain.VaultRecord, error) {
	querier := database.GetTx(ctx, p.db)

	rows, err := querier.QueryContext(
		ctx,
		`SELECT `+vaultColumns+` FROM legal_vault WHERE case_id = $1 ORDER BY created_at ASC, id ASC`,
		caseID,
	)
	if err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to list vault records")
	}
	return collectVaultRecords(rows, scanPostgresVaultRecord)
}

// DeleteByCase destroys every record of a case.
func (p *PostgreSQLVaultRepository) DeleteByCase(ctx context.Context, caseID string) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM legal_vault WHERE case_id = $1`, caseID)
	if err != nil {
		return 0, apperrors.Wrap(database.ClassifyError(err), "failed to destroy vault records")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read affected rows")
	}
	return affected, nil
}

func scanCase(row rowScanner) (*vaultDomain.LegalCase, error) {
	var c vaultDomain.LegalCase
	if err := row.Scan(&c.ID, &c.OrderReference, &c.Status, &c.OpenedBy, &c.CreatedAt, &c.ClosedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanPostgresVaultRecord(row rowScanner) (*vaultDomain.VaultRecord, error) {
	var r vaultDomain.VaultRecord
	var authorizers sql.NullString
	err := row.Scan(
		&r.ID,
		&r.CaseID,
		&r.LogID,
		&r.ViewID,
		&r.ProfileID,
		&r.EncryptedIP,
		&r.EncryptedUserAgent,
		&r.EncryptedReferrer,
		&authorizers,
		&r.CreatedAt,
		&r.SealedAt,
	)
	if err != nil {
		return nil, err
	}
	if r.Authorizers, err = unmarshalAuthorizers(authorizers); err != nil {
		return nil, err
	}
	return &r, nil
}

func collectVaultRecords(
	rows *sql.Rows,
	scan func(rowScanner) (*vaultDomain.VaultRecord, error),
) ([]*vaultDomain.VaultRecord, error) {
	defer func() {
		_ = rows.Close()
	}()

	records := make([]*vaultDomain.VaultRecord, 0)
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan vault record")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to iterate vault records")
	}
	return records, nil
}

// marshalAuthorizers encodes the authorizers as a JSON array, or NULL for a pending record.
func marshalAuthorizers(names []string) (*string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(names)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal authorizers")
	}
	s := string(raw)
	return &s, nil
}

func unmarshalAuthorizers(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(raw.String), &names); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal authorizers")
	}
	return names, nil
}

func caseNotFoundOr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return vaultDomain.ErrCaseNotFound
	}
	return apperrors.Wrap(database.ClassifyError(err), "failed to get legal case")
}

func recordNotFoundOr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return vaultDomain.ErrRecordNotFound
	}
	return apperrors.Wrap(database.ClassifyError(err), "failed to get vault record")
}
