package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/viewvault/internal/database"
	apperrors "github.com/allisson/viewvault/internal/errors"
	vaultDomain "github.com/allisson/viewvault/internal/vault/domain"
)

// MySQLCaseRepository implements legal case persistence for MySQL.
type MySQLCaseRepository struct {
	db *sql.DB
}

// NewMySQLCaseRepository creates a new MySQL legal case repository.
func NewMySQLCaseRepository(db *sql.DB) *MySQLCaseRepository {
	return &MySQLCaseRepository{db: db}
}

// Create inserts an open case.
func (m *MySQLCaseRepository) Create(ctx context.Context, c *vaultDomain.LegalCase) error {
	querier := database.GetTx(ctx, m.db)

	_, err := querier.ExecContext(
		ctx,
		`INSERT INTO legal_cases (`+caseColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
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
func (m *MySQLCaseRepository) GetForUpdate(ctx context.Context, id string) (*vaultDomain.LegalCase, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + caseColumns + ` FROM legal_cases WHERE id = ? FOR UPDATE`

	c, err := scanCase(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, caseNotFoundOr(err)
	}
	return c, nil
}

// Close marks an open case closed.
func (m *MySQLCaseRepository) Close(ctx context.Context, id string, closedAt time.Time) error {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(
		ctx,
		`UPDATE legal_cases SET status = ?, closed_at = ? WHERE id = ? AND status = ?`,
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

// MySQLVaultRepository implements vault record persistence for MySQL.
// Uses BINARY(16) for UUID storage.
type MySQLVaultRepository struct {
	db *sql.DB
}

// NewMySQLVaultRepository creates a new MySQL vault record repository.
func NewMySQLVaultRepository(db *sql.DB) *MySQLVaultRepository {
	return &MySQLVaultRepository{db: db}
}

// Create inserts a vault record, pending or sealed.
func (m *MySQLVaultRepository) Create(ctx context.Context, r *vaultDomain.VaultRecord) error {
	querier := database.GetTx(ctx, m.db)

	authorizers, err := marshalAuthorizers(r.Authorizers)
	if err != nil {
		return err
	}
	ids, err := marshalIDs(r.ID, r.LogID, r.ViewID)
	if err != nil {
		return err
	}

	_, err = querier.ExecContext(
		ctx,
		`INSERT INTO legal_vault (`+vaultColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ids[0],
		r.CaseID,
		ids[1],
		ids[2],
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
func (m *MySQLVaultRepository) GetPendingByViewID(
	ctx context.Context,
	viewID uuid.UUID,
) (*vaultDomain.VaultRecord, error) {
	querier := database.GetTx(ctx, m.db)

	viewBinary, err := viewID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal view id")
	}

	query := `SELECT ` + vaultColumns + ` FROM legal_vault
			  WHERE view_id = ? AND case_id IS NULL
			  ORDER BY created_at ASC LIMIT 1`

	r, err := scanMySQLVaultRecord(querier.QueryRowContext(ctx, query, viewBinary))
	if err != nil {
		return nil, recordNotFoundOr(err)
	}
	return r, nil
}

// ExistsInCase reports whether a view is already sealed into a case.
func (m *MySQLVaultRepository) ExistsInCase(ctx context.Context, caseID string, viewID uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	viewBinary, err := viewID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal view id")
	}

	var exists bool
	err = querier.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM legal_vault WHERE case_id = ? AND view_id = ?)`,
		caseID,
		viewBinary,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(database.ClassifyError(err), "failed to check vault record")
	}
	return exists, nil
}

// Claim seals a pending record into a case. It returns false if the record was
// claimed or removed in the meantime.
func (m *MySQLVaultRepository) Claim(
	ctx context.Context,
	id uuid.UUID,
	caseID string,
	authorizers []string,
	sealedAt time.Time,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	encoded, err := marshalAuthorizers(authorizers)
	if err != nil {
		return false, err
	}
	idBinary, err := id.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal vault record id")
	}

	result, err := querier.ExecContext(
		ctx,
		`UPDATE legal_vault SET case_id = ?, authorizers = ?, sealed_at = ?
		 WHERE id = ? AND case_id IS NULL`,
		caseID,
		encoded,
		sealedAt,
		idBinary,
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
func (m *MySQLVaultRepository) ListByCase(ctx context.Context, caseID string) ([]*vaultDomain.VaultRecord, error) {
	querier := database.GetTx(ctx, m.db)

	rows, err := querier.QueryContext(
		ctx,
		`SELECT `+vaultColumns+` FROM legal_vault WHERE case_id = ? ORDER BY created_at ASC, id ASC`,
		caseID,
	)
	if err != nil {
		return nil, apperrors.Wrap(database.ClassifyError(err), "failed to list vault records")
	}
	return collectVaultRecords(rows, scanMySQLVaultRecord)
}

// DeleteByCase destroys every record of a case.
func (m *MySQLVaultRepository) DeleteByCase(ctx context.Context, caseID string) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM legal_vault WHERE case_id = ?`, caseID)
	if err != nil {
		return 0, apperrors.Wrap(database.ClassifyError(err), "failed to destroy vault records")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read affected rows")
	}
	return affected, nil
}

func marshalIDs(ids ...uuid.UUID) ([][]byte, error) {
	out := make([][]byte, 0, len(ids))
	for _, id := range ids {
		b, err := id.MarshalBinary()
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal id")
		}
		out = append(out, b)
	}
	return out, nil
}

func scanMySQLVaultRecord(row rowScanner) (*vaultDomain.VaultRecord, error) {
	var r vaultDomain.VaultRecord
	var id, logID, viewID []byte
	var authorizers sql.NullString
	err := row.Scan(
		&id,
		&r.CaseID,
		&logID,
		&viewID,
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
	if err := r.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal vault record id")
	}
	if err := r.LogID.UnmarshalBinary(logID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal log id")
	}
	if err := r.ViewID.UnmarshalBinary(viewID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal view id")
	}
	if r.Authorizers, err = unmarshalAuthorizers(authorizers); err != nil {
		return nil, err
	}
	return &r, nil
}
