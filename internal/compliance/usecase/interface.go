// Package usecase implements the Tier-2 compliance operations: storing encrypted
// records, the audited decrypting query, investigation holds and the retention reaper.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
	complianceDomain "github.com/allisson/viewvault/internal/compliance/domain"
)

// ComplianceRepository defines the interface for compliance record persistence.
type ComplianceRepository interface {
	Create(ctx context.Context, record *complianceDomain.ComplianceRecord) error
	Get(ctx context.Context, id uuid.UUID) (*complianceDomain.ComplianceRecord, error)
	GetByViewID(ctx context.Context, viewID uuid.UUID) (*complianceDomain.ComplianceRecord, error)
	ListByProfile(
		ctx context.Context,
		profileID string,
		from, to time.Time,
		limit int,
	) ([]*complianceDomain.ComplianceRecord, error)
	SetUnderInvestigation(ctx context.Context, id uuid.UUID, held bool) error
	ListReapableIDs(ctx context.Context, now time.Time, after uuid.UUID, limit int) ([]uuid.UUID, error)
	DeleteIfReapable(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	CountStats(ctx context.Context, now time.Time) (*complianceDomain.Stats, error)
}

// Decrypter opens Tier-2 ciphertext.
type Decrypter interface {
	DecryptCompliance(blob []byte) ([]byte, error)
}

// Auditor appends to the audit log.
type Auditor interface {
	Append(ctx context.Context, entry auditDomain.Entry) error
}

// ComplianceUseCase defines the Tier-2 business operations.
type ComplianceUseCase interface {
	// Store persists a record whose identifying fields are already encrypted.
	Store(ctx context.Context, record *complianceDomain.ComplianceRecord) error

	// Query decrypts the records matching filter. A DECRYPT_T2 audit record is
	// committed before any plaintext is returned. The caller must wipe the views.
	Query(
		ctx context.Context,
		actor string,
		filter complianceDomain.QueryFilter,
		reason string,
	) ([]*complianceDomain.DecryptedView, error)

	// SetInvestigation sets or clears the retention-exempt hold on a record.
	SetInvestigation(
		ctx context.Context,
		actor string,
		logID uuid.UUID,
		held bool,
		reason string,
	) (*complianceDomain.ComplianceRecord, error)

	// Stats counts records by retention state. Audited as READ_T2.
	Stats(ctx context.Context, actor string, now time.Time) (*complianceDomain.Stats, error)

	// Sweep deletes every record past expiry and not held, auditing each deletion.
	Sweep(ctx context.Context, opts complianceDomain.SweepOptions) (*complianceDomain.SweepResult, error)
}
