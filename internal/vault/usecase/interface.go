// Package usecase implements the Tier-3 legal vault: sealing Tier-2 records into a
// legal case, the two-person export and closing a case.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
	complianceDomain "github.com/allisson/viewvault/internal/compliance/domain"
	cryptoService "github.com/allisson/viewvault/internal/crypto/service"
	vaultDomain "github.com/allisson/viewvault/internal/vault/domain"
)

// CaseRepository defines the interface for legal case persistence.
type CaseRepository interface {
	Create(ctx context.Context, c *vaultDomain.LegalCase) error
	GetForUpdate(ctx context.Context, id string) (*vaultDomain.LegalCase, error)
	Close(ctx context.Context, id string, closedAt time.Time) error
}

// VaultRepository defines the interface for vault record persistence.
type VaultRepository interface {
	Create(ctx context.Context, r *vaultDomain.VaultRecord) error
	GetPendingByViewID(ctx context.Context, viewID uuid.UUID) (*vaultDomain.VaultRecord, error)
	ExistsInCase(ctx context.Context, caseID string, viewID uuid.UUID) (bool, error)
	Claim(ctx context.Context, id uuid.UUID, caseID string, authorizers []string, sealedAt time.Time) (bool, error)
	ListByCase(ctx context.Context, caseID string) ([]*vaultDomain.VaultRecord, error)
	DeleteByCase(ctx context.Context, caseID string) (int64, error)
}

// ComplianceReader reads the Tier-2 record a view is sealed from.
type ComplianceReader interface {
	GetByViewID(ctx context.Context, viewID uuid.UUID) (*complianceDomain.ComplianceRecord, error)
}

// KeyManager opens Tier-2 ciphertext and lends out the vault key.
type KeyManager interface {
	DecryptCompliance(blob []byte) ([]byte, error)
	WithVaultKey(ctx context.Context, fn func(vault cryptoService.VaultCipher) error) error
}

// Auditor appends to the audit log.
type Auditor interface {
	Append(ctx context.Context, entry auditDomain.Entry) error
}

// VaultUseCase defines the Tier-3 business operations.
type VaultUseCase interface {
	// StorePending persists a legal-hold record written at ingest. Storing the same
	// record twice is a no-op.
	StorePending(ctx context.Context, record *vaultDomain.VaultRecord) error

	// Seal attaches the given views to a case, opening it on first use. Audited SEAL_T3.
	Seal(ctx context.Context, in vaultDomain.SealInput) (*vaultDomain.SealResult, error)

	// Export decrypts a case, or one record of it, for two distinct authorizers.
	// The EXPORT_T3 audit record is committed before plaintext is returned and the
	// caller must wipe the export.
	Export(ctx context.Context, in vaultDomain.ExportInput) (*vaultDomain.Export, error)

	// CloseCase destroys the records of a case and closes it. Audited DESTROY_T3.
	CloseCase(ctx context.Context, in vaultDomain.CloseInput) (*vaultDomain.CloseResult, error)
}
