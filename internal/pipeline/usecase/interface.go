// Package usecase implements the ingest orchestrator: one profile view is split into a
// coarse Tier-1 record, an encrypted Tier-2 record and, under legal hold, a pending
// Tier-3 record.
package usecase

import (
	"context"

	"github.com/google/uuid"

	analyticsDomain "github.com/allisson/viewvault/internal/analytics/domain"
	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
	complianceDomain "github.com/allisson/viewvault/internal/compliance/domain"
	cryptoService "github.com/allisson/viewvault/internal/crypto/service"
	pipelineDomain "github.com/allisson/viewvault/internal/pipeline/domain"
	vaultDomain "github.com/allisson/viewvault/internal/vault/domain"
)

// AnalyticsRecorder commits Tier-1 records.
type AnalyticsRecorder interface {
	Record(ctx context.Context, record *analyticsDomain.AnalyticsRecord) error
}

// ComplianceStore commits Tier-2 records.
type ComplianceStore interface {
	Store(ctx context.Context, record *complianceDomain.ComplianceRecord) error
}

// VaultStore commits pending Tier-3 records.
type VaultStore interface {
	StorePending(ctx context.Context, record *vaultDomain.VaultRecord) error
}

// SealQueue durably queues a pending Tier-3 record whose commit failed.
type SealQueue interface {
	EnqueueVaultSeal(ctx context.Context, record *vaultDomain.VaultRecord) error
}

// KeyManager encrypts under the compliance key and lends out the vault key.
type KeyManager interface {
	CurrentComplianceVersion() uint16
	EncryptCompliance(plaintext []byte) ([]byte, error)
	WithVaultKey(ctx context.Context, fn func(vault cryptoService.VaultCipher) error) error
}

// Auditor appends to the audit log.
type Auditor interface {
	Append(ctx context.Context, entry auditDomain.Entry) error
}

// PipelineUseCase ingests profile views.
type PipelineUseCase interface {
	// Record ingests one view and returns its viewId. The event's plaintext buffers
	// are wiped before Record returns, whatever the outcome. When the Tier-2 commit
	// fails after Tier-1 succeeded, the viewId is returned together with the error.
	Record(ctx context.Context, event *pipelineDomain.ProfileViewEvent) (uuid.UUID, error)
}
