// Package usecase implements the append-only audit log.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
)

// AuditRepository persists audit records. It has no update or delete operation.
type AuditRepository interface {
	Create(ctx context.Context, record *auditDomain.AuditRecord) error
	List(ctx context.Context, filter auditDomain.ListFilter) ([]*auditDomain.AuditRecord, error)
}

// AuditUseCase appends to and reads from the audit log.
type AuditUseCase interface {
	// Append validates entry, stamps it with an id and time, signs it when a signing
	// key is configured and persists it. The record is durable when Append returns nil.
	Append(ctx context.Context, entry auditDomain.Entry) error

	// List returns audit records matching filter, newest first.
	List(ctx context.Context, filter auditDomain.ListFilter) ([]*auditDomain.AuditRecord, error)

	// VerifyBatch checks the signatures of every record created in [start, end].
	VerifyBatch(ctx context.Context, start, end time.Time) (*VerificationReport, error)
}

// VerificationReport summarizes a VerifyBatch run.
type VerificationReport struct {
	TotalChecked  int64
	SignedCount   int64
	UnsignedCount int64
	ValidCount    int64
	InvalidCount  int64
	InvalidLogs   []uuid.UUID
}
