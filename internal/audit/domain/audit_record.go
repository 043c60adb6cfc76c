// Package domain defines the append-only audit log entities.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Action names the privileged operation an AuditRecord describes.
type Action string

const (
	ActionReadT2               Action = "READ_T2"
	ActionDecryptT2            Action = "DECRYPT_T2"
	ActionExportT3             Action = "EXPORT_T3"
	ActionDeleteT2             Action = "DELETE_T2"
	ActionSealT3               Action = "SEAL_T3"
	ActionDestroyT3            Action = "DESTROY_T3"
	ActionInvestigationSet     Action = "INVESTIGATION_SET"
	ActionInvestigationCleared Action = "INVESTIGATION_CLEARED"
	ActionAuthFailed           Action = "AUTH_FAILED"
	ActionDanglingT1           Action = "DANGLING_T1"
)

// Actions lists every known action.
var Actions = []Action{
	ActionReadT2,
	ActionDecryptT2,
	ActionExportT3,
	ActionDeleteT2,
	ActionSealT3,
	ActionDestroyT3,
	ActionInvestigationSet,
	ActionInvestigationCleared,
	ActionAuthFailed,
	ActionDanglingT1,
}

// Outcome is the result of the audited operation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// SystemActor is the actor recorded for operations started by the service itself.
const SystemActor = "system"

// AuditRecord is one immutable audit log line. It carries identifiers only: never an
// IP, user agent, referrer or any other plaintext it audits access to.
type AuditRecord struct {
	ID          uuid.UUID
	Actor       string
	Action      Action
	TargetID    string
	Reason      string
	Outcome     Outcome
	FailureKind string
	Metadata    map[string]any
	Signature   []byte
	KeyID       *string
	CreatedAt   time.Time
}

// IsSigned reports whether the record carries a signature.
func (r *AuditRecord) IsSigned() bool {
	return len(r.Signature) > 0 && r.KeyID != nil
}

// Entry is the caller-supplied part of an AuditRecord.
type Entry struct {
	Actor       string
	Action      Action
	TargetID    string
	Reason      string
	Outcome     Outcome
	FailureKind string
	Metadata    map[string]any
}

// ListFilter selects audit records. Zero values mean no filter.
type ListFilter struct {
	Action   Action
	TargetID string
	From     *time.Time
	To       *time.Time
	Offset   int
	Limit    int
}
