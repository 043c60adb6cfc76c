// Package domain defines the Tier-3 legal vault entities: legal cases and the
// vault-key ciphertext sealed against them.
package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"
)

// CaseStatus is the lifecycle state of a legal case.
type CaseStatus string

const (
	CaseStatusOpen   CaseStatus = "open"
	CaseStatusClosed CaseStatus = "closed"
)

// LegalCase is the record a court order is tracked under. Vault records exist only
// while their case is open; closing the case destroys them.
type LegalCase struct {
	ID             string
	OrderReference string
	Status         CaseStatus
	OpenedBy       string
	CreatedAt      time.Time
	ClosedAt       *time.Time
}

// Closed reports whether the case has been closed.
func (c *LegalCase) Closed() bool {
	return c.Status == CaseStatusClosed
}

// VaultRecord holds the identifying fields of one view encrypted under the vault key.
//
// A record written at ingest for a legal-hold event is pending: it has no case and no
// authorizers. Sealing attaches it to a case exactly once; after that it is never
// mutated and is only destroyed together with its case.
type VaultRecord struct {
	ID                 uuid.UUID
	CaseID             *string
	LogID              uuid.UUID
	ViewID             uuid.UUID
	ProfileID          string
	EncryptedIP        []byte
	EncryptedUserAgent []byte
	EncryptedReferrer  []byte
	Authorizers        []string
	CreatedAt          time.Time
	SealedAt           *time.Time
}

// Pending reports whether the record still waits to be sealed into a case.
func (r *VaultRecord) Pending() bool {
	return r.CaseID == nil
}

// ExportedRecord is the plaintext of one vault record.
type ExportedRecord struct {
	RecordID  uuid.UUID
	LogID     uuid.UUID
	ViewID    uuid.UUID
	IP        []byte
	UserAgent []byte
	Referrer  []byte
}

// Wipe overwrites the plaintext buffers.
func (r *ExportedRecord) Wipe() {
	cryptoDomain.SecureWipeAll(r.IP, r.UserAgent, r.Referrer)
}

// Export is the result of a two-person vault export. The caller owns the plaintext
// and must call Wipe once the response has been written.
type Export struct {
	CaseID   string
	Records  []*ExportedRecord
	IssuedAt time.Time
}

// Wipe wipes every exported record.
func (e *Export) Wipe() {
	if e == nil {
		return
	}
	for _, r := range e.Records {
		if r != nil {
			r.Wipe()
		}
	}
}

// SealInput seals the Tier-2 records of the given views into a case, opening the
// case if it does not exist yet. Pending legal-hold records for those views are
// attached instead of being re-encrypted.
type SealInput struct {
	CaseID         string
	OrderReference string
	ViewIDs        []uuid.UUID
	Authorizers    []string
	Actor          string
	Reason         string
}

// SealResult reports one sealing.
type SealResult struct {
	Case *LegalCase
	// Sealed counts records newly encrypted from Tier-2.
	Sealed int
	// Claimed counts pending legal-hold records attached to the case.
	Claimed int
	// AlreadySealed counts views that were sealed into the case before.
	AlreadySealed int
}

// ExportInput asks for the plaintext of a case, or of one record in it.
type ExportInput struct {
	CaseID      string
	RecordID    *uuid.UUID
	Authorizers []string
	Actor       string
	Reason      string
}

// CloseInput closes a case once the legal requirement is discharged.
type CloseInput struct {
	CaseID string
	Actor  string
	Reason string
}

// CloseResult reports a closed case.
type CloseResult struct {
	Case           *LegalCase
	DestroyedCount int64
}
