// Package domain defines the Tier-2 compliance entities: encrypted identifying
// view data with a bounded retention window.
package domain

import (
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"
)

// ComplianceRecord is the encrypted identifying half of a profile view. The three
// Encrypted fields hold header || nonce || ciphertext || tag blobs produced under the
// compliance key; the plaintext never reaches this type.
//
// A record is mutated only to set or clear UnderInvestigation.
type ComplianceRecord struct {
	ID                 uuid.UUID
	ViewID             uuid.UUID
	ProfileID          string
	ViewerID           *string
	ViewedAt           time.Time
	EncryptedIP        []byte
	EncryptedUserAgent []byte
	EncryptedReferrer  []byte
	KeyVersion         uint16
	RetentionExpiry    time.Time
	UnderInvestigation bool
	CreatedAt          time.Time
}

// RetentionExpiry returns the moment a record viewed at viewedAt becomes reapable.
func RetentionExpiry(viewedAt time.Time, months int) time.Time {
	return viewedAt.UTC().AddDate(0, months, 0)
}

// Reapable reports whether the reaper may delete the record at now.
func (r *ComplianceRecord) Reapable(now time.Time) bool {
	return !r.UnderInvestigation && r.RetentionExpiry.Before(now)
}

// DecryptedView is the plaintext returned by a compliance query. The caller owns the
// buffers and must call Wipe once the response has been written.
type DecryptedView struct {
	LogID     uuid.UUID
	ViewID    uuid.UUID
	ViewedAt  time.Time
	IP        []byte
	UserAgent []byte
	Referrer  []byte
}

// Wipe overwrites the plaintext buffers.
func (v *DecryptedView) Wipe() {
	cryptoDomain.SecureWipeAll(v.IP, v.UserAgent, v.Referrer)
}

// WipeViews wipes every view in views.
func WipeViews(views []*DecryptedView) {
	for _, v := range views {
		if v != nil {
			v.Wipe()
		}
	}
}

// QueryFilter selects records for a compliance query: either one view, or a
// profile over an inclusive time range.
type QueryFilter struct {
	ViewID    *uuid.UUID
	ProfileID string
	From      time.Time
	To        time.Time
}

// Target names what the query is about, for the audit log.
func (f QueryFilter) Target() string {
	if f.ViewID != nil {
		return f.ViewID.String()
	}
	return f.ProfileID
}

// Stats counts Tier-2 records at a point in time.
type Stats struct {
	Total int64
	// Expired counts records past expiry and not held: the next sweep deletes them.
	Expired int64
	// Held counts records under investigation.
	Held int64
	// HeldExpired counts held records past expiry, kept only because of the hold.
	HeldExpired int64
}

// SweepOptions configures one reaper run.
type SweepOptions struct {
	Actor     string
	BatchSize int
	DryRun    bool
	// Now is the sweep's reference time; zero means the current time.
	Now time.Time
}

// SweepResult reports one reaper run.
type SweepResult struct {
	DeletedCount          int64
	SkippedInvestigations int64
	FailedCount           int64
	DryRun                bool
}
