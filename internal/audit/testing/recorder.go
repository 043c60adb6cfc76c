// Package testing provides an in-memory audit log for tests of packages that audit.
package testing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
)

// Recorder is an in-memory audit log. It satisfies the Append side of AuditUseCase.
type Recorder struct {
	mu      sync.Mutex
	records []*auditDomain.AuditRecord
	failErr error
	failN   int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailNext makes the next n Append calls return err without recording.
func (r *Recorder) FailNext(n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failN = n
	r.failErr = err
}

// Append validates and records entry.
func (r *Recorder) Append(ctx context.Context, entry auditDomain.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failN > 0 {
		r.failN--
		return r.failErr
	}

	r.records = append(r.records, &auditDomain.AuditRecord{
		ID:          uuid.Must(uuid.NewV7()),
		Actor:       entry.Actor,
		Action:      entry.Action,
		TargetID:    entry.TargetID,
		Reason:      entry.Reason,
		Outcome:     entry.Outcome,
		FailureKind: entry.FailureKind,
		Metadata:    entry.Metadata,
		CreatedAt:   time.Now().UTC(),
	})
	return nil
}

// Records returns a copy of everything recorded so far, oldest first.
func (r *Recorder) Records() []*auditDomain.AuditRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*auditDomain.AuditRecord(nil), r.records...)
}

// ByAction returns the records with the given action.
func (r *Recorder) ByAction(action auditDomain.Action) []*auditDomain.AuditRecord {
	var out []*auditDomain.AuditRecord
	for _, rec := range r.Records() {
		if rec.Action == action {
			out = append(out, rec)
		}
	}
	return out
}

// ByTarget returns the records with the given action and target.
func (r *Recorder) ByTarget(action auditDomain.Action, targetID string) []*auditDomain.AuditRecord {
	var out []*auditDomain.AuditRecord
	for _, rec := range r.ByAction(action) {
		if rec.TargetID == targetID {
			out = append(out, rec)
		}
	}
	return out
}
