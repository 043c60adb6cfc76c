// Package domain defines the outbox entities: queued work that failed inline and is
// retried by a background worker.
package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/viewvault/internal/errors"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// EventTypeVaultSeal queues a pending legal-hold record whose Tier-3 commit failed
// at ingest. Its payload is a VaultSealPayload.
const EventTypeVaultSeal = "vault.seal"

// ErrUnknownEventType indicates an event no processor handles. It is not retried.
var ErrUnknownEventType = apperrors.Wrap(apperrors.ErrInvalidInput, "unknown outbox event type")

// OutboxEvent represents an event in the transactional outbox pattern
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Fail records a failed attempt, giving up once maxRetries is reached.
func (e *OutboxEvent) Fail(err error, maxRetries int) {
	e.Retries++
	msg := err.Error()
	e.LastError = &msg
	if e.Retries >= maxRetries {
		e.Status = OutboxEventStatusFailed
	}
}

// Processed marks the event done.
func (e *OutboxEvent) Processed(at time.Time) {
	e.Status = OutboxEventStatusProcessed
	e.ProcessedAt = &at
}
