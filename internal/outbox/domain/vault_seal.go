package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/viewvault/internal/errors"
	vaultDomain "github.com/allisson/viewvault/internal/vault/domain"
)

// VaultSealPayload is a pending vault record as queued. The three fields are vault-key
// ciphertext; no plaintext is ever queued.
type VaultSealPayload struct {
	RecordID           uuid.UUID `json:"record_id"`
	LogID              uuid.UUID `json:"log_id"`
	ViewID             uuid.UUID `json:"view_id"`
	ProfileID          string    `json:"profile_id"`
	EncryptedIP        []byte    `json:"encrypted_ip"`
	EncryptedUserAgent []byte    `json:"encrypted_user_agent"`
	EncryptedReferrer  []byte    `json:"encrypted_referrer"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewVaultSealEvent builds a pending vault.seal event for a record.
func NewVaultSealEvent(record *vaultDomain.VaultRecord) (*OutboxEvent, error) {
	raw, err := json.Marshal(VaultSealPayload{
		RecordID:           record.ID,
		LogID:              record.LogID,
		ViewID:             record.ViewID,
		ProfileID:          record.ProfileID,
		EncryptedIP:        record.EncryptedIP,
		EncryptedUserAgent: record.EncryptedUserAgent,
		EncryptedReferrer:  record.EncryptedReferrer,
		CreatedAt:          record.CreatedAt,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal vault seal payload")
	}

	now := time.Now().UTC()
	return &OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: EventTypeVaultSeal,
		Payload:   string(raw),
		Status:    OutboxEventStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// VaultRecord decodes a vault.seal event back into the pending record it queued.
func (e *OutboxEvent) VaultRecord() (*vaultDomain.VaultRecord, error) {
	if e.EventType != EventTypeVaultSeal {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, e.EventType)
	}

	var p VaultSealPayload
	if err := json.Unmarshal([]byte(e.Payload), &p); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "malformed vault seal payload")
	}
	return &vaultDomain.VaultRecord{
		ID:                 p.RecordID,
		LogID:              p.LogID,
		ViewID:             p.ViewID,
		ProfileID:          p.ProfileID,
		EncryptedIP:        p.EncryptedIP,
		EncryptedUserAgent: p.EncryptedUserAgent,
		EncryptedReferrer:  p.EncryptedReferrer,
		CreatedAt:          p.CreatedAt,
	}, nil
}
