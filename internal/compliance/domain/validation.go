package domain

import (
	"fmt"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"
)

// minCiphertextSize is the size of an encrypted empty string.
const minCiphertextSize = cryptoDomain.HeaderSize + cryptoDomain.NonceSize + cryptoDomain.TagSize

var ciphertext = validation.By(func(value any) error {
	b, _ := value.([]byte)
	if len(b) < minCiphertextSize {
		return validation.NewError("validation_ciphertext", "must be a ciphertext blob")
	}
	return nil
})

var notNilUUID = validation.By(func(value any) error {
	if id, _ := value.(uuid.UUID); id == uuid.Nil {
		return validation.NewError("validation_uuid_nil", "must be set")
	}
	return nil
})

// Validate checks a record before it is stored. Every identifying field must be a
// ciphertext blob.
func (r *ComplianceRecord) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.ID, notNilUUID),
		validation.Field(&r.ViewID, notNilUUID),
		validation.Field(&r.ProfileID, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.ViewerID, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.ViewedAt, validation.Required),
		validation.Field(&r.EncryptedIP, ciphertext),
		validation.Field(&r.EncryptedUserAgent, ciphertext),
		validation.Field(&r.EncryptedReferrer, ciphertext),
		validation.Field(&r.KeyVersion, validation.Required),
		validation.Field(&r.RetentionExpiry, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if !r.RetentionExpiry.After(r.ViewedAt) {
		return fmt.Errorf("%w: retention expiry must be after the view", ErrInvalidRecord)
	}
	return nil
}

// Validate checks that the filter names exactly one view, or one profile and an
// ordered time range.
func (f *QueryFilter) Validate() error {
	if f.ViewID != nil {
		if *f.ViewID == uuid.Nil {
			return fmt.Errorf("%w: view id must be set", ErrInvalidFilter)
		}
		if f.ProfileID != "" {
			return fmt.Errorf("%w: give either a view id or a profile id, not both", ErrInvalidFilter)
		}
		return nil
	}

	err := validation.ValidateStruct(f,
		validation.Field(&f.ProfileID, validation.Required, validation.Length(1, 255)),
		validation.Field(&f.From, validation.Required),
		validation.Field(&f.To, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	if f.From.After(f.To) {
		return fmt.Errorf("%w: from must not be after to", ErrInvalidFilter)
	}
	return nil
}
