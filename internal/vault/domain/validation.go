package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"
	customValidation "github.com/allisson/viewvault/internal/validation"
)

const (
	minCiphertextSize = cryptoDomain.HeaderSize + cryptoDomain.NonceSize + cryptoDomain.TagSize

	// MaxSealViews caps how many views one sealing may name.
	MaxSealViews = 1000
)

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

var caseID = []validation.Rule{
	validation.Required,
	validation.Length(1, 128),
	customValidation.NoWhitespace,
}

// ValidateAuthorizers returns ErrMissingAuth unless names holds at least two
// distinct authorizers.
func ValidateAuthorizers(names []string) error {
	if err := validation.Validate(names, customValidation.DistinctNames{Min: 2}); err != nil {
		return fmt.Errorf("%w: %w", ErrMissingAuth, err)
	}
	return nil
}

// Validate checks a record before it is stored.
func (r *VaultRecord) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.ID, notNilUUID),
		validation.Field(&r.LogID, notNilUUID),
		validation.Field(&r.ViewID, notNilUUID),
		validation.Field(&r.ProfileID, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.EncryptedIP, ciphertext),
		validation.Field(&r.EncryptedUserAgent, ciphertext),
		validation.Field(&r.EncryptedReferrer, ciphertext),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if !r.Pending() {
		if err := validation.Validate(r.Authorizers, customValidation.DistinctNames{Min: 2}); err != nil {
			return fmt.Errorf("%w: authorizers: %w", ErrInvalidRecord, err)
		}
	}
	return nil
}

// Validate checks everything but the authorizers, which are checked first and
// separately so a missing authorization is reported as such.
func (in *SealInput) Validate() error {
	err := validation.ValidateStruct(in,
		validation.Field(&in.CaseID, caseID...),
		validation.Field(&in.OrderReference, validation.Required, customValidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&in.ViewIDs,
			validation.Required,
			validation.Length(1, MaxSealViews),
			validation.Each(notNilUUID),
		),
		validation.Field(&in.Actor, validation.Required),
		validation.Field(&in.Reason, validation.Required, customValidation.NotBlank),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// Validate checks everything but the authorizers.
func (in *ExportInput) Validate() error {
	err := validation.ValidateStruct(in,
		validation.Field(&in.CaseID, caseID...),
		validation.Field(&in.Actor, validation.Required),
		validation.Field(&in.Reason, validation.Required, customValidation.NotBlank),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if in.RecordID != nil && *in.RecordID == uuid.Nil {
		return fmt.Errorf("%w: record id must be set", ErrInvalidRequest)
	}
	return nil
}

// Validate checks if the close input is valid.
func (in *CloseInput) Validate() error {
	err := validation.ValidateStruct(in,
		validation.Field(&in.CaseID, caseID...),
		validation.Field(&in.Actor, validation.Required),
		validation.Field(&in.Reason, validation.Required, customValidation.NotBlank),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// NormalizeAuthorizers trims names and drops blanks and case-insensitive repeats,
// keeping the first spelling of each.
func NormalizeAuthorizers(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		key := strings.ToLower(trimmed)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
