// Package dto provides data transfer objects for the legal vault HTTP surface.
package dto

import (
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	vaultDomain "github.com/allisson/viewvault/internal/vault/domain"
	customValidation "github.com/allisson/viewvault/internal/validation"
)

// maxAuthorizers bounds the authorizer list; the two-person rule itself is enforced
// and audited by the use case.
const maxAuthorizers = 10

var authorizers = []validation.Rule{
	validation.Length(0, maxAuthorizers),
	validation.Each(validation.Length(1, 128)),
}

// SealRequest seals the Tier-2 records of view_ids into the case named in the path.
type SealRequest struct {
	OrderReference string   `json:"order_reference"`
	ViewIDs        []string `json:"view_ids"`
	Authorizers    []string `json:"authorizers"`
	Reason         string   `json:"reason"`
}

// Validate checks if the seal request is valid.
func (r *SealRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.OrderReference, validation.Required, customValidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&r.ViewIDs,
			validation.Required,
			validation.Length(1, vaultDomain.MaxSealViews),
			validation.Each(validation.Required, customValidation.UUID),
		),
		validation.Field(&r.Authorizers, authorizers...),
		validation.Field(&r.Reason, validation.Required, customValidation.NotBlank, validation.Length(1, 500)),
	)
}

// ToInput converts the request into a domain input. Validate must have passed.
func (r *SealRequest) ToInput(caseID, actor string) vaultDomain.SealInput {
	viewIDs := make([]uuid.UUID, 0, len(r.ViewIDs))
	for _, id := range r.ViewIDs {
		viewIDs = append(viewIDs, uuid.MustParse(id))
	}
	return vaultDomain.SealInput{
		CaseID:         caseID,
		OrderReference: r.OrderReference,
		ViewIDs:        viewIDs,
		Authorizers:    r.Authorizers,
		Actor:          actor,
		Reason:         r.Reason,
	}
}

// ExportRequest exports a case, or the one record named by record_id.
type ExportRequest struct {
	RecordID    string   `json:"record_id"`
	Authorizers []string `json:"authorizers"`
	Reason      string   `json:"reason"`
}

// Validate checks if the export request is valid.
func (r *ExportRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RecordID, customValidation.UUID),
		validation.Field(&r.Authorizers, authorizers...),
		validation.Field(&r.Reason, validation.Required, customValidation.NotBlank, validation.Length(1, 500)),
	)
}

// ToInput converts the request into a domain input. Validate must have passed.
func (r *ExportRequest) ToInput(caseID, actor string) vaultDomain.ExportInput {
	in := vaultDomain.ExportInput{
		CaseID:      caseID,
		Authorizers: r.Authorizers,
		Actor:       actor,
		Reason:      r.Reason,
	}
	if r.RecordID != "" {
		id := uuid.MustParse(r.RecordID)
		in.RecordID = &id
	}
	return in
}

// CloseRequest closes a case once its legal requirement is discharged.
type CloseRequest struct {
	Reason string `json:"reason"`
}

// Validate checks if the close request is valid.
func (r *CloseRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reason, validation.Required, customValidation.NotBlank, validation.Length(1, 500)),
	)
}

// ToInput converts the request into a domain input.
func (r *CloseRequest) ToInput(caseID, actor string) vaultDomain.CloseInput {
	return vaultDomain.CloseInput{CaseID: caseID, Actor: actor, Reason: r.Reason}
}
