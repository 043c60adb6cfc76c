// Package dto provides data transfer objects for the compliance HTTP surface.
package dto

import (
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	complianceDomain "github.com/allisson/viewvault/internal/compliance/domain"
	customValidation "github.com/allisson/viewvault/internal/validation"
)

// QueryRequest selects Tier-2 records to decrypt: one view_id, or a profile_id with
// an inclusive from/to range (RFC3339).
type QueryRequest struct {
	ViewID    string     `json:"view_id"`
	ProfileID string     `json:"profile_id"`
	From      *time.Time `json:"from"`
	To        *time.Time `json:"to"`
	Reason    string     `json:"reason"`
}

// Validate checks the request shape. The filter itself is validated by the domain.
func (r *QueryRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ViewID, customValidation.UUID),
		validation.Field(&r.Reason, validation.Required, customValidation.NotBlank, validation.Length(1, 500)),
	)
}

// ToFilter converts the request into a domain filter. Validate must have passed.
func (r *QueryRequest) ToFilter() complianceDomain.QueryFilter {
	var filter complianceDomain.QueryFilter
	if r.ViewID != "" {
		id := uuid.MustParse(r.ViewID)
		filter.ViewID = &id
	}
	filter.ProfileID = r.ProfileID
	if r.From != nil {
		filter.From = r.From.UTC()
	}
	if r.To != nil {
		filter.To = r.To.UTC()
	}
	return filter
}

// SetInvestigationRequest sets or clears the hold on one record.
type SetInvestigationRequest struct {
	UnderInvestigation *bool  `json:"under_investigation"`
	Reason             string `json:"reason"`
}

// Validate checks if the set investigation request is valid.
func (r *SetInvestigationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UnderInvestigation, validation.NotNil),
		validation.Field(&r.Reason, validation.Required, customValidation.NotBlank, validation.Length(1, 500)),
	)
}

// CleanupRequest triggers a reaper run. Both fields are optional.
type CleanupRequest struct {
	BatchSize int  `json:"batch_size"`
	DryRun    bool `json:"dry_run"`
}

// Validate checks if the cleanup request is valid.
func (r *CleanupRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.BatchSize, validation.Min(0), validation.Max(10000)),
	)
}
