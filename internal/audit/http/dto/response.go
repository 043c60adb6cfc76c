// Package dto provides data transfer objects for audit log HTTP responses.
package dto

import (
	"time"

	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
)

// AuditRecordResponse represents an audit record in API responses.
type AuditRecordResponse struct {
	ID          string         `json:"id"`
	Actor       string         `json:"actor"`
	Action      string         `json:"action"`
	TargetID    string         `json:"target_id,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	Outcome     string         `json:"outcome"`
	FailureKind string         `json:"failure_kind,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Signed      bool           `json:"signed"`
	CreatedAt   time.Time      `json:"created_at"`
}

// MapAuditRecordToResponse converts a domain audit record to an API response.
func MapAuditRecordToResponse(record *auditDomain.AuditRecord) AuditRecordResponse {
	return AuditRecordResponse{
		ID:          record.ID.String(),
		Actor:       record.Actor,
		Action:      string(record.Action),
		TargetID:    record.TargetID,
		Reason:      record.Reason,
		Outcome:     string(record.Outcome),
		FailureKind: record.FailureKind,
		Metadata:    record.Metadata,
		Signed:      record.IsSigned(),
		CreatedAt:   record.CreatedAt,
	}
}

// ListAuditRecordsResponse represents a page of audit records.
type ListAuditRecordsResponse struct {
	Data []AuditRecordResponse `json:"data"`
}

// MapAuditRecordsToListResponse converts domain audit records to a list API response.
func MapAuditRecordsToListResponse(records []*auditDomain.AuditRecord) ListAuditRecordsResponse {
	responses := make([]AuditRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, MapAuditRecordToResponse(record))
	}
	return ListAuditRecordsResponse{Data: responses}
}
