package dto

import (
	"time"

	vaultDomain "github.com/allisson/viewvault/internal/vault/domain"
)

// CaseResponse describes a legal case.
type CaseResponse struct {
	ID             string     `json:"id"`
	OrderReference string     `json:"order_reference"`
	Status         string     `json:"status"`
	OpenedBy       string     `json:"opened_by"`
	CreatedAt      time.Time  `json:"created_at"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
}

// MapCaseToResponse converts a domain case to an API response.
func MapCaseToResponse(c *vaultDomain.LegalCase) CaseResponse {
	return CaseResponse{
		ID:             c.ID,
		OrderReference: c.OrderReference,
		Status:         string(c.Status),
		OpenedBy:       c.OpenedBy,
		CreatedAt:      c.CreatedAt,
		ClosedAt:       c.ClosedAt,
	}
}

// SealResponse reports a sealing.
type SealResponse struct {
	Case          CaseResponse `json:"case"`
	Sealed        int          `json:"sealed"`
	Claimed       int          `json:"claimed"`
	AlreadySealed int          `json:"already_sealed"`
}

// MapSealResultToResponse converts a seal result to an API response.
func MapSealResultToResponse(r *vaultDomain.SealResult) SealResponse {
	return SealResponse{
		Case:          MapCaseToResponse(r.Case),
		Sealed:        r.Sealed,
		Claimed:       r.Claimed,
		AlreadySealed: r.AlreadySealed,
	}
}

// ExportedRecordResponse carries the plaintext of one vault record.
type ExportedRecordResponse struct {
	RecordID  string `json:"record_id"`
	LogID     string `json:"log_id"`
	ViewID    string `json:"view_id"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	Referrer  string `json:"referrer"`
}

// ExportResponse is the body of a vault export.
type ExportResponse struct {
	CaseID   string                   `json:"case_id"`
	IssuedAt time.Time                `json:"issued_at"`
	Data     []ExportedRecordResponse `json:"data"`
}

// MapExportToResponse converts an export to an API response.
func MapExportToResponse(e *vaultDomain.Export) ExportResponse {
	data := make([]ExportedRecordResponse, 0, len(e.Records))
	for _, r := range e.Records {
		data = append(data, ExportedRecordResponse{
			RecordID:  r.RecordID.String(),
			LogID:     r.LogID.String(),
			ViewID:    r.ViewID.String(),
			IP:        string(r.IP),
			UserAgent: string(r.UserAgent),
			Referrer:  string(r.Referrer),
		})
	}
	return ExportResponse{CaseID: e.CaseID, IssuedAt: e.IssuedAt, Data: data}
}

// CloseResponse reports a closed case.
type CloseResponse struct {
	Case           CaseResponse `json:"case"`
	DestroyedCount int64        `json:"destroyed_count"`
}

// MapCloseResultToResponse converts a close result to an API response.
func MapCloseResultToResponse(r *vaultDomain.CloseResult) CloseResponse {
	return CloseResponse{
		Case:           MapCaseToResponse(r.Case),
		DestroyedCount: r.DestroyedCount,
	}
}
