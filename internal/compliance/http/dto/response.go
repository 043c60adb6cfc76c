package dto

import (
	"time"

	complianceDomain "github.com/allisson/viewvault/internal/compliance/domain"
)

// DecryptedViewResponse carries the plaintext of one Tier-2 record.
type DecryptedViewResponse struct {
	LogID     string    `json:"log_id"`
	ViewID    string    `json:"view_id"`
	ViewedAt  time.Time `json:"viewed_at"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	Referrer  string    `json:"referrer"`
}

// QueryResponse lists the decrypted records.
type QueryResponse struct {
	Data []DecryptedViewResponse `json:"data"`
}

// MapDecryptedViewsToResponse converts decrypted views to a query response.
func MapDecryptedViewsToResponse(views []*complianceDomain.DecryptedView) QueryResponse {
	data := make([]DecryptedViewResponse, 0, len(views))
	for _, v := range views {
		data = append(data, DecryptedViewResponse{
			LogID:     v.LogID.String(),
			ViewID:    v.ViewID.String(),
			ViewedAt:  v.ViewedAt,
			IP:        string(v.IP),
			UserAgent: string(v.UserAgent),
			Referrer:  string(v.Referrer),
		})
	}
	return QueryResponse{Data: data}
}

// ComplianceLogResponse describes a record without its ciphertext.
type ComplianceLogResponse struct {
	ID                 string    `json:"id"`
	ViewID             string    `json:"view_id"`
	ProfileID          string    `json:"profile_id"`
	ViewedAt           time.Time `json:"viewed_at"`
	KeyVersion         uint16    `json:"key_version"`
	RetentionExpiry    time.Time `json:"retention_expiry"`
	UnderInvestigation bool      `json:"under_investigation"`
}

// MapComplianceRecordToResponse converts a domain record to an API response.
func MapComplianceRecordToResponse(r *complianceDomain.ComplianceRecord) ComplianceLogResponse {
	return ComplianceLogResponse{
		ID:                 r.ID.String(),
		ViewID:             r.ViewID.String(),
		ProfileID:          r.ProfileID,
		ViewedAt:           r.ViewedAt,
		KeyVersion:         r.KeyVersion,
		RetentionExpiry:    r.RetentionExpiry,
		UnderInvestigation: r.UnderInvestigation,
	}
}

// StatsResponse counts records by retention state.
type StatsResponse struct {
	Total       int64 `json:"total"`
	Expired     int64 `json:"expired"`
	Held        int64 `json:"held"`
	HeldExpired int64 `json:"held_expired"`
}

// MapStatsToResponse converts domain stats to an API response.
func MapStatsToResponse(s *complianceDomain.Stats) StatsResponse {
	return StatsResponse{
		Total:       s.Total,
		Expired:     s.Expired,
		Held:        s.Held,
		HeldExpired: s.HeldExpired,
	}
}

// CleanupResponse reports one reaper run.
type CleanupResponse struct {
	DeletedCount          int64 `json:"deleted_count"`
	SkippedInvestigations int64 `json:"skipped_investigations"`
	FailedCount           int64 `json:"failed_count"`
	DryRun                bool  `json:"dry_run"`
}

// MapSweepResultToResponse converts a sweep result to an API response.
func MapSweepResultToResponse(r *complianceDomain.SweepResult) CleanupResponse {
	return CleanupResponse{
		DeletedCount:          r.DeletedCount,
		SkippedInvestigations: r.SkippedInvestigations,
		FailedCount:           r.FailedCount,
		DryRun:                r.DryRun,
	}
}
