// Package dto provides data transfer objects for the analytics HTTP surface.
package dto

import (
	"time"

	analyticsDomain "github.com/allisson/viewvault/internal/analytics/domain"
)

// BucketResponse is one dashboard bucket.
type BucketResponse struct {
	Bucket string `json:"bucket"`
	Count  int64  `json:"count"`
}

// DashboardResponse lists dashboard buckets.
type DashboardResponse struct {
	ProfileID string           `json:"profile_id"`
	GroupBy   string           `json:"group_by"`
	Data      []BucketResponse `json:"data"`
}

// MapBucketsToResponse converts domain buckets to a dashboard response.
func MapBucketsToResponse(q analyticsDomain.DashboardQuery, buckets []analyticsDomain.Bucket) DashboardResponse {
	return DashboardResponse{
		ProfileID: q.ProfileID,
		GroupBy:   string(q.GroupBy),
		Data:      mapBuckets(buckets),
	}
}

func mapBuckets(buckets []analyticsDomain.Bucket) []BucketResponse {
	data := make([]BucketResponse, 0, len(buckets))
	for _, b := range buckets {
		data = append(data, BucketResponse{Bucket: b.Bucket, Count: b.Count})
	}
	return data
}

// RetentionResponse describes how long view data is kept.
type RetentionResponse struct {
	AnalyticsDays    int `json:"analytics_days"`
	ComplianceMonths int `json:"compliance_months"`
}

// PrivacySummaryResponse is the owner privacy dashboard. It holds counts only.
type PrivacySummaryResponse struct {
	ProfileID  string            `json:"profile_id"`
	TotalViews int64             `json:"total_views"`
	From       time.Time         `json:"from"`
	To         time.Time         `json:"to"`
	ByCity     []BucketResponse  `json:"by_city"`
	ByDevice   []BucketResponse  `json:"by_device"`
	ByBrowser  []BucketResponse  `json:"by_browser"`
	Retention  RetentionResponse `json:"retention"`
}

// MapPrivacySummaryToResponse converts a domain privacy summary to an API response.
func MapPrivacySummaryToResponse(s *analyticsDomain.PrivacySummary) PrivacySummaryResponse {
	return PrivacySummaryResponse{
		ProfileID:  s.ProfileID,
		TotalViews: s.TotalViews,
		From:       s.From,
		To:         s.To,
		ByCity:     mapBuckets(s.ByCity),
		ByDevice:   mapBuckets(s.ByDevice),
		ByBrowser:  mapBuckets(s.ByBrowser),
		Retention: RetentionResponse{
			AnalyticsDays:    s.AnalyticsRetentionDays,
			ComplianceMonths: s.ComplianceRetentionMonths,
		},
	}
}

// DeleteProfileResponse reports an owner account deletion purge.
type DeleteProfileResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}
