// Package domain defines the Tier-1 analytics entities. Nothing in this package can
// hold an IP address, a raw user agent, a referrer or a viewer identifier.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnalyticsRecord is one coarse, non-identifying profile view. It is immutable once
// stored and is deleted only by retention purge or owner account deletion.
type AnalyticsRecord struct {
	ViewID    uuid.UUID
	ProfileID string
	ViewedAt  time.Time
	Country   string
	Province  string
	City      string
	Browser   string
	OS        string
	Device    string
}

// GroupBy selects the dashboard bucket dimension.
type GroupBy string

const (
	GroupByCity    GroupBy = "city"
	GroupByDevice  GroupBy = "device"
	GroupByBrowser GroupBy = "browser"
	// GroupByHour buckets by UTC hour of day, "00" to "23".
	GroupByHour GroupBy = "hour"
)

// DashboardQuery aggregates a profile's views over [From, To].
type DashboardQuery struct {
	ProfileID string
	From      time.Time
	To        time.Time
	GroupBy   GroupBy
}

// Bucket is one aggregated count. It carries no identifier beyond its label.
type Bucket struct {
	Bucket string
	Count  int64
}

// PrivacyWindow is the period the owner privacy dashboard summarizes.
const PrivacyWindow = 30 * 24 * time.Hour

// PrivacyQuery asks for the privacy dashboard of ProfileID on behalf of Owner, the
// profile the calling application authenticated. The window ends at To.
type PrivacyQuery struct {
	Owner     string
	ProfileID string
	To        time.Time
}

// PrivacySummary is what the owner dashboard shows about data held on a profile's
// viewers. It holds counts only, never an individual view.
type PrivacySummary struct {
	ProfileID                 string
	TotalViews                int64
	From                      time.Time
	To                        time.Time
	ByCity                    []Bucket
	ByDevice                  []Bucket
	ByBrowser                 []Bucket
	AnalyticsRetentionDays    int
	ComplianceRetentionMonths int
}
