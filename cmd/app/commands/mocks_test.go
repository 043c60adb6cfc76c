package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	analyticsDomain "github.com/allisson/viewvault/internal/analytics/domain"
	analyticsUseCase "github.com/allisson/viewvault/internal/analytics/usecase"
	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
	auditUseCase "github.com/allisson/viewvault/internal/audit/usecase"
	complianceDomain "github.com/allisson/viewvault/internal/compliance/domain"
	complianceUseCase "github.com/allisson/viewvault/internal/compliance/usecase"
)

type mockAuditUseCase struct {
	mock.Mock
}

func (m *mockAuditUseCase) Append(ctx context.Context, entry auditDomain.Entry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockAuditUseCase) List(
	ctx context.Context,
	filter auditDomain.ListFilter,
) ([]*auditDomain.AuditRecord, error) {
	args := m.Called(ctx, filter)
	records, _ := args.Get(0).([]*auditDomain.AuditRecord)
	return records, args.Error(1)
}

func (m *mockAuditUseCase) VerifyBatch(
	ctx context.Context,
	start, end time.Time,
) (*auditUseCase.VerificationReport, error) {
	args := m.Called(ctx, start, end)
	report, _ := args.Get(0).(*auditUseCase.VerificationReport)
	return report, args.Error(1)
}

type mockComplianceUseCase struct {
	mock.Mock
}

func (m *mockComplianceUseCase) Store(ctx context.Context, record *complianceDomain.ComplianceRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockComplianceUseCase) Query(
	ctx context.Context,
	actor string,
	filter complianceDomain.QueryFilter,
	reason string,
) ([]*complianceDomain.DecryptedView, error) {
	args := m.Called(ctx, actor, filter, reason)
	views, _ := args.Get(0).([]*complianceDomain.DecryptedView)
	return views, args.Error(1)
}

func (m *mockComplianceUseCase) SetInvestigation(
	ctx context.Context,
	actor string,
	logID uuid.UUID,
	held bool,
	reason string,
) (*complianceDomain.ComplianceRecord, error) {
	args := m.Called(ctx, actor, logID, held, reason)
	record, _ := args.Get(0).(*complianceDomain.ComplianceRecord)
	return record, args.Error(1)
}

func (m *mockComplianceUseCase) Stats(
	ctx context.Context,
	actor string,
	now time.Time,
) (*complianceDomain.Stats, error) {
	args := m.Called(ctx, actor, now)
	stats, _ := args.Get(0).(*complianceDomain.Stats)
	return stats, args.Error(1)
}

func (m *mockComplianceUseCase) Sweep(
	ctx context.Context,
	opts complianceDomain.SweepOptions,
) (*complianceDomain.SweepResult, error) {
	args := m.Called(ctx, opts)
	result, _ := args.Get(0).(*complianceDomain.SweepResult)
	return result, args.Error(1)
}

type mockAnalyticsUseCase struct {
	mock.Mock
}

func (m *mockAnalyticsUseCase) Record(ctx context.Context, record *analyticsDomain.AnalyticsRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockAnalyticsUseCase) Dashboard(
	ctx context.Context,
	q analyticsDomain.DashboardQuery,
) ([]analyticsDomain.Bucket, error) {
	args := m.Called(ctx, q)
	buckets, _ := args.Get(0).([]analyticsDomain.Bucket)
	return buckets, args.Error(1)
}

func (m *mockAnalyticsUseCase) PrivacySummary(
	ctx context.Context,
	q analyticsDomain.PrivacyQuery,
) (*analyticsDomain.PrivacySummary, error) {
	args := m.Called(ctx, q)
	summary, _ := args.Get(0).(*analyticsDomain.PrivacySummary)
	return summary, args.Error(1)
}

func (m *mockAnalyticsUseCase) DeleteProfile(ctx context.Context, profileID string) (int64, error) {
	args := m.Called(ctx, profileID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAnalyticsUseCase) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

var (
	_ auditUseCase.AuditUseCase           = (*mockAuditUseCase)(nil)
	_ complianceUseCase.ComplianceUseCase = (*mockComplianceUseCase)(nil)
	_ analyticsUseCase.AnalyticsUseCase   = (*mockAnalyticsUseCase)(nil)
)
