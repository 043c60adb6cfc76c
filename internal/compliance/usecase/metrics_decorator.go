package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	complianceDomain "github.com/allisson/viewvault/internal/compliance/domain"
	"github.com/allisson/viewvault/internal/metrics"
)

// complianceUseCaseWithMetrics decorates ComplianceUseCase with metrics instrumentation.
type complianceUseCaseWithMetrics struct {
	next    ComplianceUseCase
	metrics metrics.BusinessMetrics
}

// NewComplianceUseCaseWithMetrics wraps a ComplianceUseCase with metrics recording.
func NewComplianceUseCaseWithMetrics(useCase ComplianceUseCase, m metrics.BusinessMetrics) ComplianceUseCase {
	return &complianceUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (c *complianceUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	c.metrics.RecordOperation(ctx, "compliance", operation, status)
	c.metrics.RecordDuration(ctx, "compliance", operation, time.Since(start), status)
}

func (c *complianceUseCaseWithMetrics) Store(ctx context.Context, record *complianceDomain.ComplianceRecord) error {
	start := time.Now()
	err := c.next.Store(ctx, record)
	c.record(ctx, "compliance_store", start, err)
	return err
}

func (c *complianceUseCaseWithMetrics) Query(
	ctx context.Context,
	actor string,
	filter complianceDomain.QueryFilter,
	reason string,
) ([]*complianceDomain.DecryptedView, error) {
	start := time.Now()
	views, err := c.next.Query(ctx, actor, filter, reason)
	c.record(ctx, "compliance_query", start, err)
	return views, err
}

func (c *complianceUseCaseWithMetrics) SetInvestigation(
	ctx context.Context,
	actor string,
	logID uuid.UUID,
	held bool,
	reason string,
) (*complianceDomain.ComplianceRecord, error) {
	start := time.Now()
	record, err := c.next.SetInvestigation(ctx, actor, logID, held, reason)
	c.record(ctx, "compliance_set_investigation", start, err)
	return record, err
}

func (c *complianceUseCaseWithMetrics) Stats(
	ctx context.Context,
	actor string,
	now time.Time,
) (*complianceDomain.Stats, error) {
	start := time.Now()
	stats, err := c.next.Stats(ctx, actor, now)
	c.record(ctx, "compliance_stats", start, err)
	return stats, err
}

func (c *complianceUseCaseWithMetrics) Sweep(
	ctx context.Context,
	opts complianceDomain.SweepOptions,
) (*complianceDomain.SweepResult, error) {
	start := time.Now()
	result, err := c.next.Sweep(ctx, opts)
	c.record(ctx, "compliance_sweep", start, err)
	if result != nil && !result.DryRun {
		c.metrics.RecordRecords(ctx, "compliance", metrics.OutcomeDeleted, result.DeletedCount)
		c.metrics.RecordRecords(ctx, "compliance", metrics.OutcomeSkipped, result.SkippedInvestigations)
		c.metrics.RecordRecords(ctx, "compliance", metrics.OutcomeFailed, result.FailedCount)
	}
	return result, err
}
