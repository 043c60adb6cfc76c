package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/viewvault/internal/metrics"
	pipelineDomain "github.com/allisson/viewvault/internal/pipeline/domain"
)

// pipelineUseCaseWithMetrics decorates PipelineUseCase with metrics instrumentation.
type pipelineUseCaseWithMetrics struct {
	next    PipelineUseCase
	metrics metrics.BusinessMetrics
}

// NewPipelineUseCaseWithMetrics wraps a PipelineUseCase with metrics recording.
func NewPipelineUseCaseWithMetrics(useCase PipelineUseCase, m metrics.BusinessMetrics) PipelineUseCase {
	return &pipelineUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Record records metrics for ingests. Legal-hold ingests are counted separately.
func (p *pipelineUseCaseWithMetrics) Record(
	ctx context.Context,
	event *pipelineDomain.ProfileViewEvent,
) (uuid.UUID, error) {
	operation := "pipeline_record"
	if event.LegalHold {
		operation = "pipeline_record_legal_hold"
	}

	start := time.Now()
	viewID, err := p.next.Record(ctx, event)

	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordOperation(ctx, "pipeline", operation, status)
	p.metrics.RecordDuration(ctx, "pipeline", operation, time.Since(start), status)

	return viewID, err
}
