package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "github.com/allisson/viewvault/internal/errors"
	"github.com/allisson/viewvault/internal/metrics"
	pipelineDomain "github.com/allisson/viewvault/internal/pipeline/domain"
)

type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordRecords(ctx context.Context, tier, outcome string, n int64) {
	m.Called(ctx, tier, outcome, n)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

type mockPipelineUseCase struct {
	mock.Mock
}

func (m *mockPipelineUseCase) Record(ctx context.Context, event *pipelineDomain.ProfileViewEvent) (uuid.UUID, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func TestPipelineMetricsDecorator(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		next := &mockPipelineUseCase{}
		m := &mockBusinessMetrics{}
		uc := NewPipelineUseCaseWithMetrics(next, m)
		event := &pipelineDomain.ProfileViewEvent{ProfileID: "p1"}
		id := uuid.New()

		next.On("Record", ctx, event).Return(id, nil).Once()
		m.On("RecordOperation", ctx, "pipeline", "pipeline_record", "success").Once()
		m.On("RecordDuration", ctx, "pipeline", "pipeline_record", mock.AnythingOfType("time.Duration"), "success").
			Once()

		got, err := uc.Record(ctx, event)
		assert.NoError(t, err)
		assert.Equal(t, id, got)
		m.AssertExpectations(t)
	})

	t.Run("legal hold error", func(t *testing.T) {
		next := &mockPipelineUseCase{}
		m := &mockBusinessMetrics{}
		uc := NewPipelineUseCaseWithMetrics(next, m)
		event := &pipelineDomain.ProfileViewEvent{ProfileID: "p1", LegalHold: true}

		next.On("Record", ctx, event).Return(uuid.Nil, apperrors.ErrUnavailable).Once()
		m.On("RecordOperation", ctx, "pipeline", "pipeline_record_legal_hold", "error").Once()
		m.On("RecordDuration", ctx, "pipeline", "pipeline_record_legal_hold", mock.AnythingOfType("time.Duration"), "error").
			Once()

		_, err := uc.Record(ctx, event)
		assert.ErrorIs(t, err, apperrors.ErrUnavailable)
		m.AssertExpectations(t)
	})
}
