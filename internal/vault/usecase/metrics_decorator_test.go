package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/viewvault/internal/metrics"
	vaultDomain "github.com/allisson/viewvault/internal/vault/domain"
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

func TestVaultMetricsDecorator(t *testing.T) {
	ctx := context.Background()

	t.Run("export refused", func(t *testing.T) {
		f := newFixture(t)
		m := &mockBusinessMetrics{}
		uc := NewVaultUseCaseWithMetrics(f.uc, m)

		m.On("RecordOperation", ctx, "vault", "vault_export", "error").Once()
		m.On("RecordDuration", ctx, "vault", "vault_export", mock.AnythingOfType("time.Duration"), "error").Once()

		_, err := uc.Export(ctx, exportInput("K1", "alice"))
		assert.ErrorIs(t, err, vaultDomain.ErrMissingAuth)
		m.AssertExpectations(t)
	})

	t.Run("seal success", func(t *testing.T) {
		f := newFixture(t)
		m := &mockBusinessMetrics{}
		uc := NewVaultUseCaseWithMetrics(f.uc, m)

		m.On("RecordOperation", ctx, "vault", "vault_seal", "success").Once()
		m.On("RecordDuration", ctx, "vault", "vault_seal", mock.AnythingOfType("time.Duration"), "success").Once()
		m.On("RecordRecords", ctx, "vault", metrics.OutcomeSealed, int64(1)).Once()
		m.On("RecordRecords", ctx, "vault", metrics.OutcomeClaimed, int64(0)).Once()

		result, err := uc.Seal(ctx, sealInput("K1", f.seedCompliance(t).ViewID))
		assert.NoError(t, err)
		assert.Equal(t, 1, result.Sealed)
		m.AssertExpectations(t)
	})

	t.Run("close case counts destroyed records", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Seal(ctx, sealInput("K1", f.seedCompliance(t).ViewID))
		assert.NoError(t, err)

		m := &mockBusinessMetrics{}
		uc := NewVaultUseCaseWithMetrics(f.uc, m)

		m.On("RecordOperation", ctx, "vault", "vault_close_case", "success").Once()
		m.On("RecordDuration", ctx, "vault", "vault_close_case", mock.AnythingOfType("time.Duration"), "success").Once()
		m.On("RecordRecords", ctx, "vault", metrics.OutcomeDestroyed, int64(1)).Once()

		result, err := uc.CloseCase(ctx, vaultDomain.CloseInput{CaseID: "K1", Actor: "legal", Reason: "order discharged"})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), result.DestroyedCount)
		m.AssertExpectations(t)
	})
}
