package usecase

import (
	"context"
	"time"

	"github.com/allisson/viewvault/internal/metrics"
	vaultDomain "github.com/allisson/viewvault/internal/vault/domain"
)

// vaultUseCaseWithMetrics decorates VaultUseCase with metrics instrumentation.
type vaultUseCaseWithMetrics struct {
	next    VaultUseCase
	metrics metrics.BusinessMetrics
}

// NewVaultUseCaseWithMetrics wraps a VaultUseCase with metrics recording.
func NewVaultUseCaseWithMetrics(useCase VaultUseCase, m metrics.BusinessMetrics) VaultUseCase {
	return &vaultUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (v *vaultUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	v.metrics.RecordOperation(ctx, "vault", operation, status)
	v.metrics.RecordDuration(ctx, "vault", operation, time.Since(start), status)
}

func (v *vaultUseCaseWithMetrics) StorePending(ctx context.Context, record *vaultDomain.VaultRecord) error {
	start := time.Now()
	err := v.next.StorePending(ctx, record)
	v.record(ctx, "vault_store_pending", start, err)
	return err
}

func (v *vaultUseCaseWithMetrics) Seal(ctx context.Context, in vaultDomain.SealInput) (*vaultDomain.SealResult, error) {
	start := time.Now()
	result, err := v.next.Seal(ctx, in)
	v.record(ctx, "vault_seal", start, err)
	if result != nil {
		v.metrics.RecordRecords(ctx, "vault", metrics.OutcomeSealed, int64(result.Sealed))
		v.metrics.RecordRecords(ctx, "vault", metrics.OutcomeClaimed, int64(result.Claimed))
	}
	return result, err
}

func (v *vaultUseCaseWithMetrics) Export(ctx context.Context, in vaultDomain.ExportInput) (*vaultDomain.Export, error) {
	start := time.Now()
	export, err := v.next.Export(ctx, in)
	v.record(ctx, "vault_export", start, err)
	return export, err
}

func (v *vaultUseCaseWithMetrics) CloseCase(
	ctx context.Context,
	in vaultDomain.CloseInput,
) (*vaultDomain.CloseResult, error) {
	start := time.Now()
	result, err := v.next.CloseCase(ctx, in)
	v.record(ctx, "vault_close_case", start, err)
	if result != nil {
		v.metrics.RecordRecords(ctx, "vault", metrics.OutcomeDestroyed, result.DestroyedCount)
	}
	return result, err
}
