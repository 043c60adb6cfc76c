package app

import (
	"context"
	"fmt"

	analyticsUseCase "github.com/allisson/viewvault/internal/analytics/usecase"
	auditUseCase "github.com/allisson/viewvault/internal/audit/usecase"
	complianceUseCase "github.com/allisson/viewvault/internal/compliance/usecase"
	"github.com/allisson/viewvault/internal/database"
	"github.com/allisson/viewvault/internal/metrics"
	outboxUseCase "github.com/allisson/viewvault/internal/outbox/usecase"
	pipelineUseCase "github.com/allisson/viewvault/internal/pipeline/usecase"
	"github.com/allisson/viewvault/internal/retry"
	vaultUseCase "github.com/allisson/viewvault/internal/vault/usecase"
)

// AuditUseCase returns the audit log use case.
func (c *Container) AuditUseCase() (auditUseCase.AuditUseCase, error) {
	err := c.lazy(&c.auditUseCaseInit, "auditUseCase", func() error {
		repo, err := c.AuditRepository()
		if err != nil {
			return fmt.Errorf("failed to get audit repository for audit use case: %w", err)
		}
		signingKey, err := c.AuditSigningKey()
		if err != nil {
			return err
		}
		c.auditUseCase = auditUseCase.NewAuditUseCase(repo, c.AuditSigner(), signingKey, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.auditUseCase, nil
}

// AnalyticsUseCase returns the Tier-1 use case.
func (c *Container) AnalyticsUseCase() (analyticsUseCase.AnalyticsUseCase, error) {
	err := c.lazy(&c.analyticsUseCaseInit, "analyticsUseCase", func() error {
		repo, err := c.AnalyticsRepository()
		if err != nil {
			return fmt.Errorf("failed to get analytics repository for analytics use case: %w", err)
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			return err
		}

		useCase := analyticsUseCase.NewAnalyticsUseCase(repo, analyticsUseCase.Retention{
			AnalyticsDays:    c.config.AnalyticsRetentionDays,
			ComplianceMonths: c.config.ComplianceRetentionMonths,
			PurgeBatchSize:   c.config.ReaperBatchSize,
		}, c.Logger())
		c.analyticsUseCase = analyticsUseCase.NewAnalyticsUseCaseWithMetrics(useCase, bm)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.analyticsUseCase, nil
}

// ComplianceUseCase returns the Tier-2 use case.
func (c *Container) ComplianceUseCase() (complianceUseCase.ComplianceUseCase, error) {
	err := c.lazy(&c.complianceUseCaseInit, "complianceUseCase", func() error {
		db, err := c.ComplianceDB()
		if err != nil {
			return err
		}
		repo, err := c.ComplianceRepository()
		if err != nil {
			return fmt.Errorf("failed to get compliance repository for compliance use case: %w", err)
		}
		keys, err := c.KeyManager()
		if err != nil {
			return err
		}
		auditor, err := c.AuditUseCase()
		if err != nil {
			return err
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			return err
		}

		useCase := complianceUseCase.NewComplianceUseCase(
			database.NewTxManager(db),
			repo,
			keys,
			auditor,
			database.NewAdvisoryLocker(db, c.config.DBDriver),
			c.Logger(),
		)
		c.complianceUseCase = complianceUseCase.NewComplianceUseCaseWithMetrics(useCase, bm)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.complianceUseCase, nil
}

// VaultUseCase returns the Tier-3 use case.
func (c *Container) VaultUseCase() (vaultUseCase.VaultUseCase, error) {
	err := c.lazy(&c.vaultUseCaseInit, "vaultUseCase", func() error {
		db, err := c.VaultDB()
		if err != nil {
			return err
		}
		caseRepo, err := c.CaseRepository()
		if err != nil {
			return fmt.Errorf("failed to get case repository for vault use case: %w", err)
		}
		vaultRepo, err := c.VaultRepository()
		if err != nil {
			return fmt.Errorf("failed to get vault repository for vault use case: %w", err)
		}
		complianceRepo, err := c.ComplianceRepository()
		if err != nil {
			return err
		}
		keys, err := c.KeyManager()
		if err != nil {
			return err
		}
		auditor, err := c.AuditUseCase()
		if err != nil {
			return err
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			return err
		}

		useCase := vaultUseCase.NewVaultUseCase(
			database.NewTxManager(db),
			caseRepo,
			vaultRepo,
			complianceRepo,
			keys,
			auditor,
			c.Logger(),
		)
		c.vaultUseCase = vaultUseCase.NewVaultUseCaseWithMetrics(useCase, bm)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.vaultUseCase, nil
}

// OutboxUseCase returns the vault seal queue and its worker.
func (c *Container) OutboxUseCase() (outboxUseCase.UseCase, error) {
	err := c.lazy(&c.outboxUseCaseInit, "outboxUseCase", func() error {
		db, err := c.ComplianceDB()
		if err != nil {
			return err
		}
		repo, err := c.OutboxRepository()
		if err != nil {
			return fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
		}
		vault, err := c.VaultUseCase()
		if err != nil {
			return err
		}

		useCase := outboxUseCase.NewOutboxUseCase(
			outboxUseCase.Config{
				Interval:   c.config.VaultSealWorkerInterval,
				BatchSize:  c.config.VaultSealBatchSize,
				MaxRetries: c.config.VaultSealMaxRetries,
			},
			database.NewTxManager(db),
			repo,
			outboxUseCase.NewVaultSealProcessor(vault, c.Logger()),
			c.Logger(),
		)

		if err := c.registerQueueGauge(useCase); err != nil {
			return err
		}
		c.outboxUseCase = useCase
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.outboxUseCase, nil
}

// registerQueueGauge exports the vault seal queue depth when metrics are enabled.
func (c *Container) registerQueueGauge(useCase outboxUseCase.UseCase) error {
	provider, err := c.MetricsProvider()
	if err != nil || provider == nil {
		return err
	}
	return metrics.RegisterStatusGauge(
		provider.MeterProvider(),
		c.config.MetricsNamespace,
		"vault_seal_queue_events",
		"Queued vault seal events by status",
		func(ctx context.Context) (map[string]int64, error) {
			stats, err := useCase.Stats(ctx)
			if err != nil {
				return nil, err
			}
			counts := make(map[string]int64, len(stats))
			for status, n := range stats {
				counts[string(status)] = n
			}
			return counts, nil
		},
	)
}

// PipelineUseCase returns the ingest orchestrator.
func (c *Container) PipelineUseCase() (pipelineUseCase.PipelineUseCase, error) {
	err := c.lazy(&c.pipelineUseCaseInit, "pipelineUseCase", func() error {
		analytics, err := c.AnalyticsUseCase()
		if err != nil {
			return err
		}
		compliance, err := c.ComplianceUseCase()
		if err != nil {
			return err
		}
		vault, err := c.VaultUseCase()
		if err != nil {
			return err
		}
		queue, err := c.OutboxUseCase()
		if err != nil {
			return err
		}
		keys, err := c.KeyManager()
		if err != nil {
			return err
		}
		geo, err := c.GeoResolver()
		if err != nil {
			return err
		}
		auditor, err := c.AuditUseCase()
		if err != nil {
			return err
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			return err
		}

		useCase := pipelineUseCase.NewPipelineUseCase(
			analytics,
			compliance,
			vault,
			queue,
			keys,
			geo,
			auditor,
			pipelineUseCase.Config{
				ComplianceRetentionMonths: c.config.ComplianceRetentionMonths,
				Retry: retry.Policy{
					MaxAttempts:     c.config.StoreRetryAttempts,
					InitialInterval: c.config.StoreRetryInitialInterval,
					MaxInterval:     c.config.StoreRetryMaxInterval,
				},
			},
			c.Logger(),
		)
		c.pipelineUseCase = pipelineUseCase.NewPipelineUseCaseWithMetrics(useCase, bm)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.pipelineUseCase, nil
}
