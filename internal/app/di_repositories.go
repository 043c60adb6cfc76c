package app

import (
	analyticsRepository "github.com/allisson/viewvault/internal/analytics/repository"
	analyticsUseCase "github.com/allisson/viewvault/internal/analytics/usecase"
	auditRepository "github.com/allisson/viewvault/internal/audit/repository"
	auditUseCase "github.com/allisson/viewvault/internal/audit/usecase"
	complianceRepository "github.com/allisson/viewvault/internal/compliance/repository"
	complianceUseCase "github.com/allisson/viewvault/internal/compliance/usecase"
	outboxRepository "github.com/allisson/viewvault/internal/outbox/repository"
	outboxUseCase "github.com/allisson/viewvault/internal/outbox/usecase"
	vaultRepository "github.com/allisson/viewvault/internal/vault/repository"
	vaultUseCase "github.com/allisson/viewvault/internal/vault/usecase"
)

// AnalyticsRepository returns the Tier-1 repository.
func (c *Container) AnalyticsRepository() (analyticsUseCase.AnalyticsRepository, error) {
	err := c.lazy(&c.analyticsRepoInit, "analyticsRepo", func() error {
		db, err := c.AnalyticsDB()
		if err != nil {
			return err
		}
		c.analyticsRepo, err = repositoryFor(c.config.DBDriver,
			func() analyticsUseCase.AnalyticsRepository {
				return analyticsRepository.NewPostgreSQLAnalyticsRepository(db)
			},
			func() analyticsUseCase.AnalyticsRepository {
				return analyticsRepository.NewMySQLAnalyticsRepository(db)
			},
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.analyticsRepo, nil
}

// ComplianceRepository returns the Tier-2 repository.
func (c *Container) ComplianceRepository() (complianceUseCase.ComplianceRepository, error) {
	err := c.lazy(&c.complianceRepoInit, "complianceRepo", func() error {
		db, err := c.ComplianceDB()
		if err != nil {
			return err
		}
		c.complianceRepo, err = repositoryFor(c.config.DBDriver,
			func() complianceUseCase.ComplianceRepository {
				return complianceRepository.NewPostgreSQLComplianceRepository(db)
			},
			func() complianceUseCase.ComplianceRepository {
				return complianceRepository.NewMySQLComplianceRepository(db)
			},
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.complianceRepo, nil
}

// CaseRepository returns the legal case repository (Tier-3 pool).
func (c *Container) CaseRepository() (vaultUseCase.CaseRepository, error) {
	err := c.lazy(&c.caseRepoInit, "caseRepo", func() error {
		db, err := c.VaultDB()
		if err != nil {
			return err
		}
		c.caseRepo, err = repositoryFor(c.config.DBDriver,
			func() vaultUseCase.CaseRepository { return vaultRepository.NewPostgreSQLCaseRepository(db) },
			func() vaultUseCase.CaseRepository { return vaultRepository.NewMySQLCaseRepository(db) },
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.caseRepo, nil
}

// VaultRepository returns the Tier-3 record repository.
func (c *Container) VaultRepository() (vaultUseCase.VaultRepository, error) {
	err := c.lazy(&c.vaultRepoInit, "vaultRepo", func() error {
		db, err := c.VaultDB()
		if err != nil {
			return err
		}
		c.vaultRepo, err = repositoryFor(c.config.DBDriver,
			func() vaultUseCase.VaultRepository { return vaultRepository.NewPostgreSQLVaultRepository(db) },
			func() vaultUseCase.VaultRepository { return vaultRepository.NewMySQLVaultRepository(db) },
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.vaultRepo, nil
}

// AuditRepository returns the audit log repository.
func (c *Container) AuditRepository() (auditUseCase.AuditRepository, error) {
	err := c.lazy(&c.auditRepoInit, "auditRepo", func() error {
		db, err := c.AuditDB()
		if err != nil {
			return err
		}
		c.auditRepo, err = repositoryFor(c.config.DBDriver,
			func() auditUseCase.AuditRepository { return auditRepository.NewPostgreSQLAuditRepository(db) },
			func() auditUseCase.AuditRepository { return auditRepository.NewMySQLAuditRepository(db) },
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.auditRepo, nil
}

// OutboxRepository returns the vault seal queue repository. The queue shares the
// Tier-2 pool so a vault outage does not take the queue with it.
func (c *Container) OutboxRepository() (outboxUseCase.OutboxEventRepository, error) {
	err := c.lazy(&c.outboxRepoInit, "outboxRepo", func() error {
		db, err := c.ComplianceDB()
		if err != nil {
			return err
		}
		c.outboxRepo, err = repositoryFor(c.config.DBDriver,
			func() outboxUseCase.OutboxEventRepository {
				return outboxRepository.NewPostgreSQLOutboxEventRepository(db)
			},
			func() outboxUseCase.OutboxEventRepository {
				return outboxRepository.NewMySQLOutboxEventRepository(db)
			},
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.outboxRepo, nil
}
