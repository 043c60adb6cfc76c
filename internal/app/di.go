// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	analyticsUseCase "github.com/allisson/viewvault/internal/analytics/usecase"
	auditService "github.com/allisson/viewvault/internal/audit/service"
	auditUseCase "github.com/allisson/viewvault/internal/audit/usecase"
	authService "github.com/allisson/viewvault/internal/auth/service"
	complianceUseCase "github.com/allisson/viewvault/internal/compliance/usecase"
	"github.com/allisson/viewvault/internal/config"
	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"
	cryptoService "github.com/allisson/viewvault/internal/crypto/service"
	"github.com/allisson/viewvault/internal/database"
	"github.com/allisson/viewvault/internal/geoip"
	"github.com/allisson/viewvault/internal/http"
	"github.com/allisson/viewvault/internal/metrics"
	outboxUseCase "github.com/allisson/viewvault/internal/outbox/usecase"
	pipelineUseCase "github.com/allisson/viewvault/internal/pipeline/usecase"
	vaultUseCase "github.com/allisson/viewvault/internal/vault/usecase"
)

// Tier names used for pools, logs and readiness.
const (
	TierAnalytics  = "analytics"
	TierCompliance = "compliance"
	TierVault      = "vault"
	TierAudit      = "audit"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Lifetime of background helpers such as the rate limiter cleanup; cancelled on Shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	// Infrastructure
	logger          *slog.Logger
	dbs             map[string]*sql.DB
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	geoResolver     geoip.Resolver

	// Keys
	complianceKeyring *cryptoDomain.ComplianceKeyring
	keyManager        cryptoService.KeyManager
	auditSigningKey   *cryptoDomain.Key
	auditSigner       auditService.Signer
	keyVerifier       authService.KeyVerifier

	// Repositories
	analyticsRepo  analyticsUseCase.AnalyticsRepository
	complianceRepo complianceUseCase.ComplianceRepository
	caseRepo       vaultUseCase.CaseRepository
	vaultRepo      vaultUseCase.VaultRepository
	auditRepo      auditUseCase.AuditRepository
	outboxRepo     outboxUseCase.OutboxEventRepository

	// Use Cases
	analyticsUseCase  analyticsUseCase.AnalyticsUseCase
	complianceUseCase complianceUseCase.ComplianceUseCase
	vaultUseCase      vaultUseCase.VaultUseCase
	auditUseCase      auditUseCase.AuditUseCase
	outboxUseCase     outboxUseCase.UseCase
	pipelineUseCase   pipelineUseCase.PipelineUseCase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                    sync.Mutex
	loggerInit            sync.Once
	dbInit                map[string]*sync.Once
	metricsProviderInit   sync.Once
	businessMetricsInit   sync.Once
	geoResolverInit       sync.Once
	complianceKeyringInit sync.Once
	keyManagerInit        sync.Once
	auditSigningKeyInit   sync.Once
	auditSignerInit       sync.Once
	keyVerifierInit       sync.Once
	analyticsRepoInit     sync.Once
	complianceRepoInit    sync.Once
	caseRepoInit          sync.Once
	vaultRepoInit         sync.Once
	auditRepoInit         sync.Once
	outboxRepoInit        sync.Once
	analyticsUseCaseInit  sync.Once
	complianceUseCaseInit sync.Once
	vaultUseCaseInit      sync.Once
	auditUseCaseInit      sync.Once
	outboxUseCaseInit     sync.Once
	pipelineUseCaseInit   sync.Once
	httpServerInit        sync.Once
	metricsServerInit     sync.Once
	initErrors            map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	ctx, cancel := context.WithCancel(context.Background())
	return &Container{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
		dbs:    make(map[string]*sql.DB),
		dbInit: map[string]*sync.Once{
			TierAnalytics:  {},
			TierCompliance: {},
			TierVault:      {},
			TierAudit:      {},
		},
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// lazy runs init once and replays its error on every later call.
func (c *Container) lazy(once *sync.Once, name string, init func() error) error {
	once.Do(func() {
		if err := init(); err != nil {
			c.mu.Lock()
			c.initErrors[name] = err
			c.mu.Unlock()
		}
	})
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErrors[name]
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// AnalyticsDB returns the Tier-1 pool.
func (c *Container) AnalyticsDB() (*sql.DB, error) {
	return c.tierDB(TierAnalytics, c.config.AnalyticsDBConnectionString)
}

// ComplianceDB returns the Tier-2 pool. The vault seal queue lives here as well.
func (c *Container) ComplianceDB() (*sql.DB, error) {
	return c.tierDB(TierCompliance, c.config.ComplianceDBConnectionString)
}

// VaultDB returns the Tier-3 pool.
func (c *Container) VaultDB() (*sql.DB, error) {
	return c.tierDB(TierVault, c.config.VaultDBConnectionString)
}

// AuditDB returns the audit log pool.
func (c *Container) AuditDB() (*sql.DB, error) {
	return c.tierDB(TierAudit, c.config.AuditDBConnectionString)
}

// tierDB connects the pool for tier on first access.
func (c *Container) tierDB(tier, dsn string) (*sql.DB, error) {
	err := c.lazy(c.dbInit[tier], "db:"+tier, func() error {
		db, err := database.Connect(database.Config{
			Tier:               tier,
			Driver:             c.config.DBDriver,
			ConnectionString:   dsn,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to %s database: %w", tier, err)
		}
		c.mu.Lock()
		c.dbs[tier] = db
		c.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dbs[tier], nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	err := c.lazy(&c.metricsProviderInit, "metricsProvider", func() error {
		if !c.config.MetricsEnabled {
			return nil
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			return fmt.Errorf("failed to create metrics provider: %w", err)
		}
		c.metricsProvider = provider
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder (no-op when metrics are disabled).
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	err := c.lazy(&c.businessMetricsInit, "businessMetrics", func() error {
		provider, err := c.MetricsProvider()
		if err != nil {
			return err
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return nil
		}
		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			return fmt.Errorf("failed to create business metrics: %w", err)
		}
		c.businessMetrics = bm
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.businessMetrics, nil
}

// GeoResolver returns the MaxMind resolver when a City database is configured and the
// stub resolver otherwise.
func (c *Container) GeoResolver() (geoip.Resolver, error) {
	err := c.lazy(&c.geoResolverInit, "geoResolver", func() error {
		if c.config.GeoIPCityDBPath == "" {
			c.Logger().Warn("no geoip database configured, every location resolves to Unknown")
			c.geoResolver = geoip.NewStubResolver()
			return nil
		}
		resolver, err := geoip.NewMaxMindResolver(c.config.GeoIPCityDBPath)
		if err != nil {
			return err
		}
		c.geoResolver = resolver
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.geoResolver, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancel()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if closer, ok := c.geoResolver.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("geoip close: %w", err))
		}
	}

	// Key material is wiped before the pools go away.
	if c.complianceKeyring != nil {
		c.complianceKeyring.Close()
	}
	if c.auditSigningKey != nil {
		c.auditSigningKey.Destroy()
	}

	for tier, db := range c.dbs {
		if err := db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("%s database close: %w", tier, err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(shutdownErrors...))
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// repositoryFor picks the implementation matching the configured driver.
func repositoryFor[T any](driver string, postgres, mysql func() T) (T, error) {
	switch driver {
	case database.DriverMySQL:
		return mysql(), nil
	case database.DriverPostgres:
		return postgres(), nil
	default:
		var zero T
		return zero, fmt.Errorf("unsupported database driver: %s", driver)
	}
}
