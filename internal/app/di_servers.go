package app

import (
	"fmt"

	analyticsHTTP "github.com/allisson/viewvault/internal/analytics/http"
	auditHTTP "github.com/allisson/viewvault/internal/audit/http"
	complianceHTTP "github.com/allisson/viewvault/internal/compliance/http"
	"github.com/allisson/viewvault/internal/http"
	pipelineHTTP "github.com/allisson/viewvault/internal/pipeline/http"
	vaultHTTP "github.com/allisson/viewvault/internal/vault/http"
)

// HTTPServer returns the API server with its router set up.
func (c *Container) HTTPServer() (*http.Server, error) {
	err := c.lazy(&c.httpServerInit, "httpServer", func() error {
		server, err := c.initHTTPServer()
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.httpServer = server
		c.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	err := c.lazy(&c.metricsServerInit, "metricsServer", func() error {
		provider, err := c.MetricsProvider()
		if err != nil || provider == nil {
			return err
		}
		server := http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider)
		c.mu.Lock()
		c.metricsServer = server
		c.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.metricsServer, nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	pipeline, err := c.PipelineUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline use case for http server: %w", err)
	}
	analytics, err := c.AnalyticsUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get analytics use case for http server: %w", err)
	}
	compliance, err := c.ComplianceUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get compliance use case for http server: %w", err)
	}
	vault, err := c.VaultUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get vault use case for http server: %w", err)
	}
	audit, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for http server: %w", err)
	}
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}

	analyticsDB, err := c.AnalyticsDB()
	if err != nil {
		return nil, err
	}
	complianceDB, err := c.ComplianceDB()
	if err != nil {
		return nil, err
	}
	vaultDB, err := c.VaultDB()
	if err != nil {
		return nil, err
	}
	auditDB, err := c.AuditDB()
	if err != nil {
		return nil, err
	}

	server := http.NewServer(
		analyticsDB,
		c.config.ServerHost,
		c.config.ServerPort,
		logger,
		complianceDB,
		vaultDB,
		auditDB,
	)
	server.SetupRouter(
		c.ctx,
		c.config,
		c.KeyVerifier(),
		audit,
		http.Handlers{
			Pipeline:   pipelineHTTP.NewPipelineHandler(pipeline, logger),
			Analytics:  analyticsHTTP.NewAnalyticsHandler(analytics, logger),
			Compliance: complianceHTTP.NewComplianceHandler(compliance, logger),
			Vault:      vaultHTTP.NewVaultHandler(vault, logger),
			Audit:      auditHTTP.NewAuditHandler(audit, logger),
		},
		provider,
	)

	return server, nil
}
