// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	analyticsHTTP "github.com/allisson/viewvault/internal/analytics/http"
	auditHTTP "github.com/allisson/viewvault/internal/audit/http"
	authHTTP "github.com/allisson/viewvault/internal/auth/http"
	authService "github.com/allisson/viewvault/internal/auth/service"
	complianceHTTP "github.com/allisson/viewvault/internal/compliance/http"
	"github.com/allisson/viewvault/internal/config"
	"github.com/allisson/viewvault/internal/metrics"
	pipelineHTTP "github.com/allisson/viewvault/internal/pipeline/http"
	vaultHTTP "github.com/allisson/viewvault/internal/vault/http"
)

const readinessTimeout = 2 * time.Second

// Handlers groups the route handlers mounted by SetupRouter.
type Handlers struct {
	Pipeline   *pipelineHTTP.PipelineHandler
	Analytics  *analyticsHTTP.AnalyticsHandler
	Compliance *complianceHTTP.ComplianceHandler
	Vault      *vaultHTTP.VaultHandler
	Audit      *auditHTTP.AuditHandler
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
	dbs    []*sql.DB
}

// NewServer creates a new HTTP server. Readiness pings db and every extra pool.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
	extra ...*sql.DB,
) *Server {
	return &Server{
		logger: logger,
		dbs:    append([]*sql.DB{db}, extra...),
		server: newHTTPServer(host, port),
	}
}

// SetupRouter builds the gin engine with every route of the API.
//
// Public routes (owner dashboard) are rate limited per client IP. Every other /v1
// route requires the internal API key and is rate limited per actor. The rate
// limiter cleanup goroutines stop when ctx is done.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	keyVerifier authService.KeyVerifier,
	auditor authHTTP.Auditor,
	handlers Handlers,
	metricsProvider *metrics.Provider,
) {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))
	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	public := v1.Group("/profiles/:profileId")
	if corsMiddleware := dashboardCORS(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		public.Use(corsMiddleware)
		public.OPTIONS("/analytics", preflight)
	}
	if cfg.RateLimitEnabled {
		public.Use(authHTTP.PublicRateLimitMiddleware(
			ctx,
			cfg.PublicRateLimitRequestsPerSec,
			cfg.PublicRateLimitBurst,
			s.logger,
		))
	}
	public.GET("/analytics", handlers.Analytics.DashboardHandler)

	internal := v1.Group("")
	authFailureRPS, authFailureBurst := authFailureLimits(cfg)
	internal.Use(authHTTP.AuthFailureRateLimitMiddleware(ctx, authFailureRPS, authFailureBurst, s.logger))
	internal.Use(authHTTP.InternalKeyMiddleware(keyVerifier, auditor, s.logger))
	if cfg.RateLimitEnabled {
		internal.Use(authHTTP.RateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	internal.POST("/views", handlers.Pipeline.RecordViewHandler)
	internal.GET("/profiles/:profileId/privacy", handlers.Analytics.PrivacySummaryHandler)
	internal.DELETE("/profiles/:profileId/analytics", handlers.Analytics.DeleteProfileHandler)

	compliance := internal.Group("/compliance")
	{
		compliance.POST("/query", handlers.Compliance.QueryHandler)
		compliance.PUT("/logs/:id/investigation", handlers.Compliance.SetInvestigationHandler)
		compliance.GET("/stats", handlers.Compliance.StatsHandler)
		compliance.POST("/cleanup", handlers.Compliance.CleanupHandler)
	}

	cases := internal.Group("/vault/cases/:caseId")
	{
		cases.POST("/seal", handlers.Vault.SealHandler)
		cases.POST("/export", handlers.Vault.ExportHandler)
		cases.POST("/close", handlers.Vault.CloseHandler)
	}

	internal.GET("/audit-logs", handlers.Audit.ListHandler)

	s.router = router
}

// authFailureLimits falls back to one rejected attempt per five seconds and a burst
// of five. A zero rate would leave the bucket empty and lock every caller out.
func authFailureLimits(cfg *config.Config) (float64, int) {
	rps, burst := cfg.AuthFailureRateLimitPerSec, cfg.AuthFailureRateLimitBurst
	if rps <= 0 {
		rps = 0.2
	}
	if burst < 1 {
		burst = 5
	}
	return rps, burst
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router
	return serve(s.server, s.logger, "http")
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports liveness without touching dependencies.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler pings every tier pool.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	for _, db := range s.dbs {
		if db == nil || db.PingContext(ctx) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"components": gin.H{"database": "error"},
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
