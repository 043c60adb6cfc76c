package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/viewvault/internal/metrics"
)

// MetricsServer serves Prometheus scrapes on a port separate from the API, so the
// scrape endpoint never sits behind the public dashboard's listener.
type MetricsServer struct {
	server *http.Server
	logger *slog.Logger
}

// NewMetricsServer mounts the provider's exposition handler on GET /metrics.
func NewMetricsServer(host string, port int, logger *slog.Logger, provider *metrics.Provider) *MetricsServer {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(logger))
	if provider != nil {
		router.GET("/metrics", gin.WrapH(provider.Handler()))
	}

	server := newHTTPServer(host, port)
	server.Handler = router
	return &MetricsServer{server: server, logger: logger}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *MetricsServer) GetHandler() http.Handler {
	return s.server.Handler
}

// Start blocks until the server is shut down.
func (s *MetricsServer) Start(ctx context.Context) error {
	return serve(s.server, s.logger, "metrics")
}

// Shutdown gracefully shuts down the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down metrics server")
	return s.server.Shutdown(ctx)
}

func newHTTPServer(host string, port int) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serve runs ListenAndServe and treats a graceful shutdown as success.
func serve(server *http.Server, logger *slog.Logger, name string) error {
	logger.Info("starting "+name+" server", slog.String("addr", server.Addr))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start %s server: %w", name, err)
	}
	return nil
}
