package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/allisson/viewvault/internal/app"
)

// shutdownTimeout bounds the graceful stop of the HTTP servers.
const shutdownTimeout = 30 * time.Second

// RunServer starts the API server, the metrics server and the vault seal worker.
// Blocks until SIGINT/SIGTERM or until one of them fails, then stops the others.
func RunServer(ctx context.Context, version string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	defer closeContainer(container, logger)

	// Resolving the HTTP server initializes every tier, the keys and the audit log.
	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	sealWorker, err := container.OutboxUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize vault seal worker: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(gctx); err != nil {
			return fmt.Errorf("api server error: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		g.Go(func() error {
			if err := metricsServer.Start(gctx); err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		if err := sealWorker.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("vault seal worker error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			logger.Info("shutdown signal received")
		} else {
			logger.Error("server error, initiating shutdown")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		var shutdownErrors []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("api server shutdown: %w", err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
			}
		}
		return errors.Join(shutdownErrors...)
	})

	return g.Wait()
}
