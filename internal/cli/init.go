// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/finanse, cmd/finanse-worker and cmd/finanse-report.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finanse/internal/amqp"
	"finanse/internal/backend"
	"finanse/internal/config"
	"finanse/internal/log"
	"finanse/internal/services"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets it as the default logger.
// ConfigureLogger replaces it once the configuration is known.
func SetupLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// ConfigureLogger builds the application logger from LOG_LEVEL and
// LOG_FORMAT and installs it as the slog default.
func ConfigureLogger(cfg *config.Config, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: component,
	}).WithComponent(component)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend opens the configured store.
// Returns the backend or exits the process on failure.
func InitBackend(ctx context.Context, logger *slog.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return result
}

// NewPublisher connects the AMQP event publisher. It returns nil when AMQP
// is not configured or unreachable; the ledger then skips publishing.
func NewPublisher(logger *slog.Logger, cfg *config.Config) services.EventPublisher {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP not configured, ledger events disabled")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to connect to AMQP, ledger events disabled", "error", err)
		return nil
	}
	logger.Info("Connected to AMQP", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
