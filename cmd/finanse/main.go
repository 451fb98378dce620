package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finanse/internal/cli"
	apphttp "finanse/internal/http"
	"finanse/internal/services"
)

func main() {
	cli.LoadEnvFile()
	bootstrap := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.ConfigureLogger(cfg, "finanse")

	be := cli.InitBackend(context.Background(), logger.Logger, cfg)
	publisher := cli.NewPublisher(logger.Logger, cfg)
	ledger := services.NewLedgerService(be.Store, publisher, cfg.SnapshotTTL)

	srv := apphttp.NewServer(ledger, apphttp.Options{
		Addr:               ":" + cfg.Port,
		Location:           cfg.Location(),
		Currency:           cfg.Currency,
		ViewCacheSize:      cfg.ViewCacheSize,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RateLimitBurst:     cfg.RateLimitBurst,
		Logger:             logger,
	})

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := ledger.Close(); err != nil {
			logger.Error("Ledger close error", "error", err)
		}
		if be.Cleanup != nil {
			if err := be.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	logger.Info("Starting finanse server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", cfg.Location().String(),
		"currency", cfg.Currency)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
