package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finanse/internal/amqp"
	"finanse/internal/cli"
	"finanse/internal/services"
	gsheet "finanse/internal/sheets/google"
	"finanse/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	bootstrap := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.ConfigureLogger(cfg, "finanse-worker")

	logger.Info("Starting finanse-worker")

	if !cfg.SheetsEnabled() {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the worker")
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	be := cli.InitBackend(context.Background(), logger.Logger, cfg)
	defer func() {
		if be.Cleanup != nil {
			_ = be.Cleanup()
		}
	}()
	// The worker only reads; it never publishes ledger events.
	ledger := services.NewLedgerService(be.Store, nil, cfg.SnapshotTTL)

	sheetsClient, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsFile: cfg.GoogleCredentialsFile,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
		OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
		SummaryTab:      cfg.SheetsSummaryTab,
		TransactionsTab: cfg.SheetsTransactionsTab,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()
	amqpClient.SetPrefetch(cfg.SyncBatchSize)

	processor := services.NewSyncProcessor(ledger, sheetsClient, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
		MaxRetries:   3,
		Location:     cfg.Location(),
	})
	syncWorker := worker.NewSyncWorker(ledger, sheetsClient, processor)

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		logger.Info("Shutting down worker...")
		if err := processor.Stop(ctx); err != nil {
			logger.Error("Sync processor stop error", "error", err)
		}
	})

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
	}

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", "error", err)
		os.Exit(1)
	}

	go func() {
		err := amqpClient.ConsumeLedgerEvents(ctx, syncWorker.HandleLedgerEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Ledger event consumption failed", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
