// Command finanse-report prints the monthly income and expense summary of
// the configured ledger to the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"finanse/internal/cli"
	"finanse/internal/query"
	"finanse/internal/services"
)

func main() {
	year := flag.Int("year", 0, "only show this year")
	last := flag.Int("months", 0, "only show this many months")
	flag.Parse()

	cli.LoadEnvFile()
	bootstrap := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.ConfigureLogger(cfg, "finanse-report")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	be := cli.InitBackend(ctx, logger.Logger, cfg)
	defer func() {
		if be.Cleanup != nil {
			_ = be.Cleanup()
		}
	}()

	ledger := services.NewLedgerService(be.Store, nil, 0)
	snap, err := ledger.Snapshot(ctx)
	if err != nil {
		logger.Error("Failed to load ledger", "error", err)
		os.Exit(1)
	}

	months := query.MonthlySummaries(snap.Transactions, snap.Categories, cfg.Location())
	fmt.Println(renderReport(filterMonths(months, *year, *last), cfg.Currency))
}
