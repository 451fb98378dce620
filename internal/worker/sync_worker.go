package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finanse/internal/amqp"
	"finanse/internal/core"
	"finanse/internal/ledger"
	"finanse/internal/services"
)

// Ledger is the read side the worker needs from the ledger service.
type Ledger interface {
	Transaction(ctx context.Context, id string) (core.Transaction, error)
	Category(ctx context.Context, id string) (core.Category, error)
	Snapshot(ctx context.Context) (*services.Snapshot, error)
	Invalidate() int64
}

// SummaryMarker is notified when the monthly summary needs rewriting.
type SummaryMarker interface {
	MarkDirty()
}

// SyncWorker mirrors ledger changes into the spreadsheet export.
type SyncWorker struct {
	ledger    Ledger
	exporter  ledger.Exporter
	summaries SummaryMarker
}

func NewSyncWorker(l Ledger, exporter ledger.Exporter, summaries SummaryMarker) *SyncWorker {
	return &SyncWorker{
		ledger:    l,
		exporter:  exporter,
		summaries: summaries,
	}
}

// HandleLedgerEvent processes a single ledger event from AMQP. New
// transactions are appended to the export and every handled event marks
// the summary dirty.
func (w *SyncWorker) HandleLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"kind", event.Kind,
		"id", event.ID,
		"version", event.Version)

	// Another process changed the ledger; our snapshot is stale.
	w.ledger.Invalidate()

	if event.Kind == amqp.TransactionCreated {
		if err := w.exportTransaction(ctx, event.ID); err != nil {
			return err
		}
	}

	if w.summaries != nil {
		w.summaries.MarkDirty()
	}
	return nil
}

func (w *SyncWorker) exportTransaction(ctx context.Context, id string) error {
	tx, err := w.ledger.Transaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction deleted before export, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	var category *core.Category
	cat, err := w.ledger.Category(ctx, tx.CategoryID)
	switch {
	case err == nil:
		category = &cat
	case errors.Is(err, core.ErrNotFound):
		slog.WarnContext(ctx, "Transaction references a missing category",
			"id", id,
			"category_id", tx.CategoryID)
	default:
		return fmt.Errorf("get category: %w", err)
	}

	if err := w.exporter.AppendTransaction(ctx, tx, category); err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Successfully exported transaction",
		"id", tx.ID,
		"type", tx.Type,
		"amount", tx.Amount.String())
	return nil
}

// StartupSyncCheck exports every stored transaction. The exporter skips
// rows it already has, so this recovers events missed while the worker
// was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	snap, err := w.ledger.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load ledger for startup check: %w", err)
	}

	categories := make(map[string]core.Category, len(snap.Categories))
	for _, c := range snap.Categories {
		categories[c.ID] = c
	}

	// Oldest first so the sheet reads chronologically.
	successCount, errorCount := 0, 0
	for i := len(snap.Transactions) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		tx := snap.Transactions[i]
		var category *core.Category
		if c, ok := categories[tx.CategoryID]; ok {
			category = &c
		}
		if err := w.exporter.AppendTransaction(ctx, tx, category); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction during startup",
				"id", tx.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	if w.summaries != nil {
		w.summaries.MarkDirty()
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(snap.Transactions),
		"synced", successCount,
		"errors", errorCount)
	return nil
}
