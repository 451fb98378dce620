package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"finanse/internal/ledger"
	"finanse/internal/query"
)

// SnapshotSource supplies full record sets.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check whether the summary is dirty (default: 30s)
	PollInterval time.Duration

	// MaxRetries is how many consecutive failed rewrites are tolerated before
	// the processor waits for the next change (default: 3)
	MaxRetries int

	// Location is the time zone months are bucketed in (default: UTC)
	Location *time.Location
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 30 * time.Second,
		MaxRetries:   3,
		Location:     time.UTC,
	}
}

// SyncProcessor rewrites the exported monthly summary whenever the ledger
// changed since the last successful rewrite.
type SyncProcessor struct {
	source   SnapshotSource
	exporter ledger.Exporter
	config   SyncProcessorConfig

	dirty    atomic.Bool
	failures int

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(source SnapshotSource, exporter ledger.Exporter, config SyncProcessorConfig) *SyncProcessor {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultSyncProcessorConfig().PollInterval
	}
	return &SyncProcessor{
		source:   source,
		exporter: exporter,
		config:   config,
	}
}

// MarkDirty schedules a summary rewrite on the next poll.
func (p *SyncProcessor) MarkDirty() {
	p.dirty.Store(true)
}

// Dirty reports whether a rewrite is pending.
func (p *SyncProcessor) Dirty() bool {
	return p.dirty.Load()
}

// Start begins the processing loop. Returns an error if already running.
// The summary is marked dirty so the first poll writes it.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	p.MarkDirty()
	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	// Signal stop
	close(p.stopCh)

	// Wait for completion or context cancellation
	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// runLoop is the main processing loop
func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	// Process immediately on startup
	p.Flush(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.Flush(ctx)
		}
	}
}

// Flush rewrites the summary if it is dirty. It is safe to call directly.
func (p *SyncProcessor) Flush(ctx context.Context) {
	if !p.dirty.Swap(false) {
		return
	}

	if err := p.writeSummary(ctx); err != nil {
		p.handleFailure(ctx, err)
		return
	}
	p.failures = 0
}

func (p *SyncProcessor) writeSummary(ctx context.Context) error {
	snap, err := p.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	rows := query.MonthlySummaries(snap.Transactions, snap.Categories, p.config.Location)
	if err := p.exporter.WriteMonthlySummary(ctx, rows); err != nil {
		return fmt.Errorf("write monthly summary: %w", err)
	}

	slog.InfoContext(ctx, "Monthly summary exported",
		"months", len(rows),
		"version", snap.Version)
	return nil
}

// handleFailure keeps the summary dirty until MaxRetries consecutive
// failures, then waits for the next change.
func (p *SyncProcessor) handleFailure(ctx context.Context, err error) {
	p.failures++
	slog.WarnContext(ctx, "Summary export failed",
		"attempt", p.failures,
		"error", err)

	if p.failures >= p.config.MaxRetries {
		slog.ErrorContext(ctx, "Summary export failed permanently after max retries",
			"attempts", p.failures)
		p.failures = 0
		return
	}
	p.dirty.Store(true)
}
