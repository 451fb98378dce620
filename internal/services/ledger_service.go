package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"finanse/internal/amqp"
	"finanse/internal/cache"
	"finanse/internal/core"
	"finanse/internal/ledger"
	"finanse/internal/query"
)

const snapshotKey = "snapshot"

// EventPublisher announces ledger mutations to other processes.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, kind amqp.EventKind, id string, version int64) error
	Close() error
}

// Snapshot is the full record set at a given ledger version.
type Snapshot struct {
	Version      int64
	Transactions []core.Transaction
	Categories   []core.Category
	Currency     []core.CurrencyEntry
	FetchedAt    time.Time
}

// LedgerService orchestrates ledger mutations across the store and AMQP,
// and serves cached snapshots to readers.
type LedgerService struct {
	store     ledger.Store
	publisher EventPublisher
	snapshots *cache.LRUCache[*Snapshot]
	version   atomic.Int64
	now       func() time.Time
}

// NewLedgerService creates the service. A nil publisher disables events and
// a non-positive ttl disables snapshot caching.
func NewLedgerService(store ledger.Store, publisher EventPublisher, ttl time.Duration) *LedgerService {
	s := &LedgerService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
	if ttl > 0 {
		s.snapshots = cache.NewLRUCache[*Snapshot](1, ttl)
	}
	return s
}

// SnapshotCache exposes the snapshot cache for registration with a cache.Manager.
// It returns nil when caching is disabled.
func (s *LedgerService) SnapshotCache() *cache.LRUCache[*Snapshot] {
	return s.snapshots
}

// Version returns the current ledger version. It increases on every
// successful mutation made through this service.
func (s *LedgerService) Version() int64 {
	return s.version.Load()
}

// Invalidate drops the cached snapshot and bumps the version.
func (s *LedgerService) Invalidate() int64 {
	v := s.version.Add(1)
	if s.snapshots != nil {
		s.snapshots.Delete(snapshotKey)
	}
	return v
}

// Snapshot returns all transactions, categories and currency entries.
func (s *LedgerService) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s.snapshots != nil {
		if snap, ok := s.snapshots.Get(snapshotKey); ok && snap.Version == s.Version() {
			return snap, nil
		}
	}

	version := s.Version()
	snap := &Snapshot{Version: version}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.store.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		snap.Transactions = txs
		return nil
	})
	g.Go(func() error {
		cats, err := s.store.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		snap.Categories = cats
		return nil
	})
	g.Go(func() error {
		entries, err := s.store.ListCurrencyEntries(gctx)
		if err != nil {
			return fmt.Errorf("load currency entries: %w", err)
		}
		snap.Currency = entries
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	snap.FetchedAt = s.now()

	// A mutation that landed during the fetch makes this result stale.
	if s.snapshots != nil && s.Version() == version {
		s.snapshots.Set(snapshotKey, snap)
	}

	slog.DebugContext(ctx, "Snapshot loaded",
		"version", version,
		"transactions", len(snap.Transactions),
		"categories", len(snap.Categories))

	return snap, nil
}

// AddTransaction validates tx against its category and stores it with a new ID.
func (s *LedgerService) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Description = strings.TrimSpace(tx.Description)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	cat, err := s.store.GetCategory(ctx, tx.CategoryID)
	if errors.Is(err, core.ErrNotFound) {
		return core.Transaction{}, fmt.Errorf("category %s: %w", tx.CategoryID, core.ErrMissingCategory)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load category: %w", err)
	}
	if err := tx.ValidateAgainst(cat); err != nil {
		return core.Transaction{}, err
	}

	tx.ID = uuid.NewString()
	tx.CreatedAt = s.now().UTC()
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.committed(ctx, amqp.TransactionCreated, tx.ID)
	return tx, nil
}

// UpdateDescription edits a transaction's description, the only field that
// may change after creation.
func (s *LedgerService) UpdateDescription(ctx context.Context, id, description string) (core.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Description = strings.TrimSpace(description)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.UpdateTransactionDescription(ctx, id, tx.Description); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.committed(ctx, amqp.TransactionUpdated, id)
	return tx, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.committed(ctx, amqp.TransactionDeleted, id)
	return nil
}

// AddCategory validates and stores a category. It also returns the names of
// existing categories that look like duplicates of the new one.
func (s *LedgerService) AddCategory(ctx context.Context, c core.Category) (core.Category, []string, error) {
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return core.Category{}, nil, err
	}

	var similar []string
	if snap, err := s.Snapshot(ctx); err == nil {
		similar = query.SimilarCategories(snap.Categories, c.Name)
	} else {
		slog.WarnContext(ctx, "Could not check for similar categories", "error", err)
	}

	c.ID = uuid.NewString()
	c.CreatedAt = s.now().UTC()
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return core.Category{}, nil, fmt.Errorf("save category: %w", err)
	}

	s.committed(ctx, amqp.CategoryCreated, c.ID)
	return c, similar, nil
}

// DeleteCategory refuses with core.ErrCategoryInUse while any transaction
// references the category. The store repeats the check atomically.
func (s *LedgerService) DeleteCategory(ctx context.Context, id string) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	if query.InUse(snap.Transactions, id) {
		return fmt.Errorf("delete category %s: %w", id, core.ErrCategoryInUse)
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.committed(ctx, amqp.CategoryDeleted, id)
	return nil
}

func (s *LedgerService) AddCurrencyEntry(ctx context.Context, e core.CurrencyEntry) (core.CurrencyEntry, error) {
	e.Description = strings.TrimSpace(e.Description)
	if err := e.Validate(); err != nil {
		return core.CurrencyEntry{}, err
	}
	e.ID = uuid.NewString()
	e.CreatedAt = s.now().UTC()
	if err := s.store.CreateCurrencyEntry(ctx, e); err != nil {
		return core.CurrencyEntry{}, fmt.Errorf("save currency entry: %w", err)
	}
	s.committed(ctx, amqp.CurrencyCreated, e.ID)
	return e, nil
}

func (s *LedgerService) DeleteCurrencyEntry(ctx context.Context, id string) error {
	if err := s.store.DeleteCurrencyEntry(ctx, id); err != nil {
		return fmt.Errorf("delete currency entry: %w", err)
	}
	s.committed(ctx, amqp.CurrencyDeleted, id)
	return nil
}

// Transaction and Category look up single records without touching the cache.
func (s *LedgerService) Transaction(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *LedgerService) Category(ctx context.Context, id string) (core.Category, error) {
	return s.store.GetCategory(ctx, id)
}

// Ping reports whether the underlying store is reachable. Stores without a
// health check are assumed healthy.
func (s *LedgerService) Ping(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// committed invalidates the snapshot and publishes the change. Publish
// failures are logged; the mutation is already durable.
func (s *LedgerService) committed(ctx context.Context, kind amqp.EventKind, id string) {
	version := s.Invalidate()

	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping ledger event", "kind", kind, "id", id)
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, kind, id, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind, "id", id, "error", err)
	}
}

// Close closes the event publisher. The store is owned by the backend.
func (s *LedgerService) Close() error {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			return fmt.Errorf("close ledger service: amqp: %w", err)
		}
	}
	return nil
}
