// Package ledger declares the ports between the ledger service and its
// storage and export adapters.
package ledger

import (
	"context"

	"finanse/internal/core"
	"finanse/internal/query"
)

// Ports for outbound adapters. Lookups of missing records return errors
// wrapping core.ErrNotFound.
type (
	TransactionStore interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		CreateTransaction(ctx context.Context, tx core.Transaction) error
		UpdateTransactionDescription(ctx context.Context, id, description string) error
		DeleteTransaction(ctx context.Context, id string) error
	}

	// CategoryStore persists categories. DeleteCategory must refuse, with
	// core.ErrCategoryInUse, to delete a category still referenced by a
	// transaction.
	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		GetCategory(ctx context.Context, id string) (core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id string) error
	}

	CurrencyStore interface {
		ListCurrencyEntries(ctx context.Context) ([]core.CurrencyEntry, error)
		CreateCurrencyEntry(ctx context.Context, e core.CurrencyEntry) error
		DeleteCurrencyEntry(ctx context.Context, id string) error
	}

	// Store is a complete backend.
	Store interface {
		TransactionStore
		CategoryStore
		CurrencyStore
		Close() error
	}

	// Exporter mirrors ledger data to an external report.
	Exporter interface {
		AppendTransaction(ctx context.Context, tx core.Transaction, category *core.Category) error
		WriteMonthlySummary(ctx context.Context, rows []query.MonthSummary) error
	}
)
