package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"finanse/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "finanse.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_DefaultCategoriesSeeded(t *testing.T) {
	repo := newTestRepo(t)
	cats, err := repo.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) != 6 {
		t.Fatalf("expected 6 default categories, got %d", len(cats))
	}
	if cats[0].Name != "Bills & Utilities" {
		t.Fatalf("expected categories sorted by name, got %q first", cats[0].Name)
	}
}

func TestSQLiteRepository_TransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	cat := core.Category{ID: "cat-1", Name: "Coffee", Icon: "food", Color: "#ef4444", Type: core.CategoryExpense}
	if err := repo.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("create category: %v", err)
	}
	tx := core.Transaction{
		ID:          "tx-1",
		Amount:      decimal.RequireFromString("12.34"),
		Description: "Espresso",
		Date:        "2024-01-10",
		CategoryID:  "cat-1",
		Type:        core.Expense,
	}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	got, err := repo.GetTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if !got.Amount.Equal(tx.Amount) || got.Description != "Espresso" || got.Type != core.Expense || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected transaction %+v", got)
	}

	if err := repo.UpdateTransactionDescription(ctx, "tx-1", "Double espresso"); err != nil {
		t.Fatalf("update description: %v", err)
	}
	all, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(all) != 1 || all[0].Description != "Double espresso" {
		t.Fatalf("unexpected list %+v", all)
	}

	if err := repo.DeleteTransaction(ctx, "tx-1"); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, "tx-1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteTransaction(ctx, "tx-1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSQLiteRepository_DeleteCategoryInUse(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	cat := core.Category{ID: "cat-1", Name: "Rent", Icon: "housing", Color: "#3b82f6", Type: core.CategoryExpense}
	if err := repo.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("create category: %v", err)
	}
	tx := core.Transaction{ID: "tx-1", Amount: decimal.NewFromInt(1500), Description: "January rent", Date: "2024-01-01", CategoryID: "cat-1", Type: core.Expense}
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	if err := repo.DeleteCategory(ctx, "cat-1"); !errors.Is(err, core.ErrCategoryInUse) {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}
	if _, err := repo.GetCategory(ctx, "cat-1"); err != nil {
		t.Fatalf("category must survive rejected delete: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, "tx-1"); err != nil {
		t.Fatalf("transaction must survive rejected delete: %v", err)
	}

	if err := repo.DeleteTransaction(ctx, "tx-1"); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if err := repo.DeleteCategory(ctx, "cat-1"); err != nil {
		t.Fatalf("delete unused category: %v", err)
	}
	if err := repo.DeleteCategory(ctx, "cat-1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteRepository_CurrencyEntries(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	entries := []core.CurrencyEntry{
		{ID: "c1", Date: "2024-02-01", Description: "Transfer", PLNAmount: decimal.NewFromInt(100), INRAmount: decimal.NewFromInt(2075)},
		{ID: "c2", Date: "2024-02-15", Description: "Transfer", PLNAmount: decimal.RequireFromString("50.5"), INRAmount: decimal.NewFromInt(1040)},
	}
	for _, e := range entries {
		if err := repo.CreateCurrencyEntry(ctx, e); err != nil {
			t.Fatalf("create currency entry: %v", err)
		}
	}
	got, err := repo.ListCurrencyEntries(ctx)
	if err != nil {
		t.Fatalf("list currency entries: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c2" || !got[0].PLNAmount.Equal(decimal.RequireFromString("50.5")) {
		t.Fatalf("unexpected entries %+v", got)
	}
	if err := repo.DeleteCurrencyEntry(ctx, "c1"); err != nil {
		t.Fatalf("delete currency entry: %v", err)
	}
	if err := repo.DeleteCurrencyEntry(ctx, "c1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteRepository_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finanse.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	cat := core.Category{ID: "keep", Name: "Keep", Icon: "gifts", Color: "#a855f7", Type: core.CategoryBoth}
	if err := repo.CreateCategory(context.Background(), cat); err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	if _, err := repo.GetCategory(context.Background(), "keep"); err != nil {
		t.Fatalf("category lost after reopen: %v", err)
	}
}
