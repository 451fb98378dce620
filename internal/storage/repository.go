package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finanse/internal/core"
	"finanse/internal/ledger"

	_ "modernc.org/sqlite"
)

var _ ledger.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const (
	listTransactionsSQL = `SELECT id, amount, description, date, category_id, type, created_at
FROM transactions ORDER BY date DESC, created_at DESC`
	getTransactionSQL = `SELECT id, amount, description, date, category_id, type, created_at
FROM transactions WHERE id = ?`
	insertTransactionSQL = `INSERT INTO transactions (id, amount, description, date, category_id, type, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	updateDescriptionSQL = `UPDATE transactions SET description = ? WHERE id = ?`
	deleteTransactionSQL = `DELETE FROM transactions WHERE id = ?`

	listCategoriesSQL = `SELECT id, name, icon, color, type, created_at FROM categories ORDER BY name`
	getCategorySQL    = `SELECT id, name, icon, color, type, created_at FROM categories WHERE id = ?`
	insertCategorySQL = `INSERT INTO categories (id, name, icon, color, type, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	// The NOT EXISTS guard keeps the in-use check and the delete atomic.
	deleteUnusedCategorySQL = `DELETE FROM categories
WHERE id = ? AND NOT EXISTS (SELECT 1 FROM transactions WHERE category_id = ?)`
	categoryExistsSQL = `SELECT COUNT(*) FROM categories WHERE id = ?`

	listCurrencySQL = `SELECT id, date, description, pln_amount, inr_amount, created_at
FROM currency_entries ORDER BY date DESC, created_at DESC`
	insertCurrencySQL = `INSERT INTO currency_entries (id, date, description, pln_amount, inr_amount, created_at)
VALUES (?, ?, ?, ?, ?, ?)`
	deleteCurrencySQL = `DELETE FROM currency_entries WHERE id = ?`
)

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		tx  core.Transaction
		typ string
	)
	if err := s.Scan(&tx.ID, &tx.Amount, &tx.Description, &tx.Date, &tx.CategoryID, &typ, &tx.CreatedAt); err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)
	return tx, nil
}

func scanCategory(s scanner) (core.Category, error) {
	var (
		c   core.Category
		typ string
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &typ, &c.CreatedAt); err != nil {
		return core.Category{}, err
	}
	c.Type = core.CategoryType(typ)
	return c, nil
}

// ListTransactions implements ledger.TransactionStore
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, listTransactionsSQL)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// GetTransaction implements ledger.TransactionStore
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	tx, err := scanTransaction(r.db.QueryRowContext(ctx, getTransactionSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return tx, nil
}

// CreateTransaction implements ledger.TransactionStore
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, insertTransactionSQL,
		tx.ID, tx.Amount, tx.Description, tx.Date, tx.CategoryID, string(tx.Type), tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"type", tx.Type,
		"amount", tx.Amount.String(),
		"date", tx.Date,
		"category_id", tx.CategoryID)
	return nil
}

// UpdateTransactionDescription implements ledger.TransactionStore
func (r *SQLiteRepository) UpdateTransactionDescription(ctx context.Context, id, description string) error {
	res, err := r.db.ExecContext(ctx, updateDescriptionSQL, description, id)
	if err != nil {
		return fmt.Errorf("update transaction description: %w", err)
	}
	if err := requireAffected(res, "transaction", id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction description updated", "id", id)
	return nil
}

// DeleteTransaction implements ledger.TransactionStore
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteTransactionSQL, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if err := requireAffected(res, "transaction", id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id)
	return nil
}

// ListCategories implements ledger.CategoryStore
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// GetCategory implements ledger.CategoryStore
func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, getCategorySQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	return c, nil
}

// CreateCategory implements ledger.CategoryStore
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, insertCategorySQL, c.ID, c.Name, c.Icon, c.Color, string(c.Type), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	slog.InfoContext(ctx, "Category saved to SQLite", "id", c.ID, "name", c.Name, "type", c.Type)
	return nil
}

// DeleteCategory implements ledger.CategoryStore
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteUnusedCategorySQL, id, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n == 0 {
		var count int
		if err := r.db.QueryRowContext(ctx, categoryExistsSQL, id).Scan(&count); err != nil {
			return fmt.Errorf("check category %s: %w", id, err)
		}
		if count == 0 {
			return fmt.Errorf("delete category %s: %w", id, core.ErrNotFound)
		}
		return fmt.Errorf("delete category %s: %w", id, core.ErrCategoryInUse)
	}
	slog.InfoContext(ctx, "Category deleted from SQLite", "id", id)
	return nil
}

// ListCurrencyEntries implements ledger.CurrencyStore
func (r *SQLiteRepository) ListCurrencyEntries(ctx context.Context) ([]core.CurrencyEntry, error) {
	rows, err := r.db.QueryContext(ctx, listCurrencySQL)
	if err != nil {
		return nil, fmt.Errorf("list currency entries: %w", err)
	}
	defer rows.Close()

	var out []core.CurrencyEntry
	for rows.Next() {
		var e core.CurrencyEntry
		if err := rows.Scan(&e.ID, &e.Date, &e.Description, &e.PLNAmount, &e.INRAmount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan currency entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate currency entries: %w", err)
	}
	return out, nil
}

// CreateCurrencyEntry implements ledger.CurrencyStore
func (r *SQLiteRepository) CreateCurrencyEntry(ctx context.Context, e core.CurrencyEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, insertCurrencySQL, e.ID, e.Date, e.Description, e.PLNAmount, e.INRAmount, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create currency entry: %w", err)
	}
	slog.InfoContext(ctx, "Currency entry saved to SQLite", "id", e.ID, "date", e.Date)
	return nil
}

// DeleteCurrencyEntry implements ledger.CurrencyStore
func (r *SQLiteRepository) DeleteCurrencyEntry(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteCurrencySQL, id)
	if err != nil {
		return fmt.Errorf("delete currency entry: %w", err)
	}
	return requireAffected(res, "currency entry", id)
}

func requireAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s rows affected: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, core.ErrNotFound)
	}
	return nil
}
