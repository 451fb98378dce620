// Package postgres is a ledger store backed by PostgreSQL through pgxpool.
//
// Amounts are NUMERIC columns; they cross the wire as text so that decimals
// never pass through floating point.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"finanse/internal/core"
	"finanse/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS categories (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    icon       TEXT NOT NULL,
    color      TEXT NOT NULL DEFAULT '#3b82f6',
    type       TEXT NOT NULL CHECK (type IN ('income', 'expense', 'both')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS transactions (
    id          TEXT PRIMARY KEY,
    amount      NUMERIC(14, 2) NOT NULL CHECK (amount > 0),
    description TEXT NOT NULL,
    date        TEXT NOT NULL,
    category_id TEXT NOT NULL,
    type        TEXT NOT NULL CHECK (type IN ('income', 'expense')),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category_id);
CREATE TABLE IF NOT EXISTS currency_entries (
    id          TEXT PRIMARY KEY,
    date        TEXT NOT NULL,
    description TEXT NOT NULL,
    pln_amount  NUMERIC(14, 2) NOT NULL,
    inr_amount  NUMERIC(14, 2) NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`

type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL and ensures the schema exists.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func parseAmount(text string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", text, err)
	}
	return d, nil
}

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		tx          core.Transaction
		amount, typ string
	)
	if err := row.Scan(&tx.ID, &amount, &tx.Description, &tx.Date, &tx.CategoryID, &typ, &tx.CreatedAt); err != nil {
		return core.Transaction{}, err
	}
	d, err := parseAmount(amount)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Amount = d
	tx.Type = core.TransactionType(typ)
	return tx, nil
}

func scanCategory(row pgx.Row) (core.Category, error) {
	var (
		c   core.Category
		typ string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &typ, &c.CreatedAt); err != nil {
		return core.Category{}, err
	}
	c.Type = core.CategoryType(typ)
	return c, nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, amount::text, description, date, category_id, type, created_at
FROM transactions ORDER BY date DESC, created_at DESC`)
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

func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	tx, err := scanTransaction(s.pool.QueryRow(ctx, `SELECT id, amount::text, description, date, category_id, type, created_at
FROM transactions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return tx, nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO transactions (id, amount, description, date, category_id, type, created_at)
VALUES ($1, $2::text::numeric, $3, $4, $5, $6, $7)`,
		tx.ID, tx.Amount.String(), tx.Description, tx.Date, tx.CategoryID, string(tx.Type), tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction saved to Postgres", "id", tx.ID, "amount", tx.Amount.String())
	return nil
}

func (s *Store) UpdateTransactionDescription(ctx context.Context, id, description string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE transactions SET description = $1 WHERE id = $2`, description, id)
	if err != nil {
		return fmt.Errorf("update transaction description: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Transaction deleted from Postgres", "id", id)
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, icon, color, type, created_at FROM categories ORDER BY name`)
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

func (s *Store) GetCategory(ctx context.Context, id string) (core.Category, error) {
	c, err := scanCategory(s.pool.QueryRow(ctx, `SELECT id, name, icon, color, type, created_at FROM categories WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	return c, nil
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO categories (id, name, icon, color, type, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, c.Icon, c.Color, string(c.Type), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	slog.InfoContext(ctx, "Category saved to Postgres", "id", c.ID, "name", c.Name)
	return nil
}

// DeleteCategory removes an unreferenced category. The reference check and
// the delete run in one transaction holding a row lock on the category.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer dbtx.Rollback(ctx)

	var locked string
	err = dbtx.QueryRow(ctx, `SELECT id FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("delete category %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock category %s: %w", id, err)
	}

	var inUse bool
	if err := dbtx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transactions WHERE category_id = $1)`, id).Scan(&inUse); err != nil {
		return fmt.Errorf("check category usage: %w", err)
	}
	if inUse {
		return fmt.Errorf("delete category %s: %w", id, core.ErrCategoryInUse)
	}

	if _, err := dbtx.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := dbtx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}
	slog.InfoContext(ctx, "Category deleted from Postgres", "id", id)
	return nil
}

func (s *Store) ListCurrencyEntries(ctx context.Context) ([]core.CurrencyEntry, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, date, description, pln_amount::text, inr_amount::text, created_at
FROM currency_entries ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list currency entries: %w", err)
	}
	defer rows.Close()

	var out []core.CurrencyEntry
	for rows.Next() {
		var (
			e        core.CurrencyEntry
			pln, inr string
		)
		if err := rows.Scan(&e.ID, &e.Date, &e.Description, &pln, &inr, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan currency entry: %w", err)
		}
		if e.PLNAmount, err = parseAmount(pln); err != nil {
			return nil, err
		}
		if e.INRAmount, err = parseAmount(inr); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate currency entries: %w", err)
	}
	return out, nil
}

func (s *Store) CreateCurrencyEntry(ctx context.Context, e core.CurrencyEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO currency_entries (id, date, description, pln_amount, inr_amount, created_at)
VALUES ($1, $2, $3, $4::text::numeric, $5::text::numeric, $6)`,
		e.ID, e.Date, e.Description, e.PLNAmount.String(), e.INRAmount.String(), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create currency entry: %w", err)
	}
	return nil
}

func (s *Store) DeleteCurrencyEntry(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM currency_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete currency entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("currency entry %s: %w", id, core.ErrNotFound)
	}
	return nil
}
