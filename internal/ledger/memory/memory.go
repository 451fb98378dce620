// Package memory is a process-local ledger store used for demos and tests.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"finanse/internal/core"
	"finanse/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

type Store struct {
	mu           sync.Mutex
	transactions []core.Transaction
	categories   []core.Category
	currency     []core.CurrencyEntry
}

func New(cats []core.Category) *Store {
	return &Store{categories: dedupeCategories(cats)}
}

// DefaultCategories mirrors the categories seeded by the SQL migrations.
func DefaultCategories() []core.Category {
	seeded := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	return []core.Category{
		{ID: "00000000-0000-0000-0000-000000000001", Name: "Salary", Icon: "salary", Color: "#22c55e", Type: core.CategoryIncome, CreatedAt: seeded},
		{ID: "00000000-0000-0000-0000-000000000002", Name: "Food", Icon: "food", Color: "#ef4444", Type: core.CategoryExpense, CreatedAt: seeded},
		{ID: "00000000-0000-0000-0000-000000000003", Name: "Housing", Icon: "housing", Color: "#3b82f6", Type: core.CategoryExpense, CreatedAt: seeded},
		{ID: "00000000-0000-0000-0000-000000000004", Name: "Transportation", Icon: "transportation", Color: "#f97316", Type: core.CategoryExpense, CreatedAt: seeded},
		{ID: "00000000-0000-0000-0000-000000000005", Name: "Bills & Utilities", Icon: "bills", Color: "#eab308", Type: core.CategoryExpense, CreatedAt: seeded},
		{ID: "00000000-0000-0000-0000-000000000006", Name: "Gifts", Icon: "gifts", Color: "#a855f7", Type: core.CategoryBoth, CreatedAt: seeded},
	}
}

// NewFromFile seeds categories from a file of name|icon|color|type lines.
// A missing or empty file falls back to DefaultCategories.
func NewFromFile(path string) *Store {
	cats := readCategories(path)
	if len(cats) == 0 {
		cats = DefaultCategories()
	}
	return New(cats)
}

func (s *Store) Close() error { return nil }

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Transaction(nil), s.transactions...)
	// Newest first, matching the SQL stores.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.txIndex(id); i >= 0 {
		return s.transactions[i], nil
	}
	return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, core.ErrNotFound)
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txIndex(tx.ID) >= 0 {
		return fmt.Errorf("create transaction %s: duplicate id", tx.ID)
	}
	s.transactions = append(s.transactions, tx)
	return nil
}

func (s *Store) UpdateTransactionDescription(_ context.Context, id, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.txIndex(id)
	if i < 0 {
		return fmt.Errorf("update transaction %s: %w", id, core.ErrNotFound)
	}
	s.transactions[i].Description = description
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.txIndex(id)
	if i < 0 {
		return fmt.Errorf("delete transaction %s: %w", id, core.ErrNotFound)
	}
	s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Category(nil), s.categories...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.catIndex(id); i >= 0 {
		return s.categories[i], nil
	}
	return core.Category{}, fmt.Errorf("get category %s: %w", id, core.ErrNotFound)
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.catIndex(c.ID) >= 0 {
		return fmt.Errorf("create category %s: duplicate id", c.ID)
	}
	s.categories = append(s.categories, c)
	return nil
}

// DeleteCategory checks references and deletes under the same lock.
func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.catIndex(id)
	if i < 0 {
		return fmt.Errorf("delete category %s: %w", id, core.ErrNotFound)
	}
	for _, tx := range s.transactions {
		if tx.CategoryID == id {
			return fmt.Errorf("delete category %s: %w", id, core.ErrCategoryInUse)
		}
	}
	s.categories = append(s.categories[:i], s.categories[i+1:]...)
	return nil
}

func (s *Store) ListCurrencyEntries(_ context.Context) ([]core.CurrencyEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.CurrencyEntry(nil), s.currency...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateCurrencyEntry(_ context.Context, e core.CurrencyEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currency = append(s.currency, e)
	return nil
}

func (s *Store) DeleteCurrencyEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.currency {
		if e.ID == id {
			s.currency = append(s.currency[:i], s.currency[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete currency entry %s: %w", id, core.ErrNotFound)
}

func (s *Store) txIndex(id string) int {
	for i, tx := range s.transactions {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) catIndex(id string) int {
	for i, c := range s.categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func readCategories(path string) []core.Category {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Category
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c, ok := parseCategoryLine(line)
		if !ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

// parseCategoryLine reads "name|icon|color|type". Color and type are optional.
func parseCategoryLine(line string) (core.Category, bool) {
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	c := core.Category{Name: parts[0], Type: core.CategoryExpense}
	if len(parts) > 1 {
		c.Icon = parts[1]
	}
	if len(parts) > 2 {
		c.Color = parts[2]
	}
	if len(parts) > 3 && parts[3] != "" {
		c.Type = core.CategoryType(strings.ToLower(parts[3]))
	}
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return core.Category{}, false
	}
	c.ID = uuid.NewString()
	return c, true
}

// dedupeCategories drops repeated names, keeping the first occurrence.
func dedupeCategories(in []core.Category) []core.Category {
	seen := map[string]struct{}{}
	out := make([]core.Category, 0, len(in))
	for _, c := range in {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
