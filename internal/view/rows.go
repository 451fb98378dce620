package view

import (
	"time"

	"github.com/shopspring/decimal"

	"finanse/internal/core"
	"finanse/internal/icons"
	"finanse/internal/query"
)

// TransactionRow is a transaction joined with its category for display.
type TransactionRow struct {
	ID            string               `json:"id"`
	Date          string               `json:"date"`
	Description   string               `json:"description"`
	Type          core.TransactionType `json:"type"`
	Amount        decimal.Decimal      `json:"amount"`
	Formatted     string               `json:"formatted"`
	CategoryID    string               `json:"categoryId"`
	CategoryName  string               `json:"categoryName"`
	CategoryIcon  string               `json:"categoryIcon"`
	CategoryColor string               `json:"categoryColor"`
	CreatedAt     time.Time            `json:"createdAt"`
}

// rowBuilder joins transactions with categories and formats amounts.
type rowBuilder struct {
	categories map[string]core.Category
	currency   string
}

func newRowBuilder(categories []core.Category, currency string) rowBuilder {
	idx := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		idx[c.ID] = c
	}
	return rowBuilder{categories: idx, currency: currency}
}

func (b rowBuilder) row(tx core.Transaction) TransactionRow {
	r := TransactionRow{
		ID:            tx.ID,
		Date:          tx.Date,
		Description:   tx.Description,
		Type:          tx.Type,
		Amount:        tx.Amount,
		Formatted:     core.FormatMoney(tx.Amount, b.currency),
		CategoryID:    tx.CategoryID,
		CategoryName:  query.UnknownCategoryName,
		CategoryIcon:  icons.Unknown,
		CategoryColor: query.UnknownCategoryColor,
		CreatedAt:     tx.CreatedAt,
	}
	if c, ok := b.categories[tx.CategoryID]; ok {
		r.CategoryName = c.Name
		r.CategoryIcon = icons.Glyph(c.Icon)
		r.CategoryColor = c.Color
	}
	return r
}

func (b rowBuilder) rows(txs []core.Transaction) []TransactionRow {
	out := make([]TransactionRow, 0, len(txs))
	for _, tx := range txs {
		out = append(out, b.row(tx))
	}
	return out
}
