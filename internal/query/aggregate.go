package query

import (
	"sort"

	"github.com/shopspring/decimal"

	"finanse/internal/core"
	"finanse/internal/icons"
	"finanse/internal/period"
)

// Placeholder metadata for transactions whose category no longer exists.
const (
	UnknownCategoryName  = "Unknown"
	UnknownCategoryColor = "#888888"
)

// CategoryTotal is one slice of a category breakdown chart.
type CategoryTotal struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Icon       string          `json:"icon"`
	Color      string          `json:"color"`
	Value      decimal.Decimal `json:"value"`
}

// BalancePoint is one day of the balance trend.
type BalancePoint struct {
	Date    string          `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// ByCategory sums the transactions of type typ per category, largest first.
// Equal totals keep the order in which their categories were first seen.
func ByCategory(txs []core.Transaction, categories []core.Category, typ core.TransactionType) []CategoryTotal {
	idx := indexCategories(categories)

	var out []CategoryTotal
	pos := make(map[string]int)
	for _, tx := range txs {
		if tx.Type != typ {
			continue
		}
		i, seen := pos[tx.CategoryID]
		if !seen {
			i = len(out)
			pos[tx.CategoryID] = i
			out = append(out, categoryTotal(tx.CategoryID, idx))
		}
		out[i].Value = out[i].Value.Add(tx.Amount)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value.GreaterThan(out[j].Value)
	})
	return out
}

func categoryTotal(id string, idx categoryIndex) CategoryTotal {
	c, ok := idx[id]
	if !ok {
		return CategoryTotal{
			CategoryID: id,
			Name:       UnknownCategoryName,
			Icon:       icons.Unknown,
			Color:      UnknownCategoryColor,
			Value:      decimal.Zero,
		}
	}
	return CategoryTotal{
		CategoryID: id,
		Name:       c.Name,
		Icon:       icons.Glyph(c.Icon),
		Color:      c.Color,
		Value:      decimal.Zero,
	}
}

// Totals sums income and expenses separately.
func Totals(txs []core.Transaction) (income, expenses decimal.Decimal) {
	income, expenses = decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			income = income.Add(tx.Amount)
		case core.Expense:
			expenses = expenses.Add(tx.Amount)
		}
	}
	return income, expenses
}

// BalanceSeries returns one point per calendar day of iv. The balance
// starts from the signed total of every transaction dated before iv.Start.
// A nil interval yields no points.
func BalanceSeries(txs []core.Transaction, iv *period.Interval) []BalancePoint {
	if iv == nil || iv.End.Before(iv.Start) {
		return nil
	}
	loc := iv.Start.Location()

	opening := decimal.Zero
	type dayTotals struct{ income, expense decimal.Decimal }
	days := make(map[string]*dayTotals)

	for _, d := range parseAll(txs, loc) {
		if !d.ok {
			continue
		}
		if d.at.Before(iv.Start) {
			opening = opening.Add(d.tx.Signed())
			continue
		}
		if d.at.After(iv.End) {
			continue
		}
		key := d.at.In(loc).Format(core.DateLayout)
		dt, ok := days[key]
		if !ok {
			dt = &dayTotals{income: decimal.Zero, expense: decimal.Zero}
			days[key] = dt
		}
		if d.tx.Type == core.Income {
			dt.income = dt.income.Add(d.tx.Amount)
		} else if d.tx.Type == core.Expense {
			dt.expense = dt.expense.Add(d.tx.Amount)
		}
	}

	out := make([]BalancePoint, 0, iv.Days())
	balance := opening
	for day := period.StartOfDay(iv.Start); !day.After(iv.End); day = day.AddDate(0, 0, 1) {
		key := day.Format(core.DateLayout)
		p := BalancePoint{Date: key, Income: decimal.Zero, Expense: decimal.Zero}
		if dt, ok := days[key]; ok {
			p.Income = dt.income
			p.Expense = dt.expense
		}
		balance = balance.Add(p.Income).Sub(p.Expense)
		p.Balance = balance
		out = append(out, p)
	}
	return out
}
