package query

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"finanse/internal/core"
)

// CategoryAmount is an expense total for one category within a month.
type CategoryAmount struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Amount     decimal.Decimal `json:"amount"`
}

// MonthSummary is the income and expense overview of one calendar month.
type MonthSummary struct {
	Year          int              `json:"year"`
	Month         time.Month       `json:"month"`
	Label         string           `json:"label"`
	Income        decimal.Decimal  `json:"income"`
	Expenses      []CategoryAmount `json:"expenses"`
	TotalExpenses decimal.Decimal  `json:"totalExpenses"`
	Net           decimal.Decimal  `json:"net"`
}

type monthKey struct {
	year  int
	month time.Month
}

// MonthlySummaries returns a row for every month between the earliest and
// the latest transaction, including empty months in between.
//
// Only expenses booked on a category of type expense or both enter the
// breakdown and the expense total; breakdown entries follow the order of
// categories and zero totals are omitted. Rows are ordered by year
// descending and then by month ascending.
func MonthlySummaries(txs []core.Transaction, categories []core.Category, loc *time.Location) []MonthSummary {
	if loc == nil {
		loc = time.UTC
	}

	dated := parseAll(txs, loc)
	var first, last time.Time
	found := false
	for _, d := range dated {
		if !d.ok {
			continue
		}
		at := d.at.In(loc)
		if !found || at.Before(first) {
			first = at
		}
		if !found || at.After(last) {
			last = at
		}
		found = true
	}
	if !found {
		return nil
	}

	byMonth := make(map[monthKey][]core.Transaction)
	for _, d := range dated {
		if !d.ok {
			continue
		}
		at := d.at.In(loc)
		k := monthKey{at.Year(), at.Month()}
		byMonth[k] = append(byMonth[k], d.tx)
	}

	expenseCategories := make([]core.Category, 0, len(categories))
	for _, c := range categories {
		if c.Type == core.CategoryExpense || c.Type == core.CategoryBoth {
			expenseCategories = append(expenseCategories, c)
		}
	}

	var out []MonthSummary
	end := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, loc)
	for m := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, loc); !m.After(end); m = m.AddDate(0, 1, 0) {
		monthTxs := byMonth[monthKey{m.Year(), m.Month()}]
		out = append(out, summarizeMonth(m, monthTxs, expenseCategories))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

func summarizeMonth(m time.Time, txs []core.Transaction, expenseCategories []core.Category) MonthSummary {
	income := decimal.Zero
	spent := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			income = income.Add(tx.Amount)
		case core.Expense:
			spent[tx.CategoryID] = spent[tx.CategoryID].Add(tx.Amount)
		}
	}

	s := MonthSummary{
		Year:          m.Year(),
		Month:         m.Month(),
		Label:         m.Format("January 2006"),
		Income:        income,
		Expenses:      []CategoryAmount{},
		TotalExpenses: decimal.Zero,
	}
	for _, c := range expenseCategories {
		amount, ok := spent[c.ID]
		if !ok || !amount.IsPositive() {
			continue
		}
		s.Expenses = append(s.Expenses, CategoryAmount{
			CategoryID: c.ID,
			Name:       c.Name,
			Color:      c.Color,
			Amount:     amount,
		})
		s.TotalExpenses = s.TotalExpenses.Add(amount)
	}
	s.Net = s.Income.Sub(s.TotalExpenses)
	return s
}
