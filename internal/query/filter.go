// Package query derives display-ready structures from fetched ledger data.
//
// Every function here is pure: it reads its arguments, never mutates them,
// and performs no I/O. Transaction dates are parsed per record; a record
// whose date cannot be parsed is dropped from anything date-bounded instead
// of failing the whole computation.
package query

import (
	"sort"
	"strings"
	"time"

	"finanse/internal/core"
	"finanse/internal/period"
)

// TypeFilter selects transactions by type. AllTypes (or empty) disables it.
type TypeFilter string

const (
	AllTypes     TypeFilter = "all"
	IncomeOnly   TypeFilter = TypeFilter(core.Income)
	ExpensesOnly TypeFilter = TypeFilter(core.Expense)
)

// Criteria are the user selected filter parameters.
type Criteria struct {
	Type     TypeFilter
	Interval *period.Interval
	Search   string
}

// categoryIndex maps category IDs to categories.
type categoryIndex map[string]core.Category

func indexCategories(categories []core.Category) categoryIndex {
	idx := make(categoryIndex, len(categories))
	for _, c := range categories {
		idx[c.ID] = c
	}
	return idx
}

// datedTx pairs a transaction with its parsed date.
type datedTx struct {
	tx core.Transaction
	at time.Time
	ok bool
}

func parseAll(txs []core.Transaction, loc *time.Location) []datedTx {
	out := make([]datedTx, len(txs))
	for i, tx := range txs {
		at, err := core.ParseDate(tx.Date, loc)
		out[i] = datedTx{tx: tx, at: at, ok: err == nil}
	}
	return out
}

func intervalLocation(iv *period.Interval) *time.Location {
	if iv == nil {
		return time.UTC
	}
	return iv.Start.Location()
}

// Filter returns the transactions matching c, most recent first.
func Filter(txs []core.Transaction, categories []core.Category, c Criteria) []core.Transaction {
	idx := indexCategories(categories)
	term := strings.ToLower(c.Search)

	matched := make([]datedTx, 0, len(txs))
	for _, d := range parseAll(txs, intervalLocation(c.Interval)) {
		if !matchType(d.tx, c.Type) {
			continue
		}
		if c.Interval != nil && (!d.ok || !c.Interval.Contains(d.at)) {
			continue
		}
		if term != "" && !matchSearch(d.tx, idx, term) {
			continue
		}
		matched = append(matched, d)
	}

	sortByDateDesc(matched)

	out := make([]core.Transaction, len(matched))
	for i, d := range matched {
		out[i] = d.tx
	}
	return out
}

func matchType(tx core.Transaction, f TypeFilter) bool {
	if f == "" || f == AllTypes {
		return true
	}
	return string(tx.Type) == string(f)
}

func matchSearch(tx core.Transaction, idx categoryIndex, term string) bool {
	if strings.Contains(strings.ToLower(tx.Description), term) {
		return true
	}
	c, ok := idx[tx.CategoryID]
	return ok && strings.Contains(strings.ToLower(c.Name), term)
}

// sortByDateDesc orders by date, newest first. Unparseable dates go last;
// ties keep their input order.
func sortByDateDesc(ds []datedTx) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if a.ok != b.ok {
			return a.ok
		}
		return a.at.After(b.at)
	})
}
