package google

import (
	"fmt"
	"strings"

	"finanse/internal/core"
	"finanse/internal/query"
)

var transactionHeader = []any{"ID", "Date", "Type", "Category", "Description", "Amount"}

// transactionRow lays out one transaction for the transactions tab.
func transactionRow(tx core.Transaction, category *core.Category) []any {
	name := query.UnknownCategoryName
	if category != nil {
		name = category.Name
	}
	return []any{
		tx.ID,
		tx.Date,
		string(tx.Type),
		name,
		tx.Description,
		tx.Amount.InexactFloat64(),
	}
}

// parseIDColumn reads column A of the transactions tab. It returns the
// number of used rows, header included, and the transaction IDs present.
func parseIDColumn(values [][]any) (int, map[string]struct{}) {
	ids := make(map[string]struct{}, len(values))
	for i, row := range values {
		cols := toStrings(row)
		if len(cols) == 0 {
			continue
		}
		id := cols[0]
		if id == "" || (i == 0 && strings.EqualFold(id, "id")) {
			continue
		}
		ids[id] = struct{}{}
	}
	return len(values), ids
}

// summaryValues pivots monthly summaries into a table with one column per
// expense category, in first-seen order.
func summaryValues(rows []query.MonthSummary) [][]any {
	var (
		names []string
		seen  = map[string]bool{}
	)
	for _, r := range rows {
		for _, e := range r.Expenses {
			if !seen[e.Name] {
				seen[e.Name] = true
				names = append(names, e.Name)
			}
		}
	}

	header := []any{"Month", "Income"}
	for _, n := range names {
		header = append(header, n)
	}
	header = append(header, "Total Expenses", "Net")

	out := make([][]any, 0, len(rows)+1)
	out = append(out, header)
	for _, r := range rows {
		byName := make(map[string]float64, len(r.Expenses))
		for _, e := range r.Expenses {
			byName[e.Name] += e.Amount.InexactFloat64()
		}
		line := []any{r.Label, r.Income.InexactFloat64()}
		for _, n := range names {
			if v, ok := byName[n]; ok {
				line = append(line, v)
			} else {
				line = append(line, "")
			}
		}
		line = append(line, r.TotalExpenses.InexactFloat64(), r.Net.InexactFloat64())
		out = append(out, line)
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
