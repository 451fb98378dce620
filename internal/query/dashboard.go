package query

import (
	"github.com/shopspring/decimal"

	"finanse/internal/core"
	"finanse/internal/period"
)

// RecentLimit is how many transactions the dashboard lists.
const RecentLimit = 5

type Trend string

const (
	TrendPositive Trend = "positive"
	TrendNegative Trend = "negative"
)

// Summary is the dashboard headline for a period.
type Summary struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
	Trend    Trend           `json:"trend"`
}

// Summarize totals the transactions falling within iv.
func Summarize(txs []core.Transaction, iv *period.Interval) Summary {
	inRange := Filter(txs, nil, Criteria{Interval: iv})
	income, expenses := Totals(inRange)
	balance := income.Sub(expenses)
	trend := TrendPositive
	if balance.IsNegative() {
		trend = TrendNegative
	}
	return Summary{Income: income, Expenses: expenses, Balance: balance, Trend: trend}
}

// Recent returns up to limit transactions within iv, newest first.
func Recent(txs []core.Transaction, iv *period.Interval, limit int) []core.Transaction {
	out := Filter(txs, nil, Criteria{Interval: iv})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
