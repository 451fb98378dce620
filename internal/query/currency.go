package query

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finanse/internal/core"
)

// CurrencyLog is the currency conversion page for one month, or for all
// entries when no month is selected.
type CurrencyLog struct {
	Month       string               `json:"month,omitempty"`
	Entries     []core.CurrencyEntry `json:"entries"`
	TotalPLN    decimal.Decimal      `json:"totalPln"`
	TotalINR    decimal.Decimal      `json:"totalInr"`
	AverageRate decimal.Decimal      `json:"averageRate"`
}

// SummarizeCurrency filters entries to yearMonth (YYYY-MM, empty for all),
// newest first, and computes the average INR per PLN rate rounded to two
// decimals. The rate is zero when either total is zero.
func SummarizeCurrency(entries []core.CurrencyEntry, yearMonth string) CurrencyLog {
	yearMonth = strings.TrimSpace(yearMonth)

	type dated struct {
		e  core.CurrencyEntry
		at time.Time
		ok bool
	}
	var selected []dated
	for _, e := range entries {
		at, err := core.ParseDate(e.Date, time.UTC)
		if yearMonth != "" && (err != nil || at.Format("2006-01") != yearMonth) {
			continue
		}
		selected = append(selected, dated{e: e, at: at, ok: err == nil})
	}

	// Same ordering rule as transactions: newest first, undated last.
	sort.SliceStable(selected, func(i, j int) bool {
		a, b := selected[i], selected[j]
		if a.ok != b.ok {
			return a.ok
		}
		return a.at.After(b.at)
	})

	out := CurrencyLog{
		Month:       yearMonth,
		Entries:     make([]core.CurrencyEntry, 0, len(selected)),
		TotalPLN:    decimal.Zero,
		TotalINR:    decimal.Zero,
		AverageRate: decimal.Zero,
	}
	for _, d := range selected {
		out.Entries = append(out.Entries, d.e)
		out.TotalPLN = out.TotalPLN.Add(d.e.PLNAmount)
		out.TotalINR = out.TotalINR.Add(d.e.INRAmount)
	}
	if !out.TotalPLN.IsZero() && !out.TotalINR.IsZero() {
		out.AverageRate = out.TotalINR.DivRound(out.TotalPLN, 2)
	}
	return out
}
