package view

import (
	"strings"

	"finanse/internal/query"
	"finanse/internal/services"
)

type CurrencyView struct {
	memo *Memo[query.CurrencyLog]
}

func NewCurrencyView(cacheSize int) *CurrencyView {
	return &CurrencyView{memo: NewMemo[query.CurrencyLog](cacheSize)}
}

func (v *CurrencyView) Memo() *Memo[query.CurrencyLog] { return v.memo }

// Render summarizes the currency log for month (YYYY-MM, empty for all).
func (v *CurrencyView) Render(snap *services.Snapshot, month string) query.CurrencyLog {
	v.memo.Advance(snap.Version)
	month = strings.TrimSpace(month)
	return v.memo.Get(Key(snap.Version, "currency", month), func() query.CurrencyLog {
		return query.SummarizeCurrency(snap.Currency, month)
	})
}
