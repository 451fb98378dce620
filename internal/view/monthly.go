package view

import (
	"time"

	"finanse/internal/query"
	"finanse/internal/services"
)

type MonthlyView struct {
	loc  *time.Location
	memo *Memo[[]query.MonthSummary]
}

func NewMonthlyView(loc *time.Location, cacheSize int) *MonthlyView {
	if loc == nil {
		loc = time.UTC
	}
	return &MonthlyView{loc: loc, memo: NewMemo[[]query.MonthSummary](cacheSize)}
}

func (v *MonthlyView) Memo() *Memo[[]query.MonthSummary] { return v.memo }

// Render returns the monthly summary table, newest year first.
func (v *MonthlyView) Render(snap *services.Snapshot) []query.MonthSummary {
	v.memo.Advance(snap.Version)
	return v.memo.Get(Key(snap.Version, "monthly"), func() []query.MonthSummary {
		return query.MonthlySummaries(snap.Transactions, snap.Categories, v.loc)
	})
}
