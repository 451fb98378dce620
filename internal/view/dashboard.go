package view

import (
	"finanse/internal/core"
	"finanse/internal/period"
	"finanse/internal/query"
	"finanse/internal/services"
)

type DashboardPage struct {
	Range        Range                 `json:"range"`
	Summary      query.Summary         `json:"summary"`
	Formatted    FormattedSummary      `json:"formatted"`
	ChartRange   Range                 `json:"chartRange"`
	Expenses     []query.CategoryTotal `json:"expensesByCategory"`
	Income       []query.CategoryTotal `json:"incomeByCategory"`
	BalanceRange Range                 `json:"balanceRange"`
	Balance      []query.BalancePoint  `json:"balance"`
	Recent       []TransactionRow      `json:"recent"`
}

type FormattedSummary struct {
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	Balance  string `json:"balance"`
}

// DashboardSelection holds one date filter per dashboard component.
// An empty Range takes the component default: this month for the summary
// and the balance trend, all time for the category charts.
type DashboardSelection struct {
	Summary Selection // summary cards and recent list
	Charts  Selection // expense and income breakdowns
	Balance Selection // balance trend
}

type DashboardView struct {
	resolver *period.Resolver
	currency string
	memo     *Memo[DashboardPage]
}

func NewDashboardView(resolver *period.Resolver, currency string, cacheSize int) *DashboardView {
	return &DashboardView{resolver: resolver, currency: currency, memo: NewMemo[DashboardPage](cacheSize)}
}

func (v *DashboardView) Memo() *Memo[DashboardPage] { return v.memo }

func (v *DashboardView) Render(snap *services.Snapshot, sel DashboardSelection) DashboardPage {
	v.memo.Advance(snap.Version)
	sel.Summary = withDefault(sel.Summary, period.ThisMonth)
	sel.Charts = withDefault(sel.Charts, period.All)
	sel.Balance = withDefault(sel.Balance, period.ThisMonth)

	summary := resolve(v.resolver, sel.Summary)
	charts := resolve(v.resolver, sel.Charts)
	balance := resolve(v.resolver, sel.Balance)
	key := Key(snap.Version, "dash",
		string(sel.Summary.Range), intervalKey(summary),
		string(sel.Charts.Range), intervalKey(charts),
		string(sel.Balance.Range), intervalKey(balance))
	return v.memo.Get(key, func() DashboardPage {
		return DeriveDashboard(snap.Transactions, snap.Categories, DashboardIntervals{
			SummaryOption: sel.Summary.Range,
			Summary:       summary,
			ChartsOption:  sel.Charts.Range,
			Charts:        charts,
			BalanceOption: sel.Balance.Range,
			Balance:       balance,
		}, v.currency)
	})
}

// DashboardIntervals are the resolved intervals of each dashboard component.
// A nil interval is unbounded.
type DashboardIntervals struct {
	SummaryOption period.Option
	Summary       *period.Interval
	ChartsOption  period.Option
	Charts        *period.Interval
	BalanceOption period.Option
	Balance       *period.Interval
}

// DeriveDashboard computes every dashboard component over its own interval.
// An unbounded balance interval yields an empty trend.
func DeriveDashboard(txs []core.Transaction, cats []core.Category, iv DashboardIntervals, currency string) DashboardPage {
	inCharts := query.Filter(txs, cats, query.Criteria{Interval: iv.Charts})
	summary := query.Summarize(txs, iv.Summary)
	return DashboardPage{
		Range:   describe(iv.SummaryOption, iv.Summary),
		Summary: summary,
		Formatted: FormattedSummary{
			Income:   core.FormatMoney(summary.Income, currency),
			Expenses: core.FormatMoney(summary.Expenses, currency),
			Balance:  core.FormatMoney(summary.Balance, currency),
		},
		ChartRange:   describe(iv.ChartsOption, iv.Charts),
		Expenses:     query.ByCategory(inCharts, cats, core.Expense),
		Income:       query.ByCategory(inCharts, cats, core.Income),
		BalanceRange: describe(iv.BalanceOption, iv.Balance),
		Balance:      query.BalanceSeries(txs, iv.Balance),
		Recent:       newRowBuilder(cats, currency).rows(query.Recent(txs, iv.Summary, query.RecentLimit)),
	}
}
