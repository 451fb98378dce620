package view

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finanse/internal/core"
	"finanse/internal/period"
	"finanse/internal/query"
	"finanse/internal/services"
)

func pinnedResolver() *period.Resolver {
	return &period.Resolver{
		Now:      func() time.Time { return time.Date(2024, time.January, 17, 15, 30, 0, 0, time.UTC) },
		Location: time.UTC,
	}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleSnapshot(version int64) *services.Snapshot {
	return &services.Snapshot{
		Version: version,
		Categories: []core.Category{
			{ID: "food", Name: "Food", Icon: "food", Color: "#ef4444", Type: core.CategoryExpense},
			{ID: "salary", Name: "Salary", Icon: "salary", Color: "#22c55e", Type: core.CategoryIncome},
		},
		Transactions: []core.Transaction{
			{ID: "1", Amount: d("100"), Description: "January pay", Date: "2024-01-05", CategoryID: "salary", Type: core.Income},
			{ID: "2", Amount: d("40"), Description: "Groceries", Date: "2024-01-10", CategoryID: "food", Type: core.Expense},
			{ID: "3", Amount: d("15"), Description: "Old dinner", Date: "2023-12-20", CategoryID: "food", Type: core.Expense},
		},
		Currency: []core.CurrencyEntry{
			{ID: "c1", Date: "2024-01-02", Description: "transfer", PLNAmount: d("100"), INRAmount: d("2050")},
		},
	}
}

func TestMemoReusesResultForSameKey(t *testing.T) {
	m := NewMemo[int](4)
	calls := 0
	derive := func() int { calls++; return calls }

	if got := m.Get(Key(1, "a"), derive); got != 1 {
		t.Fatalf("first derive = %d", got)
	}
	if got := m.Get(Key(1, "a"), derive); got != 1 || calls != 1 {
		t.Fatalf("expected memoized value, got %d after %d calls", got, calls)
	}
	if got := m.Get(Key(2, "a"), derive); got != 2 {
		t.Fatalf("new version should recompute, got %d", got)
	}
	if got := m.Get(Key(2, "b"), derive); got != 3 {
		t.Fatalf("new params should recompute, got %d", got)
	}
}

func TestMemoAdvanceDropsOlderVersions(t *testing.T) {
	v := NewMonthlyView(time.UTC, 8)
	v.Render(sampleSnapshot(1))
	v.Render(sampleSnapshot(1))
	if n := v.Memo().Cache().Size(); n != 1 {
		t.Fatalf("entries after repeated render = %d, want 1", n)
	}

	v.Render(sampleSnapshot(2))
	if n := v.Memo().Cache().Size(); n != 1 {
		t.Fatalf("entries after new version = %d, want 1", n)
	}

	// A late render of an older snapshot does not clear the newer entry.
	v.Render(sampleSnapshot(1))
	if n := v.Memo().Cache().Size(); n != 2 {
		t.Fatalf("entries after older render = %d, want 2", n)
	}
	hits, misses := v.Memo().Cache().Stats()
	if hits != 1 || misses != 3 {
		t.Errorf("stats = %d hits, %d misses, want 1 and 3", hits, misses)
	}
}

func TestKey(t *testing.T) {
	if got := Key(7, "tx", "this-month"); got != "7|tx|this-month" {
		t.Fatalf("Key() = %q", got)
	}
}

func TestDashboardView_Scenario(t *testing.T) {
	v := NewDashboardView(pinnedResolver(), "PLN", 8)
	page := v.Render(sampleSnapshot(1), DashboardSelection{
		Summary: Selection{Range: period.ThisMonth},
		Charts:  Selection{Range: period.ThisMonth},
		Balance: Selection{Range: period.ThisMonth},
	})

	if !page.Summary.Income.Equal(d("100")) || !page.Summary.Expenses.Equal(d("40")) {
		t.Fatalf("unexpected summary: %+v", page.Summary)
	}
	if page.Summary.Trend != query.TrendPositive {
		t.Fatalf("expected positive trend, got %s", page.Summary.Trend)
	}
	if len(page.Expenses) != 1 || page.Expenses[0].Name != "Food" || !page.Expenses[0].Value.Equal(d("40")) {
		t.Fatalf("unexpected expense breakdown: %+v", page.Expenses)
	}
	if len(page.Balance) != 31 {
		t.Fatalf("expected a point per January day, got %d", len(page.Balance))
	}
	// The December expense opens the month at -15.
	last := page.Balance[len(page.Balance)-1]
	if !last.Balance.Equal(d("45")) {
		t.Fatalf("expected closing balance 45, got %s", last.Balance)
	}
	if len(page.Recent) != 2 || page.Recent[0].ID != "2" {
		t.Fatalf("unexpected recent list: %+v", page.Recent)
	}
	if page.Range.Label != "This Month" || page.Range.From == "" {
		t.Fatalf("unexpected range: %+v", page.Range)
	}
	if page.Formatted.Income != "100,00 zł" {
		t.Fatalf("unexpected formatted income %q", page.Formatted.Income)
	}
}

func TestDashboardView_ComponentDefaults(t *testing.T) {
	v := NewDashboardView(pinnedResolver(), "PLN", 8)
	page := v.Render(sampleSnapshot(1), DashboardSelection{})

	if page.Range.Option != period.ThisMonth || page.Range.From == "" {
		t.Fatalf("summary range = %+v, want this-month", page.Range)
	}
	if !page.Summary.Expenses.Equal(d("40")) {
		t.Errorf("summary expenses = %s, want January only", page.Summary.Expenses)
	}
	if len(page.Recent) != 2 {
		t.Errorf("recent should follow the summary range, got %d rows", len(page.Recent))
	}

	if page.ChartRange.Option != period.All || page.ChartRange.From != "" {
		t.Fatalf("chart range = %+v, want all", page.ChartRange)
	}
	if len(page.Expenses) != 1 || !page.Expenses[0].Value.Equal(d("55")) {
		t.Errorf("expense chart should cover all time: %+v", page.Expenses)
	}

	if page.BalanceRange.Option != period.ThisMonth {
		t.Fatalf("balance range = %+v, want this-month", page.BalanceRange)
	}
	if len(page.Balance) != 31 || page.Balance[0].Date != "2024-01-01" {
		t.Errorf("expected the January series, got %d points", len(page.Balance))
	}
}

func TestDashboardView_IndependentSelections(t *testing.T) {
	v := NewDashboardView(pinnedResolver(), "PLN", 8)
	snap := sampleSnapshot(1)

	page := v.Render(snap, DashboardSelection{
		Summary: Selection{Range: period.All},
		Charts:  Selection{Range: period.LastMonth},
		Balance: Selection{Range: period.All},
	})
	if !page.Summary.Expenses.Equal(d("55")) {
		t.Errorf("all-time summary expenses = %s", page.Summary.Expenses)
	}
	if len(page.Expenses) != 1 || !page.Expenses[0].Value.Equal(d("15")) || len(page.Income) != 0 {
		t.Errorf("last-month charts: expenses %+v income %+v", page.Expenses, page.Income)
	}
	if len(page.Balance) != 0 {
		t.Errorf("an unbounded balance trend should be empty, got %d points", len(page.Balance))
	}

	// Changing one component's selection is a different memo entry.
	other := v.Render(snap, DashboardSelection{
		Summary: Selection{Range: period.All},
		Charts:  Selection{Range: period.All},
		Balance: Selection{Range: period.All},
	})
	if len(other.Expenses) != 1 || !other.Expenses[0].Value.Equal(d("55")) {
		t.Errorf("all-time charts: %+v", other.Expenses)
	}
}

func TestTransactionsView(t *testing.T) {
	v := NewTransactionsView(pinnedResolver(), "PLN", 8)
	snap := sampleSnapshot(3)

	page := v.Render(snap, TransactionsSelection{Search: "food"})
	if page.Count != 2 {
		t.Fatalf("search on category name should match two rows, got %d", page.Count)
	}
	if page.Transactions[0].ID != "2" || page.Transactions[0].CategoryIcon != "🍔" {
		t.Fatalf("unexpected first row: %+v", page.Transactions[0])
	}

	page = v.Render(snap, TransactionsSelection{Type: query.IncomeOnly, Selection: Selection{Range: period.ThisMonth}})
	if page.Count != 1 || page.Transactions[0].ID != "1" || !page.Income.Equal(d("100")) {
		t.Fatalf("unexpected income page: %+v", page)
	}
}

func TestTransactionsViewDanglingCategory(t *testing.T) {
	snap := sampleSnapshot(1)
	snap.Transactions = append(snap.Transactions, core.Transaction{
		ID: "4", Amount: d("5"), Description: "orphan", Date: "2024-01-11", CategoryID: "gone", Type: core.Expense,
	})
	page := NewTransactionsView(pinnedResolver(), "PLN", 8).Render(snap, TransactionsSelection{})
	row := page.Transactions[0]
	if row.ID != "4" || row.CategoryName != query.UnknownCategoryName || row.CategoryColor != query.UnknownCategoryColor {
		t.Fatalf("unexpected dangling row: %+v", row)
	}
}

func TestMonthlyView(t *testing.T) {
	v := NewMonthlyView(time.UTC, 4)
	rows := v.Render(sampleSnapshot(1))
	if len(rows) != 2 {
		t.Fatalf("expected December and January, got %d rows", len(rows))
	}
	if rows[0].Year != 2024 || rows[1].Year != 2023 {
		t.Fatalf("expected newest year first: %+v", rows)
	}
	if !rows[0].Net.Equal(d("60")) {
		t.Fatalf("unexpected January net %s", rows[0].Net)
	}
}

func TestCurrencyView(t *testing.T) {
	v := NewCurrencyView(4)
	log := v.Render(sampleSnapshot(1), " 2024-01 ")
	if log.Month != "2024-01" || len(log.Entries) != 1 || !log.AverageRate.Equal(d("20.5")) {
		t.Fatalf("unexpected currency log: %+v", log)
	}
	if empty := v.Render(sampleSnapshot(1), "2023-05"); len(empty.Entries) != 0 || !empty.AverageRate.IsZero() {
		t.Fatalf("expected empty month, got %+v", empty)
	}
}

func TestCategoriesView(t *testing.T) {
	v := NewCategoriesView(4)
	rows := v.Render(sampleSnapshot(1), query.CategoryTypeFilter(core.CategoryExpense), "")
	if len(rows) != 1 || rows[0].ID != "food" || rows[0].Usage != 2 || !rows[0].InUse {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	all := v.Render(sampleSnapshot(1), "", "SAL")
	if len(all) != 1 || all[0].Glyph != "💰" {
		t.Fatalf("unexpected search rows: %+v", all)
	}
}
