package view

import (
	"strings"

	"github.com/shopspring/decimal"

	"finanse/internal/core"
	"finanse/internal/period"
	"finanse/internal/query"
	"finanse/internal/services"
)

// TransactionsSelection holds the transactions page filters.
type TransactionsSelection struct {
	Selection
	Type   query.TypeFilter
	Search string
}

type TransactionsPage struct {
	Range        Range            `json:"range"`
	Type         query.TypeFilter `json:"type"`
	Search       string           `json:"search,omitempty"`
	Count        int              `json:"count"`
	Income       decimal.Decimal  `json:"income"`
	Expenses     decimal.Decimal  `json:"expenses"`
	Transactions []TransactionRow `json:"transactions"`
}

type TransactionsView struct {
	resolver *period.Resolver
	currency string
	memo     *Memo[TransactionsPage]
}

func NewTransactionsView(resolver *period.Resolver, currency string, cacheSize int) *TransactionsView {
	return &TransactionsView{resolver: resolver, currency: currency, memo: NewMemo[TransactionsPage](cacheSize)}
}

func (v *TransactionsView) Memo() *Memo[TransactionsPage] { return v.memo }

func (v *TransactionsView) Render(snap *services.Snapshot, sel TransactionsSelection) TransactionsPage {
	v.memo.Advance(snap.Version)
	if sel.Type == "" {
		sel.Type = query.AllTypes
	}
	iv := resolve(v.resolver, sel.Selection)
	key := Key(snap.Version, "tx", string(sel.Range), intervalKey(iv), string(sel.Type), strings.ToLower(sel.Search))
	return v.memo.Get(key, func() TransactionsPage {
		return DeriveTransactions(snap.Transactions, snap.Categories, sel, iv, v.currency)
	})
}

// DeriveTransactions filters and formats the transactions list.
func DeriveTransactions(txs []core.Transaction, cats []core.Category, sel TransactionsSelection, iv *period.Interval, currency string) TransactionsPage {
	filtered := query.Filter(txs, cats, query.Criteria{Type: sel.Type, Interval: iv, Search: sel.Search})
	income, expenses := query.Totals(filtered)
	o := sel.Range
	if o == "" {
		o = period.All
	}
	return TransactionsPage{
		Range:        describe(o, iv),
		Type:         sel.Type,
		Search:       sel.Search,
		Count:        len(filtered),
		Income:       income,
		Expenses:     expenses,
		Transactions: newRowBuilder(cats, currency).rows(filtered),
	}
}
