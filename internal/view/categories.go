package view

import (
	"strings"

	"finanse/internal/core"
	"finanse/internal/icons"
	"finanse/internal/query"
	"finanse/internal/services"
)

// CategoryRow is a category with its display glyph and usage count.
type CategoryRow struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Icon  string            `json:"icon"`
	Glyph string            `json:"glyph"`
	Color string            `json:"color"`
	Type  core.CategoryType `json:"type"`
	Usage int               `json:"usage"`
	InUse bool              `json:"inUse"`
}

type CategoriesView struct {
	memo *Memo[[]CategoryRow]
}

func NewCategoriesView(cacheSize int) *CategoriesView {
	return &CategoriesView{memo: NewMemo[[]CategoryRow](cacheSize)}
}

func (v *CategoriesView) Memo() *Memo[[]CategoryRow] { return v.memo }

func (v *CategoriesView) Render(snap *services.Snapshot, typ query.CategoryTypeFilter, search string) []CategoryRow {
	v.memo.Advance(snap.Version)
	if typ == "" {
		typ = query.AllCategories
	}
	search = strings.TrimSpace(search)
	key := Key(snap.Version, "categories", string(typ), strings.ToLower(search))
	return v.memo.Get(key, func() []CategoryRow {
		return DeriveCategories(snap.Transactions, snap.Categories, typ, search)
	})
}

// DeriveCategories lists matching categories with their reference counts.
func DeriveCategories(txs []core.Transaction, cats []core.Category, typ query.CategoryTypeFilter, search string) []CategoryRow {
	usage := query.CategoryUsage(txs)
	matched := query.FilterCategories(cats, typ, search)
	out := make([]CategoryRow, 0, len(matched))
	for _, c := range matched {
		out = append(out, CategoryRow{
			ID:    c.ID,
			Name:  c.Name,
			Icon:  c.Icon,
			Glyph: icons.Glyph(c.Icon),
			Color: c.Color,
			Type:  c.Type,
			Usage: usage[c.ID],
			InUse: usage[c.ID] > 0,
		})
	}
	return out
}
