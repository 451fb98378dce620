package query

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"finanse/internal/core"
)

// CategoryTypeFilter selects categories by type; "all" or empty disables it.
type CategoryTypeFilter string

const AllCategories CategoryTypeFilter = "all"

// maxSimilarDistance is the edit distance under which two names are
// reported as near duplicates.
const maxSimilarDistance = 2

// FilterCategories returns the categories matching typ and a
// case-insensitive name search, sorted by name.
func FilterCategories(categories []core.Category, typ CategoryTypeFilter, search string) []core.Category {
	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]core.Category, 0, len(categories))
	for _, c := range categories {
		if typ != "" && typ != AllCategories && string(c.Type) != string(typ) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(c.Name), term) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// CategoriesFor returns the categories a transaction of type t may use.
func CategoriesFor(categories []core.Category, t core.TransactionType) []core.Category {
	out := make([]core.Category, 0, len(categories))
	for _, c := range categories {
		if c.Type.Accepts(t) {
			out = append(out, c)
		}
	}
	return out
}

// CategoryUsage counts the transactions referencing each category ID.
func CategoryUsage(txs []core.Transaction) map[string]int {
	usage := make(map[string]int)
	for _, tx := range txs {
		usage[tx.CategoryID]++
	}
	return usage
}

// InUse reports whether any transaction references categoryID.
func InUse(txs []core.Transaction, categoryID string) bool {
	for _, tx := range txs {
		if tx.CategoryID == categoryID {
			return true
		}
	}
	return false
}

// SimilarCategories returns the names of existing categories that are equal
// to name ignoring case, or within a small edit distance of it.
func SimilarCategories(categories []core.Category, name string) []string {
	target := strings.ToLower(strings.TrimSpace(name))
	if target == "" {
		return nil
	}
	var out []string
	for _, c := range categories {
		candidate := strings.ToLower(strings.TrimSpace(c.Name))
		if candidate == target || levenshtein.ComputeDistance(candidate, target) <= maxSimilarDistance {
			out = append(out, c.Name)
		}
	}
	return out
}
