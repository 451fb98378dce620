// Package icons maps category icon identifiers to display glyphs.
package icons

import "strings"

// Icon is a selectable category icon.
type Icon struct {
	ID    string `json:"id"`
	Glyph string `json:"glyph"`
	Label string `json:"label"`
}

// Unknown is the glyph used for transactions whose category no longer exists.
const Unknown = "❓"

var options = []Icon{
	{"food", "🍔", "Food"},
	{"housing", "🏠", "Housing"},
	{"transportation", "🚗", "Transportation"},
	{"health", "💊", "Health"},
	{"entertainment", "🎮", "Entertainment"},
	{"shopping", "👕", "Shopping"},
	{"work", "💼", "Work"},
	{"salary", "💰", "Salary"},
	{"technology", "📱", "Technology"},
	{"travel", "✈️", "Travel"},
	{"banking", "🏦", "Banking"},
	{"education", "🎓", "Education"},
	{"gifts", "🎁", "Gifts"},
	{"investments", "💸", "Investments"},
	{"bills", "🧾", "Bills & Utilities"},
	{"donations", "💝", "Donations"},
	{"fitness", "🏋️", "Fitness"},
	{"arts", "🎭", "Arts"},
	{"personal-care", "💇", "Personal Care"},
	{"family", "👪", "Family"},
}

// aliases cover the icon names older records were saved with.
var aliases = map[string]string{
	"utensils":       "food",
	"home":           "housing",
	"car":            "transportation",
	"heart-pulse":    "health",
	"gamepad":        "entertainment",
	"gamepad-2":      "entertainment",
	"shopping-bag":   "shopping",
	"shopping-cart":  "shopping",
	"briefcase":      "work",
	"wallet":         "salary",
	"smartphone":     "technology",
	"plane":          "travel",
	"landmark":       "banking",
	"graduation-cap": "education",
	"gift":           "gifts",
	"trending-up":    "investments",
	"receipt":        "bills",
	"dumbbell":       "fitness",
	"palette":        "arts",
	"scissors":       "personal-care",
	"users":          "family",
}

var glyphs = func() map[string]string {
	m := make(map[string]string, len(options)+len(aliases))
	for _, o := range options {
		m[o.ID] = o.Glyph
	}
	for alias, id := range aliases {
		m[alias] = m[id]
	}
	return m
}()

// Glyph resolves id to its glyph. Lookups ignore case and surrounding
// whitespace; unmapped identifiers are returned unchanged.
func Glyph(id string) string {
	if g, ok := glyphs[strings.ToLower(strings.TrimSpace(id))]; ok {
		return g
	}
	return id
}

// Known reports whether id maps to a glyph.
func Known(id string) bool {
	_, ok := glyphs[strings.ToLower(strings.TrimSpace(id))]
	return ok
}

// Options returns the selectable icons in display order.
func Options() []Icon {
	out := make([]Icon, len(options))
	copy(out, options)
	return out
}

// Color is a selectable category color.
type Color struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Colors returns the selectable category colors in display order.
func Colors() []Color {
	return []Color{
		{"#3b82f6", "Blue"},
		{"#22c55e", "Green"},
		{"#ef4444", "Red"},
		{"#a855f7", "Purple"},
		{"#f97316", "Orange"},
		{"#eab308", "Yellow"},
		{"#14b8a6", "Teal"},
		{"#6366f1", "Indigo"},
	}
}
