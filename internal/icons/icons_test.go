package icons

import "testing"

func TestGlyph(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"food", "🍔"},
		{"FOOD", "🍔"},
		{" housing ", "🏠"},
		{"car", "🚗"},
		{"shopping-cart", "👕"},
		{"rocket", "rocket"},
		{"🍕", "🍕"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Glyph(tc.in); got != tc.want {
			t.Errorf("Glyph(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOptionsAreAllKnownAndUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, o := range Options() {
		if seen[o.ID] {
			t.Fatalf("duplicate icon id %q", o.ID)
		}
		seen[o.ID] = true
		if !Known(o.ID) || Glyph(o.ID) != o.Glyph {
			t.Fatalf("option %q not resolvable", o.ID)
		}
	}
}

func TestAliasesPointAtOptions(t *testing.T) {
	for alias, id := range aliases {
		if _, ok := glyphs[id]; !ok {
			t.Errorf("alias %q targets unknown id %q", alias, id)
		}
		if Glyph(alias) == alias {
			t.Errorf("alias %q did not resolve", alias)
		}
	}
}

func TestOptionsReturnsCopy(t *testing.T) {
	o := Options()
	o[0].Glyph = "x"
	if Glyph("food") != "🍔" {
		t.Fatal("Options must not expose internal state")
	}
}
