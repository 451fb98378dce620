package period

import (
	"errors"
	"testing"
	"time"
)

func fixedResolver(t time.Time) *Resolver {
	return &Resolver{Now: func() time.Time { return t }, Location: time.UTC}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolve(t *testing.T) {
	// Wednesday
	now := time.Date(2024, time.January, 17, 15, 4, 5, 0, time.UTC)
	r := fixedResolver(now)

	cases := []struct {
		opt   Option
		start time.Time
		end   time.Time
	}{
		{Today, date(2024, 1, 17), date(2024, 1, 17)},
		{Yesterday, date(2024, 1, 16), date(2024, 1, 16)},
		{ThisWeek, date(2024, 1, 15), date(2024, 1, 21)},
		{ThisMonth, date(2024, 1, 1), date(2024, 1, 31)},
		{LastMonth, date(2023, 12, 1), date(2023, 12, 31)},
		{ThisYear, date(2024, 1, 1), date(2024, 12, 31)},
	}
	for _, tc := range cases {
		got := r.Resolve(tc.opt, nil)
		if got == nil {
			t.Fatalf("%s: expected interval, got nil", tc.opt)
		}
		if !got.Start.Equal(tc.start) {
			t.Errorf("%s: start = %v, want %v", tc.opt, got.Start, tc.start)
		}
		if !got.End.Equal(EndOfDay(tc.end)) {
			t.Errorf("%s: end = %v, want %v", tc.opt, got.End, EndOfDay(tc.end))
		}
		if got.Start.After(got.End) {
			t.Errorf("%s: start after end", tc.opt)
		}
	}
}

func TestResolveUnbounded(t *testing.T) {
	r := fixedResolver(date(2024, 1, 17))
	for _, opt := range []Option{All, "", "next-decade"} {
		if got := r.Resolve(opt, nil); got != nil {
			t.Errorf("%q: expected nil, got %+v", opt, got)
		}
	}
}

func TestResolveWeekBoundaries(t *testing.T) {
	cases := []struct {
		now    time.Time
		monday time.Time
	}{
		{date(2024, 1, 15), date(2024, 1, 15)},                           // Monday
		{time.Date(2024, 1, 21, 23, 0, 0, 0, time.UTC), date(2024, 1, 15)}, // Sunday
		{date(2024, 3, 1), date(2024, 2, 26)},                            // across month
		{date(2025, 1, 1), date(2024, 12, 30)},                           // across year
	}
	for _, tc := range cases {
		got := fixedResolver(tc.now).Resolve(ThisWeek, nil)
		if !got.Start.Equal(tc.monday) {
			t.Errorf("now %v: week start = %v, want %v", tc.now, got.Start, tc.monday)
		}
		if got.Start.Weekday() != time.Monday || got.End.Weekday() != time.Sunday {
			t.Errorf("now %v: week should run Monday to Sunday, got %v..%v", tc.now, got.Start.Weekday(), got.End.Weekday())
		}
	}
}

func TestResolveLastMonthInJanuaryAndAfterLongMonth(t *testing.T) {
	got := fixedResolver(date(2024, 3, 31)).Resolve(LastMonth, nil)
	if !got.Start.Equal(date(2024, 2, 1)) || !got.End.Equal(EndOfDay(date(2024, 2, 29))) {
		t.Fatalf("unexpected last month for March 31: %+v", got)
	}
}

func TestResolveCustom(t *testing.T) {
	r := fixedResolver(date(2024, 1, 17))
	from := time.Date(2024, 1, 3, 13, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 9, 8, 0, 0, 0, time.UTC)

	got := r.Resolve(Custom, &CustomRange{From: &from, To: &to})
	if got == nil {
		t.Fatal("expected interval")
	}
	if !got.Start.Equal(date(2024, 1, 3)) || !got.End.Equal(EndOfDay(date(2024, 1, 9))) {
		t.Fatalf("custom not normalized: %+v", got)
	}

	partial := []*CustomRange{nil, {From: &from}, {To: &to}}
	for i, c := range partial {
		if got := r.Resolve(Custom, c); got != nil {
			t.Errorf("case %d: expected nil for partial range, got %+v", i, got)
		}
	}
}

func TestResolveUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 22:00 UTC on the 17th is already the 18th at UTC+5.
	r := &Resolver{Now: func() time.Time { return time.Date(2024, 1, 17, 22, 0, 0, 0, time.UTC) }, Location: loc}
	got := r.Resolve(Today, nil)
	if got.Start.Day() != 18 || got.Start.Location() != loc {
		t.Fatalf("expected local day 18, got %v", got.Start)
	}
}

func TestIntervalContainsInclusive(t *testing.T) {
	iv := Month(2024, time.January, time.UTC)
	if !iv.Contains(iv.Start) || !iv.Contains(iv.End) {
		t.Fatal("bounds must be inclusive")
	}
	if iv.Contains(date(2024, 2, 1)) {
		t.Fatal("first of February must be outside January")
	}
	if iv.Days() != 31 {
		t.Fatalf("expected 31 days, got %d", iv.Days())
	}
}

func TestParseOption(t *testing.T) {
	for _, o := range Options() {
		got, err := ParseOption(string(o))
		if err != nil || got != o {
			t.Errorf("ParseOption(%q) = %q, %v", o, got, err)
		}
	}
	if got, err := ParseOption(""); err != nil || got != All {
		t.Errorf("empty should default to all, got %q, %v", got, err)
	}
	if _, err := ParseOption("fortnight"); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("expected ErrUnknownOption, got %v", err)
	}
}

func TestLabel(t *testing.T) {
	if Label(Custom) != "Custom Range" || Label(All) != "All Time" {
		t.Fatal("unexpected labels")
	}
	if Label("odd") != "odd" {
		t.Fatal("unknown option should fall back to raw value")
	}
}
