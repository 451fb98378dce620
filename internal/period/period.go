// Package period resolves named date filter options to concrete intervals.
//
// Weeks start on Monday. Every resolved interval is closed: Start is the
// first instant of its first day and End the last nanosecond of its last day.
package period

import (
	"errors"
	"fmt"
	"time"
)

type Option string

const (
	All       Option = "all"
	Today     Option = "today"
	Yesterday Option = "yesterday"
	ThisWeek  Option = "this-week"
	ThisMonth Option = "this-month"
	LastMonth Option = "last-month"
	ThisYear  Option = "this-year"
	Custom    Option = "custom"
)

// ErrUnknownOption is returned by ParseOption for values outside Options().
var ErrUnknownOption = errors.New("unknown date filter option")

var labels = map[Option]string{
	All:       "All Time",
	Today:     "Today",
	Yesterday: "Yesterday",
	ThisWeek:  "This Week",
	ThisMonth: "This Month",
	LastMonth: "Last Month",
	ThisYear:  "This Year",
	Custom:    "Custom Range",
}

// Options lists every recognized option in display order.
func Options() []Option {
	return []Option{All, Today, Yesterday, ThisWeek, ThisMonth, LastMonth, ThisYear, Custom}
}

// Label returns the display label for o, or the raw value when unknown.
func Label(o Option) string {
	if l, ok := labels[o]; ok {
		return l
	}
	return string(o)
}

// ParseOption validates a user supplied option. An empty string means All.
func ParseOption(s string) (Option, error) {
	if s == "" {
		return All, nil
	}
	o := Option(s)
	if _, ok := labels[o]; !ok {
		return "", fmt.Errorf("parse option %q: %w", s, ErrUnknownOption)
	}
	return o, nil
}

// Interval is a closed range of instants.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within [Start, End].
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && !t.After(i.End)
}

// Days returns the number of calendar days the interval touches.
func (i Interval) Days() int {
	if i.End.Before(i.Start) {
		return 0
	}
	s := StartOfDay(i.Start)
	e := StartOfDay(i.End)
	n := 1
	for d := s; d.Before(e); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

// CustomRange carries caller supplied bounds. Either bound may be nil.
type CustomRange struct {
	From *time.Time
	To   *time.Time
}

// Resolver turns options into intervals relative to its clock.
type Resolver struct {
	Now      func() time.Time
	Location *time.Location
}

// NewResolver returns a resolver using the wall clock in loc.
// A nil loc means time.Local.
func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{Now: time.Now, Location: loc}
}

func (r *Resolver) now() time.Time {
	now := time.Now
	if r != nil && r.Now != nil {
		now = r.Now
	}
	loc := time.Local
	if r != nil && r.Location != nil {
		loc = r.Location
	}
	return now().In(loc)
}

// Resolve maps an option to its interval. All, unrecognized options and
// incomplete custom ranges resolve to nil, meaning unbounded.
func (r *Resolver) Resolve(o Option, custom *CustomRange) *Interval {
	now := r.now()

	switch o {
	case Custom:
		if custom == nil || custom.From == nil || custom.To == nil {
			return nil
		}
		from := custom.From.In(now.Location())
		to := custom.To.In(now.Location())
		return &Interval{Start: StartOfDay(from), End: EndOfDay(to)}
	case Today:
		return dayInterval(now)
	case Yesterday:
		return dayInterval(now.AddDate(0, 0, -1))
	case ThisWeek:
		start := StartOfWeek(now)
		return &Interval{Start: start, End: EndOfDay(start.AddDate(0, 0, 6))}
	case ThisMonth:
		return monthInterval(now.Year(), now.Month(), now.Location())
	case LastMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		prev := first.AddDate(0, -1, 0)
		return monthInterval(prev.Year(), prev.Month(), now.Location())
	case ThisYear:
		return &Interval{
			Start: time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()),
			End:   EndOfDay(time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, now.Location())),
		}
	default:
		return nil
	}
}

// Month returns the interval covering the given calendar month.
func Month(year int, month time.Month, loc *time.Location) Interval {
	if loc == nil {
		loc = time.UTC
	}
	return *monthInterval(year, month, loc)
}

func dayInterval(t time.Time) *Interval {
	return &Interval{Start: StartOfDay(t), End: EndOfDay(t)}
}

func monthInterval(year int, month time.Month, loc *time.Location) *Interval {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return &Interval{Start: start, End: EndOfDay(start.AddDate(0, 1, -1))}
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// StartOfWeek returns the Monday midnight of t's week.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t.AddDate(0, 0, -offset))
}
