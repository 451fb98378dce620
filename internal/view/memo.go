// Package view derives page data from ledger snapshots.
//
// Each page owns a view value with its own memo. A memo entry is keyed on the
// snapshot version plus the page's filter parameters, so a mutation (which
// bumps the version) or a new selection recomputes while repeated reads of
// the same page reuse the previous result.
package view

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"finanse/internal/cache"
	"finanse/internal/period"
)

// memoTTL bounds how long a derived result is kept. Version keys already
// prevent stale reads; the TTL only releases memory for idle pages.
const memoTTL = 10 * time.Minute

// Memo caches the output of a pure derive function on input identity.
type Memo[T any] struct {
	cache *cache.LRUCache[T]

	mu      sync.Mutex
	version int64
}

func NewMemo[T any](size int) *Memo[T] {
	if size < 1 {
		size = 1
	}
	return &Memo[T]{cache: cache.NewLRUCache[T](size, memoTTL)}
}

// Get returns the memoized value for key or computes and stores it.
func (m *Memo[T]) Get(key string, derive func() T) T {
	if v, ok := m.cache.Get(key); ok {
		return v
	}
	v := derive()
	m.cache.Set(key, v)
	return v
}

// Advance records the snapshot version being rendered. A newer version
// drops every entry, since keys built on older versions can no longer hit.
func (m *Memo[T]) Advance(version int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if version > m.version {
		m.version = version
		m.cache.Clear()
	}
}

// Cache exposes the backing cache for registration with a cache.Manager.
func (m *Memo[T]) Cache() *cache.LRUCache[T] {
	return m.cache
}

// Key joins a snapshot version and parameters into a memo key.
func Key(version int64, params ...string) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(version, 10))
	for _, p := range params {
		b.WriteByte('|')
		b.WriteString(p)
	}
	return b.String()
}

// intervalKey identifies a resolved interval. Relative options such as
// this-month are keyed on their bounds so a new day yields a new key.
func intervalKey(iv *period.Interval) string {
	if iv == nil {
		return "*"
	}
	return fmt.Sprintf("%d-%d", iv.Start.UnixNano(), iv.End.UnixNano())
}

// Selection is the date filter a page currently shows.
type Selection struct {
	Range  period.Option
	Custom period.CustomRange
}

// Range describes a resolved selection for display.
type Range struct {
	Option period.Option `json:"option"`
	Label  string        `json:"label"`
	From   string        `json:"from,omitempty"`
	To     string        `json:"to,omitempty"`
}

func describe(o period.Option, iv *period.Interval) Range {
	r := Range{Option: o, Label: period.Label(o)}
	if iv != nil {
		r.From = iv.Start.Format(time.RFC3339)
		r.To = iv.End.Format(time.RFC3339)
	}
	return r
}

func withDefault(s Selection, o period.Option) Selection {
	if s.Range == "" {
		s.Range = o
	}
	return s
}

func resolve(r *period.Resolver, s Selection) *period.Interval {
	o := s.Range
	if o == "" {
		o = period.All
	}
	custom := s.Custom
	return r.Resolve(o, &custom)
}
