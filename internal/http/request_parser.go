// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// date filter selections, type filters and request bodies.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finanse/internal/core"
	"finanse/internal/period"
	"finanse/internal/query"
	"finanse/internal/view"
)

// maxBodyBytes caps request bodies; every payload here is a small form.
const maxBodyBytes = 64 << 10

// ParseSelection reads range, from and to. A from or to without a range
// selects the custom range, and an empty query selects all.
func ParseSelection(q url.Values, loc *time.Location) (view.Selection, error) {
	sel, err := parseSelection(q, loc, "range", "from", "to")
	if err != nil {
		return view.Selection{}, err
	}
	if sel.Range == "" {
		sel.Range = period.All
	}
	return sel, nil
}

// ParseDashboardSelection reads one selection per dashboard component:
// range/from/to for the summary, chartRange/chartFrom/chartTo for the
// category charts and balanceRange/balanceFrom/balanceTo for the trend.
// Absent keys leave the component default in place.
func ParseDashboardSelection(q url.Values, loc *time.Location) (view.DashboardSelection, error) {
	var (
		sel view.DashboardSelection
		err error
	)
	if sel.Summary, err = parseSelection(q, loc, "range", "from", "to"); err != nil {
		return view.DashboardSelection{}, err
	}
	if sel.Charts, err = parseSelection(q, loc, "chartRange", "chartFrom", "chartTo"); err != nil {
		return view.DashboardSelection{}, err
	}
	if sel.Balance, err = parseSelection(q, loc, "balanceRange", "balanceFrom", "balanceTo"); err != nil {
		return view.DashboardSelection{}, err
	}
	return sel, nil
}

// parseSelection returns an empty selection when none of the keys is set.
func parseSelection(q url.Values, loc *time.Location, rangeKey, fromKey, toKey string) (view.Selection, error) {
	raw := strings.TrimSpace(q.Get(rangeKey))
	from := strings.TrimSpace(q.Get(fromKey))
	to := strings.TrimSpace(q.Get(toKey))
	if raw == "" {
		if from == "" && to == "" {
			return view.Selection{}, nil
		}
		raw = string(period.Custom)
	}

	o, err := period.ParseOption(raw)
	if err != nil {
		return view.Selection{}, err
	}
	sel := view.Selection{Range: o}
	if o != period.Custom {
		return sel, nil
	}

	if from != "" {
		t, err := core.ParseDate(from, loc)
		if err != nil {
			return view.Selection{}, fmt.Errorf("parse %s %q: %w", fromKey, from, ErrBadRequest)
		}
		sel.Custom.From = &t
	}
	if to != "" {
		t, err := core.ParseDate(to, loc)
		if err != nil {
			return view.Selection{}, fmt.Errorf("parse %s %q: %w", toKey, to, ErrBadRequest)
		}
		sel.Custom.To = &t
	}
	return sel, nil
}

// ParseTypeFilter validates the transactions type filter. Empty means all.
func ParseTypeFilter(s string) (query.TypeFilter, error) {
	switch f := query.TypeFilter(strings.TrimSpace(s)); f {
	case "":
		return query.AllTypes, nil
	case query.AllTypes, query.IncomeOnly, query.ExpensesOnly:
		return f, nil
	default:
		return "", fmt.Errorf("parse type %q: %w", s, ErrBadRequest)
	}
}

// ParseCategoryTypeFilter validates the category type filter. Empty means all.
func ParseCategoryTypeFilter(s string) (query.CategoryTypeFilter, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || query.CategoryTypeFilter(s) == query.AllCategories:
		return query.AllCategories, nil
	case core.CategoryType(s).Valid():
		return query.CategoryTypeFilter(s), nil
	default:
		return "", fmt.Errorf("parse category type %q: %w", s, ErrBadRequest)
	}
}

// ParseMonth validates an optional YYYY-MM month filter.
func ParseMonth(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01", s); err != nil {
		return "", fmt.Errorf("parse month %q: %w", s, ErrBadRequest)
	}
	return s, nil
}

// RequestBodyParser reads a JSON or form-encoded body once and exposes
// its fields as strings.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request. Bodies over
// maxBodyBytes fail Parse instead of being truncated.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		p.err = fmt.Errorf("read body: %v: %w", p.err, ErrBadRequest)
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = fmt.Errorf("decode json body: %v: %w", err, ErrBadRequest)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	if p.err != nil {
		p.err = fmt.Errorf("decode form body: %v: %w", p.err, ErrBadRequest)
	}
	return p.err
}

// Get returns a trimmed, sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters except tab and newlines, and trims.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
