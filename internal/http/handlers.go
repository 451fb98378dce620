package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"finanse/internal/icons"
	"finanse/internal/period"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if err := s.ledger.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["cache"] = map[string]any{
		"view_entries": s.viewCacheEntries(),
		"status":       "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   s.ledger.Version(),
		"checks":    checks,
	}).Write(w)
}

func (s *Server) viewCacheEntries() int {
	return s.transactions.Memo().Cache().Size() +
		s.dashboard.Memo().Cache().Size() +
		s.monthly.Memo().Cache().Size() +
		s.currencyLog.Memo().Cache().Size() +
		s.categories.Memo().Cache().Size()
}

func (s *Server) viewCacheStats() (hits, misses uint64) {
	for _, stats := range []func() (uint64, uint64){
		s.transactions.Memo().Cache().Stats,
		s.dashboard.Memo().Cache().Stats,
		s.monthly.Memo().Cache().Stats,
		s.currencyLog.Memo().Cache().Stats,
		s.categories.Memo().Cache().Stats,
	} {
		h, m := stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	hits, misses := s.viewCacheStats()
	uptime := time.Since(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP http_response_time_microseconds_avg Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_microseconds_avg gauge\n")
	fmt.Fprintf(w, "http_response_time_microseconds_avg %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP ledger_mutations_total Successful ledger mutations\n")
	fmt.Fprintf(w, "# TYPE ledger_mutations_total counter\n")
	fmt.Fprintf(w, "ledger_mutations_total{kind=\"transaction_created\"} %d\n", s.appMetrics.transactionsCreated.Load())
	fmt.Fprintf(w, "ledger_mutations_total{kind=\"category_created\"} %d\n", s.appMetrics.categoriesCreated.Load())
	fmt.Fprintf(w, "ledger_mutations_total{kind=\"currency_created\"} %d\n", s.appMetrics.currencyCreated.Load())
	fmt.Fprintf(w, "ledger_mutations_total{kind=\"deleted\"} %d\n\n", s.appMetrics.deletions.Load())

	fmt.Fprintf(w, "# HELP ledger_version Current snapshot version\n")
	fmt.Fprintf(w, "# TYPE ledger_version gauge\n")
	fmt.Fprintf(w, "ledger_version %d\n\n", s.ledger.Version())

	fmt.Fprintf(w, "# HELP view_cache_hits_total Total view cache hits\n")
	fmt.Fprintf(w, "# TYPE view_cache_hits_total counter\n")
	fmt.Fprintf(w, "view_cache_hits_total %d\n\n", hits)

	fmt.Fprintf(w, "# HELP view_cache_misses_total Total view cache misses\n")
	fmt.Fprintf(w, "# TYPE view_cache_misses_total counter\n")
	fmt.Fprintf(w, "view_cache_misses_total %d\n\n", misses)

	fmt.Fprintf(w, "# HELP view_cache_entries Current view cache entries\n")
	fmt.Fprintf(w, "# TYPE view_cache_entries gauge\n")
	fmt.Fprintf(w, "view_cache_entries %d\n\n", s.viewCacheEntries())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP invalid_ip_attempts_total Forwarded client IPs that failed to parse\n")
	fmt.Fprintf(w, "# TYPE invalid_ip_attempts_total counter\n")
	fmt.Fprintf(w, "invalid_ip_attempts_total %d\n\n", securityMetrics.InvalidIPAttempts)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", uptime.Seconds())
}

type rangeOption struct {
	Value period.Option `json:"value"`
	Label string        `json:"label"`
}

type filtersResponse struct {
	Ranges []rangeOption `json:"ranges"`
	Icons  []icons.Icon  `json:"icons"`
	Colors []icons.Color `json:"colors"`
	Types  []string      `json:"types"`
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	opts := period.Options()
	ranges := make([]rangeOption, 0, len(opts))
	for _, o := range opts {
		ranges = append(ranges, rangeOption{Value: o, Label: period.Label(o)})
	}
	NewResponse().JSON(filtersResponse{
		Ranges: ranges,
		Icons:  icons.Options(),
		Colors: icons.Colors(),
		Types:  []string{"all", "income", "expense"},
	}).Write(w)
}
