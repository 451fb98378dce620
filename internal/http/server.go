package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"finanse/internal/cache"
	"finanse/internal/core"
	"finanse/internal/log"
	"finanse/internal/middleware/ratelimit"
	"finanse/internal/middleware/security"
	"finanse/internal/middleware/trace"
	"finanse/internal/period"
	"finanse/internal/services"
	"finanse/internal/view"
)

// Ledger is the slice of services.LedgerService the handlers need.
type Ledger interface {
	Snapshot(ctx context.Context) (*services.Snapshot, error)
	AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	UpdateDescription(ctx context.Context, id, description string) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	AddCategory(ctx context.Context, c core.Category) (core.Category, []string, error)
	DeleteCategory(ctx context.Context, id string) error
	AddCurrencyEntry(ctx context.Context, e core.CurrencyEntry) (core.CurrencyEntry, error)
	DeleteCurrencyEntry(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Version() int64
}

// Options configures the server. Zero values fall back to defaults.
type Options struct {
	Addr               string
	Location           *time.Location
	Currency           string
	ViewCacheSize      int
	RateLimitPerMinute int
	RateLimitBurst     int
	Logger             *log.Logger
}

const cacheCleanupInterval = 10 * time.Minute

type Server struct {
	http.Server
	ledger   Ledger
	location *time.Location
	currency string
	logger   *log.Logger
	events   *log.StructuredLogger

	transactions *view.TransactionsView
	dashboard    *view.DashboardView
	monthly      *view.MonthlyView
	currencyLog  *view.CurrencyView
	categories   *view.CategoriesView

	cacheManager     *cache.Manager
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime              time.Time
	transactionsCreated atomic.Int64
	categoriesCreated   atomic.Int64
	currencyCreated     atomic.Int64
	deletions           atomic.Int64
}

// NewServer wires routes and middleware around l, returning a ready-to-run
// http.Server.
func NewServer(l Ledger, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Currency == "" {
		opts.Currency = "PLN"
	}
	if opts.ViewCacheSize < 1 {
		opts.ViewCacheSize = 256
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	rlConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}
	if opts.RateLimitBurst > 0 {
		rlConfig.Burst = opts.RateLimitBurst
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	resolver := period.NewResolver(opts.Location)
	detector := security.NewDetector()
	events := log.NewStructuredLogger(logger)

	s := &Server{
		ledger:           l,
		location:         opts.Location,
		currency:         opts.Currency,
		logger:           logger,
		events:           events,
		transactions:     view.NewTransactionsView(resolver, opts.Currency, opts.ViewCacheSize),
		dashboard:        view.NewDashboardView(resolver, opts.Currency, opts.ViewCacheSize),
		monthly:          view.NewMonthlyView(opts.Location, opts.ViewCacheSize),
		currencyLog:      view.NewCurrencyView(opts.ViewCacheSize),
		categories:       view.NewCategoriesView(opts.ViewCacheSize),
		cacheManager:     cache.NewManager(),
		rateLimiter:      ratelimit.NewLimiter(rlConfig),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, events),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	s.cacheManager.Register(s.transactions.Memo().Cache())
	s.cacheManager.Register(s.dashboard.Memo().Cache())
	s.cacheManager.Register(s.monthly.Memo().Cache())
	s.cacheManager.Register(s.currencyLog.Memo().Cache())
	s.cacheManager.Register(s.categories.Memo().Cache())
	if sc, ok := l.(interface {
		SnapshotCache() *cache.LRUCache[*services.Snapshot]
	}); ok {
		s.cacheManager.Register(sc.SnapshotCache())
	}
	s.cacheManager.StartCleanup(cacheCleanupInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /api/filters", s.handleFilters)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.Handle("POST /api/transactions", s.limited(s.handleCreateTransaction))
	mux.Handle("PATCH /api/transactions/{id}", s.limited(s.handleUpdateTransaction))
	mux.Handle("DELETE /api/transactions/{id}", s.limited(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.Handle("POST /api/categories", s.limited(s.handleCreateCategory))
	mux.Handle("DELETE /api/categories/{id}", s.limited(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/monthly", s.handleMonthly)

	mux.HandleFunc("GET /api/currency", s.handleListCurrency)
	mux.Handle("POST /api/currency", s.limited(s.handleCreateCurrency))
	mux.Handle("DELETE /api/currency/{id}", s.limited(s.handleDeleteCurrency))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = s.detectSuspicious(handler)
	handler = log.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = headers.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// limited applies per-client rate limiting to mutations.
func (s *Server) limited(h http.HandlerFunc) http.Handler {
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	}
	return s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, onLimit)(h)
}

// detectSuspicious logs probing requests. They are still served: every
// route validates its own input.
func (s *Server) detectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.securityDetector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request detected",
				log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// snapshot loads the current snapshot, writing the error response on failure.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*services.Snapshot, bool) {
	snap, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		s.fail(w, r, "load snapshot", err)
		return nil, false
	}
	return snap, true
}

// fail writes the response for err and logs server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if statusForError(err) == http.StatusInternalServerError {
		log.FromContext(r.Context()).WithOperation(op).WithError(err).
			ErrorContext(r.Context(), "Request failed", log.FieldPath, r.URL.Path)
	}
	ErrorFrom(err).Write(w)
}
