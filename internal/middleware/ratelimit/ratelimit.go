package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter applies a token bucket per client IP.
type Limiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
	hits         atomic.Int64

	// Configuration
	requestsPerMinute int
	burst             int
	cleanupInterval   time.Duration
	idleTimeout       time.Duration
	now               func() time.Time
}

type clientInfo struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	Burst             int
	CleanupInterval   time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		Burst:             10,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter creates a new rate limiter and starts its cleanup loop.
func NewLimiter(config Config) *Limiter {
	defaults := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = defaults.RequestsPerMinute
	}
	if config.Burst <= 0 {
		config.Burst = defaults.Burst
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}

	rl := &Limiter{
		clients:           make(map[string]*clientInfo),
		stopCleanup:       make(chan struct{}),
		requestsPerMinute: config.RequestsPerMinute,
		burst:             config.Burst,
		cleanupInterval:   config.CleanupInterval,
		idleTimeout:       10 * time.Minute,
		now:               time.Now,
	}
	go rl.startCleanup()
	return rl
}

// Allow checks if a request from the given IP should be allowed
func (rl *Limiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	now := rl.now()
	client, exists := rl.clients[clientIP]
	if !exists {
		perSecond := rate.Limit(float64(rl.requestsPerMinute) / 60)
		client = &clientInfo{limiter: rate.NewLimiter(perSecond, rl.burst)}
		rl.clients[clientIP] = client
	}
	client.lastSeen = now
	rl.mu.Unlock()

	if client.limiter.AllowN(now, 1) {
		return true
	}
	rl.hits.Add(1)
	return false
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *Limiter) startCleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries forgets clients idle for longer than idleTimeout.
func (rl *Limiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleTimeout)
	for ip, client := range rl.clients {
		if client.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// ActiveClients returns the number of currently tracked clients
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// Metrics for monitoring rate limit performance
type Metrics struct {
	TotalHits   int64 `json:"totalHits"`
	ClientCount int64 `json:"clientCount"`
}

// GetMetrics returns current rate limiting metrics
func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		TotalHits:   rl.hits.Load(),
		ClientCount: int64(rl.ActiveClients()),
	}
}

// retryAfter is the time for one token to refill, rounded up to a second.
func (rl *Limiter) retryAfter() int {
	secs := (60 + rl.requestsPerMinute - 1) / rl.requestsPerMinute
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Middleware creates HTTP middleware for rate limiting
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := extractIP(r)

			if !rl.Allow(clientIP) {
				w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
