package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"finanse/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"

	maxIncomingIDLength = 128
)

// Middleware handles request tracing and logging
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *log.StructuredLogger

	totalRequests atomic.Int64
	totalMicros   atomic.Int64
	serverErrors  atomic.Int64
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests       int64 `json:"totalRequests"`
	ServerErrors        int64 `json:"serverErrors"`
	AverageResponseTime int64 `json:"averageResponseTimeMicros"`
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(extractIP func(*http.Request) string, logger *log.StructuredLogger) *Middleware {
	return &Middleware{
		extractIP: extractIP,
		logger:    logger,
	}
}

// Middleware returns HTTP middleware for request tracing
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxIncomingIDLength {
			requestID = GenerateRequestID()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		r = r.WithContext(ctx)

		if m.logger != nil {
			m.logger.LogHTTPStart(ctx, r, clientIP)
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		m.totalRequests.Add(1)
		m.totalMicros.Add(duration.Microseconds())
		if rw.statusCode >= 500 {
			m.serverErrors.Add(1)
		}

		if m.logger != nil {
			m.logger.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestIDFromRequest adapts GetRequestID for log.RequestIDMiddleware.
func RequestIDFromRequest(r *http.Request) string {
	return GetRequestID(r.Context())
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	total := m.totalRequests.Load()
	var avg int64
	if total > 0 {
		avg = m.totalMicros.Load() / total
	}
	return Metrics{
		TotalRequests:       total,
		ServerErrors:        m.serverErrors.Load(),
		AverageResponseTime: avg,
	}
}
