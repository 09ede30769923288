// Package trace logs each request and keeps the counters served on /metrics.
package trace

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/log"
)

// Metrics is a snapshot of request counters.
type Metrics struct {
	TotalRequests     int64 `json:"total_requests"`
	ClientErrors      int64 `json:"client_errors"`
	ServerErrors      int64 `json:"server_errors"`
	InFlight          int64 `json:"in_flight"`
	LastDurationMicro int64 `json:"last_duration_us"`
}

type Middleware struct {
	extractIP func(*http.Request) string

	total        atomic.Int64
	clientErrors atomic.Int64
	serverErrors atomic.Int64
	inFlight     atomic.Int64
	lastDuration atomic.Int64
}

// NewMiddleware creates a trace middleware. extractIP may be nil.
func NewMiddleware(extractIP func(*http.Request) string) *Middleware {
	return &Middleware{extractIP: extractIP}
}

// Middleware logs start and end of every request through the request logger
// and counts outcomes. It expects chi's RequestID middleware to run first.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}
		sl := log.NewStructuredLogger(log.FromContext(ctx))
		sl.LogHTTPStart(ctx, r, clientIP)

		m.total.Add(1)
		m.inFlight.Add(1)
		defer m.inFlight.Add(-1)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		switch {
		case status >= 500:
			m.serverErrors.Add(1)
		case status >= 400:
			m.clientErrors.Add(1)
		}

		duration := time.Since(start)
		m.lastDuration.Store(duration.Microseconds())
		sl.LogHTTPEnd(ctx, r, status, duration.Milliseconds(), clientIP)
	})
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:     m.total.Load(),
		ClientErrors:      m.clientErrors.Load(),
		ServerErrors:      m.serverErrors.Load(),
		InFlight:          m.inFlight.Load(),
		LastDurationMicro: m.lastDuration.Load(),
	}
}
