package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"fintrack/internal/log"
)

func TestMiddlewareCountsAndLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Format: log.FormatJSON, Output: &buf})
	tr := NewMiddleware(func(*http.Request) string { return "127.0.0.1" })

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	mux.HandleFunc("/bad", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusUnprocessableEntity) })
	mux.HandleFunc("/boom", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) })

	h := middleware.RequestID(log.Middleware(logger)(tr.Middleware(mux)))
	for _, path := range []string{"/ok", "/bad", "/boom", "/ok"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	m := tr.GetMetrics()
	assert.EqualValues(t, 4, m.TotalRequests)
	assert.EqualValues(t, 1, m.ClientErrors)
	assert.EqualValues(t, 1, m.ServerErrors)
	assert.Zero(t, m.InFlight)

	out := buf.String()
	assert.Contains(t, out, `"msg":"HTTP request completed"`)
	assert.Contains(t, out, `"status_code":422`)
	assert.Contains(t, out, `"client_ip":"127.0.0.1"`)
}
