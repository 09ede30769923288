package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/dashboard"
	"fintrack/internal/log"
)

type pageData struct {
	Today string
	View  dashboard.View
}

func (s *Server) view(t core.Table, r *http.Request) dashboard.View {
	field, order := dashboard.ParseSort(r.URL.Query().Get("sort"), r.URL.Query().Get("order"))
	return dashboard.Build(t, dashboard.Options{
		CurrencySymbol: s.currency,
		Renderer:       s.renderer,
		Sort:           field,
		Order:          order,
	})
}

// render executes a template into memory so a failure never leaves a
// half-written response.
func (s *Server) render(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	log.FromContext(r.Context()).ErrorContext(r.Context(), msg,
		log.FieldError, err,
		log.FieldOperation, log.OpRender,
		log.FieldPath, r.URL.Path)
	InternalServerError("Something went wrong, check the server log").Write(w)
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to marshal JSON response", log.FieldError, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	t, err := s.records.Snapshot(r.Context())
	if err != nil {
		s.renderError(w, r, "Failed to load records", err)
		return
	}
	body, err := s.render("index.html", pageData{
		Today: s.now().Format(core.DateLayout),
		View:  s.view(t, r),
	})
	if err != nil {
		s.renderError(w, r, "Index template execution failed", err)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.writeFragment(w, r, "dashboard")
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.writeFragment(w, r, "history")
}

func (s *Server) writeFragment(w http.ResponseWriter, r *http.Request, name string) {
	t, err := s.records.Snapshot(r.Context())
	if err != nil {
		s.renderError(w, r, "Failed to load records", err)
		return
	}
	body, err := s.render(name, s.view(t, r))
	if err != nil {
		s.renderError(w, r, "Fragment template execution failed", err)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

// handleCreateRecord accepts a form post from htmx, a plain browser form
// or a JSON body. Invalid input is answered with 422 and nothing is stored.
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		if p.IsJSON() || wantsJSON(r) {
			writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		BadRequestError("Invalid request body").Write(w)
		return
	}
	jsonClient := p.IsJSON() || wantsJSON(r)

	rec, err := p.RecordInput().Record(s.now())
	var t core.Table
	if err == nil {
		t, err = s.records.Add(ctx, rec)
	}
	if err != nil {
		if core.IsValidationError(err) {
			log.FromContext(ctx).InfoContext(ctx, "Rejected record", log.FieldError, err, log.FieldOperation, log.OpValidate)
			if jsonClient {
				writeJSON(w, r, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
				return
			}
			UnprocessableEntityError("Invalid input: " + err.Error()).Write(w)
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Failed to save record", log.FieldError, err, log.FieldOperation, log.OpAppend)
		if jsonClient {
			writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "failed to save record"})
			return
		}
		InternalServerError("Failed to save the record").Write(w)
		return
	}
	s.appended.Add(1)

	switch {
	case jsonClient:
		writeJSON(w, r, http.StatusCreated, map[string]any{"record": rec, "count": len(t)})
	case isHTMX(r):
		body, err := s.render("dashboard", s.view(t, r))
		if err != nil {
			s.renderError(w, r, "Dashboard template execution failed", err)
			return
		}
		NewHTMXResponse().
			TriggerRecordCreated(len(t)).
			TriggerFormReset().
			TriggerSuccessNotification("Record added").
			BodyHTML(body).
			Write(w)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *Server) handleClearRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.records.ClearAll(ctx); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to clear records", log.FieldError, err, log.FieldOperation, log.OpClear)
		if wantsJSON(r) {
			writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "failed to clear records"})
			return
		}
		InternalServerError("Failed to clear the data").Write(w)
		return
	}
	s.cleared.Add(1)

	switch {
	case wantsJSON(r):
		writeJSON(w, r, http.StatusOK, map[string]bool{"cleared": true})
	case isHTMX(r):
		body, err := s.render("dashboard", s.view(nil, r))
		if err != nil {
			s.renderError(w, r, "Dashboard template execution failed", err)
			return
		}
		NewHTMXResponse().
			TriggerRecordsCleared().
			TriggerNotification(NotificationInfo, "All data deleted", 3000).
			BodyHTML(body).
			Write(w)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	t, err := s.records.Snapshot(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to load records", log.FieldError, err)
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "failed to load records"})
		return
	}
	writeJSON(w, r, http.StatusOK, core.Summarize(t))
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	t, err := s.records.Snapshot(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to load records", log.FieldError, err)
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "failed to load records"})
		return
	}
	if t == nil {
		t = core.Table{}
	}
	writeJSON(w, r, http.StatusOK, t)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports ready only when templates parsed and the store loads.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"templates": "ok", "store": "ok"}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	if _, err := s.records.Snapshot(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	writeJSON(w, r, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.trace.GetMetrics()
	cs := s.renderer.Stats()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", tm.TotalRequests)
	metric("http_client_errors_total", "counter", "Responses with a 4xx status", tm.ClientErrors)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", tm.ServerErrors)
	metric("http_requests_in_flight", "gauge", "Requests being served", tm.InFlight)
	metric("records_appended_total", "counter", "Records added through the dashboard", s.appended.Load())
	metric("records_cleared_total", "counter", "Clear-all actions", s.cleared.Load())
	metric("chart_cache_hits_total", "counter", "Chart geometry cache hits", cs.Hits)
	metric("chart_cache_misses_total", "counter", "Chart geometry cache misses", cs.Misses)
	metric("chart_cache_entries", "gauge", "Cached chart layouts", cs.Size)
	metric("rate_limit_rejected_total", "counter", "Requests refused by the rate limiter", s.rateLimiter.Rejected())
	metric("rate_limit_active_clients", "gauge", "Clients tracked by the rate limiter", s.rateLimiter.ActiveClients())
	metric("uptime_seconds", "gauge", "Seconds since start", int64(time.Since(s.started).Seconds()))
}
