package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/cache"
	"fintrack/internal/chart"
	"fintrack/internal/dashboard"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	appweb "fintrack/web"
)

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	Addr               string
	CurrencySymbol     string
	RateLimitPerMinute int
	RequestTimeout     time.Duration
	ChartCacheSize     int
	ChartCacheTTL      time.Duration
	Logger             *log.Logger
	// Now supplies the default date of the entry form.
	Now func() time.Time
}

type Server struct {
	http.Server
	templates   *template.Template
	records     *services.RecordService
	renderer    *chart.Renderer
	caches      *cache.Manager
	rateLimiter *ratelimit.Limiter
	trace       *trace.Middleware
	logger      *log.Logger
	currency    string
	now         func() time.Time
	started     time.Time

	appended atomic.Int64
	cleared  atomic.Int64

	shutdownOnce sync.Once
}

var templateFuncs = template.FuncMap{
	"sortFields": func() []string {
		return []string{
			string(dashboard.SortByDate),
			string(dashboard.SortByCategory),
			string(dashboard.SortByType),
			string(dashboard.SortByAmount),
		}
	},
	// nextOrder flips the order of the active column; other columns start descending.
	"nextOrder": func(v dashboard.View, field string) string {
		if string(v.Sort) == field && v.Order == dashboard.Desc {
			return string(dashboard.Asc)
		}
		return string(dashboard.Desc)
	},
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"add": func(a, b float64) float64 { return a + b },
	"sub": func(a, b float64) float64 { return a - b },
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(records *services.RecordService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.ChartCacheSize <= 0 {
		opts.ChartCacheSize = 64
	}
	if opts.ChartCacheTTL <= 0 {
		opts.ChartCacheTTL = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		records:  records,
		renderer: chart.NewRenderer(chart.DefaultHole, opts.ChartCacheSize, opts.ChartCacheTTL),
		caches:   cache.NewManager(logger.Logger),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		trace:    trace.NewMiddleware(clientIP),
		logger:   logger,
		currency: opts.CurrencySymbol,
		now:      opts.Now,
		started:  time.Now(),
	}
	for _, c := range s.renderer.Caches() {
		s.caches.Register(c)
	}
	s.caches.StartCleanup(opts.ChartCacheTTL)

	t, err := parseTemplates()
	if err != nil {
		logger.Error("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(log.Middleware(opts.Logger))
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string {
		return middleware.GetReqID(r.Context())
	}))
	r.Use(s.trace.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Group(func(r chi.Router) {
		r.Use(security.NoStore)
		r.Get("/", s.handleIndex)
		r.Get("/ui/dashboard", s.handleDashboard)
		r.Get("/ui/history", s.handleHistory)
		r.Get("/api/summary", s.handleSummary)
		r.Get("/api/records", s.handleRecords)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimiter.Middleware(clientIP, s.onRateLimit))
			r.Post("/records", s.handleCreateRecord)
			r.Post("/records/clear", s.handleClearRecords)
		})
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, clientIP(r),
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please wait a minute.").Write(w)
}
