package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	applog "royalties/internal/log"
	"royalties/internal/middleware/ratelimit"
	"royalties/internal/middleware/security"
	"royalties/internal/middleware/trace"
	"royalties/internal/notify"
	"royalties/internal/services"
	"royalties/internal/sources"
	"royalties/internal/table"
	appweb "royalties/web"
)

// Store is the read side the dashboard renders from.
type Store interface {
	sources.TrackLister
	sources.LogSheetLister
	sources.UserLister
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators of the server. Hub may be nil, in which
// case /ws is not mounted.
type Dependencies struct {
	Store       Store
	Review      *services.ReviewService
	Performance *services.PerformanceService
	Reports     *services.ReportService
	Hub         *notify.Hub
	Logger      *applog.Logger

	PageSize           int
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	templates *template.Template

	store       Store
	review      *services.ReviewService
	performance *services.PerformanceService
	reports     *services.ReportService
	hub         *notify.Hub
	pageSize    int
	started     time.Time

	upgrader        websocket.Upgrader
	rateLimiter     *ratelimit.Limiter
	detector        *security.Detector
	traceMiddleware *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Dependencies) *Server {
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = table.DefaultPageSize
	}
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	detector := security.NewDetector()
	s := &Server{
		store:       deps.Store,
		review:      deps.Review,
		performance: deps.Performance,
		reports:     deps.Reports,
		hub:         deps.Hub,
		pageSize:    pageSize,
		started:     time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimitPerMinute,
			Methods:           []string{http.MethodPost},
		}),
		detector:        detector,
		traceMiddleware: trace.NewMiddleware(logger, detector.ExtractClientIP),
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	// UI partials
	mux.HandleFunc("GET /ui/works", s.handleWorksTable)
	mux.HandleFunc("GET /ui/logsheets", s.handleLogSheetsTable)
	mux.HandleFunc("GET /ui/performance", s.handlePerformance)
	mux.HandleFunc("GET /ui/artists/{id}/performance", s.handleArtistPerformance)
	mux.HandleFunc("GET /ui/reports", s.handleReports)
	mux.HandleFunc("GET /api/performance", s.handlePerformanceJSON)

	// Writes
	mux.HandleFunc("/works/{id}/{action}", s.handleReviewWork)
	mux.HandleFunc("/reports/payments", s.handleCreatePaymentReport)
	mux.HandleFunc("/reports/invoices", s.handleCreateInvoice)

	if s.hub != nil {
		mux.HandleFunc("GET /ws", s.handleWebSocket)
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		NewHTMXResponse().
			Status(http.StatusTooManyRequests).
			TriggerErrorNotification("Too many requests, please wait a moment").
			BodyHTML(`<div class="error">Rate limit exceeded. Please try again later.</div>`).
			Write(w)
	})

	// Handlers and services log through the request-scoped logger, which
	// carries the request id set by the trace middleware.
	requestLogger := func(next http.Handler) http.Handler {
		return applog.Middleware(logger)(
			applog.ComponentMiddleware(applog.ComponentHTTP)(
				applog.RequestIDMiddleware(trace.RequestID)(next)))
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           detector.Middleware(s.traceMiddleware.Middleware(requestLogger(headers.Middleware(limit(mux))))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
// Open websockets close when the hub stops.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// render executes a named template, answering 500 when templates are missing
// or execution fails before anything was written.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "template", name, "url", r.URL.Path)
		InternalServerError("templates not loaded").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed",
			"error", err,
			"template", name,
			"request_id", trace.RequestID(r))
	}
}
