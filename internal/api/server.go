// Package api implements the HTTP layer for the landing backend.
// Handlers are methods on *Server. Each handler file is responsible for one
// endpoint and only imports the dependencies it actually uses.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/airshopworks/landing-backend/internal/intake"
	"github.com/airshopworks/landing-backend/internal/metrics"
	"github.com/airshopworks/landing-backend/internal/site"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string

	// AllowedOrigin is sent as Access-Control-Allow-Origin in production.
	// Outside production the request's own Origin is echoed.
	AllowedOrigin string

	// RequestTimeout bounds every request, outbound provider calls included.
	RequestTimeout time.Duration
}

// Server holds all shared dependencies.
type Server struct {
	// estimates sends ROI estimate emails.
	estimates *intake.EstimateService

	// leads registers landing-page signups.
	leads *intake.LeadService

	metrics *metrics.Metrics
	cfg     Config
	logger  *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.ListenAndServe.
func NewServer(
	estimates *intake.EstimateService,
	leads *intake.LeadService,
	m *metrics.Metrics,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	s := &Server{
		estimates: estimates,
		leads:     leads,
		metrics:   m,
		cfg:       cfg,
		logger:    logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondErr(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondErr(w, http.StatusNotFound, "Not found")
	})

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// ── Form handlers ─────────────────────────────────────────────────────────
	r.Post("/api/send-estimate", s.handleSendEstimate)
	r.Post("/api/signup-lead", s.handleSignupLead)

	// ── Static assets ─────────────────────────────────────────────────────────
	assets := site.Handler()
	r.Method(http.MethodGet, "/footer.html", assets)
	r.Method(http.MethodGet, "/js/load-footer.js", assets)

	return r
}
