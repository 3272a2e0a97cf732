package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lazybuddy/buddy/internal/correlation"
	"github.com/lazybuddy/buddy/internal/metrics"
	"github.com/lazybuddy/buddy/internal/pattern"
)

// Server is the local read-only JSON API over the stores, plus an
// analyze trigger. It binds to loopback by default; the analytics core
// itself has no network surface.
type Server struct {
	metrics  *metrics.Store
	engine   *correlation.Engine
	detector *pattern.Detector
	router   chi.Router
	version  string
	started  time.Time
}

// New creates a Server over the given stores and engines.
func New(store *metrics.Store, engine *correlation.Engine, detector *pattern.Detector, version string) *Server {
	s := &Server{
		metrics:  store,
		engine:   engine,
		detector: detector,
		version:  version,
		started:  time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/correlations", s.handleCorrelations)
		r.Post("/correlations/{correlationID}/confirm", s.handleConfirmCorrelation)
		r.Get("/patterns", s.handlePatterns)
		r.Post("/analyze", s.handleAnalyze)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"metrics": s.metrics.Path(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
