package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "days must be a positive integer"})
			return
		}
		days = n
	}
	writeJSON(w, http.StatusOK, s.metrics.GetDashboard(days))
}

func (s *Server) handleCorrelations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"discovered": s.metrics.DiscoveredCorrelations(),
		"confirmed":  s.metrics.ConfirmedCorrelations(),
	})
}

func (s *Server) handleConfirmCorrelation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "correlationID")
	if err := s.metrics.ConfirmCorrelation(id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "confirmed", "id": id})
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.detector.Load())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	days := 0 // engine default
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "days must be a positive integer"})
			return
		}
		days = n
	}

	correlations := s.engine.Analyze(days)
	report := s.detector.RunFullAnalysis()

	writeJSON(w, http.StatusOK, map[string]any{
		"correlations":    correlations,
		"patterns":        report.Patterns,
		"insights":        report.Insights,
		"recommendations": report.Recommendations,
	})
}
