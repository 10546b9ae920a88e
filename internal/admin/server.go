// Package admin exposes the monitoring read API backing the operations
// dashboard: failed-operation stats, the dead-letter snapshot, recent system
// alerts and Prometheus metrics.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/provenly/resilience/internal/alert"
	"github.com/provenly/resilience/internal/resilience/manager"
)

// AlertLister reads back persisted audit records. Optional: nil when no
// database is configured.
type AlertLister interface {
	ListRecent(ctx context.Context, limit int) ([]alert.SystemAlert, error)
}

// Server provides HTTP endpoints for operational monitoring.
type Server struct {
	manager *manager.Manager
	alerts  AlertLister
	server  *http.Server
	log     *slog.Logger
}

// NewServer creates a new admin server.
func NewServer(m *manager.Manager, alerts AlertLister, port int, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		manager: m,
		alerts:  alerts,
		log:     log,
	}

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Get("/operations/failed", s.handleFailedOperations)
	r.Get("/alerts", s.handleAlerts)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.manager.Stats(r.Context())
	if err != nil {
		s.log.Error("Failed to collect stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to collect stats"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleFailedOperations(w http.ResponseWriter, r *http.Request) {
	entries, err := s.manager.FailedOperations(r.Context())
	if err != nil {
		s.log.Error("Failed to list dead-letter entries", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list dead-letter entries"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if s.alerts == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "alert persistence not configured"})
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	alerts, err := s.alerts.ListRecent(r.Context(), limit)
	if err != nil {
		s.log.Error("Failed to list alerts", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list alerts"})
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
