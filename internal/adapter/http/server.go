package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/flood-wave-graph/internal/analysis"
	"github.com/couchcryptid/flood-wave-graph/internal/domain"
	"github.com/couchcryptid/flood-wave-graph/internal/graph"
)

// ReadinessChecker reports whether an extraction run has completed.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// RunReporter exposes the results of the latest run.
type RunReporter interface {
	LastSummary() (analysis.Summary, bool)
	Waves(ctx context.Context, q graph.StationQuery) ([]domain.Wave, error)
}

// Server exposes health, readiness, metrics and run result endpoints.
type Server struct {
	httpServer *http.Server
	runs       RunReporter
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /summary and /waves routes.
func NewServer(addr string, ready ReadinessChecker, runs RunReporter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		runs:   runs,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /summary", s.handleSummary)
	mux.HandleFunc("GET /waves", s.handleWaves)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	summary, ok := s.runs.LastSummary()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no extraction run has completed yet")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleWaves re-extracts the waves of the latest run restricted to the
// river-km range given by the lower and upper query parameters.
func (s *Server) handleWaves(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.runs.LastSummary(); !ok {
		writeError(w, http.StatusServiceUnavailable, "no extraction run has completed yet")
		return
	}

	var q graph.StationQuery
	for name, dst := range map[string]**float64{"lower": &q.Lower, "upper": &q.Upper} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			writeError(w, http.StatusBadRequest, "invalid "+name+" station: "+raw)
			return
		}
		*dst = &v
	}

	waves, err := s.runs.Waves(r.Context(), q)
	switch {
	case errors.Is(err, domain.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("wave query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "wave query failed")
		return
	}

	out := make([][]string, len(waves))
	for i, wave := range waves {
		out[i] = make([]string, len(wave))
		for j, k := range wave {
			out[i][j] = k.String()
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "waves": out})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
