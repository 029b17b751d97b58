// Package http exposes the service's operational endpoints and the
// on-demand point forecast API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/ensemble-forecast-service/internal/domain"
	"github.com/couchcryptid/ensemble-forecast-service/internal/pipeline"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ForecastSource provides the most recently shaped forecast.
type ForecastSource interface {
	Latest() (*pipeline.ShapedForecast, bool)
}

// Server exposes health, readiness, metrics, and point forecast endpoints.
type Server struct {
	httpServer *http.Server
	forecasts  ForecastSource
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /forecast/point routes.
func NewServer(addr string, ready ReadinessChecker, forecasts ForecastSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		forecasts: forecasts,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.HandleFunc("GET /forecast/point", s.handlePointForecast)
	mux.Handle("GET /metrics", promhttp.Handler())

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

// handlePointForecast extracts an ensemble summary for the requested lat/lon
// from the most recently shaped grid.
func (s *Server) handlePointForecast(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lat query parameter is required"})
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lon query parameter is required"})
		return
	}

	latest, ok := s.forecasts.Latest()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no forecast available yet"})
		return
	}

	loc := domain.LocationPoint{Lat: lat, Lon: lon}
	bundle, err := domain.ExtractLocation(latest.Grid, lat, lon)
	if err != nil {
		s.handleExtractionError(w, loc, err)
		return
	}
	summary, err := domain.BuildSummary(bundle, loc, latest.Date)
	if err != nil {
		s.handleExtractionError(w, loc, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleExtractionError(w http.ResponseWriter, loc domain.LocationPoint, err error) {
	var schemaErr *domain.SchemaError
	var domainErr *domain.DomainError
	if errors.As(err, &schemaErr) || errors.As(err, &domainErr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	s.logger.Error("point forecast failed", "location", loc, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
