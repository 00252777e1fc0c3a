// Package httpadapter serves the operational endpoints: liveness, readiness,
// model status and Prometheus metrics.
package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ModelReporter reports which classifiers loaded at startup.
type ModelReporter interface {
	ModelsLoaded() (disaster, severity bool)
}

// Server exposes health, readiness, model status, and metrics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates the ops server with /healthz, /readyz, /models, and /metrics routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, models ModelReporter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.HandleFunc("GET /models", modelsHandler(models))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

type modelStatus struct {
	Disaster bool `json:"disaster"`
	Severity bool `json:"severity"`
}

func modelsHandler(models ModelReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		disaster, severity := models.ModelsLoaded()
		sharedobs.WriteJSON(w, http.StatusOK, modelStatus{Disaster: disaster, Severity: severity})
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("ops server starting", "addr", s.httpServer.Addr)
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
