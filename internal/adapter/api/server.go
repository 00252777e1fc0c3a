package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Server runs the public API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer serves handler on addr. The write timeout leaves room for a full
// prediction including geocoding.
func NewServer(addr string, handler http.Handler, predictTimeout time.Duration, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: predictTimeout + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("api server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
