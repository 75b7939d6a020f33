// Package httpserver provides the HTTP server for RepoVault.
//
// It uses the standard library net/http mux with method-qualified
// patterns, wrapped in a small middleware chain (recover, request ID,
// rate limit, metrics).
package httpserver

import (
	"context"
	"net/http"
	"time"
)

// Server wraps http.Server with the service's defaults.
type Server struct {
	httpServer *http.Server
}

// Config holds server timeouts.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New creates an HTTP server serving handler on cfg.Addr.
func New(cfg Config, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// ListenAndServe starts the server and blocks.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
