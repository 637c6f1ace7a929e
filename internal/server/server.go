// Package server binds the pipeline executor to an HTTP listener.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/strataweb/strata/internal/pipeline"
)

// Server owns the HTTP listener. All request semantics (routing, auth,
// logging, short-circuits) live in the pipeline; the server only handles
// transport concerns.
type Server struct {
	router *chi.Mux
	srv    *http.Server
	port   int
	logger *slog.Logger
}

// New wires the executor into a chi mux behind the transport middleware.
func New(port int, timeout time.Duration, executor *pipeline.Executor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	if timeout > 0 {
		r.Use(TimeoutMiddleware(timeout))
	}
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "strata")
	})

	// The pipeline resolver does all routing; chi only provides the
	// catch-all mount.
	r.Handle("/*", NewAdapter(executor, logger))

	return &Server{
		router: r,
		port:   port,
		logger: logger,
	}
}

// Router exposes the mux, mainly for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start begins serving. It blocks until the listener stops.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", slog.Int("port", s.port))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
