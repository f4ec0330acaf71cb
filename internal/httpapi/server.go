// Package httpapi exposes the builder over HTTP: the palette and drop
// target, canvas actions, the live preview, submissions and exports.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"

	"github.com/goliatone/go-formbuilder/pkg/orchestrator"
	"github.com/goliatone/go-formbuilder/pkg/store"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOrchestrator replaces the preview pipeline.
func WithOrchestrator(o *orchestrator.Orchestrator) Option {
	return func(s *Server) {
		if o != nil {
			s.orchestrator = o
		}
	}
}

// WithAllowedOrigins sets the CORS origins allowed to call the API.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.allowedOrigins = append([]string(nil), origins...)
	}
}

// WithMetricsRegistry registers metrics on registry instead of a private one.
func WithMetricsRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// WithTitle sets the heading of the preview page and the OpenAPI title.
func WithTitle(title string) Option {
	return func(s *Server) {
		s.title = title
	}
}

// Server serves the builder API for a single store.
type Server struct {
	store          *store.Store
	orchestrator   *orchestrator.Orchestrator
	logger         *slog.Logger
	allowedOrigins []string
	registry       *prometheus.Registry
	title          string

	metrics *metrics
	handler http.Handler
}

// New wires the routes for s.
func New(s *store.Store, opts ...Option) (*Server, error) {
	if s == nil {
		return nil, errors.New("httpapi: store is required")
	}
	srv := &Server{
		store:  s,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(srv)
		}
	}
	withRuntime := srv.registry == nil
	if srv.registry == nil {
		srv.registry = prometheus.NewRegistry()
	}
	if srv.orchestrator == nil {
		srv.orchestrator = orchestrator.New(orchestrator.WithLogger(srv.logger))
	}
	srv.metrics = newMetrics(srv.registry, withRuntime)

	router := http.NewServeMux()
	router.HandleFunc("GET /healthz", srv.getHealthz)
	router.Handle("GET /metrics", srv.metrics.handler())
	srv.addBuilderRoutes(router)
	srv.addPreviewRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins: srv.allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
		},
		AllowCredentials: false,
		MaxAge:           300,
	})

	srv.handler = c.Handler(srv.metrics.middleware(srv.logger)(router))
	return srv, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("httpapi: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpapi: shutdown: %w", err)
	}
	return nil
}

func (s *Server) getHealthz(w http.ResponseWriter, _ *http.Request) {
	replyJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
