// Package server exposes the workflow engine over HTTP: run submission,
// agent catalog listing, health and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kadirpekel/conductor/pkg/component"
	"github.com/kadirpekel/conductor/pkg/config"
)

// Server serves the conductor HTTP API
type Server struct {
	cfg     config.ServerConfig
	manager *component.Manager
	logger  *slog.Logger
	http    *http.Server
}

// New creates a server around an initialized component manager
func New(cfg config.ServerConfig, manager *component.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		manager: manager,
		logger:  logger,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(10 * time.Minute))

	router.Get("/healthz", s.handleHealth)
	router.Handle("/metrics", promhttp.Handler())
	router.Route("/v1", func(r chi.Router) {
		r.Get("/agents", s.handleListAgents)
		r.Get("/stats", s.handleStats)
		r.Post("/workflows/run", s.handleRunWorkflow)
		r.Post("/workflows/validate", s.handleValidateWorkflow)
	})

	s.http = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler, exposed for tests
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start serves until ctx is canceled, then drains in-flight requests
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return <-errCh
}
