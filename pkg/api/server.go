// Package api serves the bidcvc bitstream inspection and archive REST API.
//
// All routes live under /api/v1 and answer with a JSON envelope
// {success, data, error}, except the routes that return raw SPS or AU bytes
// as application/octet-stream. When an API key is configured every /api/v1
// route requires it in the X-API-Key header. /metrics is always open.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Router returns the HTTP handler with all routes configured. gatherer backs
// /metrics; nil means prometheus.DefaultGatherer.
func (s *Server) Router(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Unprotected for scraping.
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.APIKey != "" {
			r.Use(apiKeyMiddleware(s.config.APIKey, s.metrics))
		}
		m := s.metrics

		r.Get("/health", m.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		r.Post("/sps", m.InstrumentHandler("POST", "/api/v1/sps", s.handleEncodeSPS))
		r.Put("/sps", m.InstrumentHandler("PUT", "/api/v1/sps", s.handlePutSPS))
		r.Post("/sps/inspect", m.InstrumentHandler("POST", "/api/v1/sps/inspect", s.handleInspectSPS))
		r.Get("/sps/{id}", m.InstrumentHandler("GET", "/api/v1/sps/{id}", s.handleGetSPS))
		r.Get("/sps/{id}/inspect", m.InstrumentHandler("GET", "/api/v1/sps/{id}/inspect", s.handleInspectArchivedSPS))

		r.Post("/au", m.InstrumentHandler("POST", "/api/v1/au", s.handlePutAU))
		r.Get("/au", m.InstrumentHandler("GET", "/api/v1/au", s.handleListAUs))
		r.Post("/au/inspect", m.InstrumentHandler("POST", "/api/v1/au/inspect", s.handleInspectAU))
		r.Get("/au/{id}", m.InstrumentHandler("GET", "/api/v1/au/{id}", s.handleGetAU))
		r.Get("/au/{id}/inspect", m.InstrumentHandler("GET", "/api/v1/au/{id}/inspect", s.handleInspectArchivedAU))
		r.Delete("/au/{id}", m.InstrumentHandler("DELETE", "/api/v1/au/{id}", s.handleDeleteAU))
	})

	return r
}

// Addr returns the listen address built from the bind host and port.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Bind, strconv.Itoa(s.config.Port))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, gatherer prometheus.Gatherer) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Router(gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.serve(ctx, srv, func() error { return srv.ListenAndServe() })
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, gatherer prometheus.Gatherer) error {
	srv := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           s.Router(gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.serve(ctx, srv, func() error { return srv.Serve(ln) })
}

func (s *Server) serve(ctx context.Context, srv *http.Server, run func() error) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("bidcvc API server listening", "addr", srv.Addr)
		if err := run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("API server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("bidcvc API server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
