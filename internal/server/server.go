// Package server is the HTTP worker that serves activity lookups.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gruposillas/lol-activity/pkg/logging"
	"github.com/gruposillas/lol-activity/pkg/lol"
	"github.com/gruposillas/lol-activity/pkg/metrics"
	"github.com/rs/zerolog"
)

// ActivityService builds a player's activity.
type ActivityService interface {
	Activity(ctx context.Context, playerName string, days int, ranked bool) (*lol.Activity, error)
}

// Checker reports whether a dependency is reachable.
type Checker interface {
	Ping(ctx context.Context) error
}

// Config holds the HTTP worker configuration.
type Config struct {
	Addr string

	// Platform selects the match links in rendered reports.
	Platform string

	// DefaultDays is used when a lookup does not name a day count.
	DefaultDays int

	// LookupTimeout bounds a single activity lookup.
	LookupTimeout time.Duration

	// Ready is pinged by /ready. Optional.
	Ready Checker
}

// DefaultConfig returns the default HTTP worker configuration.
func DefaultConfig() Config {
	return Config{
		Addr:          ":8080",
		Platform:      "euw1",
		DefaultDays:   lol.MaxDays,
		LookupTimeout: 2 * time.Minute,
	}
}

// Server represents the HTTP worker.
type Server struct {
	router     *chi.Mux
	server     *http.Server
	activities ActivityService
	config     Config
	logger     zerolog.Logger
}

// New creates the worker and registers its routes.
func New(cfg Config, activities ActivityService) *Server {
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = lol.MaxDays
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultConfig().LookupTimeout
	}

	s := &Server{
		router:     chi.NewRouter(),
		activities: activities,
		config:     cfg,
		logger:     logging.NewLogger("server"),
	}

	s.router.Use(middleware.RealIP)
	s.router.Use(requestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler())
	s.router.Get("/played/{player}", s.handlePlayed)

	return s
}

// Handler exposes the router for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.config.LookupTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info().Str("addr", s.config.Addr).Msg("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
