// Package server provides the HTTP server for the zonewatch API.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/zonewatch"
	"github.com/agentstation/zonewatch/internal/server/cache"
	"github.com/agentstation/zonewatch/internal/server/middleware"
	"github.com/agentstation/zonewatch/pkg/constants"
	"github.com/agentstation/zonewatch/pkg/filter"
	"github.com/agentstation/zonewatch/pkg/merger"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	client      zonewatch.Client
	cache       *cache.Cache
	rateLimiter *middleware.RateLimiter
	gatherer    prometheus.Gatherer
	logger      *zerolog.Logger
	config      Config
	startTime   time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithGatherer sets the Prometheus gatherer served on /metrics.
// Without it the default registry is used.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// New creates a new server instance with the given configuration.
func New(client zonewatch.Client, cfg Config, logger *zerolog.Logger, opts ...Option) (*Server, error) {
	if client == nil {
		return nil, fmt.Errorf("server: client is required")
	}

	// Set defaults
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = constants.CacheTTL
	}
	if cfg.WaitTimeout == 0 {
		cfg.WaitTimeout = DefaultConfig().WaitTimeout
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/api/v1"
	}

	s := &Server{
		client:    client,
		cache:     cache.New(cfg.CacheTTL, constants.CacheCleanupInterval),
		gatherer:  prometheus.DefaultGatherer,
		logger:    logger,
		config:    cfg,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.RateLimit > 0 {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}

	s.connectHooks()

	logger.Debug().
		Str("prefix", cfg.PathPrefix).
		Int("rate_limit", cfg.RateLimit).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("Server instance created")
	return s, nil
}

// connectHooks keeps cached views in step with published generations.
func (s *Server) connectHooks() {
	s.client.OnViewPublished(func(view merger.View) {
		removed := s.cache.InvalidateViews(view.Generation)
		s.logger.Debug().
			Uint64("generation", view.Generation).
			Int("evicted", removed).
			Msg("View published")
	})

	s.client.OnFilterChanged(func(snap filter.Snapshot) {
		s.logger.Debug().
			Str("zone", snap.ZoneKey).
			Int("hours", snap.WindowHours).
			Uint64("generation", snap.Generation).
			Msg("Filter changed")
	})

	s.client.OnAxisFailed(func(f zonewatch.AxisFailure) {
		s.logger.Debug().
			Uint64("generation", f.Generation).
			Str("axis", f.Axis.String()).
			Err(f.Err).
			Msg("Axis fell back to catalog values")
	})
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// HTTPServer returns an http.Server for the configured address and timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port)),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// Shutdown releases background resources.
func (s *Server) Shutdown(_ context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.cache.Clear()
	return nil
}

// Cache returns the server's cache instance.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
