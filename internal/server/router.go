package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/agentstation/zonewatch/internal/server/handlers"
	"github.com/agentstation/zonewatch/internal/server/middleware"
	"github.com/agentstation/zonewatch/internal/server/response"
	"github.com/agentstation/zonewatch/internal/telemetry"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	router := mux.NewRouter()
	setErrorHandlers(router)

	h := handlers.New(s.client, s.cache, s.logger, s.config.WaitTimeout)

	s.registerRoutes(router, h)

	return s.applyMiddleware(router)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(router *mux.Router, h *handlers.Handlers) {
	// Favicon handler (return 204 No Content to avoid 404 logs)
	router.HandleFunc("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Public health endpoints (no auth required)
	router.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)

	// Subrouters match on their own; they need the JSON error handlers too.
	api := router.PathPrefix(s.config.PathPrefix).Subrouter()
	setErrorHandlers(api)
	api.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
	api.HandleFunc("/ready", h.HandleReady).Methods(http.MethodGet)

	// Catalog
	api.HandleFunc("/zones", h.HandleListZones).Methods(http.MethodGet)
	api.HandleFunc("/zones/{key}/buildings", h.HandleGetZoneBuildings).Methods(http.MethodGet)

	// Filter and cycles
	api.HandleFunc("/filter", h.HandleGetFilter).Methods(http.MethodGet)
	api.HandleFunc("/filter", h.HandlePutFilter).Methods(http.MethodPut)
	api.HandleFunc("/cycles/{generation:[0-9]+}", h.HandleGetCycle).Methods(http.MethodGet)

	// Views
	api.HandleFunc("/view", h.HandleGetView).Methods(http.MethodGet)

	// Admin
	api.HandleFunc("/stats", h.HandleStats).Methods(http.MethodGet)

	// Metrics endpoint (optional)
	if s.config.MetricsEnabled {
		router.Handle("/metrics", telemetry.Handler(s.gatherer)).Methods(http.MethodGet)
	}
}

// setErrorHandlers installs enveloped 404 and 405 responses on a router.
func setErrorHandlers(router *mux.Router) {
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Not found", "No route for "+r.URL.Path)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r.Method)
	})
}

// applyMiddleware wraps handler with middleware chain, outermost first.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.RequestID(),
		middleware.Logger(s.logger),
	}

	// CORS (if enabled) runs before auth so preflight requests succeed
	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
		} else {
			corsConfig.AllowAll = true
		}
		chain = append(chain, middleware.CORS(corsConfig))
	}

	if s.rateLimiter != nil {
		chain = append(chain, middleware.RateLimit(s.rateLimiter))
	}

	if cfg.AuthEnabled {
		authConfig := middleware.DefaultAuthConfig()
		authConfig.Enabled = true
		if cfg.AuthHeader != "" {
			authConfig.HeaderName = cfg.AuthHeader
		}
		if cfg.APIKey != "" {
			authConfig.APIKey = cfg.APIKey
		}
		authConfig.PublicPaths = []string{"/health", cfg.PathPrefix + "/health", cfg.PathPrefix + "/ready", "/metrics"}
		chain = append(chain, middleware.Auth(authConfig, s.logger))
	}

	if cfg.Compression {
		chain = append(chain, middleware.Compress())
	}

	return middleware.Chain(chain...)(handler)
}
