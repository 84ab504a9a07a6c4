// Package api provides the HTTP API server and handlers for SpellBee.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spellbee/spellbee-server/internal/metrics"
	"github.com/spellbee/spellbee-server/internal/ratelimit"
	"github.com/spellbee/spellbee-server/internal/sse"
	"github.com/spellbee/spellbee-server/internal/store"
)

// ServerConfig holds the HTTP-facing settings.
type ServerConfig struct {
	Name           string
	Version        string
	AllowedOrigins []string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Store
	services *Services
	router   *chi.Mux
	api      huma.API
	limiter  *ratelimit.KeyedRateLimiter
	registry *prometheus.Registry
	stream   http.Handler
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// A nil limiter disables rate limiting, a nil registry disables /metrics and a
// nil stream disables the live leaderboard feed.
func NewServer(
	st store.Store,
	services *Services,
	limiter *ratelimit.KeyedRateLimiter,
	registry *prometheus.Registry,
	stream *sse.Handler,
	cfg ServerConfig,
	logger *slog.Logger,
) *Server {
	router := chi.NewRouter()

	s := &Server{
		store:    st,
		services: services,
		router:   router,
		limiter:  limiter,
		registry: registry,
		logger:   logger,
	}
	// Keep s.stream a true nil interface when no handler is given.
	if stream != nil {
		s.stream = stream
	}

	s.setupMiddleware(cfg)

	if registry != nil {
		router.Handle("/metrics", metrics.Handler(registry))
	}
	if s.stream != nil {
		router.Get("/api/v1/leaderboard/stream", s.stream.ServeHTTP)
	}

	humaConfig := huma.DefaultConfig(cfg.Name, cfg.Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware(cfg ServerConfig) {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))
	if s.limiter != nil {
		s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	}
	s.router.Use(authMiddleware(s.services.Auth, s.logger))
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerProfileRoutes()
	s.registerGameRoutes()
	s.registerLeaderboardRoutes()
	s.registerWordRoutes()
}
