// Package api provides the HTTP API server and handlers for the artwork
// discovery feed.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/artdiscover/artdiscover-server/internal/sse"
	"github.com/artdiscover/artdiscover-server/internal/validation"
)

// Options configures the HTTP surface. Zero values take defaults.
type Options struct {
	// CORSOrigins are the allowed browser origins. Empty allows any origin.
	CORSOrigins []string
	// RateLimit is requests per second per client IP. Zero disables limiting.
	RateLimit float64
	// RateBurst is the per-IP burst.
	RateBurst int
	// Version is reported in the OpenAPI document.
	Version string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services   *Services
	probes     Probes
	sseHandler *sse.Handler
	sseManager *sse.Manager
	validator  *validation.Validator
	limiter    *RateLimiter
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, probes Probes, sseManager *sse.Manager, logger *slog.Logger, opts Options) *Server {
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	s := &Server{
		services:   services,
		probes:     probes,
		sseManager: sseManager,
		validator:  validation.New(),
		router:     chi.NewRouter(),
		logger:     logger,
	}
	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, logger)
	}
	if opts.RateLimit > 0 {
		s.limiter = NewRateLimiter(opts.RateLimit, max(opts.RateBurst, 1))
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("ArtDiscover API", opts.Version)
	humaConfig.Info.Description = "Random public-domain artwork feed over the Met collection"
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Last-Event-ID"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	s.router.Use(limitBody)
	if s.limiter != nil {
		s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerDepartmentRoutes()
	s.registerSessionRoutes()
	s.registerViewerRoutes()
	s.registerFavoritesRoutes()
	s.registerConsentRoutes()

	// The event stream is a long-lived raw response, outside huma.
	s.router.Get("/api/v1/sessions/{id}/events", s.handleSessionEvents)
}
