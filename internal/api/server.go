// Package api provides the HTTP API server and handlers for the studio.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cryptforge/forge-studio/internal/logger"
	"github.com/cryptforge/forge-studio/internal/ratelimit"
	"github.com/cryptforge/forge-studio/internal/sse"
	"github.com/cryptforge/forge-studio/internal/store"
)

// Options configures the HTTP surface.
type Options struct {
	// CORSOrigins lists allowed browser origins; empty allows any.
	CORSOrigins []string
	// SyncRatePerMinute limits push and pull requests per client IP.
	SyncRatePerMinute int
	Version           string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store       *store.Store
	services    *Services
	router      *chi.Mux
	api         huma.API
	sseManager  *sse.Manager
	sseHandler  *sse.Handler
	syncLimiter *ratelimit.KeyedRateLimiter
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, services *Services, sseManager *sse.Manager, opts Options, log *slog.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	if services == nil {
		services = &Services{}
	}
	if opts.SyncRatePerMinute <= 0 {
		opts.SyncRatePerMinute = DefaultSyncRatePerMinute
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		store:       st,
		services:    services,
		router:      chi.NewRouter(),
		sseManager:  sseManager,
		syncLimiter: ratelimit.PerMinute(opts.SyncRatePerMinute),
		logger:      log,
	}
	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, log)
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("Crypt Forge Studio API", opts.Version)
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, used by tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources.
func (s *Server) Close() {
	s.syncLimiter.Stop()
}

func (s *Server) setupMiddleware(opts Options) {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         int((12 * time.Hour).Seconds()),
	}))
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerCategoryRoutes()
	s.registerAssetRoutes()
	s.registerFolderRoutes()
	s.registerSyncRoutes()
	s.registerCompendiumRoutes()
	s.registerEventRoutes()
}
