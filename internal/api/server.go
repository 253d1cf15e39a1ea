// Package api provides the HTTP API server and handlers for imggen.
package api

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/imggen/imggen-server/internal/http/response"
	"github.com/imggen/imggen-server/internal/media/images"
	"github.com/imggen/imggen-server/internal/metrics"
	"github.com/imggen/imggen-server/internal/ratelimit"
	"github.com/imggen/imggen-server/internal/validation"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Options configures the optional parts of the server.
type Options struct {
	CORSOrigins []string
	Limiter     *ratelimit.KeyedRateLimiter // nil disables rate limiting
	Metrics     *metrics.Metrics            // nil disables /metrics
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services  *Services
	images    *images.Storage
	opts      Options
	validator *validation.Validator
	router    *chi.Mux
	api       huma.API
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, imgs *images.Storage, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		services:  services,
		images:    imgs,
		opts:      opts,
		validator: validation.New(),
		router:    chi.NewRouter(),
		logger:    logger,
	}

	s.setupMiddleware()

	config := huma.DefaultConfig("imggen API", Version)
	// Enveloped bodies carry no $schema link.
	config.CreateHooks = nil
	config.Transformers = append(config.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, config)
	RegisterErrorHandler()

	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, used by tests and the OpenAPI dump.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(recoverer(s.logger))
	if s.opts.Metrics != nil {
		s.router.Use(s.opts.Metrics.Middleware)
	}

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	if s.opts.Limiter != nil {
		s.router.Use(RateLimitMiddleware(s.opts.Limiter, s.logger))
	}

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, s.logger)
	})
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerBackendRoutes()
	s.registerPromptRoutes()
	s.registerGenerationRoutes()
	s.registerImageRoutes()
	s.registerTagRoutes()

	dir := http.Dir(s.images.Root())
	s.router.Handle(images.PublicPrefix+"/*", http.StripPrefix(images.PublicPrefix, noDirListing(sniffContentType(dir, http.FileServer(dir)))))
	if s.opts.Metrics != nil {
		s.router.Handle("/metrics", s.opts.Metrics.Handler())
	}
}

// sniffContentType types a file by its leading bytes instead of its
// extension. Thumbnails hold JPEG data under the .png name of their source.
func sniffContentType(dir http.Dir, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f, err := dir.Open(r.URL.Path); err == nil {
			head := make([]byte, 512)
			n, _ := io.ReadFull(f, head)
			_ = f.Close()
			if n > 0 {
				w.Header().Set("Content-Type", http.DetectContentType(head[:n]))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// noDirListing hides the directory index pages of http.FileServer.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
