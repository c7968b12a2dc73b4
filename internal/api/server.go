// Package api serves the Pagebound HTTP API.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/pagebound-server/internal/auth"
	"github.com/listenupapp/pagebound-server/internal/ratelimit"
	"github.com/listenupapp/pagebound-server/internal/search"
	"github.com/listenupapp/pagebound-server/internal/sse"
	"github.com/listenupapp/pagebound-server/internal/validation"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds everything the server needs.
type Deps struct {
	Services       *Services
	Journal        *search.JournalIndex
	Tokens         *auth.TokenService
	SSE            *sse.Manager
	Database       Pinger
	WriteLimiter   *ratelimit.KeyedRateLimiter
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services  *Services
	journal   *search.JournalIndex
	tokens    *auth.TokenService
	sse       *sse.Manager
	database  Pinger
	validator *validation.Validator
	router    *chi.Mux
	api       huma.API
	logger    *slog.Logger
}

// NewServer creates the HTTP server with all routes configured.
func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(authMiddleware(d.Tokens, logger))
	if d.WriteLimiter != nil {
		router.Use(writeRateLimit(d.WriteLimiter, logger))
	}

	humaConfig := huma.DefaultConfig("Pagebound API", Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		services:  d.Services,
		journal:   d.Journal,
		tokens:    d.Tokens,
		sse:       d.SSE,
		database:  d.Database,
		validator: validation.New(),
		router:    router,
		api:       api,
		logger:    logger,
	}

	s.registerHealthRoutes()
	s.registerRecordRoutes()
	s.registerBookRoutes()
	s.registerMeRoutes()
	s.registerGoalRoutes()
	s.registerChallengeRoutes()
	s.registerSearchRoutes()
	s.registerEventRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// validate runs struct validation and converts failures to API errors.
func (s *Server) validate(ctx context.Context, v any) error {
	if err := s.validator.Validate(v); err != nil {
		return s.toAPIError(ctx, err)
	}
	return nil
}

// bearer is the security requirement shared by every authenticated route.
var bearer = []map[string][]string{{"bearer": {}}}
