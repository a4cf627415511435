package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/mapty/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store  *store.Store
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured. An empty apiKey
// leaves the mutating routes open.
func New(st *store.Store, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:  st,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Mount attaches h under pattern, e.g. the MCP endpoint at /mcp. Mutating
// access through h is guarded by the same API key as the REST routes.
func (s *Server) Mount(pattern string, h http.Handler) {
	if s.apiKey != "" {
		h = APIKeyAuth(s.apiKey)(h)
	}
	s.router.Mount(pattern, h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1/workouts", func(r chi.Router) {
		r.Get("/", s.handleListWorkouts)
		r.Get("/bounds", s.handleBounds)
		r.Get("/{id}", s.handleGetWorkout)
		r.Post("/{id}/click", s.handleClick)

		// Mutations (API key required when configured)
		r.Group(func(r chi.Router) {
			if s.apiKey != "" {
				r.Use(APIKeyAuth(s.apiKey))
			}
			r.Post("/", s.handleAddWorkout)
			r.Delete("/", s.handleClearWorkouts)
			r.Post("/sort", s.handleSortWorkouts)
			r.Put("/{id}", s.handleEditWorkout)
			r.Delete("/{id}", s.handleDeleteWorkout)
		})
	})
}
