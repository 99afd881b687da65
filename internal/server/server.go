package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/ishaan-bit/reverie/internal/kv"
	"github.com/ishaan-bit/reverie/internal/recap"
	"github.com/ishaan-bit/reverie/internal/store"
)

// Server is the reverie HTTP API server.
type Server struct {
	db      *store.DB
	scripts *kv.Store
	builder *recap.Builder
	router  chi.Router
	log     zerolog.Logger
	version string
	started time.Time
}

// New creates a new Server.
func New(db *store.DB, scripts *kv.Store, builder *recap.Builder, log zerolog.Logger, version string) *Server {
	s := &Server{
		db:      db,
		scripts: scripts,
		builder: builder,
		log:     log,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/moments", s.handleCreateMoment)
		r.Get("/moments", s.handleListMoments)

		r.Post("/reveries/build", s.handleBuild)
		r.Get("/reveries/{scriptID}", s.handleGetScript)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
