// Package apiserver implements the control API (§6): a chi router over
// internal/engine.Registry exposing simulation lifecycle and snapshot
// endpoints.
package apiserver

import (
	"net/http"

	"github.com/aurorasat/dtnsim/internal/engine"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the control API's HTTP handler, backed by registry.
func NewRouter(registry *engine.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := &handler{registry: registry}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Route("/simulations", func(r chi.Router) {
			r.Post("/", h.createSimulation)
			r.Route("/{id}", func(r chi.Router) {
				r.Post("/start", h.start)
				r.Post("/pause", h.pause)
				r.Post("/resume", h.resume)
				r.Post("/stop", h.stop)
				r.Get("/snapshot", h.snapshot)
			})
		})
	})

	return r
}
