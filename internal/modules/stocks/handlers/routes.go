package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all stock routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/stocks", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/{symbol}", h.HandleGet)
	})
	r.Route("/users/{userID}/tracked", func(r chi.Router) {
		r.Get("/", h.HandleUserTracked)
		r.Post("/{symbol}", h.HandleTrack)
		r.Delete("/{symbol}", h.HandleUntrack)
	})
}
