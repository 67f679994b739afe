package dispatch

import "github.com/go-chi/chi/v5"

// MountRoutes registers dispatch endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/orders/{id}/dispatches", h.Create)
	r.Get("/orders/{id}/dispatches", h.Show)
}
