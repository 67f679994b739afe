package quotations

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotations/{id}", h.Show)
	r.Post("/quotations/{id}/send", h.transition(StatusSent))
	r.Post("/quotations/{id}/approve", h.transition(StatusApproved))
	r.Post("/quotations/{id}/request-changes", h.transition(StatusRequestChanges))
	r.Post("/quotations/{id}/reject", h.transition(StatusRejected))
}
