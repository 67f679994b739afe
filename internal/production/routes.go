package production

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/orders/{id}/work-orders", h.CreateWorkOrder)
	r.Get("/orders/{id}/work-orders", h.ListWorkOrders)
	r.Post("/orders/{id}/inspection", h.RecordInspection)
	r.Post("/job-cards/{id}/start", h.StartJobCard)
	r.Post("/job-cards/{id}/complete", h.CompleteJobCard)
	r.Post("/job-works/{id}/in-process", h.MarkJobWorkInProcess)
	r.Post("/job-works/{id}/receive", h.ReceiveJobWork)
}
