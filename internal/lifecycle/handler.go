package lifecycle

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-mfg/internal/orderstatus"
	"github.com/odyssey-erp/odyssey-mfg/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-mfg/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-mfg/internal/shared"
)

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type resumeRequest struct {
	ResumeStatus string `json:"resume_status,omitempty"`
}

type dispatchRequest struct {
	VehicleNumber string     `json:"vehicle_number" validate:"max=50"`
	LRNumber      string     `json:"lr_number" validate:"max=50"`
	DriverName    string     `json:"driver_name" validate:"max=100"`
	DispatchDate  *time.Time `json:"dispatch_date,omitempty"`
}

// Handler exposes the status commands. Missing reasons and dispatch fields
// are reported by the orchestrator with the field path.
type Handler struct {
	logger       *slog.Logger
	orchestrator *Orchestrator
	evaluator    *Evaluator
	validator    *validator.Validate
}

func NewHandler(logger *slog.Logger, orchestrator *Orchestrator, evaluator *Evaluator) *Handler {
	return &Handler{
		logger:       logger,
		orchestrator: orchestrator,
		evaluator:    evaluator,
		validator:    validator.New(),
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/orders/{id}/confirm", h.Confirm)
	r.Post("/orders/{id}/hold", h.Hold)
	r.Post("/orders/{id}/resume", h.Resume)
	r.Post("/orders/{id}/cancel", h.Cancel)
	r.Post("/orders/{id}/dispatch", h.Dispatch)
	r.Post("/orders/{id}/deliver", h.Deliver)
	r.Post("/orders/{id}/close", h.Close)
	r.Post("/orders/{id}/evaluate", h.Evaluate)
	r.Get("/order-statuses", h.Statuses)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	order, err := h.orchestrator.Confirm(r.Context(), id, shared.ActorFromContext(r.Context()))
	h.respond(w, order, err)
}

func (h *Handler) Hold(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req reasonRequest
	if !h.decode(w, r, &req) {
		return
	}
	order, err := h.orchestrator.Hold(r.Context(), id, shared.ActorFromContext(r.Context()), req.Reason)
	h.respond(w, order, err)
}

func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req resumeRequest
	if !h.decode(w, r, &req) {
		return
	}
	order, err := h.orchestrator.Resume(r.Context(), id, shared.ActorFromContext(r.Context()), orderstatus.Status(req.ResumeStatus))
	h.respond(w, order, err)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req reasonRequest
	if !h.decode(w, r, &req) {
		return
	}
	order, err := h.orchestrator.Cancel(r.Context(), id, shared.ActorFromContext(r.Context()), req.Reason)
	h.respond(w, order, err)
}

func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req dispatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	order, err := h.orchestrator.Dispatch(r.Context(), id, shared.ActorFromContext(r.Context()), orders.DispatchInfo{
		VehicleNumber: req.VehicleNumber,
		LRNumber:      req.LRNumber,
		DriverName:    req.DriverName,
		DispatchDate:  req.DispatchDate,
	})
	h.respond(w, order, err)
}

func (h *Handler) Deliver(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	order, err := h.orchestrator.Deliver(r.Context(), id, shared.ActorFromContext(r.Context()))
	h.respond(w, order, err)
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	order, err := h.orchestrator.Close(r.Context(), id, shared.ActorFromContext(r.Context()))
	h.respond(w, order, err)
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	ev, err := h.evaluator.EvaluateProductionCompletion(r.Context(), id, shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"order_id": ev.OrderID,
		"result":   ev.Result,
		"advanced": ev.Advanced,
		"order":    ev.Order,
	})
}

// Statuses lists each status with its successors and flags.
func (h *Handler) Statuses(w http.ResponseWriter, _ *http.Request) {
	type statusView struct {
		Status     orderstatus.Status   `json:"status"`
		Successors []orderstatus.Status `json:"successors"`
		Locked     bool                 `json:"locked"`
		Editable   bool                 `json:"editable"`
		Required   []string             `json:"required_fields,omitempty"`
		IsTerminal bool                 `json:"terminal"`
	}
	all := orderstatus.All()
	out := make([]statusView, 0, len(all))
	for _, s := range all {
		out = append(out, statusView{
			Status:     s,
			Successors: orderstatus.Successors(s),
			Locked:     orderstatus.IsLocked(s),
			Editable:   orderstatus.CanEdit(s),
			Required:   orderstatus.RequiredFields(s),
			IsTerminal: s.IsTerminal(),
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeOptionalJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, order *orders.Order, err error) {
	if err != nil {
		if orderstatus.KindOf(err) == orderstatus.KindPersistenceError {
			h.logger.Error("order transition failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}
