package production

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-mfg/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-mfg/internal/shared"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

func (h *Handler) CreateWorkOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req CreateWorkOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	wo, err := h.service.CreateWorkOrder(r.Context(), orderID, req, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondError(w, "create work order failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, wo)
}

func (h *Handler) ListWorkOrders(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}
	wos, err := h.service.ListWorkOrders(r.Context(), orderID)
	if err != nil {
		h.respondError(w, "list work orders failed", err)
		return
	}
	cards, err := h.service.ListJobCards(r.Context(), orderID)
	if err != nil {
		h.respondError(w, "list job cards failed", err)
		return
	}
	works, err := h.service.ListJobWorks(r.Context(), orderID)
	if err != nil {
		h.respondError(w, "list job works failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"work_orders": wos,
		"job_cards":   cards,
		"job_works":   works,
	})
}

func (h *Handler) StartJobCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	jc, err := h.service.StartJobCard(r.Context(), id)
	if err != nil {
		h.respondError(w, "start job card failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, jc)
}

func (h *Handler) CompleteJobCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	jc, err := h.service.CompleteJobCard(r.Context(), id, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondError(w, "complete job card failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, jc)
}

func (h *Handler) MarkJobWorkInProcess(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	jw, err := h.service.MarkJobWorkInProcess(r.Context(), id)
	if err != nil {
		h.respondError(w, "update job work failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, jw)
}

func (h *Handler) ReceiveJobWork(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ReceiveJobWorkRequest
	if !h.decode(w, r, &req) {
		return
	}
	jw, err := h.service.ReceiveJobWork(r.Context(), id, req.Quantity, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondError(w, "receive job work failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, jw)
}

func (h *Handler) RecordInspection(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req RecordInspectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, err := h.service.RecordInspection(r.Context(), orderID, req, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondError(w, "record inspection failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, in)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidResult),
		errors.Is(err, ErrNoWorkTypes), errors.Is(err, ErrNoProcesses):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrOrderNotConfirmed), errors.Is(err, ErrInvalidJobCardState),
		errors.Is(err, ErrOverReceipt), errors.Is(err, ErrJobWorkClosed),
		errors.Is(err, ErrJobWorkConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		h.logger.Error(msg, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}
