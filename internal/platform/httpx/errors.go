// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-mfg/internal/orderstatus"
)

// Sentinel errors for the transport layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var typed *orderstatus.Error
	if errors.As(err, &typed) {
		status, title := statusForKind(typed.Kind)
		detail := typed.Message
		if status == http.StatusInternalServerError {
			detail = ""
		}
		JSON(w, status, ProblemDetail{
			Type:   string(typed.Kind),
			Title:  title,
			Status: status,
			Detail: detail,
			Field:  typed.Field,
		})
		return
	}

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		Problem(w, http.StatusBadRequest, "Validation Failed", verrs.Error())
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func statusForKind(kind orderstatus.Kind) (int, string) {
	switch kind {
	case orderstatus.KindNotFound:
		return http.StatusNotFound, "Not Found"
	case orderstatus.KindMissingRequiredField:
		return http.StatusBadRequest, "Missing Required Field"
	case orderstatus.KindInvalidCurrentStatus,
		orderstatus.KindIllegalTransition,
		orderstatus.KindNoOpTransition,
		orderstatus.KindClosePreconditionNotMet,
		orderstatus.KindProductionAlreadyStarted,
		orderstatus.KindEditNotAllowed,
		orderstatus.KindLockedFieldEdit:
		return http.StatusConflict, "Conflict"
	default:
		return http.StatusInternalServerError, "Internal Error"
	}
}
