package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-mfg/internal/orderstatus"
)

func TestRespondErrorMapsLifecycleKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		field  string
		detail string
	}{
		{
			name:   "not found",
			err:    orderstatus.NewError(orderstatus.KindNotFound, "", "Order not found"),
			status: http.StatusNotFound,
			detail: "Order not found",
		},
		{
			name:   "missing field",
			err:    orderstatus.NewError(orderstatus.KindMissingRequiredField, "holdReason", "holdReason is required to move to On Hold"),
			status: http.StatusBadRequest,
			field:  "holdReason",
			detail: "holdReason is required to move to On Hold",
		},
		{
			name:   "illegal transition wrapped",
			err:    fmt.Errorf("handler: %w", orderstatus.NewError(orderstatus.KindIllegalTransition, "", "Cannot transition from Open to Closed. Allowed transitions: Confirmed, On Hold, Cancelled")),
			status: http.StatusConflict,
			detail: "Cannot transition from Open to Closed. Allowed transitions: Confirmed, On Hold, Cancelled",
		},
		{
			name:   "persistence hides detail",
			err:    orderstatus.Wrap(orderstatus.KindPersistenceError, "Failed to save order status", errors.New("connection reset")),
			status: http.StatusInternalServerError,
		},
		{
			name:   "transport sentinel",
			err:    ErrUnauthorized,
			status: http.StatusUnauthorized,
			detail: ErrUnauthorized.Error(),
		},
		{
			name:   "unknown",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tt.err)

			require.Equal(t, tt.status, rec.Code)
			var problem ProblemDetail
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, tt.status, problem.Status)
			assert.Equal(t, tt.field, problem.Field)
			assert.Equal(t, tt.detail, problem.Detail)
		})
	}
}
