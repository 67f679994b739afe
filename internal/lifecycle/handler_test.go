package lifecycle

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-mfg/internal/orderstatus"
	"github.com/odyssey-erp/odyssey-mfg/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-mfg/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-mfg/internal/shared"
)

func newTestRouter(f *fixture) http.Handler {
	r := chi.NewRouter()
	NewHandler(slog.Default(), f.orch, f.eval).MountRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req = req.WithContext(shared.ContextWithActor(req.Context(), 11))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerConfirm(t *testing.T) {
	f := newFixture(sampleOrder(1, orderstatus.StatusOpen))
	router := newTestRouter(f)

	rec := do(t, router, http.MethodPost, "/orders/1/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var order orders.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, orderstatus.StatusConfirmed, order.Status)
	last, _ := order.LastChange()
	assert.Equal(t, int64(11), last.ChangedBy)

	rec = do(t, router, http.MethodPost, "/orders/1/confirm", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, string(orderstatus.KindNoOpTransition), problem.Type)
}

func TestHandlerHoldRequiresReason(t *testing.T) {
	f := newFixture(sampleOrder(1, orderstatus.StatusOpen))
	router := newTestRouter(f)

	rec := do(t, router, http.MethodPost, "/orders/1/hold", `{"reason":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, orderstatus.FieldHoldReason, problem.Field)

	rec = do(t, router, http.MethodPost, "/orders/1/hold", `{"reason":"awaiting drawings"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/orders/1/resume", `{"resume_status":"Confirmed"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/orders/1/resume", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orderstatus.StatusOpen, f.store.order(1).Status)
}

func TestHandlerDispatchMissingField(t *testing.T) {
	f := newFixture(sampleOrder(1, orderstatus.StatusReadyForDispatch))
	router := newTestRouter(f)

	rec := do(t, router, http.MethodPost, "/orders/1/dispatch",
		`{"vehicle_number":"MH12AB1234","driver_name":"S. Kale","dispatch_date":"2026-10-18T00:00:00Z"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, orderstatus.FieldDispatchLRNumber, problem.Field)
}

func TestHandlerNotFoundAndBadID(t *testing.T) {
	router := newTestRouter(newFixture())

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/orders/9/deliver", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/orders/abc/close", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/orders/1/cancel", "{").Code)
}

func TestHandlerEvaluate(t *testing.T) {
	f := newFixture(sampleOrder(1, orderstatus.StatusInProduction))
	f.production.workOrders[1] = 1
	router := newTestRouter(f)

	rec := do(t, router, http.MethodPost, "/orders/1/evaluate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, EvalJobCardsOpen, body["result"])
	assert.Equal(t, false, body["advanced"])
}

func TestHandlerStatuses(t *testing.T) {
	router := newTestRouter(newFixture())

	rec := do(t, router, http.MethodGet, "/order-statuses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var views []struct {
		Status     string   `json:"status"`
		Successors []string `json:"successors"`
		Terminal   bool     `json:"terminal"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, len(orderstatus.All()))
	assert.Equal(t, "Open", views[0].Status)
	assert.Equal(t, []string{"Confirmed", "On Hold", "Cancelled"}, views[0].Successors)
	assert.True(t, views[6].Terminal)
}
