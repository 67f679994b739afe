package dispatch

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
)

const dispatchBody = `{"vehicle_number":"MH12AB1234","lr_number":"LR-889","driver_name":"R. Patil","dispatch_date":"2026-10-03T00:00:00Z"}`

func TestHandlerCreateDispatch(t *testing.T) {
	store := &mockStore{byOrder: map[int64]*Dispatch{}}
	pub := &capture{}
	svc := NewService(store, orderMap{
		4: {ID: 4, OrderCode: "SO-2610-00004", Status: orderstatus.StatusReadyForDispatch},
	}, pub, nil)
	r := chi.NewRouter()
	NewHandler(slog.Default(), svc).MountRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/orders/4/dispatches", strings.NewReader(dispatchBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, pub.got, 1)

	req = httptest.NewRequest(http.MethodPost, "/orders/999/dispatches", strings.NewReader(dispatchBody))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, string(orderstatus.KindNotFound), problem.Type)
	assert.Len(t, pub.got, 1)
}
