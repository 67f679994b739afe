package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type holdBody struct {
	Reason string `json:"reason"`
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"awaiting material"}`))
	var body holdBody
	require.NoError(t, DecodeJSON(req, &body))
	assert.Equal(t, "awaiting material", body.Reason)

	req = httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	assert.ErrorIs(t, DecodeJSON(req, &body), ErrEmptyBody)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":`))
	assert.Error(t, DecodeJSON(req, &body))
}

func TestDecodeJSONRejectsOversizedBody(t *testing.T) {
	payload := `{"reason":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	var body holdBody
	assert.Error(t, DecodeJSON(req, &body))
}

func TestDecodeOptionalJSON(t *testing.T) {
	body := holdBody{Reason: "unchanged"}
	req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	require.NoError(t, DecodeOptionalJSON(req, &body))
	assert.Equal(t, "unchanged", body.Reason)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`not json`))
	assert.Error(t, DecodeOptionalJSON(req, &body))
}
