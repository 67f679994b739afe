package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-mfg/internal/shared"
	_ "github.com/odyssey-erp/odyssey-mfg/testing"
)

func TestInTestModeFromImport(t *testing.T) {
	RefreshTestMode()
	assert.True(t, InTestMode())
}

func TestActorMiddleware(t *testing.T) {
	var seen int64 = -1
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := ActorMiddleware(next)

	cases := []struct {
		name   string
		header string
		status int
		actor  int64
	}{
		{name: "missing header keeps system actor", header: "", status: http.StatusNoContent, actor: shared.SystemActorID},
		{name: "valid id", header: "42", status: http.StatusNoContent, actor: 42},
		{name: "padded id", header: " 7 ", status: http.StatusNoContent, actor: 7},
		{name: "non numeric", header: "abc", status: http.StatusBadRequest, actor: -1},
		{name: "zero", header: "0", status: http.StatusBadRequest, actor: -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = -1
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(ActorHeader, tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.actor, seen)
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PG_DSN", "postgres://u:p@localhost/db")
	t.Setenv("OTEL_TRACES", "none")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 3, cfg.TransitionMaxRetries)
	assert.Equal(t, 5*time.Minute, cfg.SettingsCacheTTL)
	assert.Equal(t, "*/10 * * * *", cfg.SweepCron)
	assert.False(t, cfg.EventsAsync)
	assert.False(t, cfg.AutoMigrate)
	assert.EqualValues(t, 10, cfg.PGMaxConns)
	assert.Equal(t, ":9091", cfg.WorkerMetricsAddr)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigValidation(t *testing.T) {
	t.Setenv("PG_DSN", "postgres://u:p@localhost/db")
	t.Setenv("OTEL_TRACES", "jaeger")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("OTEL_TRACES", "none")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel(&Config{LogLevel: "Debug"}).String())
	assert.Equal(t, "INFO", parseLevel(&Config{LogLevel: "nope"}).String())
	assert.Equal(t, "INFO", parseLevel(nil).String())
}
