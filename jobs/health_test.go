package jobs

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== MOCK INSPECTOR =====

type stubInspector struct {
	infos map[string]*asynq.QueueInfo
	err   error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	info, ok := s.infos[queue]
	if !ok {
		return nil, asynq.ErrQueueNotFound
	}
	return info, nil
}

func serveHealth(t *testing.T, inspector QueueInspector) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(inspector, nil).MountRoutes)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	return rr
}

func TestHealthReportsQueueDepth(t *testing.T) {
	rr := serveHealth(t, stubInspector{infos: map[string]*asynq.QueueInfo{
		QueueLifecycle: {Queue: QueueLifecycle, Pending: 4, Active: 1, Retry: 2, Archived: 1},
	}})
	require.Equal(t, http.StatusOK, rr.Code)

	var out []queueHealth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, queueHealth{Queue: QueueLifecycle, Pending: 4, Active: 1, Retry: 2, Archived: 1}, out[0])
	assert.Equal(t, queueHealth{Queue: QueueDefault}, out[1])
}

func TestHealthInspectorFailure(t *testing.T) {
	rr := serveHealth(t, stubInspector{err: errors.New("redis down")})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHealthWithoutInspector(t *testing.T) {
	rr := serveHealth(t, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"queue":"lifecycle"`)
}

func TestNewWorkerRejectsIncompleteRegistrations(t *testing.T) {
	_, err := NewWorker(WorkerConfig{Handlers: []TaskHandler{{Type: TaskLifecycleEvent}}})
	assert.Error(t, err)

	_, err = NewWorker(WorkerConfig{Cron: []CronRegistration{{Spec: "*/5 * * * *"}}})
	assert.Error(t, err)
}
