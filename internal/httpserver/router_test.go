package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"habit-tracker/internal/handler"
	"habit-tracker/internal/service/report"
	"habit-tracker/pkg/trace"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type mqState bool

func (m mqState) IsConnected() bool { return bool(m) }

type traceRunner struct{ seen string }

func (r *traceRunner) Run(ctx context.Context) (*report.Summary, error) {
	r.seen = trace.FromContext(ctx)
	return &report.Summary{}, nil
}

func newTestRouter(db Pinger, mq ConnChecker, runner *traceRunner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()
	return NewRouter(Handlers{
		User:   handler.NewUserHandler(nil, log),
		Habit:  handler.NewHabitHandler(nil, log),
		Report: handler.NewReportHandler(runner, log),
	}, log, db, mq)
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthAndRoot(t *testing.T) {
	r := newTestRouter(pinger{}, nil, &traceRunner{})

	assert.Equal(t, http.StatusOK, get(r, "/").Code)
	assert.Equal(t, http.StatusOK, get(r, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(r, "/readyz").Code)
}

func TestReadyz(t *testing.T) {
	w := get(newTestRouter(pinger{err: errors.New("refused")}, nil, &traceRunner{}), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "db_not_ready")

	w = get(newTestRouter(pinger{}, mqState(false), &traceRunner{}), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "mq_not_ready")

	w = get(newTestRouter(pinger{}, mqState(true), &traceRunner{}), "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(pinger{}, nil, &traceRunner{})
	get(r, "/healthz")

	w := get(r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "http_request_duration_seconds"))
}

func TestTracePropagation(t *testing.T) {
	runner := &traceRunner{}
	r := newTestRouter(pinger{}, nil, runner)

	req := httptest.NewRequest(http.MethodPost, "/reports/test", nil)
	req.Header.Set(trace.HeaderName(), "trace-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trace-123", w.Header().Get(trace.HeaderName()))
	assert.Equal(t, "trace-123", runner.seen)

	w = get(r, "/healthz")
	assert.NotEmpty(t, w.Header().Get(trace.HeaderName()))
}

func TestAdminRoutesOnlyWithOutbox(t *testing.T) {
	r := newTestRouter(pinger{}, nil, &traceRunner{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/outbox/replay", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
