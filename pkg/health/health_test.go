package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probeBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func probe(t *testing.T, endpoint http.HandlerFunc) (int, probeBody) {
	t.Helper()
	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body probeBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func ok(context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func runN(c *check, n int) {
	for range n {
		c.run(context.Background())
	}
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestLiveEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		fn         CheckFunc
		runs       int
		wantStatus int
		wantChecks map[string]string
	}{
		{name: "passing", fn: ok, runs: 3, wantStatus: http.StatusOK},
		{name: "below threshold", fn: failing("temporary"), runs: FailureThreshold - 1, wantStatus: http.StatusOK},
		{
			name:       "at threshold",
			fn:         failing("connection refused"),
			runs:       FailureThreshold,
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"db": "connection refused"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			h.AddLivenessCheck("db", time.Second, tt.fn)
			runN(h.liveness[0], tt.runs)

			code, body := probe(t, h.LiveEndpoint)
			assert.Equal(t, tt.wantStatus, code)
			assert.Equal(t, tt.wantChecks, body.Checks)
		})
	}
}

func TestLiveEndpoint_NoChecks(t *testing.T) {
	code, body := probe(t, New().LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.AddReadinessCheck("storage", time.Second, ok)
	h.AddReadinessCheck("catalog", time.Second, failing("not loaded"))

	code, body := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, map[string]string{"_readiness": "service is not ready"}, body.Checks)

	h.SetReady(true)
	code, body = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.True(t, h.IsReady())

	runN(h.readiness[1], FailureThreshold)
	code, body = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, map[string]string{"catalog": "not loaded"}, body.Checks)
	assert.False(t, h.IsReady())

	h.SetReady(false)
	_, body = probe(t, h.ReadyEndpoint)
	assert.Len(t, body.Checks, 2)
}

func TestCheckRecovers(t *testing.T) {
	var broken atomic.Bool
	broken.Store(true)
	c := newCheck("flaky", time.Second, func(context.Context) error {
		if broken.Load() {
			return errors.New("down")
		}
		return nil
	})

	runN(c, FailureThreshold)
	msg, failed := c.failure()
	require.True(t, failed)
	assert.Equal(t, "down", msg)

	broken.Store(false)
	runN(c, SuccessThreshold)
	_, failed = c.failure()
	assert.False(t, failed)
}

func TestStartRunsChecks(t *testing.T) {
	var calls atomic.Int32
	h := New()
	h.AddReadinessCheck("count", time.Second, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	h.Start(context.Background(), 10*time.Millisecond)
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()
	time.Sleep(30 * time.Millisecond)
	stopped := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load())
}

func TestConcurrentProbes(t *testing.T) {
	h := New()
	h.AddLivenessCheck("live", time.Second, ok)
	h.AddReadinessCheck("ready", time.Second, ok)
	h.SetReady(true)
	h.Start(context.Background(), time.Millisecond)
	defer h.Stop()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				w := httptest.NewRecorder()
				h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
				h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
				_ = h.IsReady()
			}
		}()
	}
	wg.Wait()
}

func TestCheckers(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, PingCheck(pinger{})(ctx))
	boom := errors.New("refused")
	require.ErrorIs(t, PingCheck(pinger{err: boom})(ctx), boom)

	require.NoError(t, GoroutineCountCheck(100000)(ctx))
	require.Error(t, GoroutineCountCheck(0)(ctx))

	require.NoError(t, GCMaxPauseCheck(time.Hour)(ctx))
}
