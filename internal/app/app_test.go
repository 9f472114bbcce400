package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

type noopTelemetry struct{}

func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }
func (noopTelemetry) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }

func testConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:0",
		ImageBaseURL: "https://cdn.example.com",
		Storage:      StorageConfig{Backend: BackendMemory},
		Catalog:      CatalogConfig{Source: CatalogEmbedded},
		RateLimit:    RateLimitConfig{Max: 50, Window: time.Minute},
		CORS:         CORSConfig{Origins: []string{"*"}},
		Graceful:     GracefulConfig{ShutdownTimeout: time.Second},
	}
}

func newTestHandler(t *testing.T, cfg *Config) (http.Handler, *health.Health) {
	t.Helper()
	lg := zaptest.NewLogger(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	b, err := OpenBackends(ctx, lg, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, b.Close()) })

	hs := health.New()
	h, err := NewHandler(ctx, lg, noopTelemetry{}, cfg, b, hs)
	require.NoError(t, err)
	return h, hs
}

func request(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandler_Health(t *testing.T) {
	h, hs := newTestHandler(t, testConfig())

	assert.Equal(t, http.StatusOK, request(h, http.MethodGet, "/livez", "", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, request(h, http.MethodGet, "/readyz", "", nil).Code)

	hs.SetReady(true)
	w := request(h, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHandler_API(t *testing.T) {
	h, _ := newTestHandler(t, testConfig())

	w := request(h, http.MethodGet, "/api/products/w-001", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(httpmiddleware.RequestIDHeader))
	assert.Equal(t, "49", w.Header().Get("X-RateLimit-Remaining"))

	var detail struct {
		Product struct {
			ID    string `json:"id"`
			Image string `json:"image"`
		} `json:"product"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "w-001", detail.Product.ID)
	assert.True(t, strings.HasPrefix(detail.Product.Image, "https://cdn.example.com/"), detail.Product.Image)

	session := map[string]string{handler.SessionHeader: "app-test"}
	w = request(h, http.MethodPost, "/api/cart/items", `{"productId":"w-001","quantity":2,"size":"M","color":"Red"}`, session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = request(h, http.MethodGet, "/api/cart", "", session)
	require.Equal(t, http.StatusOK, w.Code)
	var c struct {
		Count int   `json:"count"`
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	assert.Equal(t, 2, c.Count)
	assert.Equal(t, int64(4998), c.Total)

	w = request(h, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_CORSPreflight(t *testing.T) {
	h, _ := newTestHandler(t, testConfig())

	w := request(h, http.MethodOptions, "/api/cart", "", map[string]string{
		"Origin":                        "https://shop.example.com",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), handler.SessionHeader)
}

func TestHandler_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Max = 2
	h, _ := newTestHandler(t, cfg)

	for range 2 {
		assert.Equal(t, http.StatusOK, request(h, http.MethodGet, "/api/categories", "", nil).Code)
	}
	w := request(h, http.MethodGet, "/api/categories", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestOpenBackends_SQLite(t *testing.T) {
	cfg := testConfig()
	cfg.Storage = StorageConfig{Backend: BackendSQLite, SQLitePath: ":memory:"}

	b, err := OpenBackends(context.Background(), zaptest.NewLogger(t), cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, b.Close()) }()

	require.Contains(t, b.Pingers, "cart-storage")
	require.NoError(t, b.Pingers["cart-storage"].Ping(context.Background()))

	require.NoError(t, b.Carts.Save(context.Background(), "cart", []byte("[]")))
	data, err := b.Carts.Load(context.Background(), "cart")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestOpenBackends_CatalogFileMissing(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog = CatalogConfig{Source: CatalogFile, File: "/nonexistent/catalog.json"}

	_, err := OpenBackends(context.Background(), zaptest.NewLogger(t), cfg)
	require.Error(t, err)
}
