package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appconfig "github.com/lewisedginton/tile_relay/internal/config"
	"github.com/lewisedginton/tile_relay/internal/providers"
	"github.com/lewisedginton/tile_relay/pkg/logger"
	"github.com/lewisedginton/tile_relay/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig returns the defaults with no provider credentials.
func testConfig(t *testing.T) *appconfig.AppConfig {
	t.Helper()
	for _, key := range []string{"OPEN_AI", "ANTHROPIC", "GROQ", "PORT", "METRICS_ENABLED", "GRPC_HEALTH_PORT"} {
		t.Setenv(key, "")
	}
	cfg, err := appconfig.Load("")
	require.NoError(t, err)
	return cfg
}

func newTestServer(t *testing.T, cfg *appconfig.AppConfig) *Server {
	t.Helper()
	return New(cfg, logger.Nop(), providers.FromConfig(cfg, nil))
}

func TestServer_HealthWithoutCredentials(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestServer_CORSPreflight(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	for _, path := range []string{"/openai", "/anthropic", "/groq"} {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")
		rec := httptest.NewRecorder()

		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), path)
	}
}

func TestServer_RelayRoutesValidate(t *testing.T) {
	cfg := testConfig(t)
	cfg.Monitoring.MetricsEnabled = true
	s := newTestServer(t, cfg)

	for _, path := range []string{"/openai", "/anthropic", "/groq"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.JSONEq(t, `{"error":"Setting is required"}`, rec.Body.String(), path)
	}

	for _, name := range []string{providers.NameOpenAI, providers.NameAnthropic, providers.NameGroq} {
		assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.RelayRequestsTotal.WithLabelValues(name, metrics.OutcomeInvalidRequest)), name)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(s.metrics.HTTPRequestsTotal.WithLabelValues("400")))
}

func TestServer_BodyCap(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.MaxRequestSize = 32
	s := newTestServer(t, cfg)

	body := `{"setting":"` + strings.Repeat("a", 64) + `"}`
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/groq", strings.NewReader(body)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Something broke!"}`, rec.Body.String())
}

func TestServer_MalformedJSONBody(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/openai", strings.NewReader(`{"setting":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Something broke!"}`, rec.Body.String())
}

func TestServer_UnknownRoute(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gemini", strings.NewReader(`{"setting":"x"}`)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RunStopsOnContextCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = 0
	cfg.ShutdownTimeout = time.Second
	s := newTestServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}
}

func TestServer_RunShutsDownWhenListenersStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = 0
	cfg.ShutdownTimeout = time.Second

	var buf bytes.Buffer
	log := logger.NewLogger(logger.Config{Level: logger.InfoLevel, Output: &buf})
	s := New(cfg, log, providers.FromConfig(cfg, nil))

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.server.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after its listeners exited")
	}
	assert.Contains(t, buf.String(), "Gracefully closing listeners")
}
