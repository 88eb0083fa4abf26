package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gridfeed/gridfeed/internal/observability"
)

func setupTelemetry(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{
		Enabled: true,
		Emitter: collector,
	})
	require.NoError(t, err)

	original := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() {
		observability.TelemetrySystem = original
	})

	return collector
}

func TestRequestMetricsEmitsRequestMetrics(t *testing.T) {
	collector := setupTelemetry(t)

	handler := RequestMetrics(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Greater(t, collector.CountMetricsByName(RequestsTotal), 0)
	assert.Greater(t, collector.CountMetricsByName(RequestDurationMs), 0)
	assert.Greater(t, collector.CountMetricsByName(ResponseSizeBytes), 0)
	assert.Zero(t, collector.CountMetricsByName(RequestErrorsTotal))
}

func TestRequestMetricsCountsErrors(t *testing.T) {
	collector := setupTelemetry(t)

	handler := RequestMetrics(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/runs", nil))

	assert.Greater(t, collector.CountMetricsByName(RequestErrorsTotal), 0)
}

func TestRequestMetricsWithTelemetryDisabled(t *testing.T) {
	original := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	t.Cleanup(func() { observability.TelemetrySystem = original })

	core, logs := observer.New(zap.InfoLevel)
	handler := RequestID(RequestMetrics(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-7", rec.Header().Get(RequestIDHeader))

	entries := logs.FilterMessage("HTTP request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "/health/*", fields["endpoint"])
	assert.EqualValues(t, http.StatusNoContent, fields["status"])
}

func TestGetEndpointPatternFallback(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/health", "/health/*"},
		{"/health/ready", "/health/*"},
		{"/version", "/version"},
		{"/metrics", "/metrics"},
		{"/v1/runs", "/v1/runs"},
		{"/v1/runs/0b6f/2023/failures", "/v1/runs/{runID}/{year}/failures"},
		{"/api/users/123", "/unknown"},
		{"/", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.expected, getEndpointPattern(req))
		})
	}
}

func TestGetEndpointPatternUsesChiRoute(t *testing.T) {
	var pattern string
	router := chi.NewRouter()
	router.Get("/v1/runs/{runID}/{year}/failures", func(w http.ResponseWriter, r *http.Request) {
		pattern = getEndpointPattern(r)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/runs/abc/2024/failures", nil))
	assert.Equal(t, "/v1/runs/{runID}/{year}/failures", pattern)
}
