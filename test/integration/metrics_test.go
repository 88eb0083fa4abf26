package integration

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridfeed/gridfeed/internal/metrics"
	"github.com/gridfeed/gridfeed/internal/observability"
)

// permissionFragments are the messages sandboxes return when loopback binds
// are refused.
var permissionFragments = []string{"permission denied", "operation not permitted", "not permitted"}

func bindRefused(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range permissionFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// startExporter runs the exporter on a free port under the "test" namespace
// and stops it when t ends.
func startExporter(t *testing.T) {
	t.Helper()

	err := observability.StartMetrics(observability.MetricsOptions{Namespace: "test"})
	if bindRefused(err) {
		t.Skipf("loopback bind refused: %v", err)
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = observability.StopMetrics() })
}

func scrapeMetrics(t *testing.T) (string, string) {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/metrics", observability.GetMetricsPort()))
	require.NoError(t, err)
	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, readErr)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return string(body), resp.Header.Get("Content-Type")
}

func TestMetricsExporter_IngestionMetrics(t *testing.T) {
	observability.InitCLILogger("test", false)
	startExporter(t)

	for i := 0; i < 5; i++ {
		metrics.RecordFetch(i%2 == 0, time.Duration(10+i)*time.Millisecond)
		metrics.RecordIngestItem(2023, i != 3)
	}
	metrics.SetLimiterDelay(1500 * time.Millisecond)
	metrics.RecordScheduleFailure(2020)
	metrics.RecordSchemaViolation("laps")
	metrics.RecordRowsWritten("results", 20)
	metrics.RecordError("VALIDATION_FAILED", 1)

	metricsContent, _ := scrapeMetrics(t)
	assert.Contains(t, metricsContent, "test_provider_fetch_total", "Should have fetch counters")
	assert.Contains(t, metricsContent, "test_ingest_items_total", "Should have ingest item counters")
	assert.Contains(t, metricsContent, "test_schema_violations_total", "Should have schema violation counters")
	assert.Contains(t, metricsContent, "test_store_rows_written_total", "Should have rows written counters")
}

func TestMetricsExporter_PrometheusFormat(t *testing.T) {
	observability.InitCLILogger("test", false)
	startExporter(t)

	metrics.RecordIngestItem(2023, true)

	metricsContent, contentType := scrapeMetrics(t)
	assert.True(t,
		contentType == "text/plain; version=0.0.4" ||
			contentType == "text/plain; version=0.0.4; charset=utf-8",
		"Expected Prometheus content type, got: %s", contentType)

	lines := strings.Split(strings.TrimSpace(metricsContent), "\n")
	hasValidMetrics := false
	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Contains(line, "{") && len(strings.Fields(line)) >= 2 {
			hasValidMetrics = true
			break
		}
	}
	assert.True(t, hasValidMetrics, "Should have valid Prometheus metric lines")
}

func TestMetrics_StoppedTelemetryIsNoop(t *testing.T) {
	startExporter(t)
	require.NoError(t, observability.StopMetrics())
	assert.Zero(t, observability.GetMetricsPort())

	require.NotPanics(t, func() {
		metrics.RecordFetch(true, time.Millisecond)
		metrics.SetLimiterDelay(time.Second)
		metrics.RecordIngestItem(2023, false)
		metrics.RecordError("INTERNAL_ERROR", 1)
	})
}
