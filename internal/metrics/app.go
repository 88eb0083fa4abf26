package metrics

import (
	"strconv"
	"time"

	"github.com/gridfeed/gridfeed/internal/observability"
)

// Ingestion metrics following Prometheus conventions
var (
	// Provider fetch metrics
	FetchTotal      = "provider_fetch_total"
	FetchDuration   = "provider_fetch_duration_ms"
	LimiterDelay    = "provider_limiter_delay_ms"
	ScheduleFailure = "provider_schedule_failures_total"

	// Batch metrics
	IngestItemsTotal = "ingest_items_total"

	// Schema / persistence metrics
	SchemaViolationsTotal = "schema_violations_total"
	RowsWrittenTotal      = "store_rows_written_total"
)

// RecordFetch records one provider session fetch and its latency.
func RecordFetch(success bool, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}

	_ = observability.TelemetrySystem.Counter(
		FetchTotal,
		1,
		map[string]string{"status": status(success)},
	)
	_ = observability.TelemetrySystem.Histogram(
		FetchDuration,
		duration,
		nil,
	)
}

// SetLimiterDelay exports the adaptive limiter's current delay.
func SetLimiterDelay(delay time.Duration) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			LimiterDelay,
			float64(delay.Milliseconds()),
			nil,
		)
	}
}

// RecordScheduleFailure records a season whose calendar could not be fetched.
func RecordScheduleFailure(year int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			ScheduleFailure,
			1,
			map[string]string{"year": strconv.Itoa(year)},
		)
	}
}

// RecordIngestItem records one batch candidate outcome.
func RecordIngestItem(year int, success bool) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			IngestItemsTotal,
			1,
			map[string]string{
				"year":   strconv.Itoa(year),
				"status": status(success),
			},
		)
	}
}

// RecordSchemaViolation records a table rejected by schema enforcement.
func RecordSchemaViolation(table string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			SchemaViolationsTotal,
			1,
			map[string]string{"table": table},
		)
	}
}

// RecordRowsWritten records rows persisted for a record kind.
func RecordRowsWritten(kind string, rows int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RowsWrittenTotal,
			float64(rows),
			map[string]string{"kind": kind},
		)
	}
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
