package observability

import (
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/fulmenhq/gofulmen/telemetry/exporters"
)

// DefaultMetricsPort is reported when the exporter bound an ephemeral port
// that could not be read back.
const DefaultMetricsPort = 9090

var (
	// TelemetrySystem receives every ingestion, store and API metric.
	TelemetrySystem *telemetry.System

	// PrometheusExporter serves TelemetrySystem in Prometheus text format.
	PrometheusExporter *exporters.PrometheusExporter

	metricsMu   sync.Mutex
	metricsPort int
)

// MetricsOptions configures the Prometheus exporter.
type MetricsOptions struct {
	// Namespace prefixes every metric name, e.g. gridfeed_rounds_ingested_total.
	Namespace string
	// Port is the exporter listen port; 0 picks a free one.
	Port int
}

// StartMetrics starts the exporter and installs TelemetrySystem. A running
// exporter is stopped first so repeated calls rebind cleanly.
func StartMetrics(opts MetricsOptions) error {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	if PrometheusExporter != nil {
		_ = PrometheusExporter.Stop()
		PrometheusExporter = nil
		TelemetrySystem = nil
	}

	port := max(opts.Port, 0)
	exporter := exporters.NewPrometheusExporter(opts.Namespace, fmt.Sprintf(":%d", port))
	if err := exporter.Start(); err != nil {
		return fmt.Errorf("start prometheus exporter on :%d: %w", port, err)
	}

	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: exporter})
	if err != nil {
		_ = exporter.Stop()
		return fmt.Errorf("create telemetry system: %w", err)
	}

	metricsPort = boundPort(exporter.GetAddr(), port)
	PrometheusExporter = exporter
	TelemetrySystem = sys
	return nil
}

// InitMetrics starts metrics under serviceName, or under namespace[0] when
// one is given.
func InitMetrics(serviceName string, port int, namespace ...string) error {
	ns := serviceName
	if len(namespace) > 0 && namespace[0] != "" {
		ns = namespace[0]
	}
	return StartMetrics(MetricsOptions{Namespace: ns, Port: port})
}

// StopMetrics shuts the exporter down and clears TelemetrySystem so metric
// calls become no-ops. Safe to call when metrics never started.
func StopMetrics() error {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	exporter := PrometheusExporter
	PrometheusExporter = nil
	TelemetrySystem = nil
	metricsPort = 0
	if exporter == nil {
		return nil
	}
	return exporter.Stop()
}

// GetMetricsPort returns the port the exporter listens on, or 0 when
// metrics are off.
func GetMetricsPort() int {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	return metricsPort
}

// boundPort reads the listen port from addr. An unreadable address falls
// back to requested, or DefaultMetricsPort when requested was ephemeral.
func boundPort(addr string, requested int) int {
	if _, portStr, err := net.SplitHostPort(addr); err == nil {
		if p, err := strconv.Atoi(portStr); err == nil && p > 0 {
			return p
		}
	}
	if requested == 0 {
		return DefaultMetricsPort
	}
	return requested
}
