package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gridfeed/gridfeed/internal/core"
	"github.com/gridfeed/gridfeed/internal/observability"
)

// Request metric names
const (
	RequestsTotal       = "api_requests_total"
	RequestDurationMs   = "api_request_duration_ms"
	ResponseSizeBytes   = "api_response_size_bytes"
	RequestErrorsTotal  = "api_request_errors_total"
	unknownEndpointName = "/unknown"
)

// responseWriter wraps http.ResponseWriter to capture status code and response size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// getEndpointPattern returns the chi route pattern so run ids never become
// metric labels.
func getEndpointPattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	path := r.URL.Path
	switch {
	case path == "/health" || strings.HasPrefix(path, "/health/"):
		return "/health/*"
	case path == "/version", path == "/metrics", path == "/":
		return path
	case path == "/v1/runs":
		return "/v1/runs"
	case strings.HasPrefix(path, "/v1/runs/") && strings.HasSuffix(path, "/failures"):
		return "/v1/runs/{runID}/{year}/failures"
	default:
		return unknownEndpointName
	}
}

// RequestMetrics records request count, latency and response size for every
// request and logs its completion on logger.
func RequestMetrics(logger core.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = core.NopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			endpoint := getEndpointPattern(r)
			status := strconv.Itoa(wrapped.statusCode)

			if sys := observability.TelemetrySystem; sys != nil {
				labels := map[string]string{
					"method":   r.Method,
					"endpoint": endpoint,
					"status":   status,
				}
				_ = sys.Counter(RequestsTotal, 1, labels)
				_ = sys.Histogram(RequestDurationMs, duration, labels)
				_ = sys.Gauge(ResponseSizeBytes, float64(wrapped.bytesWritten), map[string]string{
					"method":   r.Method,
					"endpoint": endpoint,
				})

				if wrapped.statusCode >= 400 {
					errorType := "client_error"
					if wrapped.statusCode >= 500 {
						errorType = "server_error"
					}
					_ = sys.Counter(RequestErrorsTotal, 1, map[string]string{
						"method":     r.Method,
						"endpoint":   endpoint,
						"status":     status,
						"error_type": errorType,
					})
				}
			}

			logger.Info("HTTP request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("endpoint", endpoint),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", duration),
				zap.Int64("response_size", wrapped.bytesWritten),
				zap.String("request_id", GetRequestID(r.Context())),
			)
		})
	}
}
