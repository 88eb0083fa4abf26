package metrics

import (
	"strconv"

	"github.com/gridfeed/gridfeed/internal/observability"
)

// Failure counters. Both carry the canonical error code so CLI exits and
// API responses can be compared on one dashboard.
const (
	ErrorsTotalName     = "errors_total"
	HTTPErrorsTotalName = "api_errors_total"
)

// RecordError counts a command that exited with exitCode.
func RecordError(errorCode string, exitCode int) {
	countFailure(ErrorsTotalName, errorCode, "exit_code", exitCode)
}

// RecordHTTPError counts an error body the status API wrote.
func RecordHTTPError(errorCode string, statusCode int) {
	countFailure(HTTPErrorsTotalName, errorCode, "status", statusCode)
}

func countFailure(name, errorCode, codeLabel string, code int) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	_ = sys.Counter(name, 1, map[string]string{
		"error_code": errorCode,
		codeLabel:    strconv.Itoa(code),
	})
}
