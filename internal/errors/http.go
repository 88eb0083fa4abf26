package errors

import (
	"encoding/json"
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/gridfeed/gridfeed/internal/core"
	"github.com/gridfeed/gridfeed/internal/metrics"
)

// Error codes used only by the status API.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

func NewInvalidInputError(message string) *errors.ErrorEnvelope {
	env, _ := errors.NewErrorEnvelope(CodeInvalidInput, message).WithSeverity(errors.SeverityMedium)
	return env
}

func NewNotFoundError(message string) *errors.ErrorEnvelope {
	env, _ := errors.NewErrorEnvelope(CodeNotFound, message).WithSeverity(errors.SeverityMedium)
	return env
}

func NewMethodNotAllowedError(message string) *errors.ErrorEnvelope {
	env, _ := errors.NewErrorEnvelope(CodeMethodNotAllowed, message).WithSeverity(errors.SeverityMedium)
	return env
}

func NewServiceUnavailableError(message string) *errors.ErrorEnvelope {
	env, _ := errors.NewErrorEnvelope(CodeServiceUnavailable, message).WithSeverity(errors.SeverityHigh)
	return env
}

// HTTPStatusFromCode resolves the HTTP status code corresponding to an error code.
func HTTPStatusFromCode(code string) int {
	switch code {
	case CodeInvalidInput, CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeExternalService:
		return http.StatusBadGateway
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorDetail captures the error body returned to callers.
type HTTPErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// HTTPErrorResponse wraps HTTPErrorDetail in the standard envelope structure.
type HTTPErrorResponse struct {
	Error HTTPErrorDetail `json:"error"`
}

// RespondWithEnvelope writes envelope as a JSON error body tagged with
// requestID, logging it on logger and counting it by status code.
func RespondWithEnvelope(w http.ResponseWriter, logger core.Logger, requestID string, envelope *errors.ErrorEnvelope) {
	if w == nil {
		return
	}
	if envelope == nil {
		envelope = errors.NewErrorEnvelope(CodeInternal, "unexpected nil error")
	}
	if requestID != "" {
		envelope = envelope.WithCorrelationID(requestID)
	}

	statusCode := HTTPStatusFromCode(envelope.Code)
	logHTTPError(logger, envelope, statusCode)
	metrics.RecordHTTPError(envelope.Code, statusCode)

	response := HTTPErrorResponse{
		Error: HTTPErrorDetail{
			Code:      envelope.Code,
			Message:   envelope.Message,
			Details:   responseDetails(envelope),
			RequestID: envelope.CorrelationID,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func responseDetails(envelope *errors.ErrorEnvelope) map[string]interface{} {
	details := make(map[string]interface{})
	for key, value := range envelope.Details {
		details[key] = value
	}
	for key, value := range envelope.Context {
		if _, exists := details[key]; !exists {
			details[key] = value
		}
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

func logHTTPError(logger core.Logger, envelope *errors.ErrorEnvelope, statusCode int) {
	if logger == nil {
		return
	}

	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.Int("http_status", statusCode),
	}
	if envelope.Severity != "" {
		fields = append(fields, zap.String("severity", string(envelope.Severity)))
	}
	if envelope.CorrelationID != "" {
		fields = append(fields, zap.String("request_id", envelope.CorrelationID))
	}

	switch envelope.Severity {
	case errors.SeverityCritical, errors.SeverityHigh:
		logger.Error(envelope.Message, fields...)
	case errors.SeverityMedium:
		logger.Warn(envelope.Message, fields...)
	default:
		logger.Info(envelope.Message, fields...)
	}
}
