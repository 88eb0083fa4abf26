package errors

import (
	"context"
	stderrors "errors"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridfeed/gridfeed/internal/core"
	"github.com/gridfeed/gridfeed/internal/metrics"
)

// Error codes carried by envelopes.
const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeValidation      = "VALIDATION_FAILED"
	CodeDatabase        = "DATABASE_ERROR"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeInternal        = "INTERNAL_ERROR"
)

type runIDKey struct{}

// WithRunID tags ctx with the ingestion run id used as correlation id.
func WithRunID(ctx context.Context, runID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, runIDKey{}, runID)
}

// Wrap functions for existing errors
// These functions accept a context to pick up the ingestion run id

func WrapInvalidInput(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	envelope := wrap(ctx, CodeInvalidInput, err, message)
	envelope, _ = envelope.WithSeverity(errors.SeverityMedium)
	return envelope
}

func WrapValidationError(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	envelope := wrap(ctx, CodeValidation, err, message)
	envelope, _ = envelope.WithSeverity(errors.SeverityHigh)
	return envelope
}

func WrapDatabaseError(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	envelope := wrap(ctx, CodeDatabase, err, message)
	envelope, _ = envelope.WithSeverity(errors.SeverityHigh)
	return envelope
}

func WrapExternalService(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	envelope := wrap(ctx, CodeExternalService, err, message)
	envelope, _ = envelope.WithSeverity(errors.SeverityHigh)
	return envelope
}

func WrapConfigInvalid(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	envelope := wrap(ctx, CodeConfigInvalid, err, message)
	envelope, _ = envelope.WithSeverity(errors.SeverityCritical)
	return envelope
}

func wrap(ctx context.Context, code string, err error, message string) *errors.ErrorEnvelope {
	envelope := errors.NewErrorEnvelope(code, message)
	envelope = envelope.WithCorrelationID(extractCorrelationID(ctx))
	return withWrappedError(envelope, err)
}

// extractCorrelationID gets the run id from context, falls back to generating new UUID
func extractCorrelationID(ctx context.Context) string {
	if ctx != nil {
		if runID, ok := ctx.Value(runIDKey{}).(string); ok && runID != "" {
			return runID
		}
	}
	return uuid.New().String()
}

// EnsureEnvelope normalizes any error into a gofulmen ErrorEnvelope. Domain
// errors map onto their codes; anything else is INTERNAL_ERROR.
func EnsureEnvelope(ctx context.Context, err error) *errors.ErrorEnvelope {
	if err == nil {
		env := errors.NewErrorEnvelope(CodeInternal, "unexpected nil error")
		env, _ = env.WithSeverity(errors.SeverityCritical)
		return env
	}

	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) && envelope != nil {
		return envelope
	}

	var (
		violation *core.SchemaViolationError
		invalid   *core.InvalidRequestError
		fetch     *core.FetchFailedError
		schedule  *core.ScheduleFetchFailedError
	)
	switch {
	case stderrors.As(err, &violation):
		env := WrapValidationError(ctx, err, "table failed schema enforcement")
		if updated, ctxErr := env.WithContext(map[string]interface{}{
			"wrapped_error":   err.Error(),
			"table":           violation.Table,
			"missing_columns": violation.Missing,
		}); ctxErr == nil {
			env = updated
		}
		return env
	case stderrors.As(err, &invalid):
		return WrapInvalidInput(ctx, err, "invalid session request")
	case stderrors.As(err, &schedule):
		return WrapExternalService(ctx, err, "event schedule unavailable")
	case stderrors.As(err, &fetch):
		return WrapExternalService(ctx, err, "session fetch failed")
	}

	env := wrap(ctx, CodeInternal, err, "unexpected error")
	env, _ = env.WithSeverity(errors.SeverityHigh)
	return env
}

// ExitCodeFor resolves the process exit code for an envelope.
func ExitCodeFor(envelope *errors.ErrorEnvelope) foundry.ExitCode {
	if envelope == nil {
		return foundry.ExitFailure
	}
	switch envelope.Code {
	case CodeConfigInvalid, CodeInvalidInput:
		return foundry.ExitConfigInvalid
	case CodeExternalService:
		return foundry.ExitExternalServiceUnavailable
	default:
		return foundry.ExitFailure
	}
}

// Report logs the envelope on the error channel and records the error metric.
func Report(logger core.Logger, envelope *errors.ErrorEnvelope) {
	if envelope == nil {
		return
	}
	exitCode := ExitCodeFor(envelope)
	metrics.RecordError(envelope.Code, int(exitCode))

	if logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.String("correlation_id", envelope.CorrelationID),
	}
	if envelope.Severity != "" {
		fields = append(fields, zap.String("severity", string(envelope.Severity)))
	}
	for key, value := range envelope.Context {
		fields = append(fields, zap.Any(key, value))
	}
	logger.Error(envelope.Message, fields...)
}

func withWrappedError(envelope *errors.ErrorEnvelope, err error) *errors.ErrorEnvelope {
	if envelope == nil || err == nil {
		return envelope
	}

	updated, updateErr := envelope.WithContext(map[string]interface{}{
		"wrapped_error": err.Error(),
	})
	if updateErr != nil {
		return envelope
	}
	return updated
}
