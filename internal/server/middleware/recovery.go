package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/gridfeed/gridfeed/internal/core"
	apperrors "github.com/gridfeed/gridfeed/internal/errors"
)

// Recovery turns a handler panic into an INTERNAL_ERROR response. The stack
// trace goes to logger only.
func Recovery(logger core.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = core.NopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				requestID := GetRequestID(r.Context())
				logger.Error("Recovered handler panic",
					zap.String("request_id", requestID),
					zap.String("path", r.URL.Path),
					zap.Any("panic", recovered),
					zap.String("stack_trace", string(debug.Stack())))

				envelope := errors.NewErrorEnvelope(apperrors.CodeInternal, fmt.Sprintf("panic: %v", recovered))
				envelope, _ = envelope.WithSeverity(errors.SeverityCritical)
				apperrors.RespondWithEnvelope(w, logger, requestID, envelope)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
