package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gridfeed/gridfeed/internal/core"
)

func TestEnsureEnvelopeMapsDomainErrors(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-42")
	cause := stderrors.New("connection reset")

	tests := []struct {
		name string
		err  error
		code string
		exit foundry.ExitCode
	}{
		{"schema violation", &core.SchemaViolationError{Table: "laps", Missing: []string{"position"}}, CodeValidation, foundry.ExitFailure},
		{"invalid request", &core.InvalidRequestError{Reason: "identifier is required"}, CodeInvalidInput, foundry.ExitConfigInvalid},
		{"fetch failed", fmt.Errorf("season: %w", &core.FetchFailedError{Cause: cause}), CodeExternalService, foundry.ExitExternalServiceUnavailable},
		{"schedule failed", &core.ScheduleFetchFailedError{Year: 2020, Cause: cause}, CodeExternalService, foundry.ExitExternalServiceUnavailable},
		{"unknown", cause, CodeInternal, foundry.ExitFailure},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := EnsureEnvelope(ctx, tc.err)
			require.NotNil(t, env)
			require.Equal(t, tc.code, env.Code)
			require.Equal(t, "run-42", env.CorrelationID)
			require.Equal(t, tc.exit, ExitCodeFor(env))
		})
	}
}

func TestEnsureEnvelopePassesThroughEnvelopes(t *testing.T) {
	original := WrapDatabaseError(context.Background(), stderrors.New("locked"), "write laps")
	require.Same(t, original, EnsureEnvelope(context.Background(), fmt.Errorf("ctx: %w", original)))
	require.Equal(t, foundry.ExitFailure, ExitCodeFor(original))
}

func TestEnsureEnvelopeNil(t *testing.T) {
	env := EnsureEnvelope(context.Background(), nil)
	require.Equal(t, CodeInternal, env.Code)
	require.Equal(t, gferrors.SeverityCritical, env.Severity)
}

func TestCorrelationFallsBackToUUID(t *testing.T) {
	env := WrapConfigInvalid(context.Background(), stderrors.New("bad"), "config")
	require.Len(t, env.CorrelationID, 36)
	require.Equal(t, foundry.ExitConfigInvalid, ExitCodeFor(env))
}

func TestReportLogsOnErrorChannel(t *testing.T) {
	obsCore, logs := observer.New(zapcore.ErrorLevel)
	env := EnsureEnvelope(context.Background(), &core.SchemaViolationError{Table: "results", Missing: []string{"points"}})

	Report(zap.New(obsCore), env)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, CodeValidation, entries[0].ContextMap()["error_code"])
	require.Equal(t, "results", entries[0].ContextMap()["table"])
}
