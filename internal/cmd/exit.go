package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	errwrap "github.com/gridfeed/gridfeed/internal/errors"
)

// ExitWithCode logs err with foundry exit code metadata and exits.
// Errors that are not envelopes yet are converted first, so domain errors
// keep their codes; the envelope also goes to the error channel.
// logger may be nil for early failures.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		os.Exit(int(exitCode))
	}

	var envelope *errors.ErrorEnvelope
	if err != nil {
		envelope = errwrap.EnsureEnvelope(context.Background(), err)
		errwrap.Report(errorLog(), envelope)
	}

	if logger == nil {
		writeExitStderr(info.Code, info.Name, info.Description, msg, envelope, err)
		os.Exit(info.Code)
	}

	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_description", info.Description),
		zap.String("exit_category", info.Category),
	}
	if envelope != nil {
		fields = append(fields,
			zap.String("error_code", envelope.Code),
			zap.String("error_message", envelope.Message),
			zap.String("correlation_id", envelope.CorrelationID),
		)
		if envelope.Context != nil {
			fields = append(fields, zap.Any("error_context", envelope.Context))
		}
		err = unwrapOriginal(envelope, err)
	}
	fields = append(fields, zap.Error(err))
	logger.Error(msg, fields...)

	os.Exit(info.Code)
}

// ExitWithCodeStderr is a variant that writes to stderr without a logger.
// Use this for early failures before logger initialization.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: %s (exit code: %d)\n", msg, exitCode)
		}
		os.Exit(int(exitCode))
	}

	var envelope *errors.ErrorEnvelope
	if err != nil {
		_ = stderrors.As(err, &envelope)
	}
	writeExitStderr(info.Code, info.Name, info.Description, msg, envelope, err)
	os.Exit(info.Code)
}

func writeExitStderr(code int, name, description, msg string, envelope *errors.ErrorEnvelope, err error) {
	switch {
	case envelope != nil:
		fmt.Fprintf(os.Stderr, "FATAL: %s [%s]: %v (correlation: %s)\n",
			msg, envelope.Code, envelope.Message, envelope.CorrelationID)
		if original := unwrapOriginal(envelope, nil); original != nil {
			fmt.Fprintf(os.Stderr, "Underlying error: %v\n", original)
		}
	case err != nil:
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	default:
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
	}
	fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", code, name, description)
}

func unwrapOriginal(envelope *errors.ErrorEnvelope, fallback error) error {
	if envelope != nil && envelope.Original != nil {
		if originalErr, ok := envelope.Original.(error); ok {
			return originalErr
		}
	}
	return fallback
}
