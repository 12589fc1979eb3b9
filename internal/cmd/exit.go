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

	"github.com/vantagegate/vantagegate/internal/core"
)

// ExitWithCode exits the program with a semantic foundry exit code and logs the error.
// Pass a nil logger for failures before logger initialization.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		os.Exit(int(exitCode))
	}

	if logger == nil {
		writeExitStderr(info, msg, err)
		os.Exit(info.Code)
	}

	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_category", info.Category),
	}
	if info.RetryHint != "" {
		fields = append(fields, zap.String("retry_hint", info.RetryHint))
	}
	if envelope, ok := err.(*errors.ErrorEnvelope); ok {
		fields = append(fields,
			zap.String("error_code", envelope.Code),
			zap.String("error_message", envelope.Message),
			zap.String("correlation_id", envelope.CorrelationID),
		)
		if kind, ok := envelope.Details["kind"].(string); ok {
			fields = append(fields, zap.String("kind", kind))
		}
		if envelope.Context != nil {
			fields = append(fields, zap.Any("error_context", envelope.Context))
		}
	}
	fields = append(fields, zap.Error(err))
	logger.Error(msg, fields...)

	os.Exit(info.Code)
}

// ExitWithCodeStderr is a variant that writes to stderr without a logger.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	ExitWithCode(nil, exitCode, msg, err)
}

func writeExitStderr(info foundry.ExitCodeInfo, msg string, err error) {
	var envelope *errors.ErrorEnvelope
	switch {
	case err == nil:
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
	case stderrors.As(err, &envelope):
		fmt.Fprintf(os.Stderr, "FATAL: %s [%s]: %s (correlation: %s)\n",
			msg, envelope.Code, envelope.Message, envelope.CorrelationID)
	default:
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	}
	fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
}

// exitCodeFor maps a failed tool call to a process exit code by error kind.
func exitCodeFor(err error) foundry.ExitCode {
	switch core.KindOf(err) {
	case core.KindValidation:
		return foundry.ExitInvalidArgument
	case core.KindUnknownTool:
		return foundry.ExitUsage
	case core.KindAccessDenied:
		return foundry.ExitAuthorizationFailed
	case core.KindRateLimitExceeded:
		return foundry.ExitResourceExhausted
	case core.KindProvider:
		return foundry.ExitExternalServiceUnavailable
	case core.KindTransport:
		if stderrors.Is(err, context.DeadlineExceeded) {
			return foundry.ExitOperationTimeout
		}
		return foundry.ExitExternalServiceUnavailable
	case core.KindNormalization:
		return foundry.ExitDataInvalid
	default:
		return foundry.ExitFailure
	}
}
