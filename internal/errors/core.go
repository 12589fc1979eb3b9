package errors

import (
	"context"
	stderrors "errors"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/vantagegate/vantagegate/internal/core"
)

// FromCore converts a gateway error into an envelope carrying the error kind
// and the fields callers need to act on it.
func FromCore(ctx context.Context, err error) *errors.ErrorEnvelope {
	if err == nil {
		return EnsureEnvelope(nil)
	}

	var envelope *errors.ErrorEnvelope
	details := map[string]interface{}{}

	var (
		validation    *core.ValidationError
		unknownTool   *core.UnknownToolError
		accessDenied  *core.AccessDeniedError
		provider      *core.ProviderError
		rateLimit     *core.RateLimitError
		transport     *core.TransportError
		normalization *core.NormalizationError
	)

	switch {
	case stderrors.As(err, &validation):
		envelope = WrapValidationError(ctx, err, err.Error())
		details["tool"] = validation.Tool
		details["fields"] = validation.Fields
	case stderrors.As(err, &unknownTool):
		envelope = WrapNotFound(ctx, err, err.Error())
		details["tool"] = unknownTool.Name
	case stderrors.As(err, &accessDenied):
		envelope = WrapForbidden(ctx, err, err.Error())
		details["feature"] = accessDenied.Feature
		details["required_tier"] = accessDenied.Required
		details["active_tier"] = accessDenied.Active
	case stderrors.As(err, &rateLimit):
		envelope = WrapRateLimited(ctx, err, err.Error())
		details["function"] = rateLimit.Function
		if rateLimit.RetryAfter > 0 {
			details["retry_after_ms"] = rateLimit.RetryAfter.Milliseconds()
		}
	case stderrors.As(err, &provider):
		envelope = WrapExternalService(ctx, err, err.Error())
		details["function"] = provider.Function
		if provider.StatusCode > 0 {
			details["status_code"] = provider.StatusCode
		}
	case stderrors.As(err, &transport):
		if stderrors.Is(err, context.DeadlineExceeded) {
			envelope = WrapTimeout(ctx, transport.Err, err.Error())
		} else {
			envelope = WrapExternalService(ctx, transport.Err, err.Error())
		}
		details["function"] = transport.Function
	case stderrors.As(err, &normalization):
		envelope = WrapDataProcessing(ctx, err, err.Error())
		details["tool"] = normalization.Tool
		if normalization.ExpectedKey != "" {
			details["expected_key"] = normalization.ExpectedKey
		}
	default:
		return EnsureCorrelationID(EnsureEnvelope(err), ctx)
	}

	details["kind"] = string(core.KindOf(err))
	return envelope.WithDetails(details)
}
