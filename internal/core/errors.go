package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind classifies gateway failures.
type Kind string

const (
	KindUnknown           Kind = ""
	KindValidation        Kind = "validation"
	KindUnknownTool       Kind = "unknown_tool"
	KindAccessDenied      Kind = "access_denied"
	KindProvider          Kind = "provider"
	KindRateLimitExceeded Kind = "rate_limit_exceeded"
	KindTransport         Kind = "transport"
	KindNormalization     Kind = "normalization"
)

// ValidationError reports bad or missing tool arguments.
type ValidationError struct {
	Tool     string
	Fields   []string
	Problems []string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "invalid arguments"
	}
	msg := "invalid arguments"
	if e.Tool != "" {
		msg = fmt.Sprintf("invalid arguments for %s", e.Tool)
	}
	if len(e.Problems) > 0 {
		return msg + ": " + strings.Join(e.Problems, "; ")
	}
	if len(e.Fields) > 0 {
		return msg + ": " + strings.Join(e.Fields, ", ")
	}
	return msg
}

// UnknownToolError is returned when no tool is registered under Name.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	if e == nil {
		return "unknown tool"
	}
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// AccessDeniedError is returned when the active tier does not grant a tool's capability.
type AccessDeniedError struct {
	Feature  string
	Required string
	Active   string
}

func (e *AccessDeniedError) Error() string {
	if e == nil {
		return "access denied"
	}
	return fmt.Sprintf("%s requires a %s subscription (current tier: %s)", e.Feature, e.Required, e.Active)
}

// ProviderError is returned when the provider declares an error in its payload
// or responds with a non-2xx status.
type ProviderError struct {
	Function   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("alpha vantage %s failed: status %d: %s", e.Function, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("alpha vantage %s failed: %s", e.Function, e.Message)
}

// RateLimitError is returned when the provider signals throttling.
type RateLimitError struct {
	Function string
	Message  string
	// RetryAfter is the provider's Retry-After hint, zero when absent.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e == nil {
		return "API limit reached"
	}
	return "API Limit: " + e.Message
}

// TransportError wraps network, timeout and decode failures.
type TransportError struct {
	Function string
	Err      error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "transport error"
	}
	if e.Err == nil {
		return fmt.Sprintf("alpha vantage %s: transport error", e.Function)
	}
	return fmt.Sprintf("alpha vantage %s: %v", e.Function, e.Err)
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NormalizationError reports a payload whose shape did not match the operation.
type NormalizationError struct {
	Tool        string
	ExpectedKey string
	Err         error
}

func (e *NormalizationError) Error() string {
	if e == nil {
		return "unexpected payload shape"
	}
	msg := "unexpected payload shape"
	if e.ExpectedKey != "" {
		msg = fmt.Sprintf("unexpected payload shape: missing %q", e.ExpectedKey)
	}
	if e.Tool != "" {
		msg = fmt.Sprintf("%s: %s", e.Tool, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NormalizationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf returns the classification of err, looking through wrapping.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var (
		validation    *ValidationError
		unknownTool   *UnknownToolError
		accessDenied  *AccessDeniedError
		provider      *ProviderError
		rateLimit     *RateLimitError
		transport     *TransportError
		normalization *NormalizationError
	)

	switch {
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &unknownTool):
		return KindUnknownTool
	case errors.As(err, &accessDenied):
		return KindAccessDenied
	case errors.As(err, &rateLimit):
		return KindRateLimitExceeded
	case errors.As(err, &provider):
		return KindProvider
	case errors.As(err, &transport):
		return KindTransport
	case errors.As(err, &normalization):
		return KindNormalization
	default:
		return KindUnknown
	}
}
