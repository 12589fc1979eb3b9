package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/vantagegate/vantagegate/internal/core"
	"github.com/vantagegate/vantagegate/internal/core/tier"
	"github.com/vantagegate/vantagegate/internal/metrics"
)

const (
	// DefaultBaseURL is the Alpha Vantage query endpoint.
	DefaultBaseURL = "https://www.alphavantage.co/query"
	// DefaultTimeout bounds a single outbound request.
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 32 << 20
)

// Executor performs one provider request.
type Executor interface {
	Execute(ctx context.Context, params core.Params) (core.Payload, error)
}

// DispatchEvent describes one reserved dispatch slot.
type DispatchEvent struct {
	Function string
	At       time.Time
	Wait     time.Duration
}

// Scheduler spaces outbound requests by the tier's minimum delay and
// classifies provider responses.
//
// The zero value is not usable; APIKey and Policy must be set.
type Scheduler struct {
	Client     *http.Client
	BaseURL    string
	APIKey     string
	Policy     tier.Policy
	Timeout    time.Duration
	Clock      func() time.Time
	Sleep      func(ctx context.Context, d time.Duration) error
	Quota      *QuotaTracker
	Logger     *logging.Logger
	OnDispatch func(DispatchEvent)

	once sync.Once
	slot chan struct{}
	// last is guarded by slot.
	last time.Time
}

// Execute waits for the next dispatch slot, issues one GET and classifies the result.
func (s *Scheduler) Execute(ctx context.Context, params core.Params) (core.Payload, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	function := params.Function()

	if err := s.reserve(ctx, function); err != nil {
		metrics.RecordUpstreamRequest(function, string(core.KindTransport), 0)
		return nil, err
	}

	// Nothing may block between the reservation and the request.
	start := time.Now()
	payload, err := s.dispatch(ctx, params)
	outcome := "success"
	if err != nil {
		outcome = string(core.KindOf(err))
	}
	metrics.RecordUpstreamRequest(function, outcome, time.Since(start))

	s.recordUsage(ctx, function, err)

	if err != nil {
		s.logDebug("Upstream request failed",
			zap.String("function", function),
			zap.String("invocation_id", core.InvocationID(ctx)),
			zap.String("outcome", outcome),
			zap.Error(err))
		return nil, err
	}

	s.logDebug("Upstream request completed",
		zap.String("function", function),
		zap.String("invocation_id", core.InvocationID(ctx)),
		zap.Int("bytes", len(payload)),
		zap.Duration("duration", time.Since(start)))
	return payload, nil
}

// reserve computes the remaining spacing, waits it out and records the new
// dispatch instant. The whole sequence runs while holding the slot.
func (s *Scheduler) reserve(ctx context.Context, function string) error {
	s.once.Do(func() {
		s.slot = make(chan struct{}, 1)
	})

	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return &core.TransportError{Function: function, Err: fmt.Errorf("waiting for dispatch slot: %w", ctx.Err())}
	}
	defer func() { <-s.slot }()

	wait := s.Policy.MinDelay - s.now().Sub(s.last)
	if wait < 0 {
		wait = 0
	}
	if wait > 0 {
		if err := s.sleep(ctx, wait); err != nil {
			return &core.TransportError{Function: function, Err: fmt.Errorf("waiting for dispatch slot: %w", err)}
		}
	}

	s.last = s.now()
	metrics.RecordSchedulerWait(wait)
	if s.OnDispatch != nil {
		s.OnDispatch(DispatchEvent{Function: function, At: s.last, Wait: wait})
	}
	return nil
}

// recordUsage counts a dispatched request and marks provider throttling.
func (s *Scheduler) recordUsage(ctx context.Context, function string, err error) {
	if s.Quota == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if qerr := s.Quota.Record(ctx); qerr != nil {
		s.logWarn("Usage accounting failed", zap.String("function", function), zap.Error(qerr))
	}

	var throttled *core.RateLimitError
	if errors.As(err, &throttled) {
		if qerr := s.Quota.RecordThrottled(ctx); qerr != nil {
			s.logWarn("Usage accounting failed", zap.String("function", function), zap.Error(qerr))
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, params core.Params) (core.Payload, error) {
	function := params.Function()

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	// Once dispatched the request runs to completion or times out.
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	endpoint, err := s.endpoint(params)
	if err != nil {
		return nil, &core.TransportError{Function: function, Err: err}
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &core.TransportError{Function: function, Err: redact(err)}
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &core.TransportError{Function: function, Err: redact(err)}
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &core.TransportError{Function: function, Err: fmt.Errorf("read response: %w", redact(err))}
	}
	payload := core.Payload(body)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &core.RateLimitError{
			Function:   function,
			Message:    statusMessage(resp.StatusCode, payload),
			RetryAfter: retryAfter(resp, s.now()),
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &core.ProviderError{Function: function, StatusCode: resp.StatusCode, Message: statusMessage(resp.StatusCode, payload)}
	}

	if !payload.Valid() {
		return nil, &core.TransportError{Function: function, Err: errors.New("response is not valid JSON")}
	}

	if err := Classify(function, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Classify inspects a decoded payload for provider-declared failures.
func Classify(function string, payload core.Payload) error {
	root := payload.Root()
	if !root.IsObject() {
		return nil
	}

	if msg := payload.Get("Error Message"); msg.Exists() {
		return &core.ProviderError{Function: function, Message: msg.String()}
	}
	if note := payload.Get("Note"); note.Exists() {
		return &core.RateLimitError{Function: function, Message: note.String()}
	}

	info := payload.Get("Information")
	if !info.Exists() || !soleKey(root) {
		return nil
	}
	if mentionsRateLimit(info.String()) {
		return &core.RateLimitError{Function: function, Message: info.String()}
	}
	return &core.ProviderError{Function: function, Message: info.String()}
}

func soleKey(root gjson.Result) bool {
	count := 0
	root.ForEach(func(_, _ gjson.Result) bool {
		count++
		return count < 2
	})
	return count == 1
}

func mentionsRateLimit(message string) bool {
	lower := strings.ToLower(message)
	for _, marker := range []string{"rate limit", "call frequency", "requests per", "api call volume"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func statusMessage(status int, payload core.Payload) string {
	if payload.Valid() {
		for _, key := range []string{"Error Message", "Note", "Information", "message"} {
			if value := payload.Get(key); value.Exists() && value.String() != "" {
				return value.String()
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("unexpected status %d", status)
}

func (s *Scheduler) endpoint(params core.Params) (string, error) {
	base := strings.TrimSpace(s.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	parsed.RawQuery = params.Encode(s.APIKey)
	return parsed.String(), nil
}

// redact strips the request URL, which carries the API key, from client errors.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s request: %w", strings.ToLower(urlErr.Op), urlErr.Err)
	}
	return err
}

func (s *Scheduler) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) logDebug(msg string, fields ...zap.Field) {
	if s.Logger != nil {
		s.Logger.Debug(msg, fields...)
	}
}

func (s *Scheduler) logWarn(msg string, fields ...zap.Field) {
	if s.Logger != nil {
		s.Logger.Warn(msg, fields...)
	}
}
