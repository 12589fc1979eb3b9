package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
	}{
		{nil, KindUnknown},
		{errors.New("plain"), KindUnknown},
		{&ValidationError{Fields: []string{"symbol"}}, KindValidation},
		{&UnknownToolError{Name: "x"}, KindUnknownTool},
		{&AccessDeniedError{Feature: "Options Data"}, KindAccessDenied},
		{&ProviderError{Message: "bad"}, KindProvider},
		{&RateLimitError{Message: "slow down"}, KindRateLimitExceeded},
		{&TransportError{Err: context.DeadlineExceeded}, KindTransport},
		{&NormalizationError{ExpectedKey: "feed"}, KindNormalization},
		{fmt.Errorf("invoke: %w", &RateLimitError{}), KindRateLimitExceeded},
	}

	for _, tc := range cases {
		require.Equal(t, tc.kind, KindOf(tc.err), "%v", tc.err)
	}
}

func TestErrorMessages(t *testing.T) {
	require.EqualError(t, &RateLimitError{Message: "Thank you for using Alpha Vantage!"}, "API Limit: Thank you for using Alpha Vantage!")
	require.EqualError(t, &ProviderError{Function: "OVERVIEW", StatusCode: 503, Message: "Service Unavailable"},
		"alpha vantage OVERVIEW failed: status 503: Service Unavailable")
	require.EqualError(t, &ValidationError{Tool: "get_stock_quote", Fields: []string{"symbol"}},
		"invalid arguments for get_stock_quote: symbol")
	require.EqualError(t, &NormalizationError{Tool: "get_stock_daily", ExpectedKey: "Time Series (Daily)"},
		`get_stock_daily: unexpected payload shape: missing "Time Series (Daily)"`)
	require.EqualError(t, &NormalizationError{Tool: "x", Err: errors.New("boom")}, "x: unexpected payload shape: boom")
}

func TestTransportErrorUnwraps(t *testing.T) {
	err := &TransportError{Function: "GLOBAL_QUOTE", Err: context.DeadlineExceeded}
	require.ErrorIs(t, err, context.DeadlineExceeded)

	var nilErr *TransportError
	require.Equal(t, "transport error", nilErr.Error())
}

func TestParamsEncode(t *testing.T) {
	params := Params{"function": "NEWS_SENTIMENT", "tickers": "", "limit": "50"}
	require.Equal(t, "NEWS_SENTIMENT", params.Function())
	require.Equal(t, "apikey=k&function=NEWS_SENTIMENT&limit=50", params.Encode("k"))
}

func TestPayloadGetEscapesKeys(t *testing.T) {
	payload := Payload(`{"Time Series (Daily)":{"a":1},"1. open":"x"}`)
	require.True(t, payload.Valid())
	require.True(t, payload.Get("Time Series (Daily)").IsObject())
	require.Equal(t, "x", payload.Get("1. open").String())
	require.False(t, Payload(`{`).Valid())
}
