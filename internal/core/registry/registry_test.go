package registry

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vantagegate/vantagegate/internal/core"
	"github.com/vantagegate/vantagegate/internal/core/engine"
	"github.com/vantagegate/vantagegate/internal/core/normalize"
	"github.com/vantagegate/vantagegate/internal/core/tier"
)

// fakeExecutor answers every function with a payload shaped for its normalizer.
type fakeExecutor struct {
	mu       sync.Mutex
	calls    []core.Params
	ids      []string
	payloads map[string]string
	err      error
}

func (f *fakeExecutor) Execute(ctx context.Context, params core.Params) (core.Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, params)
	f.ids = append(f.ids, core.InvocationID(ctx))
	if f.err != nil {
		return nil, f.err
	}
	if body, ok := f.payloads[params.Function()]; ok {
		return core.Payload(body), nil
	}
	return core.Payload(shapedPayload(params)), nil
}

func (f *fakeExecutor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeExecutor) last() core.Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func shapedPayload(params core.Params) string {
	function := params.Function()
	switch function {
	case "GLOBAL_QUOTE":
		return `{"Global Quote":{"01. symbol":"IBM","05. price":"1"}}`
	case "TIME_SERIES_DAILY":
		return `{"Time Series (Daily)":{}}`
	case "TIME_SERIES_INTRADAY":
		return `{"Time Series (` + params["interval"] + `)":{}}`
	case "TIME_SERIES_WEEKLY":
		return `{"Weekly Time Series":{}}`
	case "TIME_SERIES_MONTHLY":
		return `{"Monthly Time Series":{}}`
	case "CURRENCY_EXCHANGE_RATE":
		return `{"Realtime Currency Exchange Rate":{}}`
	case "DIGITAL_CURRENCY_DAILY":
		return `{"Time Series (Digital Currency Daily)":{}}`
	case "SMA", "RSI", "MACD", "BBANDS", "STOCH", "WILLR", "ATR":
		return `{"Technical Analysis: ` + function + `":{}}`
	case "NEWS_SENTIMENT":
		return `{"feed":[]}`
	case "OVERVIEW":
		return `{"Symbol":"IBM"}`
	case "EARNINGS":
		return `{"symbol":"IBM","annualEarnings":[]}`
	case "BALANCE_SHEET", "INCOME_STATEMENT", "CASH_FLOW":
		return `{"symbol":"IBM","annualReports":[]}`
	case "HISTORICAL_OPTIONS", "ETF_PROFILE", "REAL_TIME_QUOTE":
		return `{"data":[]}`
	default:
		return `{"name":"x","interval":"monthly","unit":"percent","data":[]}`
	}
}

// minimalArgs fills every required parameter with a valid value.
func minimalArgs(info ToolInfo) map[string]any {
	args := map[string]any{}
	required, _ := info.InputSchema["required"].([]string)
	props := info.InputSchema["properties"].(map[string]any)
	for _, name := range required {
		prop := props[name].(map[string]any)
		if values, ok := prop["enum"].([]string); ok {
			args[name] = values[0]
			continue
		}
		args[name] = "ibm"
	}
	return args
}

func TestListInvokeTotality(t *testing.T) {
	exec := &fakeExecutor{}
	reg := New(exec, tier.Enterprise)

	tools := reg.List()
	require.Len(t, tools, 26)

	for _, info := range tools {
		t.Run(info.Name, func(t *testing.T) {
			_, err := reg.Invoke(context.Background(), info.Name, minimalArgs(info))
			require.NoError(t, err)
		})
	}
}

func TestListOrderAndSchema(t *testing.T) {
	reg := New(&fakeExecutor{}, tier.Free)
	tools := reg.List()

	require.Equal(t, "get_stock_quote", tools[0].Name)
	require.Equal(t, "get_available_features", tools[len(tools)-1].Name)

	for _, info := range tools {
		require.Equal(t, "object", info.InputSchema["type"], info.Name)
		_, err := json.Marshal(info)
		require.NoError(t, err)
	}

	desc, ok := reg.Describe("get_bollinger_bands")
	require.True(t, ok)
	require.Equal(t, tier.CapabilityPremium, desc.Capability)

	_, ok = reg.Describe("get_everything")
	require.False(t, ok)
}

func TestInvokeUnknownTool(t *testing.T) {
	exec := &fakeExecutor{}
	_, err := New(exec, tier.Enterprise).Invoke(context.Background(), "get_everything", nil)

	var unknown *core.UnknownToolError
	require.True(t, errors.As(err, &unknown))
	require.Equal(t, "get_everything", unknown.Name)
	require.Zero(t, exec.count())
}

func TestInvokeMissingSymbol(t *testing.T) {
	exec := &fakeExecutor{}
	_, err := New(exec, tier.Free).Invoke(context.Background(), "get_stock_quote", map[string]any{})

	var validation *core.ValidationError
	require.True(t, errors.As(err, &validation))
	require.Equal(t, []string{"symbol"}, validation.Fields)
	require.Zero(t, exec.count())
}

func TestInvokeReportsAllBadFields(t *testing.T) {
	exec := &fakeExecutor{}
	_, err := New(exec, tier.Free).Invoke(context.Background(), "get_sma", map[string]any{
		"interval": "2min",
		"extra":    true,
	})

	var validation *core.ValidationError
	require.True(t, errors.As(err, &validation))
	require.Equal(t, []string{"extra", "interval", "symbol"}, validation.Fields)
	require.Zero(t, exec.count())
}

func TestGateBeforeNetwork(t *testing.T) {
	cases := []struct {
		name    string
		tool    string
		active  tier.Tier
		allowed bool
	}{
		{"premium tool on free", "get_company_overview", tier.Free, false},
		{"premium tool on premium", "get_company_overview", tier.Premium, true},
		{"enterprise tool on premium", "get_options_data", tier.Premium, false},
		{"enterprise tool on enterprise", "get_options_data", tier.Enterprise, true},
		{"free tool on free", "get_stock_quote", tier.Free, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exec := &fakeExecutor{}
			_, err := New(exec, tc.active).Invoke(context.Background(), tc.tool, map[string]any{"symbol": "IBM"})
			if tc.allowed {
				require.NoError(t, err)
				require.Equal(t, 1, exec.count())
				return
			}

			var denied *core.AccessDeniedError
			require.True(t, errors.As(err, &denied))
			require.Equal(t, tc.active.String(), denied.Active)
			require.Zero(t, exec.count())
		})
	}
}

func TestValidationBeforeGate(t *testing.T) {
	exec := &fakeExecutor{}
	_, err := New(exec, tier.Free).Invoke(context.Background(), "get_company_overview", map[string]any{})

	var validation *core.ValidationError
	require.True(t, errors.As(err, &validation), "expected ValidationError, got %v", err)
	require.Equal(t, []string{"symbol"}, validation.Fields)
	require.Zero(t, exec.count())
}

func TestAccessDeniedMessage(t *testing.T) {
	_, err := New(&fakeExecutor{}, tier.Free).Invoke(context.Background(), "get_company_overview", map[string]any{"symbol": "IBM"})
	require.EqualError(t, err, "Company Overview requires a Premium or Enterprise subscription (current tier: free)")
}

func TestProviderErrorPropagates(t *testing.T) {
	want := &core.ProviderError{Function: "GLOBAL_QUOTE", Message: "Invalid API call."}
	for _, name := range []string{"get_stock_quote", "get_stock_weekly", "get_etf_profile"} {
		exec := &fakeExecutor{err: want}
		_, err := New(exec, tier.Enterprise).Invoke(context.Background(), name, map[string]any{"symbol": "IBM"})

		var provider *core.ProviderError
		require.True(t, errors.As(err, &provider), name)
		require.Equal(t, "Invalid API call.", provider.Message)
	}
}

func TestInvokeBuildsProviderParams(t *testing.T) {
	exec := &fakeExecutor{}
	reg := New(exec, tier.Premium)
	ctx := context.Background()

	_, err := reg.Invoke(ctx, "get_stock_quote", map[string]any{"symbol": " msft "})
	require.NoError(t, err)
	require.Equal(t, core.Params{"function": "GLOBAL_QUOTE", "symbol": "MSFT"}, exec.last())

	_, err = reg.Invoke(ctx, "get_bollinger_bands", map[string]any{"symbol": "ibm", "timePeriod": "10"})
	require.NoError(t, err)
	require.Equal(t, core.Params{
		"function":    "BBANDS",
		"symbol":      "IBM",
		"interval":    "daily",
		"time_period": "10",
		"series_type": "close",
		"nbdevup":     "2",
		"nbdevdn":     "2",
	}, exec.last())

	_, err = reg.Invoke(ctx, "get_news_sentiment", map[string]any{"tickers": []any{"aapl", "msft"}, "limit": 10})
	require.NoError(t, err)
	require.Equal(t, "AAPL,MSFT", exec.last()["tickers"])
	require.Equal(t, "10", exec.last()["limit"])
	require.Equal(t, "", exec.last()["topics"])

	_, err = reg.Invoke(ctx, "get_exchange_rate", map[string]any{"fromCurrency": "usd", "toCurrency": "jpy"})
	require.NoError(t, err)
	require.Equal(t, "USD", exec.last()["from_currency"])
	require.Equal(t, "JPY", exec.last()["to_currency"])
}

func TestIntradayUsesIntervalKey(t *testing.T) {
	exec := &fakeExecutor{payloads: map[string]string{
		"TIME_SERIES_INTRADAY": `{"Time Series (5min)":{"2024-01-02 16:00:00":{"4. close":"1"}}}`,
	}}
	reg := New(exec, tier.Free)

	out, err := reg.Invoke(context.Background(), "get_stock_intraday", map[string]any{"symbol": "IBM"})
	require.NoError(t, err)
	require.Len(t, out.([]normalize.IntradayBar), 1)

	_, err = reg.Invoke(context.Background(), "get_stock_intraday", map[string]any{"symbol": "IBM", "interval": "60min"})
	var norm *core.NormalizationError
	require.True(t, errors.As(err, &norm))
	require.Equal(t, "get_stock_intraday", norm.Tool)
	require.Equal(t, "Time Series (60min)", norm.ExpectedKey)
}

func TestNormalizerPanicIsRecovered(t *testing.T) {
	desc := Descriptor{
		Name: "get_broken",
		Normalize: static(func(core.Payload) (any, error) {
			var m map[string]int
			m["boom"]++
			return nil, nil
		}),
	}

	out, err := normalizePayload(desc, Args{}, core.Payload(`{}`))
	require.Nil(t, out)
	require.Equal(t, core.KindNormalization, core.KindOf(err))
	require.Contains(t, err.Error(), "get_broken")
}

func TestLocalToolsNeverReachNetwork(t *testing.T) {
	exec := &fakeExecutor{}
	quota := &engine.QuotaTracker{
		Store:  engine.NewMemoryUsageStore(),
		Policy: tier.PolicyFor(tier.Free),
		Clock:  func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
	require.NoError(t, quota.Record(context.Background()))

	reg := New(exec, tier.Free, WithQuota(quota))

	out, err := reg.Invoke(context.Background(), "get_subscription_info", nil)
	require.NoError(t, err)
	info := out.(SubscriptionInfo)
	require.Equal(t, "free", info.Type)
	require.True(t, info.IsFree)
	require.Equal(t, int64(12000), info.RateLimitMs)
	require.Equal(t, 5, info.Limits.RequestsPerMinute)
	require.NotNil(t, info.Limits.RequestsPerDay)
	require.Equal(t, 500, *info.Limits.RequestsPerDay)
	require.NotNil(t, info.Usage)
	require.Equal(t, 1, info.Usage.MinuteCount)

	out, err = reg.Invoke(context.Background(), "get_available_features", map[string]any{})
	require.NoError(t, err)
	features := out.(Features)
	require.NotEmpty(t, features.Basic)
	require.Empty(t, features.Premium)
	require.Empty(t, features.Enterprise)

	require.Zero(t, exec.count())
}

func TestEnterpriseSubscriptionHasNoDailyLimit(t *testing.T) {
	info := New(&fakeExecutor{}, tier.Enterprise).Subscription(context.Background())
	require.Nil(t, info.Limits.RequestsPerDay)

	data, err := json.Marshal(info)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), `"requestsPerDay":null`))
}

func TestInvokeAllKeepsOrder(t *testing.T) {
	exec := &fakeExecutor{}
	reg := New(exec, tier.Free)

	calls := []Call{
		{Tool: "get_stock_quote", Args: map[string]any{"symbol": "IBM"}},
		{Tool: "get_company_overview", Args: map[string]any{"symbol": "IBM"}},
		{Tool: "get_nothing"},
		{Tool: "get_stock_daily", Args: map[string]any{"symbol": "IBM"}},
	}
	outcomes := reg.InvokeAll(context.Background(), calls, 3)

	require.Len(t, outcomes, 4)
	require.NoError(t, outcomes[0].Err)
	require.Equal(t, core.KindAccessDenied, core.KindOf(outcomes[1].Err))
	require.Equal(t, core.KindUnknownTool, core.KindOf(outcomes[2].Err))
	require.NoError(t, outcomes[3].Err)
	require.Equal(t, "get_stock_daily", outcomes[3].Call.Tool)
	require.Equal(t, 2, exec.count())
}

func TestInvokeAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExecutor{}
	outcomes := New(exec, tier.Free).InvokeAll(ctx, []Call{{Tool: "get_stock_quote", Args: map[string]any{"symbol": "IBM"}}}, 1)
	require.ErrorIs(t, outcomes[0].Err, context.Canceled)
	require.Zero(t, exec.count())
}

func TestInvokeCarriesInvocationID(t *testing.T) {
	exec := &fakeExecutor{}
	reg := New(exec, tier.Free)

	ctx := core.WithInvocationID(context.Background(), "req-7")
	_, err := reg.Invoke(ctx, "get_stock_quote", map[string]any{"symbol": "IBM"})
	require.NoError(t, err)

	_, err = reg.Invoke(context.Background(), "get_stock_quote", map[string]any{"symbol": "IBM"})
	require.NoError(t, err)

	require.Len(t, exec.ids, 2)
	require.Equal(t, "req-7", exec.ids[0])
	require.Len(t, exec.ids[1], 36)
}
