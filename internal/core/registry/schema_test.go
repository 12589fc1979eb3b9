package registry

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vantagegate/vantagegate/internal/core"
)

var testSchema = Schema{
	{Name: "symbol", Kind: KindString, Required: true, Upper: true},
	{Name: "interval", Kind: KindEnum, Enum: []string{"daily", "weekly"}, Default: "daily"},
	{Name: "limit", Kind: KindNumber, Default: float64(50), Min: bound(1), Max: bound(1000)},
	{Name: "tickers", Kind: KindStringList, Upper: true},
	{Name: "note", Kind: KindString},
}

func validationFields(t *testing.T, err error) []string {
	t.Helper()
	var validation *core.ValidationError
	require.True(t, errors.As(err, &validation), "expected ValidationError, got %v", err)
	return validation.Fields
}

func TestValidateAppliesDefaults(t *testing.T) {
	args, err := testSchema.Validate("t", map[string]any{"symbol": "ibm"})
	require.NoError(t, err)
	require.Equal(t, Args{"symbol": "IBM", "interval": "daily", "limit": float64(50)}, args)
}

func TestValidateBlankUsesDefault(t *testing.T) {
	args, err := testSchema.Validate("t", map[string]any{
		"symbol":   "ibm",
		"interval": "",
		"limit":    "  ",
		"tickers":  ",,",
		"note":     "",
	})
	require.NoError(t, err)
	require.Equal(t, Args{"symbol": "IBM", "interval": "daily", "limit": float64(50)}, args)

	schema := Schema{{Name: "topics", Kind: KindStringList, Default: []string{"technology"}}}
	args, err = schema.Validate("t", map[string]any{"topics": []any{}})
	require.NoError(t, err)
	require.Equal(t, []string{"technology"}, args.List("topics"))
}

func TestValidateCoercion(t *testing.T) {
	cases := []struct {
		name  string
		input map[string]any
		key   string
		want  any
	}{
		{"numeric string", map[string]any{"symbol": "IBM", "limit": "25"}, "limit", float64(25)},
		{"json number", map[string]any{"symbol": "IBM", "limit": json.Number("7")}, "limit", float64(7)},
		{"int", map[string]any{"symbol": "IBM", "limit": 3}, "limit", float64(3)},
		{"number as string", map[string]any{"symbol": 1234}, "symbol", "1234"},
		{"comma list", map[string]any{"symbol": "IBM", "tickers": "aapl, msft,,"}, "tickers", []string{"AAPL", "MSFT"}},
		{"array list", map[string]any{"symbol": "IBM", "tickers": []any{"aapl"}}, "tickers", []string{"AAPL"}},
		{"string slice", map[string]any{"symbol": "IBM", "tickers": []string{"tsla"}}, "tickers", []string{"TSLA"}},
		{"lower kept", map[string]any{"symbol": "IBM", "note": "Hello"}, "note", "Hello"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args, err := testSchema.Validate("t", tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.want, args[tc.key])
		})
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		input  map[string]any
		fields []string
	}{
		{"missing required", map[string]any{}, []string{"symbol"}},
		{"blank required", map[string]any{"symbol": "  "}, []string{"symbol"}},
		{"null required", map[string]any{"symbol": nil}, []string{"symbol"}},
		{"bad enum", map[string]any{"symbol": "IBM", "interval": "hourly"}, []string{"interval"}},
		{"below min", map[string]any{"symbol": "IBM", "limit": 0}, []string{"limit"}},
		{"above max", map[string]any{"symbol": "IBM", "limit": 1001}, []string{"limit"}},
		{"not a number", map[string]any{"symbol": "IBM", "limit": "many"}, []string{"limit"}},
		{"bad list", map[string]any{"symbol": "IBM", "tickers": []any{1}}, []string{"tickers"}},
		{"bool string", map[string]any{"symbol": true}, []string{"symbol"}},
		{"unknown and missing", map[string]any{"zeta": 1, "alpha": 2}, []string{"alpha", "symbol", "zeta"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args, err := testSchema.Validate("t", tc.input)
			require.Nil(t, args)
			require.Equal(t, tc.fields, validationFields(t, err))
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	_, err := testSchema.Validate("get_sma", map[string]any{"limit": 0})
	require.EqualError(t, err, "invalid arguments for get_sma: limit: must be at least 1; symbol: is required")
}

func TestDefaultsAreNotShared(t *testing.T) {
	schema := Schema{{Name: "topics", Kind: KindStringList, Default: []string{"technology"}}}

	first, err := schema.Validate("t", nil)
	require.NoError(t, err)
	first.List("topics")[0] = "mutated"

	second, err := schema.Validate("t", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"technology"}, second.List("topics"))
}

func TestJSONSchema(t *testing.T) {
	doc := testSchema.JSONSchema()

	require.Equal(t, "object", doc["type"])
	require.Equal(t, []string{"symbol"}, doc["required"])
	require.Equal(t, false, doc["additionalProperties"])

	props := doc["properties"].(map[string]any)
	require.Len(t, props, len(testSchema))
	require.Equal(t, map[string]any{"type": "number", "minimum": float64(1), "maximum": float64(1000), "default": float64(50)}, props["limit"])
	require.Equal(t, []string{"daily", "weekly"}, props["interval"].(map[string]any)["enum"])
	require.Equal(t, "array", props["tickers"].(map[string]any)["type"])

	empty := Schema{}.JSONSchema()
	_, hasRequired := empty["required"]
	require.False(t, hasRequired)
	require.NotNil(t, empty["properties"])
}
