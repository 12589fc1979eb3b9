package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagegate/vantagegate/internal/core"
	"github.com/vantagegate/vantagegate/internal/core/normalize"
	"github.com/vantagegate/vantagegate/internal/core/registry"
	"github.com/vantagegate/vantagegate/internal/core/tier"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":         FormatTable,
		"table":    FormatTable,
		"JSON":     FormatJSON,
		"yaml":     FormatYAML,
		"yml":      FormatYAML,
		"markdown": FormatMarkdown,
		"md":       FormatMarkdown,
	}
	for input, want := range cases {
		format, err := ParseFormat(input)
		require.NoError(t, err, input)
		require.Equal(t, want, format, input)
	}

	_, err := ParseFormat("csv")
	require.Error(t, err)
}

var sampleBars = []normalize.Bar{
	{Date: "2024-01-03", Open: "2", High: "3", Low: "1", Close: "2.5", Volume: "200"},
	{Date: "2024-01-02", Open: "1", High: "2", Low: "0.5", Close: "1.5", Volume: "100"},
}

func TestJSONFormatterKeepsRecordOrder(t *testing.T) {
	record := normalize.Record{{Key: "symbol", Value: "IBM"}, {Key: "assetType", Value: "Common Stock"}}

	rendered, err := NewFormatter(FormatJSON).FormatResult("get_company_overview", record)
	require.NoError(t, err)
	require.Equal(t, "{\n  \"symbol\": \"IBM\",\n  \"assetType\": \"Common Stock\"\n}", rendered)
}

func TestYAMLFormatter(t *testing.T) {
	record := normalize.Record{{Key: "symbol", Value: "IBM"}, {Key: "peRatio", Value: "21.5"}}

	rendered, err := NewFormatter(FormatYAML).FormatResult("get_company_overview", record)
	require.NoError(t, err)
	require.Equal(t, "symbol: IBM\npeRatio: \"21.5\"\n", rendered)

	rendered, err = NewFormatter(FormatYAML).FormatResult("get_stock_daily", sampleBars[:1])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rendered, "- date: \"2024-01-03\"\n  open: \"2\"\n"), rendered)
}

func TestTableFormatterRows(t *testing.T) {
	rendered, err := NewFormatter(FormatTable).FormatResult("get_stock_daily", sampleBars)
	require.NoError(t, err)

	lines := strings.Split(rendered, "\n")
	require.GreaterOrEqual(t, len(lines), 6)
	header := strings.ToLower(lines[1])
	assert.Less(t, strings.Index(header, "date"), strings.Index(header, "open"))
	assert.Less(t, strings.Index(header, "close"), strings.Index(header, "volume"))
	assert.Contains(t, rendered, "2024-01-03")
	assert.Contains(t, rendered, "2024-01-02")
}

func TestTableFormatterObjectWithItems(t *testing.T) {
	result := normalize.Economic{
		Name:     "Real Gross Domestic Product",
		Interval: "quarterly",
		Unit:     "billions of dollars",
		Data:     []normalize.EconomicDatapoint{{Date: "2024-01-01", Value: "22000"}},
	}

	rendered, err := NewFormatter(FormatTable).FormatResult("get_economic_indicator", result)
	require.NoError(t, err)
	assert.Contains(t, rendered, "Real Gross Domestic Product")
	assert.Contains(t, rendered, "22000")
	assert.NotContains(t, rendered, `[{"date"`)
}

func TestMarkdownFormatterTools(t *testing.T) {
	tools := registry.New(nil, tier.Free).List()

	rendered, err := NewFormatter(FormatMarkdown).FormatTools(tools)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rendered, "|"), rendered)
	assert.Contains(t, rendered, "get_options_data")
	assert.Contains(t, rendered, "enterprise")
}

func TestFormatOutcomes(t *testing.T) {
	outcomes := []registry.Outcome{
		{Call: registry.Call{Tool: "get_stock_quote", Args: map[string]any{"symbol": "IBM"}}, Result: map[string]string{"symbol": "IBM"}},
		{Call: registry.Call{Tool: "get_earnings"}, Err: &core.AccessDeniedError{Feature: "Earnings Data", Required: "Premium or Enterprise", Active: "free"}},
	}

	rendered, err := NewFormatter(FormatJSON).FormatOutcomes(outcomes)
	require.NoError(t, err)
	assert.Contains(t, rendered, `"ok": true`)
	assert.Contains(t, rendered, `"kind": "access_denied"`)

	rendered, err = NewFormatter(FormatTable).FormatOutcomes(outcomes)
	require.NoError(t, err)
	assert.Contains(t, rendered, "1/2 ok")
	assert.Contains(t, rendered, "access_denied")
}
