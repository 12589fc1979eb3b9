package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagegate/vantagegate/internal/core/tier"
	"github.com/vantagegate/vantagegate/internal/mcpserver"
	"github.com/vantagegate/vantagegate/internal/observability"
	"github.com/vantagegate/vantagegate/internal/server"
	"github.com/vantagegate/vantagegate/internal/server/handlers"
)

func newGatewayServer(t *testing.T, active tier.Tier) (string, *http.Client) {
	t.Helper()
	require.NoError(t, observability.InitCLILogger("test", false))
	require.NoError(t, observability.InitServerLogger("test", observability.LogOptions{Level: "info"}))
	handlers.InitHealthManager("test")

	reg := newGateway(newUpstream(t).URL, active)
	mcpSrv, err := mcpserver.New(reg, mcpserver.Options{Version: "test"})
	require.NoError(t, err)

	ts, client := newTestServer(t, server.Dependencies{
		Registry: reg,
		MCP:      mcpSrv.HTTPHandler(),
		MCPPath:  "/mcp",
	}, nil)
	return ts.URL, client
}

func TestGatewayRESTQuote(t *testing.T) {
	baseURL, client := newGatewayServer(t, tier.Free)

	resp, err := client.Post(baseURL+"/v1/tools/get_stock_quote", "application/json", strings.NewReader(`{"symbol":"ibm"}`))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var decoded struct {
		Tool   string         `json:"tool"`
		Result map[string]any `json:"result"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "get_stock_quote", decoded.Tool)
	assert.Equal(t, "IBM", decoded.Result["symbol"])
	assert.Equal(t, "185.2500", decoded.Result["price"])
	assert.Equal(t, "2024-01-03", decoded.Result["latestTradingDay"])
}

func TestGatewayRESTAccessDenied(t *testing.T) {
	baseURL, client := newGatewayServer(t, tier.Free)

	resp, err := client.Post(baseURL+"/v1/tools/get_company_overview", "application/json", strings.NewReader(`{"symbol":"IBM"}`))
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGatewayMCPOverHTTP(t *testing.T) {
	baseURL, client := newGatewayServer(t, tier.Premium)
	ctx := context.Background()

	mcpClient := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "integration", Version: "test"}, nil)
	session, err := mcpClient.Connect(ctx, &mcpsdk.StreamableClientTransport{
		Endpoint:   baseURL + "/mcp",
		HTTPClient: client,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	listed, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, listed.Tools)

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      "get_stock_quote",
		Arguments: map[string]any{"symbol": "msft"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, `"symbol": "MSFT"`)

	failed, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      "get_company_overview",
		Arguments: map[string]any{"symbol": "IBM"},
	})
	require.NoError(t, err)
	assert.True(t, failed.IsError)
}
