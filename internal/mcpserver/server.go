// Package mcpserver exposes the tool registry over the Model Context Protocol.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fulmenhq/gofulmen/logging"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/vantagegate/vantagegate/internal/core/registry"
)

// ServerName is the implementation name announced during initialization.
const ServerName = "vantagegate"

const instructions = "Alpha Vantage market data. Tools are gated by the configured subscription tier; " +
	"call get_subscription_info to see the active tier and request budget."

// Options configures a Server.
type Options struct {
	Version string
	Logger  *logging.Logger
	// SDKLogger receives protocol-level logs from the MCP SDK.
	SDKLogger *slog.Logger
}

// Server binds every registry tool to an MCP server.
type Server struct {
	registry *registry.Registry
	server   *mcpsdk.Server
	logger   *logging.Logger
}

// New registers the registry's tools on a fresh MCP server.
func New(reg *registry.Registry, opts Options) (*Server, error) {
	if reg == nil {
		return nil, fmt.Errorf("mcp server requires a tool registry")
	}

	impl := &mcpsdk.Implementation{
		Name:    ServerName,
		Version: opts.Version,
	}
	s := &Server{
		registry: reg,
		server: mcpsdk.NewServer(impl, &mcpsdk.ServerOptions{
			Instructions: instructions,
			Logger:       opts.SDKLogger,
		}),
		logger: opts.Logger,
	}

	for _, info := range reg.List() {
		s.server.AddTool(&mcpsdk.Tool{
			Name:        info.Name,
			Description: info.Description,
			InputSchema: info.InputSchema,
			Annotations: &mcpsdk.ToolAnnotations{ReadOnlyHint: true},
		}, s.handler(info.Name))
	}

	return s, nil
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcpsdk.Server {
	return s.server
}

// RunStdio serves a single client over stdin/stdout until ctx is done or
// the client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logInfo("Serving MCP over stdio", zap.Int("tools", len(s.registry.List())))
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// HTTPHandler returns a streamable HTTP handler bound to this server.
func (s *Server) HTTPHandler() http.Handler {
	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return s.server
	}, nil)
}

func (s *Server) handler(name string) mcpsdk.ToolHandler {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var raw json.RawMessage
		if req != nil && req.Params != nil {
			raw = req.Params.Arguments
		}

		args, err := decodeArguments(raw)
		if err != nil {
			return errorResult(fmt.Errorf("invalid arguments for %s: %w", name, err)), nil
		}

		result, err := s.registry.Invoke(ctx, name, args)
		if err != nil {
			return errorResult(err), nil
		}

		return successResult(result)
	}
}

// decodeArguments keeps numbers as json.Number so integer arguments survive
// schema coercion unchanged.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var args map[string]any
	if err := decoder.Decode(&args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	return args, nil
}

func successResult(result any) (*mcpsdk.CallToolResult, error) {
	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err)), nil
	}

	out := &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(text)}},
	}
	// Structured content must be a JSON object.
	if len(text) > 0 && text[0] == '{' {
		out.StructuredContent = json.RawMessage(text)
	}
	return out, nil
}

func errorResult(err error) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}
}

func (s *Server) logInfo(msg string, fields ...zap.Field) {
	if s.logger != nil {
		s.logger.Info(msg, fields...)
	}
}
