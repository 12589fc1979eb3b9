package observability

import (
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/logging"
)

var (
	// CLILogger is used for CLI commands (SIMPLE profile)
	CLILogger *logging.Logger

	// ServerLogger is used by serve and mcp (logging.profile, STRUCTURED by default)
	ServerLogger *logging.Logger
)

// LogOptions mirrors the logging section of the config.
type LogOptions struct {
	Level string
	// Profile is "simple" or "structured".
	Profile string
	// Namespace is attached to every structured entry when set.
	Namespace string
}

// InitCLILogger initializes the CLI logger with SIMPLE profile
func InitCLILogger(serviceName string, verbose bool) error {
	logger, err := logging.NewCLI(serviceName)
	if err != nil {
		return fmt.Errorf("initialize CLI logger: %w", err)
	}
	if verbose {
		logger.SetLevel(logging.DEBUG)
	}

	CLILogger = logger
	return nil
}

// InitServerLogger initializes the long-running logger. Output always goes to
// stderr because the stdio MCP transport owns stdout.
func InitServerLogger(serviceName string, opts LogOptions) error {
	logger, err := logging.New(serverLoggerConfig(serviceName, opts))
	if err != nil {
		return fmt.Errorf("initialize server logger: %w", err)
	}

	ServerLogger = logger
	return nil
}

func serverLoggerConfig(serviceName string, opts LogOptions) *logging.LoggerConfig {
	stderr := &logging.ConsoleSinkConfig{Stream: "stderr", Colorize: false}

	if parseLogProfile(opts.Profile) == logging.ProfileSimple {
		return &logging.LoggerConfig{
			Profile:      logging.ProfileSimple,
			DefaultLevel: parseLogLevel(opts.Level),
			Service:      serviceName,
			Environment:  "production",
			Sinks:        []logging.SinkConfig{{Type: "console", Format: "console", Console: stderr}},
		}
	}

	staticFields := make(map[string]any)
	if opts.Namespace != "" {
		staticFields["namespace"] = opts.Namespace
	}

	return &logging.LoggerConfig{
		Profile:      logging.ProfileStructured,
		DefaultLevel: parseLogLevel(opts.Level),
		Service:      serviceName,
		Environment:  "production",
		StaticFields: staticFields,
		Middleware: []logging.MiddlewareConfig{
			{Name: "correlation", Enabled: true, Order: 100, Config: make(map[string]any)},
			// Provider keys travel as apikey= query parameters.
			{Name: "redact-secrets", Enabled: true, Order: 200, Config: make(map[string]any)},
		},
		Sinks:            []logging.SinkConfig{{Type: "console", Format: "json", Console: stderr}},
		EnableCaller:     true,
		EnableStacktrace: true,
	}
}

func parseLogProfile(profile string) logging.LoggingProfile {
	if strings.EqualFold(strings.TrimSpace(profile), string(logging.ProfileSimple)) {
		return logging.ProfileSimple
	}
	return logging.ProfileStructured
}

// parseLogLevel converts string log level to logging severity string
func parseLogLevel(levelStr string) string {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "trace":
		return "TRACE"
	case "debug":
		return "DEBUG"
	case "info":
		return "INFO"
	case "warn", "warning":
		return "WARN"
	case "error":
		return "ERROR"
	default:
		return "INFO"
	}
}
