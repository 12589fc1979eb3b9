package observability

import (
	"testing"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]string{
		"trace":   "TRACE",
		"debug":   "DEBUG",
		" INFO ":  "INFO",
		"warning": "WARN",
		"Warn":    "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"verbose": "INFO",
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestInitLoggers(t *testing.T) {
	require.NoError(t, InitCLILogger("vantagegate-test", true))
	require.NotNil(t, CLILogger)
	CLILogger.Debug("cli logger ready", zap.String("tier", "free"))

	require.NoError(t, InitServerLogger("vantagegate-test", LogOptions{Level: "debug", Namespace: "vantagegate_test"}))
	require.NotNil(t, ServerLogger)
	ServerLogger.Info("server logger ready",
		zap.String("tool", "get_stock_quote"),
		zap.Int("tools", 3))

	require.NoError(t, InitServerLogger("vantagegate-test", LogOptions{Level: "info", Profile: "simple"}))
	require.NotNil(t, ServerLogger)
}

func TestServerLoggerConfig(t *testing.T) {
	structured := serverLoggerConfig("vantagegate", LogOptions{Level: "warn", Namespace: "ns"})
	assert.Equal(t, logging.ProfileStructured, structured.Profile)
	assert.Equal(t, "WARN", structured.DefaultLevel)
	assert.Equal(t, "ns", structured.StaticFields["namespace"])
	require.Len(t, structured.Sinks, 1)
	assert.Equal(t, "stderr", structured.Sinks[0].Console.Stream)

	var names []string
	for _, mw := range structured.Middleware {
		names = append(names, mw.Name)
	}
	assert.Equal(t, []string{"correlation", "redact-secrets"}, names)

	simple := serverLoggerConfig("vantagegate", LogOptions{Profile: " SIMPLE "})
	assert.Equal(t, logging.ProfileSimple, simple.Profile)
	assert.Empty(t, simple.Middleware)
	assert.Equal(t, "stderr", simple.Sinks[0].Console.Stream)
}

func TestResolvePort(t *testing.T) {
	port, err := resolvePort("[::]:9464")
	require.NoError(t, err)
	assert.Equal(t, 9464, port)

	_, err = resolvePort("no-port")
	require.Error(t, err)
}

func TestCrucibleVersionAvailable(t *testing.T) {
	version := crucible.GetVersion()
	assert.NotEmpty(t, version.Gofulmen)
	assert.NotEmpty(t, version.Crucible)
}
