package observability

import (
	"io"
	"log/slog"
	"os"
)

// NewSDKLogger returns a JSON slog logger for libraries that only accept
// *slog.Logger. Output goes to stderr so stdout stays free for stdio transports.
func NewSDKLogger(serviceName string, logLevel string) *slog.Logger {
	return newSDKLogger(os.Stderr, serviceName, logLevel)
}

func newSDKLogger(w io.Writer, serviceName string, logLevel string) *slog.Logger {
	var level slog.Level
	switch parseLogLevel(logLevel) {
	case "TRACE", "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("service", serviceName))
}
