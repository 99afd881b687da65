// Package logging configures the process-wide zerolog logger. JSON to
// stderr by default; console output for local development.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Setup initializes the global log level and returns the root logger.
// Unknown levels fall back to info.
func Setup(level string, pretty bool) zerolog.Logger {
	return SetupWriter(level, pretty, os.Stderr)
}

// SetupWriter is Setup with an explicit output, for tests.
func SetupWriter(level string, pretty bool, out io.Writer) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(level))
	zerolog.TimeFieldFormat = time.RFC3339

	if pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
