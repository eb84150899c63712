// Package logging configures zerolog for horizons-fetch diagnostics.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug adds handle reclaims and per-request completions.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs one line per issued request plus the run summary.
	LevelInfo LogLevel = "info"

	// LevelWarn logs responses without data and failed runs.
	LevelWarn LogLevel = "warn"

	// LevelError logs failed requests only.
	LevelError LogLevel = "error"
)

// Format selects the log encoding.
type Format string

const (
	// FormatConsole is human-readable output.
	FormatConsole Format = "console"

	// FormatJSON is one JSON object per line.
	FormatJSON Format = "json"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Format is the output encoding (default: console).
	Format Format

	// Output is the writer to output logs to (default: os.Stderr).
	// Standard output is reserved for the dataset.
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatConsole,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format != FormatJSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: true}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseFormat validates a log format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatConsole, "":
		return FormatConsole, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown log format %q (want console or json)", s)
	}
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Context Fields:
//   - component: fetch, sink, cli
//   - request: 1-based request sequence number (row-major over year, body)
//   - body_id: Horizons identifier of the target body
//   - year: grid year
//   - handle: connection handle id
//   - in_flight / free_handles: pool occupancy at issuance
//   - error_class: client, server, network, unexpected
//   - bytes: accumulated response size
