// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelTrace logs per-batch detail and above.
	LevelTrace LogLevel = "trace"

	// LevelDebug logs per-run detail and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs lifecycle events and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a LogLevel to a zerolog.Level. Unknown values map to info.
func ParseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "trace":
		return zerolog.TraceLevel
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

// NewLogger creates a logger derived from the global one, tagged with the
// given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Trace: per-query events
//   - query opened with its match count
//   - run started with its tick
//
// Debug: per-run events
//   - parallel run summary (items, batch size, batches, duration)
//   - simulation frame stats
//   - tick source advances
//   - pool creation and close
//
// Info: lifecycle events
//   - compute pool initialized / shut down
//   - simulation start and summary
//
// Warn: refused operations that the caller can recover from
//   - access token conflicts
//
// Error: conditions that abort the current operation
//   - panics recovered from pool tasks (re-raised to the caller)
//
// Context Fields:
//   - component: emitting package
//   - iter: parallel iterator name
//   - items: result set size
//   - batch_size / batches: batching decision
//   - workers: pool capacity
//   - tick / window: change ticks
