// Package logger provides the process-wide structured logger.
// It exposes the same leveled printf-style surface everywhere in the
// service; the backing zerolog instance is configured once at startup.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"dbscanner/pkg/config"
)

var zlog = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init configures the package logger from cfg. When a log file is set its
// directory is created and output goes to both stderr and the file.
// Rotation of the file is an external concern.
func Init(cfg config.LogConfig) error {
	zerolog.TimeFieldFormat = time.RFC3339

	out := io.Writer(os.Stderr)
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = zerolog.MultiLevelWriter(out, f)
	}

	zlog = zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
	return nil
}

// SetOutput redirects all output to w. Intended for tests.
func SetOutput(w io.Writer) {
	zlog = zerolog.New(w).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "", "info":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}

// Fatal logs at fatal level and exits.
// Arguments are handled in the manner of [fmt.Printf].
func Fatal(format string, args ...interface{}) {
	zlog.Fatal().Msgf(format, args...)
}

// Error logs at error level.
// Arguments are handled in the manner of [fmt.Printf].
func Error(format string, args ...interface{}) {
	zlog.Error().Msgf(format, args...)
}

// Warn logs at warn level.
// Arguments are handled in the manner of [fmt.Printf].
func Warn(format string, args ...interface{}) {
	zlog.Warn().Msgf(format, args...)
}

// Info logs at info level.
// Arguments are handled in the manner of [fmt.Printf].
func Info(format string, args ...interface{}) {
	zlog.Info().Msgf(format, args...)
}

// Debug logs at debug level.
// Arguments are handled in the manner of [fmt.Printf].
func Debug(format string, args ...interface{}) {
	zlog.Debug().Msgf(format, args...)
}

// Request returns an event for HTTP access logging so middleware can attach
// structured fields before the message.
func Request() *zerolog.Event {
	return zlog.Info()
}
