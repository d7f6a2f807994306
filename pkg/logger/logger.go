package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Options controls the handler built by Setup.
type Options struct {
	Env    string
	Level  string
	Format string
	Output io.Writer
}

// Setup builds the process logger. JSON output is used in production or when
// Format is "json"; text output otherwise.
func Setup(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	level := ParseLevel(opts.Level)
	if opts.Level == "" {
		level = slog.LevelDebug
		if opts.Env == "production" {
			level = slog.LevelInfo
		}
	}

	var handler slog.Handler
	if opts.Env == "production" || strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
	return defaultLogger
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoggerWrapper returns the process logger, building a development one on
// first use when Setup has not run.
func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		return Setup(Options{Env: "development"})
	}
	return defaultLogger
}

// Discard returns a logger that drops everything, handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
