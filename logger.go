package shardfuse

import (
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with shardfuse-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogBuild logs a filter build.
func (l *Logger) LogBuild(keys int, duration time.Duration, err error) {
	if err != nil {
		l.Error("filter build failed",
			"keys", keys,
			"error", err,
		)
	} else {
		l.Debug("filter build completed",
			"keys", keys,
			"duration", duration,
		)
	}
}

// LogAppend logs a shard append.
func (l *Logger) LogAppend(prefix uint32, bytes int, err error) {
	if err != nil {
		l.Error("shard append failed",
			"prefix", prefix,
			"error", err,
		)
	} else {
		l.Debug("shard appended",
			"prefix", prefix,
			"bytes", bytes,
		)
	}
}

// LogLoad logs a sharded file load.
func (l *Logger) LogLoad(path string, shards uint32, err error) {
	if err != nil {
		l.Error("load failed",
			"path", path,
			"error", err,
		)
	} else {
		l.Info("sharded filter loaded",
			"path", path,
			"shards", shards,
		)
	}
}
