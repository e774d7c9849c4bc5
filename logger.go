package radtk

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with radtk-specific helpers. Components take
// an injected *Logger so they stay silent (and testable) by default.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is
// nil, a text handler to stderr at Info level is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithInput adds an input path field to the logger.
func (l *Logger) WithInput(path string) *Logger {
	return &Logger{Logger: l.Logger.With("input", path)}
}

// LogCat logs the outcome of a concatenation.
func (l *Logger) LogCat(output string, inputs int, chunks uint64, err error) {
	if err != nil {
		l.Error("cat failed", "output", output, "inputs", inputs, "error", err)
	} else {
		l.Info("cat completed", "output", output, "inputs", inputs, "chunks", chunks)
	}
}

// LogSplit logs the outcome of a split.
func (l *Logger) LogSplit(prefix string, files int, records uint64, err error) {
	if err != nil {
		l.Error("split failed", "prefix", prefix, "error", err)
	} else {
		l.Info("split completed", "prefix", prefix, "files", files, "records", records)
	}
}

// LogView logs the outcome of a render.
func (l *Logger) LogView(input string, records uint64, err error) {
	if err != nil {
		l.Error("view failed", "input", input, "error", err)
	} else {
		l.Info("view completed", "input", input, "records", records)
	}
}
