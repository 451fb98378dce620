package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with additional context and structured logging
type Logger struct {
	*slog.Logger
	component string
}

// Config holds logger configuration
type Config struct {
	Level     slog.Level
	Format    string // "json" or "text"
	Component string
	Handler   slog.Handler
	Output    io.Writer
}

// DefaultConfig returns sensible defaults for logging
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: "app",
		Handler:   slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New creates a new logger with the given configuration
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		opts := &slog.HandlerOptions{Level: config.Level}
		if strings.EqualFold(config.Format, "json") {
			handler = slog.NewJSONHandler(out, opts)
		} else {
			handler = slog.NewTextHandler(out, opts)
		}
	}

	logger := slog.New(handler)

	return &Logger{
		Logger:    logger,
		component: config.Component,
	}
}

// With returns a new logger with the given attributes
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		component: l.component,
	}
}

// WithComponent returns a new logger with a specific component name
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With(FieldComponent, component),
		component: component,
	}
}

// WithOperation returns a logger tagged with an operation name
func (l *Logger) WithOperation(op string) *Logger {
	return l.With(FieldOperation, op)
}

// WithError returns a logger carrying err
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.With(FieldError, err.Error())
}

// Info logs at Info level with component context
func (l *Logger) Info(msg string, args ...any) {
	l.Logger.Info(msg, append([]any{"component", l.component}, args...)...)
}

// InfoContext logs at Info level with context and component
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.Logger.InfoContext(ctx, msg, append([]any{"component", l.component}, args...)...)
}

// Warn logs at Warn level with component context
func (l *Logger) Warn(msg string, args ...any) {
	l.Logger.Warn(msg, append([]any{"component", l.component}, args...)...)
}

// WarnContext logs at Warn level with context and component
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.Logger.WarnContext(ctx, msg, append([]any{"component", l.component}, args...)...)
}

// Error logs at Error level with component context
func (l *Logger) Error(msg string, args ...any) {
	l.Logger.Error(msg, append([]any{"component", l.component}, args...)...)
}

// ErrorContext logs at Error level with context and component
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.Logger.ErrorContext(ctx, msg, append([]any{"component", l.component}, args...)...)
}

// Debug logs at Debug level with component context
func (l *Logger) Debug(msg string, args ...any) {
	l.Logger.Debug(msg, append([]any{"component", l.component}, args...)...)
}

// DebugContext logs at Debug level with context and component
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.Logger.DebugContext(ctx, msg, append([]any{"component", l.component}, args...)...)
}

// SetDefault sets the default logger for the application
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}

// Component returns the logger's component name
func (l *Logger) Component() string {
	return l.component
}
