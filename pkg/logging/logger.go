package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const requestIDKey contextKey = "requestID"

const componentKey = "component"

// LevelTrace is below debug and only meant for debugging sessions
const LevelTrace = slog.LevelDebug - 4

var (
	level  = new(slog.LevelVar)
	logger atomic.Pointer[slog.Logger]
)

func init() {
	SetOutput(os.Stdout, false)
}

// SetOutput replaces the destination. json selects slog's JSON handler
// instead of the compact console format.
func SetOutput(w io.Writer, json bool) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = NewCompactHandler(w, opts)
	}
	logger.Store(slog.New(handler))
}

// SetLevel changes the logging level
func SetLevel(l slog.Level) {
	level.Set(l)
}

// ParseLevel maps trace, debug, info, warn or error to a level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// Configure sets level and output format on stdout
func Configure(levelName string, json bool) error {
	l, err := ParseLevel(levelName)
	if err != nil {
		return err
	}
	SetLevel(l)
	SetOutput(os.Stdout, json)
	return nil
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// Helper function to add request ID to log attributes if present
func withRequestID(ctx context.Context, args []any) []any {
	requestID := GetRequestID(ctx)
	if requestID != "" {
		return append([]any{"requestID", requestID}, args...)
	}
	return args
}

// Logger tags every record with a component name.
type Logger struct {
	component string
}

// New returns a logger for the named component
func New(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) slog() *slog.Logger {
	return logger.Load().With(componentKey, l.component)
}

func (l *Logger) log(ctx context.Context, lvl slog.Level, msg string, args []any) {
	base := logger.Load()
	if !base.Enabled(ctx, lvl) {
		return
	}
	l.slog().Log(ctx, lvl, msg, withRequestID(ctx, args)...)
}

// Trace logs at TRACE level (very verbose, debug-time only)
func (l *Logger) Trace(msg string, args ...any) {
	l.log(context.Background(), LevelTrace, msg, args)
}

// Debug logs at DEBUG level (internal component behavior)
func (l *Logger) Debug(msg string, args ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, args)
}

// DebugContext logs at DEBUG level with context
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args)
}

// Info logs at INFO level (user-facing operations)
func (l *Logger) Info(msg string, args ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, args)
}

// InfoContext logs at INFO level with context
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args)
}

// Warn logs at WARN level (should be monitored)
func (l *Logger) Warn(msg string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, args)
}

// WarnContext logs at WARN level with context
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args)
}

// Error logs at ERROR level (logical bugs that shouldn't happen)
func (l *Logger) Error(msg string, args ...any) {
	l.log(context.Background(), slog.LevelError, msg, args)
}

// ErrorContext logs at ERROR level with context
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, args)
}

// Fatal logs at ERROR level and exits (unrecoverable bugs)
func (l *Logger) Fatal(msg string, args ...any) {
	l.log(context.Background(), slog.LevelError, msg, args)
	os.Exit(1)
}
