package plog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Custom levels filling the gaps slog.Level leaves between its four
// standard levels, matching the vocabulary the engine logs at.
const (
	LevelDebug  = slog.LevelDebug
	LevelNotice = slog.Level(2)
	LevelInfo   = slog.LevelInfo
	LevelWarn   = slog.LevelWarn
	LevelError  = slog.LevelError
)

var levelNames = map[slog.Level]string{
	LevelNotice: "NOTICE",
}

func replaceLevelAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	if name, ok := levelNames[level]; ok {
		a.Value = slog.StringValue(name)
	}
	return a
}

// LevelDispatchHandler is a slog.Handler that writes log records to different
// handlers based on the record's level. Records below WARN (DEBUG, INFO and
// NOTICE) go to one handler, while WARN and above go to another.
type LevelDispatchHandler struct {
	stdoutHandler slog.Handler
	stderrHandler slog.Handler
}

// Enabled checks if the level is enabled for either of the underlying handlers.
func (h *LevelDispatchHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.stdoutHandler.Enabled(ctx, level) || h.stderrHandler.Enabled(ctx, level)
}

// Handle dispatches the record to the appropriate handler.
func (h *LevelDispatchHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		return h.stderrHandler.Handle(ctx, r)
	}
	return h.stdoutHandler.Handle(ctx, r)
}

// WithAttrs returns a new LevelDispatchHandler with the given attributes added.
func (h *LevelDispatchHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LevelDispatchHandler{
		stdoutHandler: h.stdoutHandler.WithAttrs(attrs),
		stderrHandler: h.stderrHandler.WithAttrs(attrs),
	}
}

// WithGroup returns a new LevelDispatchHandler with the given group.
func (h *LevelDispatchHandler) WithGroup(name string) slog.Handler {
	return &LevelDispatchHandler{
		stdoutHandler: h.stdoutHandler.WithGroup(name),
		stderrHandler: h.stderrHandler.WithGroup(name),
	}
}

var defaultLogger *slog.Logger
var quietMode atomic.Bool // Use an atomic bool for safe concurrent reads.
var currentLevel slog.LevelVar

// SetOutput allows redirecting the logger's output, primarily for testing.
func SetOutput(w io.Writer) {
	// When redirecting output for tests, ensure quiet mode is off
	// so that all levels are written to the provided writer.
	quietMode.Store(false)
	defaultLogger = slog.New(newDispatchHandler(w, w))
}

func newDispatchHandler(stdout, stderr io.Writer) *LevelDispatchHandler {
	opts := &slog.HandlerOptions{Level: &currentLevel, ReplaceAttr: replaceLevelAttr}
	return &LevelDispatchHandler{
		stdoutHandler: slog.NewTextHandler(stdout, opts),
		stderrHandler: slog.NewTextHandler(stderr, opts),
	}
}

// SetQuiet enables or disables quiet mode for the global logger.
// In quiet mode, Debug/Notice/Info level logs are suppressed.
func SetQuiet(quiet bool) {
	quietMode.Store(quiet)
}

// IsQuiet returns true if the global logger is in quiet mode.
func IsQuiet() bool {
	return quietMode.Load()
}

// SetLevel adjusts the minimum level the global logger will emit.
func SetLevel(level slog.Level) {
	currentLevel.Set(level)
}

// LevelFromString parses one of "debug", "notice", "info", "warn", "error"
// (case-insensitive) into a slog.Level.
func LevelFromString(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "notice":
		return LevelNotice, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func init() {
	currentLevel.Set(LevelInfo)
	defaultLogger = slog.New(newDispatchHandler(os.Stdout, os.Stderr))
}

// Debug logs a diagnostic message useful only for troubleshooting the engine itself.
func Debug(msg string, args ...any) {
	if quietMode.Load() {
		return
	}
	defaultLogger.Debug(msg, args...)
}

// Notice logs a noteworthy, non-error event, one step above routine progress.
func Notice(msg string, args ...any) {
	if quietMode.Load() {
		return
	}
	defaultLogger.Log(context.Background(), LevelNotice, msg, args...)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	if quietMode.Load() {
		return
	}
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message. Warnings are never suppressed by quiet mode.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message. Errors are never suppressed by quiet mode.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}
