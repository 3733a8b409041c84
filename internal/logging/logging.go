// Package logging provides structured logging using Go's slog package.
//
// Diagnostics go to stderr so that comparison reports and dumps written to
// stdout can be piped or diffed without interleaved log records.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger
)

func init() {
	// Quiet by default: only warnings and errors, human-readable
	InitLogger(os.Stderr, LevelWarn, FormatText)
}

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatText outputs logs in human-readable text format.
	FormatText Format = iota
	// FormatJSON outputs logs in JSON format.
	FormatJSON
)

// ParseLevel converts a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelWarn, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat converts a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q", s)
}

// InitLogger initializes the global logger with the specified output, level and format.
func InitLogger(w io.Writer, level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize timestamp format
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// ContainerOpened logs a successfully opened container.
func ContainerOpened(path, engine string, variables, attributes int, args ...any) {
	allArgs := []any{
		"path", path,
		"engine", engine,
		"variables", variables,
		"attributes", attributes,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("container_opened", allArgs...)
}

// EngineSelected logs which storage engine handles a path.
func EngineSelected(path, engine string, forced bool) {
	defaultLogger.Debug("engine_selected", "path", path, "engine", engine, "forced", forced)
}

// EntryReadError logs a failure to read a single variable or attribute.
func EntryReadError(entry, name, path string, err error, args ...any) {
	allArgs := []any{
		"entry", entry,
		"name", name,
		"path", path,
		"error", err.Error(),
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Warn("entry_read_error", allArgs...)
}

// ToolInvocation logs an external tool run.
func ToolInvocation(tool string, args []string, duration time.Duration, err error) {
	allArgs := []any{
		"tool", tool,
		"args", strings.Join(args, " "),
		"duration_ms", duration.Milliseconds(),
	}
	if err != nil {
		allArgs = append(allArgs, "error", err.Error())
		defaultLogger.Warn("tool_invocation", allArgs...)
		return
	}
	defaultLogger.Debug("tool_invocation", allArgs...)
}
