// ABOUTME: Structured logging configuration using log/slog.
// ABOUTME: Init sets the default logger; OpenDebugLog routes it to a file while the TUI owns the terminal.

package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DebugLogName is the file the TUI logs to inside the config directory
const DebugLogName = "debug.log"

// Init configures the default slog logger writing to w.
// level: debug, info, warn, error (default: info)
// format: text, json (default: text)
func Init(w io.Writer, level, format string) *slog.Logger {
	l := New(w, level, format)
	slog.SetDefault(l)
	return l
}

// New builds a logger without installing it as the default
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// OpenDebugLog points the default logger at <configDir>/debug.log.
// The returned function closes the file and restores the previous default logger.
// If configDir is empty, logging is discarded.
func OpenDebugLog(configDir, level string) (func(), error) {
	previous := slog.Default()
	restore := func() { slog.SetDefault(previous) }

	if configDir == "" {
		Init(io.Discard, level, "text")
		return restore, nil
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return restore, err
	}

	f, err := os.OpenFile(filepath.Join(configDir, DebugLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return restore, err
	}

	Init(f, level, "text")
	return func() {
		restore()
		f.Close()
	}, nil
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
