// ABOUTME: Tests for logger configuration
// ABOUTME: Validates level parsing, formats and the debug log file

package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info", "json")

	l.Info("hello", "invoice", "INV-1")
	l.Debug("hidden")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" || entry["invoice"] != "INV-1" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNew_TextFormatRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", "text")

	l.Info("quiet")
	l.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info message should be filtered: %q", out)
	}
	if !strings.Contains(out, "msg=loud") {
		t.Errorf("expected warn message in text format: %q", out)
	}
}

func TestOpenDebugLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")
	before := slog.Default()

	closeLog, err := OpenDebugLog(dir, "debug")
	if err != nil {
		t.Fatalf("OpenDebugLog() error = %v", err)
	}
	slog.Debug("written to file", "page", 2)
	closeLog()

	if slog.Default() != before {
		t.Error("expected previous default logger to be restored")
	}

	data, err := os.ReadFile(filepath.Join(dir, DebugLogName))
	if err != nil {
		t.Fatalf("reading debug log: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("expected message in debug log, got %q", data)
	}
}

func TestOpenDebugLog_EmptyDirDiscards(t *testing.T) {
	closeLog, err := OpenDebugLog("", "info")
	if err != nil {
		t.Fatalf("OpenDebugLog() error = %v", err)
	}
	defer closeLog()
	slog.Info("nowhere")
}
