package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLoggerWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelInfo, "text", &buf)

	logger.Info("dispatch work", "work", 7)

	output := buf.String()
	if !strings.Contains(output, "dispatch work") {
		t.Errorf("expected 'dispatch work' in output, got: %s", output)
	}
	if !strings.Contains(output, "work=7") {
		t.Errorf("expected 'work=7' in output, got: %s", output)
	}
}

func TestNewLoggerWithWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelInfo, "JSON", &buf)

	logger.Info("dispatch work", "work", 7)

	output := buf.String()
	if !strings.Contains(output, `"msg":"dispatch work"`) {
		t.Errorf("expected JSON msg in output, got: %s", output)
	}
	if !strings.Contains(output, `"component":"preemptq"`) {
		t.Errorf("expected component attribute in output, got: %s", output)
	}
}

func TestNewLoggerWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelWarn, "text", &buf)

	logger.Debug("hidden")
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
