package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "trace", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "fatal", want: slog.LevelError},
		{in: "bogus", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		fn       func(*slog.Logger)
		contains []string
		excludes []string
	}{
		{
			name:     "debug logs show in debug level",
			level:    "debug",
			fn:       func(l *slog.Logger) { l.Debug("debug message") },
			contains: []string{"debug message", `"level":"DEBUG"`},
		},
		{
			name:     "debug logs don't show in info level",
			level:    "info",
			fn:       func(l *slog.Logger) { l.Debug("debug message") },
			excludes: []string{"debug message"},
		},
		{
			name:     "warn logs show in info level",
			level:    "info",
			fn:       func(l *slog.Logger) { l.Warn("warn message") },
			contains: []string{"warn message", `"level":"WARN"`},
		},
		{
			name:     "warn logs don't show in error level",
			level:    "error",
			fn:       func(l *slog.Logger) { l.Warn("warn message") },
			excludes: []string{"warn message"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.fn(NewLoggerWithWriter(&buf, tt.level, "json"))

			out := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("log output %q missing %q", out, want)
				}
			}
			for _, dontWant := range tt.excludes {
				if strings.Contains(out, dontWant) {
					t.Errorf("log output should not contain %q", dontWant)
				}
			}
		})
	}
}

func TestLogFormats(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		NewLoggerWithWriter(&buf, "info", "json").Info("hello", "method", "GET")

		var entry map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("json format produced invalid JSON: %v", err)
		}
		if entry["msg"] != "hello" || entry["method"] != "GET" {
			t.Errorf("unexpected entry %v", entry)
		}
	})

	for _, format := range []string{"text", "dev"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			NewLoggerWithWriter(&buf, "info", format).Info("hello", "method", "GET")

			if !strings.Contains(buf.String(), "msg=hello method=GET") {
				t.Errorf("unexpected text output %q", buf.String())
			}
		})
	}
}
