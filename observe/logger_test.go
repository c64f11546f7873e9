package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestLogger_WithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).With(F("resource", "lessons"))

	logger.Info(context.Background(), "fetched", F("count", 3))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e["resource"] != "lessons" {
		t.Errorf("resource = %v, want lessons", e["resource"])
	}
	if e["count"] != float64(3) {
		t.Errorf("count = %v, want 3", e["count"])
	}
	if e["msg"] != "fetched" || e["level"] != "info" {
		t.Errorf("unexpected msg/level: %v / %v", e["msg"], e["level"])
	}
	if _, ok := e["timestamp"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestLogger_WithDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLoggerWithWriter("info", &buf)
	_ = parent.With(F("scoped", true))

	parent.Info(context.Background(), "plain")

	entries := decodeLines(t, &buf)
	if _, ok := entries[0]["scoped"]; ok {
		t.Error("child field leaked into parent logger")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)
	ctx := context.Background()

	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["level"] != "warn" || entries[1]["level"] != "error" {
		t.Errorf("unexpected levels: %v, %v", entries[0]["level"], entries[1]["level"])
	}
}

func TestLogger_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf)

	logger.Info(context.Background(), "write",
		F("token", "abc.def.ghi"),
		F("payload", map[string]any{"name": "Lesson 1"}),
		F("resource", "lessons"),
	)

	e := decodeLines(t, &buf)[0]
	if e["token"] != "[REDACTED]" {
		t.Errorf("token = %v, want [REDACTED]", e["token"])
	}
	if e["payload"] != "[REDACTED]" {
		t.Errorf("payload = %v, want [REDACTED]", e["payload"])
	}
	if e["resource"] != "lessons" {
		t.Errorf("resource = %v, want lessons", e["resource"])
	}
}

func TestLogger_ErrorValuesAreStrings(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerWithWriter("info", &buf).Error(context.Background(), "failed", F("error", errors.New("boom")))

	if got := decodeLines(t, &buf)[0]["error"]; got != "boom" {
		t.Errorf("error = %v, want boom", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
