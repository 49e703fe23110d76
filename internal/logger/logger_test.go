package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "DEBUG", "text", false)

	Info("hello", "worker", "w-1", "count", 42)

	out := buf.String()
	if !strings.Contains(out, "INFO") {
		t.Errorf("expected level in output, got %q", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "worker=w-1") || !strings.Contains(out, "count=42") {
		t.Errorf("expected attrs in output, got %q", out)
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "json", false)

	Info("batch leased", "count", 100)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "batch leased" {
		t.Errorf("expected msg field, got %v", entry["msg"])
	}
	if entry["count"] != float64(100) {
		t.Errorf("expected count field, got %v", entry["count"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text", false)

	Debug("should not appear")
	Info("should not appear either")
	Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("low-level entries leaked through: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("expected WARN entry in output, got %q", out)
	}
}

func TestInvalidLevelIgnored(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text", false)

	SetLevel("NOPE")

	Info("still works")
	if !strings.Contains(buf.String(), "still works") {
		t.Errorf("logger broken after invalid level: %q", buf.String())
	}
}
