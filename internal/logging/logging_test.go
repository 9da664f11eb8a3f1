package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWithWriter_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "warn", "json")
	if err != nil {
		t.Fatalf("NewWithWriter: %v", err)
	}
	dropped := Component(log, "gateway")
	dropped.Info().Msg("dropped")
	kept := Component(log, "gateway")
	kept.Warn().Str("route", "api_report").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if got, want := len(lines), 1; got != want {
		t.Fatalf("lines=%d want %d: %q", got, want, buf.String())
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev["component"] != "gateway" || ev["route"] != "api_report" || ev["message"] != "kept" || ev["level"] != "warn" {
		t.Fatalf("unexpected event: %v", ev)
	}
	if _, ok := ev["time"]; !ok {
		t.Fatalf("missing timestamp: %v", ev)
	}
}

func TestNewWithWriter_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "debug", "text")
	if err != nil {
		t.Fatalf("NewWithWriter: %v", err)
	}
	log.Debug().Msg("hello")
	if out := buf.String(); !strings.Contains(out, "hello") || strings.HasPrefix(out, "{") {
		t.Fatalf("unexpected console output: %q", out)
	}
}

func TestNewWithWriter_BadLevel(t *testing.T) {
	t.Parallel()

	if _, err := NewWithWriter(&bytes.Buffer{}, "loud", "json"); err == nil {
		t.Fatalf("expected error")
	}
}
