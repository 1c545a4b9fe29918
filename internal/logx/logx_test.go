package logx

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Options{Out: &buf, Level: "warn", JSON: true})

	log.Info().Msg("dropped")
	log.Warn().Str("component", "session").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["message"] != "kept" {
		t.Errorf("message = %v, want kept", entry["message"])
	}
	if entry["component"] != "session" {
		t.Errorf("component = %v, want session", entry["component"])
	}
}

func TestNewLoggerBadLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Options{Out: &buf, Level: "loud", JSON: true})

	log.Debug().Msg("debug")
	log.Info().Msg("info")

	if strings.Contains(buf.String(), `"debug"`) {
		t.Errorf("debug should be filtered at default level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), `"info"`) {
		t.Errorf("info missing: %q", buf.String())
	}
}

func TestShortCaller(t *testing.T) {
	got := strings.TrimSpace(shortCaller(0, "/a/b/session.go", 42))
	if got != "session.go:42" {
		t.Errorf("shortCaller = %q", got)
	}
}
