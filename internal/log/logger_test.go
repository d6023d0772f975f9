package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func reset() {
	logger = nil
	once = *new(sync.Once)
}

func TestSetupWritesToGivenWriter(t *testing.T) {
	reset()
	t.Cleanup(reset)

	var buf bytes.Buffer
	Setup("DEBUG", "json", &buf)
	Debug("debug line", "k", "v")

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode JSON: %v (%q)", err, buf.String())
	}
	if out["msg"] != "debug line" {
		t.Errorf("Expected msg 'debug line', got %v", out["msg"])
	}
	if out["k"] != "v" {
		t.Errorf("Expected k 'v', got %v", out["k"])
	}
}

func TestSetupTextFormat(t *testing.T) {
	reset()
	t.Cleanup(reset)

	var buf bytes.Buffer
	Setup("info", "text", &buf)
	Info("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Errorf("Expected text handler output, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger = slog.New(slog.NewJSONHandler(&buf, nil))
	t.Cleanup(reset)

	WithComponent("mcp").Info("hello")
	WithTool("render_animation").Info("tool msg")
	WithRender("r-1").Info("render msg")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 log lines, got %d", len(lines))
	}

	wantFields := []struct{ key, value string }{
		{"component", "mcp"},
		{"tool", "render_animation"},
		{"render_id", "r-1"},
	}
	for i, want := range wantFields {
		var out map[string]any
		if err := json.Unmarshal([]byte(lines[i]), &out); err != nil {
			t.Fatalf("Failed to decode JSON: %v", err)
		}
		if out[want.key] != want.value {
			t.Errorf("Expected %s %q, got %v", want.key, want.value, out[want.key])
		}
	}
}
