package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestInit(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	logger := Init("test-service", slog.LevelInfo)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNew_WritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "chartd", slog.LevelInfo)
	log.Debug("hidden")
	log.Info("rebuilt", slog.Int("panes", 3))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (debug filtered), got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if rec["service"] != "chartd" || rec["msg"] != "rebuilt" || rec["panes"] != float64(3) {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSessionID_RoundTrip(t *testing.T) {
	ctx := context.Background()

	// No session ID set
	if id := SessionID(ctx); id != "" {
		t.Errorf("expected empty session id, got %q", id)
	}

	ctx = WithSessionID(ctx, "BTCUSDT-1")
	if id := SessionID(ctx); id != "BTCUSDT-1" {
		t.Errorf("expected 'BTCUSDT-1', got %q", id)
	}
}

func TestAttrs(t *testing.T) {
	ctx := context.Background()

	if attrs := Attrs(ctx); attrs != nil {
		t.Errorf("expected nil attrs when no session id, got %v", attrs)
	}

	ctx = WithSessionID(ctx, "abc-123")
	attrs := Attrs(ctx)
	if len(attrs) != 1 {
		t.Fatalf("expected one attr, got %v", attrs)
	}
	a, ok := attrs[0].(slog.Attr)
	if !ok || a.Key != "session_id" || a.Value.String() != "abc-123" {
		t.Errorf("unexpected attr %v", attrs[0])
	}
}
