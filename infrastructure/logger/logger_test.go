package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

func TestNewWritesRotatingFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Outputs = []string{"file"}
	cfg.OutputFile = filepath.Join(dir, "app.log")
	cfg.ErrorFile = filepath.Join(dir, "err.log")

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	l.Info("hello")
	l.LogError(errors.New("boom"), map[string]interface{}{"symbol": "XYZ"})
	_ = l.Close()

	raw, err := os.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), "hello") || !strings.Contains(string(raw), "boom") {
		t.Fatalf("unexpected log content: %s", raw)
	}
	errRaw, err := os.ReadFile(cfg.ErrorFile)
	if err != nil {
		t.Fatalf("read error log: %v", err)
	}
	if strings.Contains(string(errRaw), "hello") || !strings.Contains(string(errRaw), "boom") {
		t.Fatalf("error file should only hold errors: %s", errRaw)
	}
}

func TestHelpersAttachFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Wrap(zap.New(core))

	l.LogOrder("order_placed", "abc", map[string]interface{}{"side": "BUY"})
	l.LogQuote("XYZ", map[string]interface{}{"bid": 99.9})
	l.LogRisk("quote_unsafe", nil)

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["order_id"]; got != "abc" {
		t.Fatalf("order_id missing: %v", entries[0].ContextMap())
	}
	if got := entries[1].ContextMap()["symbol"]; got != "XYZ" {
		t.Fatalf("symbol missing: %v", entries[1].ContextMap())
	}
	if entries[2].Level != zapcore.WarnLevel {
		t.Fatalf("risk events should be warnings, got %s", entries[2].Level)
	}
}
