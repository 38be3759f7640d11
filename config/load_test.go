package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, `
env: dev
strategy:
  rolling_window: 20
  quantile_threshold: 0.25
  tick_size: 0.25
hunter:
  enabled: true
  barInterval: 5m
  params:
    tick_lookback: 7
symbols:
  ESZ4:
    tickSize: 0.25
    stepSize: 1
    minQty: 1
    maxQty: 1000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Env != "dev" || cfg.Symbols["ESZ4"].TickSize != 0.25 {
		t.Fatalf("unexpected cfg values: %+v", cfg)
	}
	if cfg.Strategy.RollingWindow != 20 || cfg.Strategy.QuantileThreshold != 0.25 {
		t.Fatalf("strategy overrides not applied: %+v", cfg.Strategy)
	}
	// 未出现的字段保持默认值
	if cfg.Strategy.ImpactMultiplier != 2.5 || cfg.Strategy.MaxQuoteSize != 1000 {
		t.Fatalf("defaults lost: %+v", cfg.Strategy)
	}
	if !cfg.Hunter.Enabled || cfg.Hunter.BarInterval != 5*time.Minute || cfg.Hunter.Params.TickLookback != 7 {
		t.Fatalf("hunter config not applied: %+v", cfg.Hunter)
	}
	if cfg.Hunter.Params.MaxHoldSeconds != 15 {
		t.Fatalf("hunter default lost: %+v", cfg.Hunter.Params)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, `
env: prod
journal:
  enabled: true
  path: /tmp/a.db
symbols:
  XYZ:
    tickSize: 0.01
    stepSize: 1
`)
	t.Setenv("MM_LOG_LEVEL", "debug")
	t.Setenv("MM_JOURNAL_PATH", "/tmp/b.db")
	cfg, err := LoadWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Journal.Path != "/tmp/b.db" {
		t.Fatalf("env overrides not applied: %+v %+v", cfg.Log, cfg.Journal)
	}
}

func TestLoadRejectsBadStrategy(t *testing.T) {
	path := writeTempConfig(t, `
env: dev
strategy:
  min_spread_ticks: 30
  max_spread_ticks: 20
symbols:
  XYZ:
    tickSize: 0.01
    stepSize: 1
`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected error for min_spread_ticks > max_spread_ticks")
	}
	if !strings.Contains(err.Error(), "max_spread_ticks") {
		t.Fatalf("error should name the field, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestValidate(t *testing.T) {
	err := Validate(AppConfig{})
	if err == nil {
		t.Fatalf("expected error for empty config")
	}
	cfg := Default()
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for config without symbols")
	}
	cfg.Symbols = map[string]SymbolConfig{"XYZ": {TickSize: 0.01, StepSize: 1, MinQty: 5, MaxQty: 1}}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for maxQty < minQty")
	}
	cfg.Symbols["XYZ"] = SymbolConfig{TickSize: 0.01, StepSize: 1}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCrossChecksSymbols(t *testing.T) {
	base := func() AppConfig {
		cfg := Default()
		cfg.Symbols = map[string]SymbolConfig{"XYZ": {TickSize: 0.01, StepSize: 1, MinQty: 1, MaxQty: 5000}}
		return cfg
	}
	cases := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"tick grid mismatch", func(c *AppConfig) { c.Symbols["XYZ"] = SymbolConfig{TickSize: 0.05, StepSize: 1} }, "tick_size"},
		{"min quote below minQty", func(c *AppConfig) { c.Strategy.MinQuoteSize = 0.5 }, "min_quote_size"},
		{"max quote above maxQty", func(c *AppConfig) { c.Strategy.MaxQuoteSize = 6000 }, "max_quote_size"},
		{"hunter size below minQty", func(c *AppConfig) {
			c.Hunter.Enabled = true
			c.Symbols["XYZ"] = SymbolConfig{TickSize: 0.01, StepSize: 1, MinQty: 2}
		}, "position_size"},
		{"bad symbol tick", func(c *AppConfig) { c.Symbols["XYZ"] = SymbolConfig{StepSize: 1} }, "symbols[XYZ].tickSize"},
		{"metrics without addr", func(c *AppConfig) { c.Metrics.Enabled, c.Metrics.Addr = true, "" }, "metrics.addr"},
		{"negative events", func(c *AppConfig) { c.Sim.Events = -1 }, "sim.events"},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(&cfg)
		err := Validate(cfg)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.field) {
			t.Fatalf("%s: error should name %s, got %v", tc.name, tc.field, err)
		}
	}

	// 策略 tick 为交易所 tick 的整数倍时报价仍在交易所网格上
	cfg := base()
	cfg.Strategy.TickSize = 0.05
	if err := Validate(cfg); err != nil {
		t.Fatalf("coarser strategy grid should be accepted: %v", err)
	}
}
