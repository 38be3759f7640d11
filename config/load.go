package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"impact-maker-go/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env      string                  `yaml:"env" validate:"required"`
	Log      logger.Config           `yaml:"log"`
	Metrics  MetricsConfig           `yaml:"metrics"`
	Journal  JournalConfig           `yaml:"journal"`
	Strategy Params                  `yaml:"strategy" validate:"-"`
	Hunter   HunterConfig            `yaml:"hunter"`
	Sim      SimConfig               `yaml:"sim"`
	Symbols  map[string]SymbolConfig `yaml:"symbols" validate:"required,min=1,dive"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr" validate:"required_if=Enabled true"`
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
}

// JournalConfig 报价/成交流水（sqlite）。
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

type HunterConfig struct {
	Enabled     bool          `yaml:"enabled"`
	BarInterval time.Duration `yaml:"barInterval" validate:"gt=0"` // 关键高低点所用 K 线周期
	Params      HunterParams  `yaml:"params" validate:"-"`
}

// SimConfig 本地模拟参数。
type SimConfig struct {
	Seed            int64   `yaml:"seed"`
	Events          int     `yaml:"events" validate:"gte=0"`                // 每个交易对生成的行情事件数
	StartMid        float64 `yaml:"startMid"`        // 起始中间价
	Volatility      float64 `yaml:"volatility"`      // 每步中间价扰动（tick 数）
	TransactionCost float64 `yaml:"transactionCost" validate:"gte=0"` // 每单位成交的费用
}

// SymbolConfig 保存交易对的精度/数量限制。
type SymbolConfig struct {
	TickSize float64 `yaml:"tickSize" validate:"gt=0"`
	StepSize float64 `yaml:"stepSize" validate:"gt=0"`
	MinQty   float64 `yaml:"minQty" validate:"gte=0"`
	MaxQty   float64 `yaml:"maxQty" validate:"gte=0"`
}

// Default 返回带默认值的配置，Load 在此基础上覆盖。
func Default() AppConfig {
	return AppConfig{
		Env: "sim",
		Log: logger.DefaultConfig(),
		Metrics: MetricsConfig{
			Addr:      ":9100",
			Namespace: "impact",
			Subsystem: "mm",
		},
		Journal:  JournalConfig{Path: "data/journal.db"},
		Strategy: DefaultParams(),
		Hunter: HunterConfig{
			BarInterval: time.Hour,
			Params:      DefaultHunterParams(),
		},
		Sim: SimConfig{
			Seed:            1,
			Events:          2000,
			StartMid:        100,
			Volatility:      1,
			TransactionCost: 0.001,
		},
	}
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides deployment fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("MM_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("MM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MM_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("MM_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
	return cfg, Validate(cfg)
}

// SymbolNames 返回配置中的交易对（无序）。
func (c AppConfig) SymbolNames() []string {
	out := make([]string, 0, len(c.Symbols))
	for sym := range c.Symbols {
		out = append(out, sym)
	}
	return out
}
