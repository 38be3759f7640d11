package config

import (
	"fmt"
	"sort"
)

// Params 报价引擎的运行时参数，名称与策略参数表一致。
type Params struct {
	ImpactMultiplier  float64 `yaml:"impact_multiplier" validate:"gt=0"`
	RollingWindow     int     `yaml:"rolling_window" validate:"gt=0"`
	QuantileThreshold float64 `yaml:"quantile_threshold" validate:"gt=0,lt=1"`
	LevelsToConsider  int     `yaml:"levels_to_consider" validate:"gt=0"`
	TickSize          float64 `yaml:"tick_size" validate:"gt=0"`
	MaxPosition       float64 `yaml:"max_position" validate:"gt=0"`
	RiskLimitPct      float64 `yaml:"risk_limit_pct" validate:"gte=0"`
	MinSpreadTicks    float64 `yaml:"min_spread_ticks" validate:"gt=0"`
	MaxSpreadTicks    float64 `yaml:"max_spread_ticks" validate:"gt=0,gtefield=MinSpreadTicks"`
	QuoteSize         int     `yaml:"quote_size" validate:"gt=0"`
	MinQuoteSize      float64 `yaml:"min_quote_size" validate:"gt=0"`
	MaxQuoteSize      float64 `yaml:"max_quote_size" validate:"gt=0,gtefield=MinQuoteSize"`
	Debug             bool    `yaml:"debug"`
}

// DefaultParams 返回默认参数。
func DefaultParams() Params {
	return Params{
		ImpactMultiplier:  2.5,
		RollingWindow:     50,
		QuantileThreshold: 0.1,
		LevelsToConsider:  4,
		TickSize:          0.01,
		MaxPosition:       100,
		RiskLimitPct:      0.02,
		MinSpreadTicks:    2,
		MaxSpreadTicks:    20,
		QuoteSize:         100,
		MinQuoteSize:      10,
		MaxQuoteSize:      1000,
		Debug:             true,
	}
}

// Validate 检查边界为正、min<=max、分位数阈值在 (0,1) 内。
func (p Params) Validate() error {
	return validateStruct("strategy", p)
}

// MinSpread 最小价差（价格单位）。
func (p Params) MinSpread() float64 { return p.MinSpreadTicks * p.TickSize }

// MaxSpread 最大价差（价格单位）。
func (p Params) MaxSpread() float64 { return p.MaxSpreadTicks * p.TickSize }

var paramSetters = map[string]func(p *Params, v interface{}) error{
	"impact_multiplier":  func(p *Params, v interface{}) (err error) { p.ImpactMultiplier, err = asFloat(v); return },
	"rolling_window":     func(p *Params, v interface{}) (err error) { p.RollingWindow, err = asInt(v); return },
	"quantile_threshold": func(p *Params, v interface{}) (err error) { p.QuantileThreshold, err = asFloat(v); return },
	"levels_to_consider": func(p *Params, v interface{}) (err error) { p.LevelsToConsider, err = asInt(v); return },
	"tick_size":          func(p *Params, v interface{}) (err error) { p.TickSize, err = asFloat(v); return },
	"max_position":       func(p *Params, v interface{}) (err error) { p.MaxPosition, err = asFloat(v); return },
	"risk_limit_pct":     func(p *Params, v interface{}) (err error) { p.RiskLimitPct, err = asFloat(v); return },
	"min_spread_ticks":   func(p *Params, v interface{}) (err error) { p.MinSpreadTicks, err = asFloat(v); return },
	"max_spread_ticks":   func(p *Params, v interface{}) (err error) { p.MaxSpreadTicks, err = asFloat(v); return },
	"quote_size":         func(p *Params, v interface{}) (err error) { p.QuoteSize, err = asInt(v); return },
	"min_quote_size":     func(p *Params, v interface{}) (err error) { p.MinQuoteSize, err = asFloat(v); return },
	"max_quote_size":     func(p *Params, v interface{}) (err error) { p.MaxQuoteSize, err = asFloat(v); return },
	"debug":              func(p *Params, v interface{}) (err error) { p.Debug, err = asBool(v); return },
}

// ParamNames 返回全部可修改的参数名（已排序）。
func ParamNames() []string {
	names := make([]string, 0, len(paramSetters))
	for n := range paramSetters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// With 返回修改单个参数后的副本。类型不符或整体校验失败时返回 *ParamError，
// 接收者本身不变，调用方继续使用旧值。
func (p Params) With(name string, value interface{}) (Params, error) {
	set, ok := paramSetters[name]
	if !ok {
		return p, &ParamError{Name: name, Err: ErrUnknownParam}
	}
	next := p
	if err := set(&next, value); err != nil {
		return p, &ParamError{Name: name, Err: err}
	}
	if err := next.Validate(); err != nil {
		return p, &ParamError{Name: name, Err: err}
	}
	return next, nil
}

func (p Params) String() string {
	return fmt.Sprintf("impact=%.3f window=%d q=%.3f levels=%d tick=%g maxPos=%g risk=%.4f spread=[%g,%g] size=%d[%g,%g] debug=%t",
		p.ImpactMultiplier, p.RollingWindow, p.QuantileThreshold, p.LevelsToConsider, p.TickSize,
		p.MaxPosition, p.RiskLimitPct, p.MinSpreadTicks, p.MaxSpreadTicks,
		p.QuoteSize, p.MinQuoteSize, p.MaxQuoteSize, p.Debug)
}
