package config

import (
	"sort"
	"time"
)

// HunterParams 止损猎杀策略参数。
type HunterParams struct {
	EntryRangeTicks     float64 `yaml:"entry_range_ticks" validate:"gte=0"`
	TargetTicks         float64 `yaml:"target_ticks" validate:"gt=0"`
	TickLookback        int     `yaml:"tick_lookback" validate:"gt=0"`
	MomentumThreshold   int     `yaml:"momentum_threshold" validate:"gte=0"`
	MaxHoldSeconds      int     `yaml:"max_hold_seconds" validate:"gt=0"`
	AccountRiskPerTrade float64 `yaml:"account_risk_per_trade" validate:"gte=0,lt=1"`
	PositionSize        int     `yaml:"position_size" validate:"gt=0"`
	Debug               bool    `yaml:"debug"`
}

// DefaultHunterParams 返回默认参数。
func DefaultHunterParams() HunterParams {
	return HunterParams{
		EntryRangeTicks:     3,
		TargetTicks:         1,
		TickLookback:        11,
		MomentumThreshold:   0,
		MaxHoldSeconds:      15,
		AccountRiskPerTrade: 0.001,
		PositionSize:        1,
		Debug:               true,
	}
}

func (p HunterParams) Validate() error {
	return validateStruct("hunter.params", p)
}

// MaxHold 最长持仓时间。
func (p HunterParams) MaxHold() time.Duration {
	return time.Duration(p.MaxHoldSeconds) * time.Second
}

var hunterSetters = map[string]func(p *HunterParams, v interface{}) error{
	"entry_range_ticks":      func(p *HunterParams, v interface{}) (err error) { p.EntryRangeTicks, err = asFloat(v); return },
	"target_ticks":           func(p *HunterParams, v interface{}) (err error) { p.TargetTicks, err = asFloat(v); return },
	"tick_lookback":          func(p *HunterParams, v interface{}) (err error) { p.TickLookback, err = asInt(v); return },
	"momentum_threshold":     func(p *HunterParams, v interface{}) (err error) { p.MomentumThreshold, err = asInt(v); return },
	"max_hold_seconds":       func(p *HunterParams, v interface{}) (err error) { p.MaxHoldSeconds, err = asInt(v); return },
	"account_risk_per_trade": func(p *HunterParams, v interface{}) (err error) { p.AccountRiskPerTrade, err = asFloat(v); return },
	"position_size":          func(p *HunterParams, v interface{}) (err error) { p.PositionSize, err = asInt(v); return },
	"debug":                  func(p *HunterParams, v interface{}) (err error) { p.Debug, err = asBool(v); return },
}

// HunterParamNames 返回全部可修改的参数名（已排序）。
func HunterParamNames() []string {
	names := make([]string, 0, len(hunterSetters))
	for n := range hunterSetters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// With 与 Params.With 相同的约定：失败时返回原值与 *ParamError。
func (p HunterParams) With(name string, value interface{}) (HunterParams, error) {
	set, ok := hunterSetters[name]
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
