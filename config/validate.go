package config

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Validate ensures required fields are present and the strategy fits every symbol's trading rules.
func Validate(cfg AppConfig) error {
	if err := validateStruct("config", cfg); err != nil {
		return err
	}
	if err := cfg.Strategy.Validate(); err != nil {
		return err
	}
	if err := cfg.Hunter.Params.Validate(); err != nil {
		return err
	}

	syms := cfg.SymbolNames()
	sort.Strings(syms)
	for _, sym := range syms {
		if err := validateSymbol(sym, cfg.Symbols[sym], cfg); err != nil {
			return err
		}
	}
	return nil
}

// validateSymbol 交叉校验：策略报价网格与数量必须落在交易所规则之内，否则每笔报价都会被拒。
func validateSymbol(sym string, sc SymbolConfig, cfg AppConfig) error {
	if sc.MaxQty > 0 && sc.MaxQty < sc.MinQty {
		return fmt.Errorf("symbol %s maxQty must be >= minQty", sym)
	}
	if !isMultiple(cfg.Strategy.TickSize, sc.TickSize) {
		return fmt.Errorf("strategy.tick_size %v is not a multiple of symbol %s tickSize %v",
			cfg.Strategy.TickSize, sym, sc.TickSize)
	}
	if cfg.Strategy.MinQuoteSize < sc.MinQty {
		return fmt.Errorf("strategy.min_quote_size %v is below symbol %s minQty %v",
			cfg.Strategy.MinQuoteSize, sym, sc.MinQty)
	}
	if sc.MaxQty > 0 && cfg.Strategy.MaxQuoteSize > sc.MaxQty {
		return fmt.Errorf("strategy.max_quote_size %v exceeds symbol %s maxQty %v",
			cfg.Strategy.MaxQuoteSize, sym, sc.MaxQty)
	}
	if cfg.Hunter.Enabled && float64(cfg.Hunter.Params.PositionSize) < sc.MinQty {
		return fmt.Errorf("hunter.params.position_size %d is below symbol %s minQty %v",
			cfg.Hunter.Params.PositionSize, sym, sc.MinQty)
	}
	return nil
}

func isMultiple(v, unit float64) bool {
	return decimal.NewFromFloat(v).Mod(decimal.NewFromFloat(unit)).IsZero()
}
