package inventory

import "github.com/shopspring/decimal"

// Valuation 基于当前 mid 价计算未实现盈亏。
func (t *Tracker) Valuation(mid float64) (net float64, pnl float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	net = t.net.InexactFloat64()
	pnl = decimal.NewFromFloat(mid).Sub(t.cost).Mul(t.net).InexactFloat64()
	return
}

// Valuation 交易对净仓位与未实现盈亏；未知交易对返回 0。
func (p *Portfolio) Valuation(symbol string, mid float64) (net float64, pnl float64) {
	t, ok := p.tracker(symbol, false)
	if !ok {
		return 0, 0
	}
	return t.Valuation(mid)
}
