package inventory

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Tracker 维护单个交易对的净仓位、加权成本与已实现盈亏。
// 内部用十进制累计，避免大量小额成交的浮点漂移。
type Tracker struct {
	mu       sync.RWMutex
	net      decimal.Decimal
	cost     decimal.Decimal
	realized decimal.Decimal
	fees     decimal.Decimal
	volume   decimal.Decimal
	trades   int
}

// Update 根据带符号成交数量调整仓位（买为正、卖为负），fee 计入已实现盈亏。
func (t *Tracker) Update(deltaQty, price, fee float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	qty := decimal.NewFromFloat(deltaQty)
	px := decimal.NewFromFloat(price)
	f := decimal.NewFromFloat(fee)

	switch {
	case t.net.IsZero() || t.net.Sign() == qty.Sign():
		// 开仓或加仓：加权平均成本
		total := t.net.Add(qty)
		if !total.IsZero() {
			t.cost = t.cost.Mul(t.net).Add(px.Mul(qty)).Div(total)
		}
		t.net = total
	default:
		// 减仓：按成本实现盈亏，穿越零点后剩余部分以成交价开仓
		closing := decimal.Min(qty.Abs(), t.net.Abs())
		pnl := px.Sub(t.cost).Mul(closing)
		if t.net.IsNegative() {
			pnl = pnl.Neg()
		}
		t.realized = t.realized.Add(pnl)
		before := t.net
		t.net = t.net.Add(qty)
		switch {
		case t.net.IsZero():
			t.cost = decimal.Zero
		case t.net.Sign() != before.Sign():
			t.cost = px
		}
	}

	t.realized = t.realized.Sub(f)
	t.fees = t.fees.Add(f)
	t.volume = t.volume.Add(qty.Abs().Mul(px))
	t.trades++
}

func (t *Tracker) NetExposure() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.net.InexactFloat64()
}

func (t *Tracker) AvgCost() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cost.InexactFloat64()
}

// Realized 已实现盈亏（已扣手续费）。
func (t *Tracker) Realized() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.realized.InexactFloat64()
}

// Position 交易对仓位快照。
type Position struct {
	Symbol   string
	Net      float64
	AvgCost  float64
	Realized float64
	Fees     float64
	Volume   float64
	Trades   int
}

func (t *Tracker) snapshot(symbol string) Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Position{
		Symbol:   symbol,
		Net:      t.net.InexactFloat64(),
		AvgCost:  t.cost.InexactFloat64(),
		Realized: t.realized.InexactFloat64(),
		Fees:     t.fees.InexactFloat64(),
		Volume:   t.volume.InexactFloat64(),
		Trades:   t.trades,
	}
}
