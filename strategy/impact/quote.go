package impact

import (
	"impact-maker-go/config"
	"impact-maker-go/market"
)

// SkipReason 说明本周期为何不报价；SkipNone 表示产生了有效报价。
type SkipReason string

const (
	SkipNone                SkipReason = ""
	SkipNoBook              SkipReason = "no_book"
	SkipInsufficientHistory SkipReason = "insufficient_history"
	SkipOneSidedHistory     SkipReason = "one_sided_history"
	SkipNonPositive         SkipReason = "non_positive_price"
)

// Quote 理论买卖价，任一侧非正表示不报价。
type Quote struct {
	Bid float64
	Ask float64
}

func (q Quote) Valid() bool { return q.Bid > 0 && q.Ask > 0 }

func (q Quote) Spread() float64 { return q.Ask - q.Bid }

// QuoteInput 一次报价计算所需的全部输入。
type QuoteInput struct {
	Book     market.TopOfBook
	History  []float64
	Position float64
	Params   config.Params
}

// ComputeQuote 计算理论买卖价。
//
// 以中间价为基准，买价下移卖方偏移、卖价上移买方偏移，再按
// position/maxPosition*riskLimitPct 同向平移两侧；价差钳制在
// [min,max]*tick 内（围绕未钳制时的中心），最后买价向下、卖价向上取整到 tick。
func ComputeQuote(in QuoteInput) (Quote, SkipReason) {
	p := in.Params
	if !in.Book.Valid() {
		return Quote{}, SkipNoBook
	}
	buySkew, sellSkew, reason := skew(in.History, p.RollingWindow, p.QuantileThreshold)
	if reason != SkipNone {
		return Quote{}, reason
	}

	mid := in.Book.Mid()
	positionFactor := (in.Position / p.MaxPosition) * p.RiskLimitPct
	bid := mid - sellSkew - positionFactor*mid
	ask := mid + buySkew - positionFactor*mid

	bid, ask = ClampSpread(bid, ask, p.MinSpread(), p.MaxSpread())

	q := Quote{
		Bid: FloorToTick(bid, p.TickSize),
		Ask: CeilToTick(ask, p.TickSize),
	}
	if !q.Valid() {
		return q, SkipNonPositive
	}
	return q, SkipNone
}

// ClampSpread 价差超出 [minSpread, maxSpread] 时以两侧中心为轴重新展开。
func ClampSpread(bid, ask, minSpread, maxSpread float64) (float64, float64) {
	var half float64
	switch spread := ask - bid; {
	case spread < minSpread:
		half = minSpread / 2
	case spread > maxSpread:
		half = maxSpread / 2
	default:
		return bid, ask
	}
	center := (bid + ask) / 2
	return center - half, center + half
}
