package impact

import (
	"math"

	"impact-maker-go/config"
)

// Sizes 两侧挂单数量；xxxOK 为 false 表示该侧不挂单。
type Sizes struct {
	Bid   float64
	Ask   float64
	BidOK bool
	AskOK bool
}

// ComputeSizes 按持仓比例缩放挂单数量。
// 多头时买单缩小、卖单放大，空头相反；钳制到 [min,max] 后仍低于 min 的一侧省略。
func ComputeSizes(position float64, p config.Params) Sizes {
	ratio := position / p.MaxPosition
	base := float64(p.QuoteSize) * (1 - math.Abs(ratio))

	bid := clamp(base*(1-ratio), p.MinQuoteSize, p.MaxQuoteSize)
	ask := clamp(base*(1+ratio), p.MinQuoteSize, p.MaxQuoteSize)
	return Sizes{
		Bid:   bid,
		Ask:   ask,
		BidOK: bid >= p.MinQuoteSize,
		AskOK: ask >= p.MinQuoteSize,
	}
}

// RoundToLot 向下取整到交易所数量步长，低于 minSize 的一侧省略。
func (s Sizes) RoundToLot(lot, minSize float64) Sizes {
	if lot <= 0 {
		return s
	}
	s.Bid = FloorToTick(s.Bid, lot)
	s.Ask = FloorToTick(s.Ask, lot)
	s.BidOK = s.BidOK && s.Bid > 0 && s.Bid >= minSize
	s.AskOK = s.AskOK && s.Ask > 0 && s.Ask >= minSize
	return s
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
