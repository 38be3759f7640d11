package impact

import (
	"github.com/shopspring/decimal"

	"impact-maker-go/config"
	"impact-maker-go/market"
)

// GateReason 下单前安全校验结果。
type GateReason string

const (
	GateOK           GateReason = "ok"
	GateNoBook       GateReason = "no_book"
	GateCrossedBid   GateReason = "crossed_bid"
	GateCrossedAsk   GateReason = "crossed_ask"
	GateSpreadNarrow GateReason = "spread_narrow"
	GateSpreadWide   GateReason = "spread_wide"
)

// Check 校验报价：盘口必须双边有效，买价低于对手卖一，卖价高于对手买一，
// 价差在 [min,max]*tick 内。价差用十进制比较，避免 0.2 与 20*0.01 之类的浮点误判。
func Check(book market.TopOfBook, bid, ask float64, p config.Params) GateReason {
	if !book.Valid() {
		return GateNoBook
	}
	if bid >= book.BestAsk() {
		return GateCrossedBid
	}
	if ask <= book.BestBid() {
		return GateCrossedAsk
	}

	tick := decimal.NewFromFloat(p.TickSize)
	spread := decimal.NewFromFloat(ask).Sub(decimal.NewFromFloat(bid))
	if spread.LessThan(decimal.NewFromFloat(p.MinSpreadTicks).Mul(tick)) {
		return GateSpreadNarrow
	}
	if spread.GreaterThan(decimal.NewFromFloat(p.MaxSpreadTicks).Mul(tick)) {
		return GateSpreadWide
	}
	return GateOK
}

// IsSafe 是否可以下单。
func IsSafe(book market.TopOfBook, bid, ask float64, p config.Params) bool {
	return Check(book, bid, ask, p) == GateOK
}
