package market

import "time"

// TopOfBook 某一时刻的盘口快照：每侧按优先级排列（最优在前）。
// 只读值类型，由行情方拥有。
type TopOfBook struct {
	Symbol string
	Bids   []Level
	Asks   []Level
	Ts     time.Time
}

// Valid 双边都有正价格、正数量的最优档位且买价低于卖价才算有效盘口；交叉或锁定的盘口无效。
func (b TopOfBook) Valid() bool {
	if len(b.Bids) == 0 || len(b.Asks) == 0 {
		return false
	}
	bid, ask := b.Bids[0], b.Asks[0]
	return bid.Price > 0 && ask.Price > 0 && bid.Size > 0 && ask.Size > 0 && bid.Price < ask.Price
}

// BestBid 返回最优买价；无买盘时为 0。
func (b TopOfBook) BestBid() float64 {
	if len(b.Bids) == 0 {
		return 0
	}
	return b.Bids[0].Price
}

// BestAsk 返回最优卖价；无卖盘时为 0。
func (b TopOfBook) BestAsk() float64 {
	if len(b.Asks) == 0 {
		return 0
	}
	return b.Asks[0].Price
}

// Mid 返回中间价；若盘口无效返回 0。
func (b TopOfBook) Mid() float64 {
	if !b.Valid() {
		return 0
	}
	return (b.BestAsk() + b.BestBid()) / 2
}

// Spread 最优卖价 - 最优买价；盘口无效时为 0。
func (b TopOfBook) Spread() float64 {
	if !b.Valid() {
		return 0
	}
	return b.BestAsk() - b.BestBid()
}

// Levels 返回指定一侧的档位。
func (b TopOfBook) Levels(side BookSide) []Level {
	if side == BookSideBid {
		return b.Bids
	}
	return b.Asks
}
