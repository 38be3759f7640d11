package market

import "time"

// Trade represents a normalized trade tick.
type Trade struct {
	Symbol       string
	Price        float64
	Qty          float64
	BuyAggressor bool // 主动方为买方
	Ts           time.Time
}

// Side 主动方方向 BUY/SELL。
func (t Trade) Side() string {
	if t.BuyAggressor {
		return "BUY"
	}
	return "SELL"
}
