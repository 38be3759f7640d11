package market

import "time"

// Kline represents OHLCV data.
type Kline struct {
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Ts     time.Time // 开盘时间
}

// Range 最高价与最低价之差。
func (k Kline) Range() float64 { return k.High - k.Low }
