package market

import (
	"time"
)

// KlineAggregator 从单个交易对的成交流生成固定周期的 Kline。
// 不加锁：每个交易对一个实例，由调用方串行喂入。
type KlineAggregator struct {
	Symbol   string
	Interval time.Duration
	current  *Kline
}

func NewKlineAggregator(symbol string, interval time.Duration) *KlineAggregator {
	return &KlineAggregator{Symbol: symbol, Interval: interval}
}

// OnTrade 更新当前 Kline；返回新生成的 Kline（闭合的）或 nil。
// 跨周期的成交只属于新周期，不计入已闭合的 Kline。
func (a *KlineAggregator) OnTrade(price, qty float64, ts time.Time) *Kline {
	if a.current == nil || ts.Sub(a.current.Ts) >= a.Interval {
		closed := a.current
		a.current = &Kline{
			Symbol: a.Symbol,
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: qty,
			Ts:     a.bucket(ts),
		}
		return closed
	}

	if price > a.current.High {
		a.current.High = price
	}
	if price < a.current.Low {
		a.current.Low = price
	}
	a.current.Close = price
	a.current.Volume += qty
	return nil
}

// Current 返回尚未闭合的 Kline 副本。
func (a *KlineAggregator) Current() (Kline, bool) {
	if a.current == nil {
		return Kline{}, false
	}
	return *a.current, true
}

// bucket 将开盘时间对齐到周期边界。
func (a *KlineAggregator) bucket(ts time.Time) time.Time {
	if a.Interval <= 0 {
		return ts
	}
	return ts.Truncate(a.Interval)
}
