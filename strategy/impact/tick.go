package impact

import "github.com/shopspring/decimal"

// 价格/步长商先保留 8 位小数再取整，避免二进制浮点误差跨过整 tick。
const tickPrecision = 8

// FloorToTick 向下取整到 tick 的整数倍。
func FloorToTick(price, tick float64) float64 {
	return toTick(price, tick, decimal.Decimal.Floor)
}

// CeilToTick 向上取整到 tick 的整数倍。
func CeilToTick(price, tick float64) float64 {
	return toTick(price, tick, decimal.Decimal.Ceil)
}

// OnTick 判断 price 是否为 tick 的整数倍。
func OnTick(price, tick float64) bool {
	if tick <= 0 {
		return true
	}
	steps := decimal.NewFromFloat(price).Div(decimal.NewFromFloat(tick)).Round(tickPrecision)
	return steps.Equal(steps.Truncate(0))
}

func toTick(price, tick float64, round func(decimal.Decimal) decimal.Decimal) float64 {
	if tick <= 0 {
		return price
	}
	t := decimal.NewFromFloat(tick)
	steps := decimal.NewFromFloat(price).Div(t).Round(tickPrecision)
	return round(steps).Mul(t).InexactFloat64()
}
