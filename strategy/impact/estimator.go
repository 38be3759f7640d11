// Package impact 实现基于成交冲击的自适应报价：冲击估计、滚动样本、
// 分位数偏移、理论价计算、挂单数量与下单前安全校验。
package impact

import (
	"impact-maker-go/config"
	"impact-maker-go/market"
)

// Estimate 估计单笔成交相对于可见流动性的冲击。
// 买方主动为正，卖方主动为负；前 levels 档双边总量为 0 时返回 0。
func Estimate(book market.TopOfBook, levels int, multiplier, tradeSize float64, buyTriggered bool) float64 {
	liquidity := book.DepthSum(market.BookSideBid, levels) + book.DepthSum(market.BookSideAsk, levels)
	if liquidity == 0 {
		return 0
	}
	sign := -1.0
	if buyTriggered {
		sign = 1
	}
	return multiplier * sign * (tradeSize / liquidity)
}

// EstimateTrade 使用参数表中的档位数与乘数估计成交冲击。
func EstimateTrade(book market.TopOfBook, tr market.Trade, p config.Params) float64 {
	return Estimate(book, p.LevelsToConsider, p.ImpactMultiplier, tr.Qty, tr.BuyAggressor)
}
