package impact

import (
	"math"
	"sort"
)

// QuantileIndex 返回长度为 n 的升序样本中分位数 q 对应的下标：
// max(0, int(n*q)-1)，乘积截断取整，保持与历史回测一致。
func QuantileIndex(n int, q float64) int {
	idx := int(float64(n)*q) - 1
	if idx < 0 {
		return 0
	}
	return idx
}

// Skew 由冲击样本计算买/卖两侧偏移。
// 样本不足 window 或只有单侧样本时返回 (0,0)，表示本周期不报价。
func Skew(history []float64, window int, q float64) (buy, sell float64) {
	buy, sell, _ = skew(history, window, q)
	return buy, sell
}

func skew(history []float64, window int, q float64) (buy, sell float64, reason SkipReason) {
	if len(history) < window {
		return 0, 0, SkipInsufficientHistory
	}
	buys := make([]float64, 0, len(history))
	sells := make([]float64, 0, len(history))
	for _, v := range history {
		if v > 0 {
			buys = append(buys, v)
		} else {
			sells = append(sells, math.Abs(v))
		}
	}
	if len(buys) == 0 || len(sells) == 0 {
		return 0, 0, SkipOneSidedHistory
	}
	sort.Float64s(buys)
	sort.Float64s(sells)
	return buys[QuantileIndex(len(buys), q)], sells[QuantileIndex(len(sells), q)], SkipNone
}
