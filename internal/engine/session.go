package engine

import (
	"time"

	"go.uber.org/zap"
)

// OnStartOfDay 开盘：清空挂单集合与当前买卖价，不发撤单（隔夜 DAY 单已由交易所失效）。
func (e *TradingEngine) OnStartOfDay() {
	for _, sym := range e.Symbols() {
		st := e.quoteState(sym)
		st.mu.Lock()
		st.Active = make(map[string]struct{})
		st.inflight = make(map[string]struct{})
		st.Bid = 0
		st.Ask = 0
		st.mu.Unlock()
	}
	e.logger.Info("Start of day initialization complete")
}

// OnEndOfDay 收盘：撤销全部挂单。
func (e *TradingEngine) OnEndOfDay() {
	e.CancelAll()
	e.logger.Info("End of day: all orders canceled")
}

// Reset 清空冲击样本与全部报价状态；现有挂单先撤销。
// 状态原地清空，已撤未确认的订单仍保留归属，迟到的成交照常处理。
func (e *TradingEngine) Reset() {
	configured := make(map[string]bool, len(e.config.Symbols))
	for _, sym := range e.config.Symbols {
		configured[sym] = true
	}

	var drop []string
	for _, sym := range e.Symbols() {
		st := e.quoteState(sym)
		st.mu.Lock()
		e.cancelTracked(sym, st)
		st.Bid, st.Ask = 0, 0
		st.AvgFillPrice = 0
		st.LastBookUpdate = time.Time{}
		if !configured[sym] && len(st.inflight) == 0 {
			drop = append(drop, sym)
		}
		st.mu.Unlock()
	}

	e.mu.Lock()
	for _, sym := range drop {
		delete(e.quotes, sym)
	}
	for sym := range configured {
		if _, ok := e.quotes[sym]; !ok {
			e.quotes[sym] = newQuoteState()
		}
	}
	e.mu.Unlock()

	e.history.Clear()
	e.logger.Info("Strategy state reset", zap.Int("symbols", len(e.config.Symbols)))
}
