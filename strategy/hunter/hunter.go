package hunter

import (
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"impact-maker-go/config"
	"impact-maker-go/infrastructure/logger"
	"impact-maker-go/infrastructure/monitor"
	"impact-maker-go/internal/journal"
	"impact-maker-go/internal/ring"
	"impact-maker-go/market"
	"impact-maker-go/order"
	"impact-maker-go/strategy/impact"
)

// OrderRouter 下单/撤单出口
type OrderRouter interface {
	Submit(o order.Order) (*order.Order, error)
	Cancel(id string) error
}

// Config 猎杀策略配置
type Config struct {
	Params    config.HunterParams
	TickSizes map[string]float64 // 各交易对最小价格变动
	ClientID  string
}

// Components 依赖组件；Positions 应只包含本策略自己的持仓。
type Components struct {
	Books     impact.BookSource
	Positions impact.PositionSource
	Orders    OrderRouter
	Logger    *logger.Logger
	Monitor   *monitor.Monitor
	Journal   *journal.Journal
}

const defaultTick = 0.01

// instrumentState 单个交易对的猎杀状态
type instrumentState struct {
	mu sync.Mutex

	state   State
	barHigh float64
	barLow  float64
	barTime time.Time

	lastPrice float64
	ticks     *ring.Buffer[int]

	side       order.Side // 入场方向
	entryID    string
	targetID   string
	exitID     string
	entryPrice float64
	entryQty   float64
	openQty    float64 // 尚未被止盈单平掉的数量
	roundPnL   float64 // 本轮已实现部分
	entryTime  time.Time
}

func (st *instrumentState) clearRound() {
	st.side = ""
	st.entryID, st.targetID, st.exitID = "", "", ""
	st.entryPrice, st.entryQty = 0, 0
	st.openQty, st.roundPnL = 0, 0
	st.entryTime = time.Time{}
}

func (st *instrumentState) owns(id string) bool {
	return id != "" && (id == st.entryID || id == st.targetID || id == st.exitID)
}

// Statistics 猎杀统计
type Statistics struct {
	Entries     int64
	TargetHits  int64
	Timeouts    int64
	RealizedPnL float64
	Faults      int64
}

// Hunter 止损猎杀策略。与做市引擎一样由宿主事件驱动，不启动 goroutine。
type Hunter struct {
	config  Config
	books   impact.BookSource
	pos     impact.PositionSource
	orders  OrderRouter
	logger  *logger.Logger
	monitor *monitor.Monitor
	journal *journal.Journal

	paramsMu sync.RWMutex
	params   config.HunterParams

	mu     sync.RWMutex
	states map[string]*instrumentState

	statsMu sync.Mutex
	stats   Statistics
}

// New 创建猎杀策略
func New(cfg Config, c Components) (*Hunter, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid hunter params: %w", err)
	}
	if c.Books == nil || c.Positions == nil || c.Orders == nil {
		return nil, errors.New("hunter requires books, positions and orders")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "hunter"
	}
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
	return &Hunter{
		config:  cfg,
		books:   c.Books,
		pos:     c.Positions,
		orders:  c.Orders,
		logger:  c.Logger,
		monitor: c.Monitor,
		journal: c.Journal,
		params:  cfg.Params,
		states:  make(map[string]*instrumentState),
	}, nil
}

// OnBar 小时线闭合：NO_TRADE 恢复为 IDLE，并记录该K线的高低点。
func (h *Hunter) OnBar(symbol string, k market.Kline) {
	st := h.state(symbol)
	defer h.recoverFault(symbol, "on_bar")
	st.mu.Lock()
	defer st.mu.Unlock()

	h.transition(symbol, st, EventBarClosed)
	st.barHigh = k.High
	st.barLow = k.Low
	st.barTime = k.Ts

	if h.Params().Debug {
		h.logger.Debug("Hourly levels updated",
			zap.String("symbol", symbol),
			zap.Float64("high", k.High),
			zap.Float64("low", k.Low),
			zap.Time("bar_time", k.Ts),
			zap.Stringer("state", st.state))
	}
}

// OnTrade 更新逐笔动量；IDLE 时检查入场，持仓时检查超时。
func (h *Hunter) OnTrade(tr market.Trade) {
	st := h.state(tr.Symbol)
	defer h.recoverFault(tr.Symbol, "on_trade")
	st.mu.Lock()
	defer st.mu.Unlock()

	p := h.Params()
	h.updateMomentum(st, tr.Price, p.TickLookback)

	now := tr.Ts
	if now.IsZero() {
		now = time.Now()
	}
	switch st.state {
	case StateIdle:
		h.tryEnter(tr.Symbol, st, tr.Price, p)
	case StateInPosition:
		h.checkHold(tr.Symbol, st, now, p)
	case StateHunting, StateExiting, StateNoTrade:
	}
}

// OnOrderUpdate 处理本策略订单的回报，其余订单忽略。
func (h *Hunter) OnOrderUpdate(u order.Update) {
	st := h.state(u.Symbol)
	defer h.recoverFault(u.Symbol, "on_order_update")
	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.owns(u.OrderID) {
		return
	}
	p := h.Params()
	ts := u.Ts
	if ts.IsZero() {
		ts = time.Now()
	}

	switch {
	case u.OrderID == st.entryID:
		h.onEntryUpdate(u, st, ts, p)
	case u.OrderID == st.targetID:
		h.onTargetUpdate(u, st)
	case u.OrderID == st.exitID:
		h.onExitUpdate(u, st)
	}
}

func (h *Hunter) onEntryUpdate(u order.Update, st *instrumentState, ts time.Time, p config.HunterParams) {
	switch {
	case u.Kind.IsFill():
		if st.state != StateHunting {
			return
		}
		st.entryPrice = u.FillPrice
		st.entryQty = u.FillQty
		st.openQty = u.FillQty
		st.entryTime = ts
		h.transition(u.Symbol, st, EventEntryFilled)

		target := h.targetPrice(u.Symbol, st.side, u.FillPrice, p)
		h.logger.LogTrade("hunter_entry_filled", map[string]interface{}{
			"symbol": u.Symbol,
			"side":   string(st.side),
			"qty":    u.FillQty,
			"price":  u.FillPrice,
			"target": target,
		})
		if id, ok := h.submit(u.Symbol, st.side.Opposite(), order.TypeLimit, target, u.FillQty); ok {
			st.targetID = id
		}

	case u.Kind == order.UpdateReject || u.Kind == order.UpdateCancel:
		if st.state != StateHunting {
			return
		}
		h.logger.Warn("Hunter entry not filled",
			zap.String("symbol", u.Symbol),
			zap.String("order_id", u.OrderID),
			zap.String("reason", u.Reason))
		st.clearRound()
		h.transition(u.Symbol, st, EventEntryRejected)
	}
}

func (h *Hunter) onTargetUpdate(u order.Update, st *instrumentState) {
	if st.state != StateInPosition {
		return
	}
	if u.Kind == order.UpdatePartialFill {
		h.realize(st, u.FillPrice, u.FillQty)
		return
	}
	if u.Kind != order.UpdateFill {
		return
	}
	h.closeRound(u.Symbol, st, u.FillPrice, "target")
	h.statsMu.Lock()
	h.stats.TargetHits++
	h.statsMu.Unlock()
	h.transition(u.Symbol, st, EventTargetFilled)
}

func (h *Hunter) onExitUpdate(u order.Update, st *instrumentState) {
	if st.state != StateExiting {
		return
	}
	switch u.Kind {
	case order.UpdateFill:
		h.closeRound(u.Symbol, st, u.FillPrice, "timeout")
		h.transition(u.Symbol, st, EventExitFilled)
	case order.UpdateReject, order.UpdateCancel:
		h.logger.Warn("Hunter exit not filled, will retry",
			zap.String("symbol", u.Symbol),
			zap.String("order_id", u.OrderID),
			zap.String("reason", u.Reason))
		st.exitID = ""
		h.transition(u.Symbol, st, EventExitRejected)
	}
}

// realize 按成交价实现部分仓位的盈亏。
func (h *Hunter) realize(st *instrumentState, price, qty float64) {
	qty = math.Min(qty, st.openQty)
	if qty <= 0 {
		return
	}
	pnl := st.side.Sign() * (price - st.entryPrice) * qty
	st.openQty -= qty
	st.roundPnL += pnl
	h.statsMu.Lock()
	h.stats.RealizedPnL += pnl
	h.statsMu.Unlock()
}

// closeRound 按剩余数量结算本轮并清空本轮订单。
func (h *Hunter) closeRound(symbol string, st *instrumentState, exitPrice float64, reason string) {
	h.realize(st, exitPrice, st.openQty)
	pnl := st.roundPnL
	if h.monitor != nil {
		h.monitor.RecordHunterExit(symbol, reason)
	}
	h.logger.LogTrade("hunter_round_trip", map[string]interface{}{
		"symbol":      symbol,
		"side":        string(st.side),
		"entry_price": st.entryPrice,
		"exit_price":  exitPrice,
		"qty":         st.entryQty,
		"pnl":         pnl,
		"reason":      reason,
	})
	st.clearRound()
}

// tryEnter IDLE 状态下的入场判断：价格在K线高/低点 entry_range_ticks 之内、
// 盘口双边有效、动量非零且与所处位置同向。
func (h *Hunter) tryEnter(symbol string, st *instrumentState, price float64, p config.HunterParams) {
	if st.barTime.IsZero() || st.barHigh <= 0 || st.barLow <= 0 {
		return
	}
	tick := h.tick(symbol)
	nearHigh, ok := nearLevel(price, st.barHigh, st.barLow, p.EntryRangeTicks*tick)
	if !ok {
		return
	}
	book, ok := h.books.Book(symbol)
	if !ok || !book.Valid() {
		return
	}
	m := momentum(st.ticks, p.TickLookback)
	if m == 0 {
		return
	}
	if (nearHigh && m < p.MomentumThreshold) || (!nearHigh && m > -p.MomentumThreshold) {
		return
	}

	side := order.SideSell
	if nearHigh {
		side = order.SideBuy
	}
	id, ok := h.submit(symbol, side, order.TypeMarket, 0, float64(p.PositionSize))
	if !ok {
		return
	}
	st.side = side
	st.entryID = id
	h.transition(symbol, st, EventEntrySignal)

	h.statsMu.Lock()
	h.stats.Entries++
	h.statsMu.Unlock()
	if h.monitor != nil {
		h.monitor.RecordHunterEntry(symbol, string(side))
	}
	if p.Debug {
		h.logger.Debug("Hunter entry",
			zap.String("symbol", symbol),
			zap.String("side", string(side)),
			zap.Float64("price", price),
			zap.Float64("bar_high", st.barHigh),
			zap.Float64("bar_low", st.barLow),
			zap.Int("momentum", m),
			zap.Int("lookback", p.TickLookback))
	}
}

// checkHold 持仓超过 max_hold_seconds 后撤止盈单并市价平掉本策略持仓。
func (h *Hunter) checkHold(symbol string, st *instrumentState, now time.Time, p config.HunterParams) {
	if st.entryTime.IsZero() || now.Sub(st.entryTime) <= p.MaxHold() {
		return
	}
	h.logger.Info("Hunter time based exit",
		zap.String("symbol", symbol),
		zap.Duration("held", now.Sub(st.entryTime)))

	if st.targetID != "" {
		if err := h.orders.Cancel(st.targetID); err != nil {
			h.logger.Warn("Failed to cancel hunter target",
				zap.String("symbol", symbol),
				zap.String("order_id", st.targetID),
				zap.Error(err))
		}
		st.targetID = ""
	}

	h.statsMu.Lock()
	h.stats.Timeouts++
	h.statsMu.Unlock()

	pos := h.pos.Position(symbol)
	if pos == 0 {
		// 已被止盈单平掉，直接结束本轮
		h.transition(symbol, st, EventHoldExpired)
		st.clearRound()
		h.transition(symbol, st, EventExitFilled)
		return
	}
	side := order.SideSell
	if pos < 0 {
		side = order.SideBuy
	}
	id, ok := h.submit(symbol, side, order.TypeMarket, 0, math.Abs(pos))
	if !ok {
		return
	}
	st.exitID = id
	h.transition(symbol, st, EventHoldExpired)
}

func (h *Hunter) targetPrice(symbol string, side order.Side, entry float64, p config.HunterParams) float64 {
	tick := h.tick(symbol)
	target := entry + side.Sign()*p.TargetTicks*tick
	if side == order.SideBuy {
		return impact.CeilToTick(target, tick)
	}
	return impact.FloorToTick(target, tick)
}

func (h *Hunter) submit(symbol string, side order.Side, typ order.Type, price, qty float64) (string, bool) {
	o, err := h.orders.Submit(order.Order{
		ClientID:    h.config.ClientID,
		Symbol:      symbol,
		Side:        side,
		Type:        typ,
		TimeInForce: order.TIFDay,
		Price:       price,
		Quantity:    qty,
	})
	if err != nil {
		if h.monitor != nil {
			h.monitor.RecordOrderError(symbol, "hunter_submit")
		}
		h.logger.Error("Failed to place hunter order",
			zap.String("symbol", symbol),
			zap.String("side", string(side)),
			zap.String("type", string(typ)),
			zap.Float64("price", price),
			zap.Float64("size", qty),
			zap.Error(err))
		return "", false
	}
	h.logger.LogOrder("hunter_placed", o.ID, map[string]interface{}{
		"symbol": symbol,
		"side":   string(side),
		"type":   string(typ),
		"price":  price,
		"qty":    qty,
	})
	return o.ID, true
}

func (h *Hunter) transition(symbol string, st *instrumentState, ev Event) {
	prev := st.state
	st.state = Next(prev, ev)
	if st.state == prev {
		return
	}
	if h.monitor != nil {
		h.monitor.UpdateHunterState(symbol, int(st.state))
	}
	if h.Params().Debug {
		h.logger.Debug("Hunter state change",
			zap.String("symbol", symbol),
			zap.Stringer("from", prev),
			zap.Stringer("to", st.state),
			zap.Stringer("event", ev))
	}
}

func (h *Hunter) updateMomentum(st *instrumentState, price float64, lookback int) {
	if st.ticks == nil {
		st.ticks = ring.New[int](lookback)
	} else if st.ticks.Cap() != lookback {
		st.ticks.Resize(lookback)
	}
	if st.lastPrice == 0 {
		st.lastPrice = price
		return
	}
	dir := 0
	switch {
	case price > st.lastPrice:
		dir = 1
	case price < st.lastPrice:
		dir = -1
	}
	st.ticks.Push(dir)
	st.lastPrice = price
}

// momentum 最近 lookback 笔价格变动方向之和；样本不足时为 0。
func momentum(ticks *ring.Buffer[int], lookback int) int {
	if ticks == nil || ticks.Len() < lookback {
		return 0
	}
	return ring.Sum(ticks)
}

// nearLevel 判断价格是否在高点或低点 dist 之内，先比较高点。
func nearLevel(price, high, low, dist float64) (nearHigh bool, ok bool) {
	p := decimal.NewFromFloat(price)
	d := decimal.NewFromFloat(dist)
	if p.Sub(decimal.NewFromFloat(high)).Abs().LessThanOrEqual(d) {
		return true, true
	}
	if p.Sub(decimal.NewFromFloat(low)).Abs().LessThanOrEqual(d) {
		return false, true
	}
	return false, false
}

func (h *Hunter) tick(symbol string) float64 {
	if t, ok := h.config.TickSizes[symbol]; ok && t > 0 {
		return t
	}
	return defaultTick
}

func (h *Hunter) recoverFault(symbol, handler string) {
	r := recover()
	if r == nil {
		return
	}
	h.statsMu.Lock()
	h.stats.Faults++
	h.statsMu.Unlock()
	if h.monitor != nil {
		h.monitor.RecordFault(symbol, "hunter_"+handler)
	}
	h.logger.Error("Recovered panic in hunter handler",
		zap.String("symbol", symbol),
		zap.String("handler", handler),
		zap.Any("panic", r),
		zap.ByteString("stack", debug.Stack()))
}

func (h *Hunter) state(symbol string) *instrumentState {
	h.mu.RLock()
	st, ok := h.states[symbol]
	h.mu.RUnlock()
	if ok {
		return st
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if st, ok = h.states[symbol]; !ok {
		st = &instrumentState{}
		h.states[symbol] = st
	}
	return st
}

// State 返回交易对当前状态；未见过的交易对为 IDLE。
func (h *Hunter) State(symbol string) State {
	h.mu.RLock()
	st, ok := h.states[symbol]
	h.mu.RUnlock()
	if !ok {
		return StateIdle
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state
}

// Symbols 已知交易对（已排序）
func (h *Hunter) Symbols() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.states))
	for sym := range h.states {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Reset 清空全部交易对状态
func (h *Hunter) Reset() {
	h.mu.Lock()
	h.states = make(map[string]*instrumentState)
	h.mu.Unlock()
	h.logger.Info("Hunter state reset")
}

// GetStatistics 统计副本
func (h *Hunter) GetStatistics() Statistics {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()
	return h.stats
}

// Params 当前参数副本
func (h *Hunter) Params() config.HunterParams {
	h.paramsMu.RLock()
	defer h.paramsMu.RUnlock()
	return h.params
}

// SetParam 修改单个参数，约定与 engine.SetParam 相同。
func (h *Hunter) SetParam(name string, value interface{}) error {
	h.paramsMu.Lock()
	next, err := h.params.With(name, value)
	if err == nil {
		h.params = next
	}
	h.paramsMu.Unlock()

	result := "accepted"
	if err != nil {
		result = "rejected"
		h.logger.Warn("Hunter parameter change rejected",
			zap.String("param", name),
			zap.Any("value", value),
			zap.Error(err))
	} else {
		h.logger.Info("Hunter parameter changed",
			zap.String("param", name),
			zap.Any("value", value))
	}
	if h.monitor != nil {
		h.monitor.RecordParamChange("hunter."+name, result)
	}
	if h.journal != nil {
		rec := journal.ParamChange{
			Scope:    "hunter",
			Name:     name,
			Value:    fmt.Sprint(value),
			Accepted: err == nil,
			Ts:       time.Now(),
		}
		if err != nil {
			rec.Error = err.Error()
		}
		if jerr := h.journal.RecordParamChange(rec); jerr != nil {
			h.logger.Warn("Failed to journal hunter parameter change", zap.Error(jerr))
		}
	}
	return err
}
