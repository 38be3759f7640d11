package engine

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"impact-maker-go/config"
	"impact-maker-go/infrastructure/logger"
	"impact-maker-go/infrastructure/monitor"
	"impact-maker-go/internal/journal"
	"impact-maker-go/market"
	"impact-maker-go/order"
	"impact-maker-go/strategy/impact"
)

// EngineState 引擎状态
type EngineState int

const (
	// StateRunning 正常报价
	StateRunning EngineState = iota
	// StatePaused 暂停：继续采集冲击样本，但不挂单
	StatePaused
	// StateStopped 停止：已撤销全部挂单
	StateStopped
)

// String 返回状态名称
func (s EngineState) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StatePaused:
		return "PAUSED"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// OrderRouter 下单/撤单出口，由 order.Manager 实现。
type OrderRouter interface {
	Submit(o order.Order) (*order.Order, error)
	Cancel(id string) error
}

// Config 引擎配置
type Config struct {
	Symbols  []string           // 预登记的交易对，其余在首个事件时创建
	Params   config.Params      // 初始策略参数
	LotSizes map[string]float64 // 各交易对数量步长
	ClientID string             // 订单 ID 前缀
}

// Components 引擎依赖组件
type Components struct {
	History   *impact.History
	Books     impact.BookSource
	Positions impact.PositionSource
	Orders    OrderRouter
	Logger    *logger.Logger
	Monitor   *monitor.Monitor
	Journal   *journal.Journal
}

// QuoteState 单个交易对的报价状态。同一交易对的事件由宿主串行投递，
// mu 只用于与跨交易对的运维命令互斥。
type QuoteState struct {
	mu sync.Mutex

	Active         map[string]struct{} // 当前挂单
	Bid            float64             // 最近下发的买价
	Ask            float64             // 最近下发的卖价
	AvgFillPrice   float64
	LastBookUpdate time.Time

	// 本引擎发出且尚未终结的订单（含已撤单待确认的），用于识别回报归属
	inflight map[string]struct{}
}

func newQuoteState() *QuoteState {
	return &QuoteState{
		Active:   make(map[string]struct{}),
		inflight: make(map[string]struct{}),
	}
}

// TradingEngine 冲击自适应报价的撤单-重挂协调器。
// 不启动 goroutine、不持有定时器，全部由宿主的事件驱动。
type TradingEngine struct {
	config Config

	calc    *impact.Calculator
	history *impact.History
	orders  OrderRouter
	logger  *logger.Logger
	monitor *monitor.Monitor
	journal *journal.Journal

	paramsMu sync.RWMutex
	params   config.Params

	mu     sync.RWMutex
	state  EngineState
	quotes map[string]*QuoteState

	stats Statistics
}

// Statistics 引擎统计信息
type Statistics struct {
	TotalTrades   int64
	TotalRequotes int64
	TotalQuotes   int64
	TotalSkips    int64
	TotalOrders   int64
	TotalFills    int64
	TotalErrors   int64
	TotalFaults   int64
	LastQuoteTime time.Time
	mu            sync.RWMutex
}

// New 创建交易引擎
func New(cfg Config, components Components) (*TradingEngine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := validateComponents(components); err != nil {
		return nil, fmt.Errorf("invalid components: %w", err)
	}

	if cfg.ClientID == "" {
		cfg.ClientID = "mm"
	}
	if components.History == nil {
		components.History = impact.NewHistory(cfg.Params.RollingWindow)
	} else if components.History.Window() != cfg.Params.RollingWindow {
		components.History.Resize(cfg.Params.RollingWindow)
	}
	if components.Logger == nil {
		components.Logger = logger.NewNop()
	}

	e := &TradingEngine{
		config:  cfg,
		calc:    impact.NewCalculator(components.History, components.Books, components.Positions),
		history: components.History,
		orders:  components.Orders,
		logger:  components.Logger,
		monitor: components.Monitor,
		journal: components.Journal,
		params:  cfg.Params,
		state:   StateRunning,
		quotes:  make(map[string]*QuoteState),
	}
	for _, sym := range cfg.Symbols {
		e.quotes[sym] = newQuoteState()
	}
	return e, nil
}

func validateConfig(cfg Config) error {
	if err := cfg.Params.Validate(); err != nil {
		return err
	}
	for sym, lot := range cfg.LotSizes {
		if lot < 0 {
			return fmt.Errorf("lot size for %s must be >= 0", sym)
		}
	}
	return nil
}

func validateComponents(c Components) error {
	if c.Books == nil {
		return errors.New("book source is required")
	}
	if c.Positions == nil {
		return errors.New("position source is required")
	}
	if c.Orders == nil {
		return errors.New("order router is required")
	}
	return nil
}

// OnTrade 估计成交冲击、写入样本并重新报价。
func (e *TradingEngine) OnTrade(tr market.Trade) {
	st := e.quoteState(tr.Symbol)
	defer e.recoverFault(tr.Symbol, st, "on_trade")
	st.mu.Lock()
	defer st.mu.Unlock()

	p := e.Params()
	v, n := e.calc.OnTrade(tr, p)

	e.stats.mu.Lock()
	e.stats.TotalTrades++
	e.stats.mu.Unlock()
	if e.monitor != nil {
		e.monitor.RecordImpact(tr.Symbol, v, n)
	}
	if p.Debug {
		e.logger.Debug("Trade impact recorded",
			zap.String("symbol", tr.Symbol),
			zap.String("aggressor", tr.Side()),
			zap.Float64("qty", tr.Qty),
			zap.Float64("impact", v),
			zap.Int("history_len", n))
	}

	e.requote(tr.Symbol, st, p)
}

// OnTopOfBook 盘口更新后重新报价；盘口需已写入 BookSource。
func (e *TradingEngine) OnTopOfBook(symbol string, ts time.Time) {
	st := e.quoteState(symbol)
	defer e.recoverFault(symbol, st, "on_top_of_book")
	st.mu.Lock()
	defer st.mu.Unlock()

	st.LastBookUpdate = ts
	e.requote(symbol, st, e.Params())
}

// OnOrderUpdate 处理本引擎订单的执行回报；其他来源的订单回报忽略。
func (e *TradingEngine) OnOrderUpdate(u order.Update) {
	st := e.quoteState(u.Symbol)
	defer e.recoverFault(u.Symbol, st, "on_order_update")
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ours := st.inflight[u.OrderID]; !ours {
		return
	}
	p := e.Params()

	switch u.Kind {
	case order.UpdateFill:
		delete(st.Active, u.OrderID)
		delete(st.inflight, u.OrderID)
		e.onFill(u, st)
		e.requote(u.Symbol, st, p)

	case order.UpdatePartialFill:
		// 重挂会撤掉剩余部分
		st.AvgFillPrice = u.FillPrice
		e.onFill(u, st)
		e.requote(u.Symbol, st, p)

	case order.UpdateCancel:
		delete(st.Active, u.OrderID)
		delete(st.inflight, u.OrderID)
		if e.monitor != nil {
			e.monitor.RecordOrderCanceled(u.Symbol)
		}

	case order.UpdateReject:
		delete(st.Active, u.OrderID)
		delete(st.inflight, u.OrderID)
		if e.monitor != nil {
			e.monitor.RecordOrderRejected(u.Symbol)
		}
		e.logger.Warn("Order rejected",
			zap.String("symbol", u.Symbol),
			zap.String("order_id", u.OrderID),
			zap.String("reason", u.Reason))

	case order.UpdateOpen:
	}
}

func (e *TradingEngine) onFill(u order.Update, st *QuoteState) {
	pos := e.calc.Positions.Position(u.Symbol)
	if u.Kind == order.UpdateFill && pos != 0 {
		st.AvgFillPrice = u.FillPrice
	}

	e.stats.mu.Lock()
	e.stats.TotalFills++
	e.stats.mu.Unlock()
	if e.monitor != nil {
		e.monitor.RecordOrderFilled(u.Symbol, string(u.Side))
		e.monitor.UpdatePosition(u.Symbol, pos)
	}
	e.logger.LogTrade("fill", map[string]interface{}{
		"symbol":   u.Symbol,
		"order_id": u.OrderID,
		"side":     string(u.Side),
		"qty":      u.FillQty,
		"price":    u.FillPrice,
		"partial":  u.Kind == order.UpdatePartialFill,
		"position": pos,
	})
}

// requote 撤掉全部挂单后按最新状态重新计算并下发报价。调用方持有 st.mu。
func (e *TradingEngine) requote(symbol string, st *QuoteState, p config.Params) {
	e.stats.mu.Lock()
	e.stats.TotalRequotes++
	e.stats.mu.Unlock()

	e.cancelTracked(symbol, st)

	if s := e.State(); s != StateRunning {
		e.skip(symbol, "engine_"+strings.ToLower(s.String()), p)
		return
	}

	q, reason := e.calc.Compute(symbol, p)
	if reason != impact.SkipNone {
		e.skip(symbol, string(reason), p)
		return
	}
	if gate := e.calc.Check(symbol, q, p); gate != impact.GateOK {
		e.skip(symbol, string(gate), p)
		return
	}

	sizes := e.calc.Sizes(symbol, p).RoundToLot(e.config.LotSizes[symbol], p.MinQuoteSize)
	placed := false
	if sizes.BidOK {
		if id, ok := e.submit(st, symbol, order.SideBuy, order.TypeLimit, q.Bid, sizes.Bid); ok {
			st.Active[id] = struct{}{}
			st.Bid = q.Bid
			placed = true
		}
	}
	if sizes.AskOK {
		if id, ok := e.submit(st, symbol, order.SideSell, order.TypeLimit, q.Ask, sizes.Ask); ok {
			st.Active[id] = struct{}{}
			st.Ask = q.Ask
			placed = true
		}
	}
	if !placed {
		e.skip(symbol, "no_size", p)
		return
	}

	now := time.Now()
	e.stats.mu.Lock()
	e.stats.TotalQuotes++
	e.stats.LastQuoteTime = now
	e.stats.mu.Unlock()
	if e.monitor != nil {
		e.monitor.RecordQuote(symbol, q.Bid, q.Ask)
	}
	pos := e.calc.Positions.Position(symbol)
	if p.Debug {
		e.logger.LogQuote(symbol, map[string]interface{}{
			"bid":      q.Bid,
			"ask":      q.Ask,
			"bid_size": sizes.Bid,
			"ask_size": sizes.Ask,
			"position": pos,
		})
	}
	if e.journal != nil {
		mid := 0.0
		if book, ok := e.calc.Books.Book(symbol); ok {
			mid = book.Mid()
		}
		rec := journal.QuoteRecord{
			Symbol: symbol, Bid: q.Bid, Ask: q.Ask,
			BidSize: sizeOrZero(sizes.Bid, sizes.BidOK), AskSize: sizeOrZero(sizes.Ask, sizes.AskOK),
			Mid: mid, Position: pos, Ts: now,
		}
		if err := e.journal.RecordQuote(rec); err != nil {
			e.logger.Warn("Failed to journal quote", zap.String("symbol", symbol), zap.Error(err))
		}
	}
}

func sizeOrZero(size float64, ok bool) float64 {
	if !ok {
		return 0
	}
	return size
}

func (e *TradingEngine) skip(symbol, reason string, p config.Params) {
	e.stats.mu.Lock()
	e.stats.TotalSkips++
	e.stats.mu.Unlock()
	if e.monitor != nil {
		e.monitor.RecordQuoteSkip(symbol, reason)
	}
	if p.Debug {
		e.logger.Debug("Quote skipped", zap.String("symbol", symbol), zap.String("reason", reason))
	}
}

// submit 下单并登记归属；失败只记录，不中断。调用方持有 st.mu。
func (e *TradingEngine) submit(st *QuoteState, symbol string, side order.Side, typ order.Type, price, qty float64) (string, bool) {
	o, err := e.orders.Submit(order.Order{
		ClientID:    e.config.ClientID,
		Symbol:      symbol,
		Side:        side,
		Type:        typ,
		TimeInForce: order.TIFDay,
		Price:       price,
		Quantity:    qty,
	})
	if err != nil {
		e.recordError(symbol, "submit")
		e.logger.Error("Failed to place order",
			zap.String("symbol", symbol),
			zap.String("side", string(side)),
			zap.String("type", string(typ)),
			zap.Float64("price", price),
			zap.Float64("size", qty),
			zap.Error(err))
		return "", false
	}

	st.inflight[o.ID] = struct{}{}

	e.stats.mu.Lock()
	e.stats.TotalOrders++
	e.stats.mu.Unlock()
	if e.monitor != nil {
		e.monitor.RecordOrderPlaced(symbol, string(side))
	}
	e.logger.Debug("Order placed",
		zap.String("symbol", symbol),
		zap.String("order_id", o.ID),
		zap.String("side", string(side)),
		zap.Float64("price", price),
		zap.Float64("size", qty))
	return o.ID, true
}

// cancelTracked 撤销交易对全部挂单并清空集合，撤单失败只记录。调用方持有 st.mu。
func (e *TradingEngine) cancelTracked(symbol string, st *QuoteState) {
	for _, id := range sortedIDs(st.Active) {
		if err := e.orders.Cancel(id); err != nil {
			e.recordError(symbol, "cancel")
			e.logger.Warn("Failed to cancel order",
				zap.String("symbol", symbol),
				zap.String("order_id", id),
				zap.Error(err))
		}
	}
	st.Active = make(map[string]struct{})
}

func (e *TradingEngine) recordError(symbol, action string) {
	e.stats.mu.Lock()
	e.stats.TotalErrors++
	e.stats.mu.Unlock()
	if e.monitor != nil {
		e.monitor.RecordOrderError(symbol, action)
	}
}

// recoverFault 捕获单个交易对事件处理中的 panic：记录堆栈并丢弃该交易对的挂单跟踪，
// 其他交易对不受影响。
func (e *TradingEngine) recoverFault(symbol string, st *QuoteState, handler string) {
	r := recover()
	if r == nil {
		return
	}
	e.stats.mu.Lock()
	e.stats.TotalFaults++
	e.stats.mu.Unlock()
	if e.monitor != nil {
		e.monitor.RecordFault(symbol, handler)
	}
	e.logger.Error("Recovered panic in handler",
		zap.String("symbol", symbol),
		zap.String("handler", handler),
		zap.Any("panic", r),
		zap.ByteString("stack", debug.Stack()))

	st.mu.Lock()
	defer st.mu.Unlock()
	func() {
		defer func() { _ = recover() }()
		e.cancelTracked(symbol, st)
	}()
	st.Active = make(map[string]struct{})
}

func (e *TradingEngine) quoteState(symbol string) *QuoteState {
	e.mu.RLock()
	st, ok := e.quotes[symbol]
	e.mu.RUnlock()
	if ok {
		return st
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok = e.quotes[symbol]; !ok {
		st = newQuoteState()
		e.quotes[symbol] = st
	}
	return st
}

// Symbols 已知交易对（已排序）。
func (e *TradingEngine) Symbols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.quotes))
	for sym := range e.quotes {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Snapshot 交易对报价状态的只读副本。
type Snapshot struct {
	Symbol         string
	ActiveOrders   []string
	Bid            float64
	Ask            float64
	AvgFillPrice   float64
	LastBookUpdate time.Time
}

// QuoteSnapshot 返回交易对当前报价状态。
func (e *TradingEngine) QuoteSnapshot(symbol string) (Snapshot, bool) {
	e.mu.RLock()
	st, ok := e.quotes[symbol]
	e.mu.RUnlock()
	if !ok {
		return Snapshot{Symbol: symbol}, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return Snapshot{
		Symbol:         symbol,
		ActiveOrders:   sortedIDs(st.Active),
		Bid:            st.Bid,
		Ask:            st.Ask,
		AvgFillPrice:   st.AvgFillPrice,
		LastBookUpdate: st.LastBookUpdate,
	}, true
}

// Pause 暂停报价并撤销挂单，冲击样本继续累积。
func (e *TradingEngine) Pause() error {
	e.mu.Lock()
	if e.state != StateRunning {
		s := e.state
		e.mu.Unlock()
		return fmt.Errorf("engine not running (state: %s)", s)
	}
	e.state = StatePaused
	e.mu.Unlock()

	e.CancelAll()
	e.logger.Info("Trading engine paused")
	return nil
}

// Resume 恢复报价，下一次事件触发时重新挂单。
func (e *TradingEngine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePaused {
		return fmt.Errorf("engine not paused (state: %s)", e.state)
	}
	e.state = StateRunning
	e.logger.Info("Trading engine resumed")
	return nil
}

// Stop 撤销全部挂单并停止报价；幂等。
func (e *TradingEngine) Stop() error {
	e.mu.Lock()
	if e.state == StateStopped {
		e.mu.Unlock()
		return nil
	}
	e.state = StateStopped
	e.mu.Unlock()

	e.CancelAll()
	e.logger.Info("Trading engine stopped")
	return nil
}

// State 当前引擎状态
func (e *TradingEngine) State() EngineState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// GetStatistics 获取统计信息副本
func (e *TradingEngine) GetStatistics() Statistics {
	e.stats.mu.RLock()
	defer e.stats.mu.RUnlock()
	return Statistics{
		TotalTrades:   e.stats.TotalTrades,
		TotalRequotes: e.stats.TotalRequotes,
		TotalQuotes:   e.stats.TotalQuotes,
		TotalSkips:    e.stats.TotalSkips,
		TotalOrders:   e.stats.TotalOrders,
		TotalFills:    e.stats.TotalFills,
		TotalErrors:   e.stats.TotalErrors,
		TotalFaults:   e.stats.TotalFaults,
		LastQuoteTime: e.stats.LastQuoteTime,
	}
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
