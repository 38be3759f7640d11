package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"impact-maker-go/infrastructure/logger"
	"impact-maker-go/internal/engine"
	"impact-maker-go/internal/journal"
	"impact-maker-go/inventory"
	"impact-maker-go/market"
	"impact-maker-go/order"
	"impact-maker-go/strategy/hunter"
)

// Runner 将合成行情 -> 模拟撮合 -> 订单管理 -> 持仓 -> 策略串起来。
// 每个交易对一个 goroutine，交易对内部事件严格串行。
type Runner struct {
	Feeds   map[string]*Feed
	Books   *market.Service
	Gateway *PaperGateway
	Orders  *order.Manager
	Engine  *engine.TradingEngine
	Hunter  *hunter.Hunter // 可选

	// 做市与猎杀各自记账，互不影响对方的平仓数量
	MakerBook  *inventory.Portfolio
	HunterBook *inventory.Portfolio

	Fills   *order.FillTracker
	Journal *journal.Journal // 可选
	Logger  *logger.Logger

	Events          int           // 每个交易对的事件数
	BarInterval     time.Duration // 猎杀策略所用 K 线周期
	TransactionCost float64       // 每单位成交的费用
	HunterClientID  string

	mu        sync.Mutex
	processed map[string]int
}

// Run 并发驱动全部交易对直到事件耗尽或 ctx 取消。
func (r *Runner) Run(ctx context.Context) error {
	if err := r.validate(); err != nil {
		return err
	}
	if r.Logger == nil {
		r.Logger = logger.NewNop()
	}
	r.mu.Lock()
	r.processed = make(map[string]int, len(r.Feeds))
	r.mu.Unlock()

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		errs  []error
	)
	for _, sym := range r.symbols() {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			if err := r.runSymbol(ctx, sym); err != nil {
				errMu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", sym, err))
				errMu.Unlock()
			}
		}(sym)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (r *Runner) validate() error {
	switch {
	case len(r.Feeds) == 0:
		return errors.New("runner has no feeds")
	case r.Books == nil || r.Gateway == nil || r.Orders == nil || r.Engine == nil:
		return errors.New("runner not initialized")
	case r.MakerBook == nil:
		return errors.New("runner requires a maker portfolio")
	case r.Hunter != nil && r.HunterBook == nil:
		return errors.New("runner requires a hunter portfolio when the hunter is enabled")
	case r.BarInterval <= 0 && r.Hunter != nil:
		return errors.New("runner requires a bar interval when the hunter is enabled")
	}
	return nil
}

func (r *Runner) runSymbol(ctx context.Context, sym string) error {
	feed := r.Feeds[sym]
	var bars *market.KlineAggregator
	if r.Hunter != nil {
		bars = market.NewKlineAggregator(sym, r.BarInterval)
	}
	for i := 0; i < r.Events; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		r.Step(sym, feed.Next(), bars)
	}
	r.Logger.Info("Symbol simulation finished",
		zap.String("symbol", sym),
		zap.Int("events", r.Events))
	return nil
}

// Step 处理一步行情：盘口 -> 报价，成交 -> 撮合、K线、策略，随后派发回报。
func (r *Runner) Step(sym string, ev Event, bars *market.KlineAggregator) {
	r.Books.OnBook(ev.Book)
	r.Engine.OnTopOfBook(sym, ev.Book.Ts)
	r.dispatch(sym)

	tr := ev.Trade
	r.Gateway.OnTrade(tr)
	r.dispatch(sym)

	if bars != nil {
		if closed := bars.OnTrade(tr.Price, tr.Qty, tr.Ts); closed != nil {
			r.Hunter.OnBar(sym, *closed)
		}
	}
	r.Engine.OnTrade(tr)
	if r.Hunter != nil {
		r.Hunter.OnTrade(tr)
	}
	r.dispatch(sym)

	r.mu.Lock()
	if r.processed == nil {
		r.processed = make(map[string]int)
	}
	r.processed[sym]++
	r.mu.Unlock()
}

// dispatch 派发网关回报直到队列清空；策略对回报的反应可能产生新的回报。
func (r *Runner) dispatch(sym string) {
	for {
		updates := r.Gateway.Drain(sym)
		if len(updates) == 0 {
			return
		}
		for _, u := range updates {
			r.apply(u)
		}
	}
}

func (r *Runner) apply(u order.Update) {
	o, err := r.Orders.Apply(u)
	if err != nil {
		r.Logger.Warn("Order update not applied",
			zap.String("symbol", u.Symbol),
			zap.String("order_id", u.OrderID),
			zap.String("kind", string(u.Kind)),
			zap.Error(err))
		return
	}
	if u.Kind.IsFill() && u.FillQty > 0 {
		r.recordFill(o, u)
	}
	r.Engine.OnOrderUpdate(u)
	if r.Hunter != nil {
		r.Hunter.OnOrderUpdate(u)
	}
}

func (r *Runner) recordFill(o order.Order, u order.Update) {
	fee := u.FillQty * r.TransactionCost
	source := "maker"
	book := r.MakerBook
	if r.isHunterOrder(o) {
		source = "hunter"
		book = r.HunterBook
	}
	book.ApplyFill(u.Symbol, o.Side, u.FillQty, u.FillPrice, fee)

	if r.Fills != nil {
		r.Fills.RecordFill(order.FillEvent{
			OrderID:   u.OrderID,
			Symbol:    u.Symbol,
			Side:      o.Side,
			Price:     u.FillPrice,
			Quantity:  u.FillQty,
			Fee:       fee,
			Timestamp: u.Ts,
		})
	}
	if r.Journal != nil {
		rec := journal.FillRecord{
			OrderID: u.OrderID,
			Symbol:  u.Symbol,
			Side:    string(o.Side),
			Qty:     u.FillQty,
			Price:   u.FillPrice,
			Fee:     fee,
			Source:  source,
			Ts:      u.Ts,
		}
		if err := r.Journal.RecordFill(rec); err != nil {
			r.Logger.Warn("Failed to journal fill", zap.String("order_id", u.OrderID), zap.Error(err))
		}
	}
}

func (r *Runner) isHunterOrder(o order.Order) bool {
	if r.Hunter == nil {
		return false
	}
	prefix := r.HunterClientID
	if prefix == "" {
		prefix = "hunter"
	}
	return o.ClientID == prefix
}

// Processed 交易对已处理的事件数
func (r *Runner) Processed(sym string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processed[sym]
}

func (r *Runner) symbols() []string {
	out := make([]string, 0, len(r.Feeds))
	for sym := range r.Feeds {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Shutdown 停止引擎并派发剩余回报（撤单确认）；须在 Run 返回后调用。
func (r *Runner) Shutdown() error {
	if r.Logger == nil {
		r.Logger = logger.NewNop()
	}
	err := r.Engine.Stop()
	for _, sym := range r.symbols() {
		r.dispatch(sym)
	}
	return err
}
