package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"impact-maker-go/market"
	"impact-maker-go/order"
	"impact-maker-go/strategy/impact"
)

// ErrNoLiquidity 市价单没有可成交的对手盘。
var ErrNoLiquidity = errors.New("no liquidity for market order")

// PaperGateway 本地模拟撮合：限价单挂在簿上等待成交流撮合，市价单按对手最优价立即成交。
// 所有结果以 Update 排队，由 Drain 按交易对取出，模拟交易所的异步回报。
type PaperGateway struct {
	books   impact.BookSource
	resting *order.Book

	mu      sync.Mutex
	pending map[string][]order.Update
	fills   int
}

// NewPaperGateway 创建模拟网关，市价单参考 books 的盘口。
func NewPaperGateway(books impact.BookSource) *PaperGateway {
	return &PaperGateway{
		books:   books,
		resting: order.NewBook(),
		pending: make(map[string][]order.Update),
	}
}

// Place 实现 order.Gateway。订单 ID 由 order.Manager 分配。
func (g *PaperGateway) Place(o order.Order) (string, error) {
	if o.ID == "" {
		return "", errors.New("paper: order id is required")
	}
	ts := g.clock(o.Symbol)

	if o.Type == order.TypeMarket {
		book, ok := g.books.Book(o.Symbol)
		if !ok || !book.Valid() {
			return "", fmt.Errorf("paper %s: %w", o.Symbol, ErrNoLiquidity)
		}
		price := book.BestAsk()
		if o.Side == order.SideSell {
			price = book.BestBid()
		}
		g.enqueue(o.Symbol,
			order.Update{OrderID: o.ID, Symbol: o.Symbol, Side: o.Side, Kind: order.UpdateOpen, Ts: ts},
			order.Update{OrderID: o.ID, Symbol: o.Symbol, Side: o.Side, Kind: order.UpdateFill, FillQty: o.Quantity, FillPrice: price, Ts: ts},
		)
		g.mu.Lock()
		g.fills++
		g.mu.Unlock()
		return o.ID, nil
	}

	if o.Price <= 0 {
		return "", fmt.Errorf("paper: invalid limit price %.8f", o.Price)
	}
	o.Filled = 0
	o.Status = order.StatusAck
	if o.CreatedAt.IsZero() {
		o.CreatedAt = ts
	}
	g.resting.Set(o)
	g.enqueue(o.Symbol, order.Update{OrderID: o.ID, Symbol: o.Symbol, Side: o.Side, Kind: order.UpdateOpen, Ts: ts})
	return o.ID, nil
}

// Cancel 实现 order.Gateway：移除挂单并排队撤单回报。
func (g *PaperGateway) Cancel(id string) error {
	o, ok := g.resting.Remove(id)
	if !ok {
		return fmt.Errorf("paper cancel %s: %w", id, order.ErrUnknownOrder)
	}
	g.enqueue(o.Symbol, order.Update{OrderID: id, Symbol: o.Symbol, Side: o.Side, Kind: order.UpdateCancel, Ts: g.clock(o.Symbol)})
	return nil
}

// OnTrade 用一笔市场成交撮合挂单：卖方主动成交价不高于买单价时成交买单，
// 买方主动成交价不低于卖单价时成交卖单，按挂单先后消耗成交量，成交价为挂单价。
func (g *PaperGateway) OnTrade(tr market.Trade) {
	left := decimal.NewFromFloat(tr.Qty)
	for _, o := range g.resting.List(tr.Symbol) {
		if !left.IsPositive() {
			return
		}
		if !crosses(o, tr) {
			continue
		}
		remaining := decimal.NewFromFloat(o.Quantity).Sub(decimal.NewFromFloat(o.Filled))
		qty := decimal.Min(remaining, left)
		left = left.Sub(qty)

		o.Filled = decimal.NewFromFloat(o.Filled).Add(qty).InexactFloat64()
		u := order.Update{
			OrderID:   o.ID,
			Symbol:    o.Symbol,
			Side:      o.Side,
			FillQty:   qty.InexactFloat64(),
			FillPrice: o.Price,
			Ts:        tr.Ts,
		}
		if qty.Equal(remaining) {
			u.Kind = order.UpdateFill
			g.resting.Remove(o.ID)
		} else {
			u.Kind = order.UpdatePartialFill
			o.Status = order.StatusPartial
			g.resting.Set(o)
		}
		g.enqueue(o.Symbol, u)
		g.mu.Lock()
		g.fills++
		g.mu.Unlock()
	}
}

func crosses(o order.Order, tr market.Trade) bool {
	if o.Side == order.SideBuy {
		return !tr.BuyAggressor && tr.Price <= o.Price
	}
	return tr.BuyAggressor && tr.Price >= o.Price
}

// Drain 取出并清空交易对的待处理回报（按产生顺序）。
func (g *PaperGateway) Drain(symbol string) []order.Update {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.pending[symbol]
	delete(g.pending, symbol)
	return out
}

// Resting 交易对当前挂单
func (g *PaperGateway) Resting(symbol string) []order.Order {
	return g.resting.List(symbol)
}

// Fills 累计模拟成交笔数
func (g *PaperGateway) Fills() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fills
}

func (g *PaperGateway) enqueue(symbol string, us ...order.Update) {
	g.mu.Lock()
	g.pending[symbol] = append(g.pending[symbol], us...)
	g.mu.Unlock()
}

// clock 模拟时间取最新盘口时间，没有盘口时用墙钟。
func (g *PaperGateway) clock(symbol string) time.Time {
	if book, ok := g.books.Book(symbol); ok && !book.Ts.IsZero() {
		return book.Ts
	}
	return time.Now()
}
