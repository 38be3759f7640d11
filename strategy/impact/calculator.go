package impact

import (
	"impact-maker-go/config"
	"impact-maker-go/market"
)

// BookSource 提供交易对最新盘口。
type BookSource interface {
	Book(symbol string) (market.TopOfBook, bool)
}

// PositionSource 提供交易对当前净持仓。
type PositionSource interface {
	Position(symbol string) float64
}

// Calculator 把盘口、冲击样本、持仓组合成一次报价计算。
type Calculator struct {
	History   *History
	Books     BookSource
	Positions PositionSource
}

func NewCalculator(history *History, books BookSource, positions PositionSource) *Calculator {
	return &Calculator{History: history, Books: books, Positions: positions}
}

// OnTrade 估计成交冲击并写入样本，返回冲击值与样本长度。
// 盘口缺失时按空盘口估计（冲击为 0），样本仍然记录。
func (c *Calculator) OnTrade(tr market.Trade, p config.Params) (float64, int) {
	book, _ := c.Books.Book(tr.Symbol)
	v := EstimateTrade(book, tr, p)
	return v, c.History.Record(tr.Symbol, v)
}

// Compute 计算交易对的理论买卖价。
func (c *Calculator) Compute(symbol string, p config.Params) (Quote, SkipReason) {
	book, ok := c.Books.Book(symbol)
	if !ok {
		return Quote{}, SkipNoBook
	}
	return ComputeQuote(QuoteInput{
		Book:     book,
		History:  c.History.Snapshot(symbol),
		Position: c.position(symbol),
		Params:   p,
	})
}

// Sizes 计算交易对两侧挂单数量。
func (c *Calculator) Sizes(symbol string, p config.Params) Sizes {
	return ComputeSizes(c.position(symbol), p)
}

// Check 以最新盘口校验报价。
func (c *Calculator) Check(symbol string, q Quote, p config.Params) GateReason {
	book, ok := c.Books.Book(symbol)
	if !ok {
		return GateNoBook
	}
	return Check(book, q.Bid, q.Ask, p)
}

func (c *Calculator) position(symbol string) float64 {
	if c.Positions == nil {
		return 0
	}
	return c.Positions.Position(symbol)
}
