package sim

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"impact-maker-go/internal/engine"
	"impact-maker-go/inventory"
	"impact-maker-go/strategy/hunter"
)

// SymbolReport 单个交易对的回测结果，已实现盈亏已扣除交易成本。
type SymbolReport struct {
	Book       string
	Symbol     string
	Position   float64
	AvgCost    float64
	Mid        float64
	Realized   float64
	Unrealized float64
	Fees       float64
	Volume     float64
	Trades     int
}

// Total 已实现加未实现
func (s SymbolReport) Total() float64 { return s.Realized + s.Unrealized }

// Report 模拟结束后的汇总
type Report struct {
	Events   map[string]int
	Symbols  []SymbolReport
	Engine   engine.Statistics
	Hunter   *hunter.Statistics
	Fills    int
	FillRate float64 // 最近窗口内每分钟成交
}

// TotalPnL 全部账簿的盈亏合计
func (r Report) TotalPnL() float64 {
	total := 0.0
	for _, s := range r.Symbols {
		total += s.Total()
	}
	return total
}

// Report 按当前中间价估值两本账簿。
func (r *Runner) Report(now time.Time) Report {
	rep := Report{
		Events: make(map[string]int, len(r.Feeds)),
		Engine: r.Engine.GetStatistics(),
	}
	for _, sym := range r.symbols() {
		rep.Events[sym] = r.Processed(sym)
	}
	rep.Symbols = append(rep.Symbols, valued("maker", r.MakerBook, r.Books)...)
	if r.Hunter != nil {
		stats := r.Hunter.GetStatistics()
		rep.Hunter = &stats
		rep.Symbols = append(rep.Symbols, valued("hunter", r.HunterBook, r.Books)...)
	}
	if r.Fills != nil {
		rep.Fills = r.Fills.Total()
		rep.FillRate = r.Fills.FillRate(now)
	}
	return rep
}

func valued(name string, book *inventory.Portfolio, mids inventory.MidSource) []SymbolReport {
	if book == nil {
		return nil
	}
	s := inventory.Sync{Portfolio: book, Mids: mids}
	var out []SymbolReport
	for _, v := range s.Snapshot() {
		out = append(out, SymbolReport{
			Book:       name,
			Symbol:     v.Symbol,
			Position:   v.Net,
			AvgCost:    v.AvgCost,
			Mid:        v.Mid,
			Realized:   v.Realized,
			Unrealized: v.Unrealized,
			Fees:       v.Fees,
			Volume:     v.Volume,
			Trades:     v.Trades,
		})
	}
	return out
}

// Write 以表格形式输出
func (r Report) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "book\tsymbol\tposition\tavg_cost\tmid\trealized\tunrealized\tfees\ttrades\t")
	for _, s := range r.Symbols {
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%d\t\n",
			s.Book, s.Symbol, s.Position, s.AvgCost, s.Mid, s.Realized, s.Unrealized, s.Fees, s.Trades)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "quotes=%d skips=%d orders=%d fills=%d errors=%d faults=%d\n",
		r.Engine.TotalQuotes, r.Engine.TotalSkips, r.Engine.TotalOrders, r.Engine.TotalFills,
		r.Engine.TotalErrors, r.Engine.TotalFaults)
	if r.Hunter != nil {
		fmt.Fprintf(w, "hunter entries=%d targets=%d timeouts=%d pnl=%.4f\n",
			r.Hunter.Entries, r.Hunter.TargetHits, r.Hunter.Timeouts, r.Hunter.RealizedPnL)
	}
	_, err := fmt.Fprintf(w, "total_pnl=%.4f fills=%d fill_rate=%.2f/min\n", r.TotalPnL(), r.Fills, r.FillRate)
	return err
}

