package order

import (
	"sync"
	"time"

	"impact-maker-go/internal/ring"
)

// FillEvent 成交事件
type FillEvent struct {
	OrderID   string
	Symbol    string
	Side      Side
	Price     float64
	Quantity  float64
	Fee       float64
	Timestamp time.Time
}

// FillStats 单个交易对的累计成交统计
type FillStats struct {
	Count    int
	BuyQty   float64
	SellQty  float64
	Notional float64
	Fees     float64
}

// FillTracker 跟踪成交历史：累计统计按交易对汇总，近期成交保留最近 maxHistory 条。
// 时间以成交事件自身的时间戳为准，回放与实盘一致。
type FillTracker struct {
	mu     sync.RWMutex
	recent *ring.Buffer[FillEvent]
	window time.Duration
	stats  map[string]*FillStats
	total  int
}

// NewFillTracker 创建成交跟踪器
func NewFillTracker(maxHistory int, window time.Duration) *FillTracker {
	if maxHistory <= 0 {
		maxHistory = 100
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &FillTracker{
		recent: ring.New[FillEvent](maxHistory),
		window: window,
		stats:  make(map[string]*FillStats),
	}
}

// RecordFill 记录成交
func (f *FillTracker) RecordFill(ev FillEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.recent.Push(ev)
	f.total++

	st, ok := f.stats[ev.Symbol]
	if !ok {
		st = &FillStats{}
		f.stats[ev.Symbol] = st
	}
	st.Count++
	if ev.Side == SideBuy {
		st.BuyQty += ev.Quantity
	} else {
		st.SellQty += ev.Quantity
	}
	st.Notional += ev.Price * ev.Quantity
	st.Fees += ev.Fee
}

// FillRate 截至 now 的窗口内每分钟成交次数
func (f *FillTracker) FillRate(now time.Time) float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	cutoff := now.Add(-f.window)
	count := 0
	for _, ev := range f.recent.Values() {
		if ev.Timestamp.After(cutoff) && !ev.Timestamp.After(now) {
			count++
		}
	}
	return float64(count) / f.window.Minutes()
}

// Recent 近期成交记录（只读副本，按时间先后）
func (f *FillTracker) Recent() []FillEvent {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.recent.Values()
}

// Stats 交易对累计统计
func (f *FillTracker) Stats(symbol string) FillStats {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if st, ok := f.stats[symbol]; ok {
		return *st
	}
	return FillStats{}
}

// Total 总成交笔数
func (f *FillTracker) Total() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.total
}

// Reset 重置跟踪器
func (f *FillTracker) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recent.Reset()
	f.stats = make(map[string]*FillStats)
	f.total = 0
}
