package impact

import (
	"sync"

	"impact-maker-go/internal/ring"
)

// History 每个交易对一份有界 FIFO 冲击样本，容量即滚动窗口长度。
//
// mu 只保护 map 结构与窗口调整：单个交易对的读写在读锁下进行，
// 同一交易对的事件由调用方串行化，不同交易对互不影响。
type History struct {
	mu     sync.RWMutex
	window int
	series map[string]*ring.Buffer[float64]
}

// NewHistory 创建窗口长度为 window 的样本存储。
func NewHistory(window int) *History {
	if window < 1 {
		window = 1
	}
	return &History{
		window: window,
		series: make(map[string]*ring.Buffer[float64]),
	}
}

// Record 追加一个样本，超出窗口时淘汰最旧样本；返回追加后的长度。
func (h *History) Record(symbol string, impact float64) int {
	h.mu.RLock()
	if buf, ok := h.series[symbol]; ok {
		buf.Push(impact)
		n := buf.Len()
		h.mu.RUnlock()
		return n
	}
	h.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	buf, ok := h.series[symbol]
	if !ok {
		buf = ring.New[float64](h.window)
		h.series[symbol] = buf
	}
	buf.Push(impact)
	return buf.Len()
}

// Snapshot 按到达顺序返回样本副本；未知交易对返回空序列。
func (h *History) Snapshot(symbol string) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	buf, ok := h.series[symbol]
	if !ok {
		return nil
	}
	return buf.Values()
}

// Len 返回当前样本数。
func (h *History) Len(symbol string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if buf, ok := h.series[symbol]; ok {
		return buf.Len()
	}
	return 0
}

// Window 当前滚动窗口长度。
func (h *History) Window() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.window
}

// Resize 调整滚动窗口，每个交易对保留最新的 min(len, window) 个样本。
func (h *History) Resize(window int) {
	if window < 1 {
		window = 1
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.window = window
	for _, buf := range h.series {
		buf.Resize(window)
	}
}

// Clear 清空所有交易对的样本（策略重置）。
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.series = make(map[string]*ring.Buffer[float64])
}
