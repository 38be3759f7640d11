package inventory

import (
	"sort"
	"sync"

	"impact-maker-go/order"
)

// Portfolio 按交易对维护仓位，供报价与平仓逻辑查询。
type Portfolio struct {
	mu        sync.RWMutex
	positions map[string]*Tracker
}

func NewPortfolio() *Portfolio {
	return &Portfolio{positions: make(map[string]*Tracker)}
}

// Position 净仓位（多为正、空为负）。
func (p *Portfolio) Position(symbol string) float64 {
	t, ok := p.tracker(symbol, false)
	if !ok {
		return 0
	}
	return t.NetExposure()
}

// ApplyFill 记入一笔成交。
func (p *Portfolio) ApplyFill(symbol string, side order.Side, qty, price, fee float64) {
	if qty <= 0 {
		return
	}
	t, _ := p.tracker(symbol, true)
	t.Update(side.Sign()*qty, price, fee)
}

// Get 交易对仓位快照。
func (p *Portfolio) Get(symbol string) Position {
	t, ok := p.tracker(symbol, false)
	if !ok {
		return Position{Symbol: symbol}
	}
	return t.snapshot(symbol)
}

// Snapshot 全部交易对仓位，按交易对排序。
func (p *Portfolio) Snapshot() []Position {
	p.mu.RLock()
	res := make([]Position, 0, len(p.positions))
	for sym, t := range p.positions {
		res = append(res, t.snapshot(sym))
	}
	p.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool { return res[i].Symbol < res[j].Symbol })
	return res
}

func (p *Portfolio) tracker(symbol string, create bool) (*Tracker, bool) {
	p.mu.RLock()
	t, ok := p.positions[symbol]
	p.mu.RUnlock()
	if ok || !create {
		return t, ok
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok = p.positions[symbol]; !ok {
		t = &Tracker{}
		p.positions[symbol] = t
	}
	return t, true
}
