package order

import (
	"sort"
	"sync"
)

// Book 挂单簿：记录尚在簿上的订单，按交易对查询。
type Book struct {
	mu     sync.RWMutex
	orders map[string]Order
}

func NewBook() *Book {
	return &Book{orders: make(map[string]Order)}
}

func (b *Book) Set(o Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders[o.ID] = o
}

func (b *Book) Get(id string) (Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.orders[id]
	return o, ok
}

// Remove 移除订单并返回移除前的副本。
func (b *Book) Remove(id string) (Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[id]
	if ok {
		delete(b.orders, id)
	}
	return o, ok
}

// List 返回交易对全部挂单（拷贝），按创建时间排序；symbol 为空时返回全部。
func (b *Book) List(symbol string) []Order {
	b.mu.RLock()
	res := make([]Order, 0, len(b.orders))
	for _, o := range b.orders {
		if symbol == "" || o.Symbol == symbol {
			res = append(res, o)
		}
	}
	b.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res
}

func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.orders)
}
