package market

import (
	"sync"
	"time"
)

// Service 维护每个交易对的最新盘口快照。
type Service struct {
	mu    sync.RWMutex
	books map[string]TopOfBook
	last  map[string]time.Time
}

func NewService() *Service {
	return &Service{
		books: make(map[string]TopOfBook),
		last:  make(map[string]time.Time),
	}
}

// OnBook 替换该交易对的盘口快照。档位切片会被复制，调用方可继续复用。
func (s *Service) OnBook(book TopOfBook) {
	cp := book
	cp.Bids = append([]Level(nil), book.Bids...)
	cp.Asks = append([]Level(nil), book.Asks...)
	ts := book.Ts
	if ts.IsZero() {
		ts = time.Now()
	}
	s.mu.Lock()
	s.books[book.Symbol] = cp
	s.last[book.Symbol] = ts
	s.mu.Unlock()
}

// Book 返回最新快照；若从未收到则第二个返回值为 false。
func (s *Service) Book(symbol string) (TopOfBook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[symbol]
	return b, ok
}

// Mid 返回当前中间价；若缺失则返回 0。
func (s *Service) Mid(symbol string) float64 {
	b, ok := s.Book(symbol)
	if !ok {
		return 0
	}
	return b.Mid()
}

// Staleness 返回 now 距离上次更新的时间间隔；如无数据返回一年。
func (s *Service) Staleness(symbol string, now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.last[symbol]
	if !ok {
		return time.Hour * 24 * 365
	}
	return now.Sub(ts)
}

// Symbols 返回已收到盘口的交易对。
func (s *Service) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.books))
	for sym := range s.books {
		out = append(out, sym)
	}
	return out
}
