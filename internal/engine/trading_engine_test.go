package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impact-maker-go/config"
	"impact-maker-go/infrastructure/monitor"
	"impact-maker-go/internal/journal"
	"impact-maker-go/market"
	"impact-maker-go/order"
	"impact-maker-go/strategy/impact"
)

const sym = "ETHUSDC"

// mockRouter 模拟下单出口，记录下单与撤单
type mockRouter struct {
	mu        sync.Mutex
	seq       int
	submitted []order.Order
	canceled  []string
	failSide  order.Side
	panicOn   string
	errCancel error
}

func (m *mockRouter) Submit(o order.Order) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicOn != "" && o.Symbol == m.panicOn {
		panic("router exploded")
	}
	if m.failSide != "" && o.Side == m.failSide {
		return nil, errors.New("venue rejected")
	}
	m.seq++
	o.ID = fmt.Sprintf("%s-%d", o.ClientID, m.seq)
	o.Status = order.StatusAck
	m.submitted = append(m.submitted, o)
	return &o, nil
}

func (m *mockRouter) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.canceled = append(m.canceled, id)
	return m.errCancel
}

func (m *mockRouter) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = nil
	m.canceled = nil
}

func (m *mockRouter) snapshot() ([]order.Order, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]order.Order(nil), m.submitted...), append([]string(nil), m.canceled...)
}

type mockPositions struct {
	mu  sync.Mutex
	pos map[string]float64
}

func (m *mockPositions) Position(symbol string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos[symbol]
}

func (m *mockPositions) set(symbol string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pos[symbol] = v
}

type fixture struct {
	engine    *TradingEngine
	router    *mockRouter
	books     *market.Service
	positions *mockPositions
	history   *impact.History
	monitor   *monitor.Monitor
}

func newFixture(t *testing.T, mutate ...func(*Config, *Components)) *fixture {
	t.Helper()
	f := &fixture{
		router:    &mockRouter{},
		books:     market.NewService(),
		positions: &mockPositions{pos: map[string]float64{}},
		monitor:   monitor.New(monitor.DefaultConfig()),
	}
	p := config.DefaultParams()
	p.Debug = false
	cfg := Config{Symbols: []string{sym}, Params: p}
	comps := Components{
		Books:     f.books,
		Positions: f.positions,
		Orders:    f.router,
		Monitor:   f.monitor,
	}
	for _, m := range mutate {
		m(&cfg, &comps)
	}
	e, err := New(cfg, comps)
	require.NoError(t, err)
	f.engine = e
	f.history = e.history
	f.publishBook(sym, 100, 0.01)
	return f
}

func (f *fixture) publishBook(symbol string, mid, half float64) {
	f.books.OnBook(market.TopOfBook{
		Symbol: symbol,
		Bids:   []market.Level{{Price: mid - half, Size: 10}},
		Asks:   []market.Level{{Price: mid + half, Size: 10}},
		Ts:     time.Now(),
	})
}

// fillHistory 写入 1..n 的买卖冲击，足以让默认窗口产生报价
func (f *fixture) fillHistory(symbol string, n int) {
	for i := 1; i <= n; i++ {
		f.history.Record(symbol, float64(i))
		f.history.Record(symbol, -float64(i))
	}
}

func TestNewValidation(t *testing.T) {
	p := config.DefaultParams()
	_, err := New(Config{Params: p}, Components{})
	assert.Error(t, err, "missing components should fail")

	bad := p
	bad.QuantileThreshold = 1.5
	_, err = New(Config{Params: bad}, Components{Books: market.NewService(), Positions: &mockPositions{}, Orders: &mockRouter{}})
	assert.Error(t, err, "invalid params should fail")
}

func TestQuoteScenario(t *testing.T) {
	f := newFixture(t)
	f.fillHistory(sym, 50)

	f.engine.OnTopOfBook(sym, time.Now())

	submitted, _ := f.router.snapshot()
	require.Len(t, submitted, 2)
	bid, ask := submitted[0], submitted[1]
	assert.Equal(t, order.SideBuy, bid.Side)
	assert.Equal(t, order.SideSell, ask.Side)
	assert.Equal(t, order.TypeLimit, bid.Type)
	assert.Equal(t, order.TIFDay, bid.TimeInForce)
	assert.InDelta(t, 99.90, bid.Price, 1e-9)
	assert.InDelta(t, 100.10, ask.Price, 1e-9)
	assert.Equal(t, 100.0, bid.Quantity)
	assert.Equal(t, 100.0, ask.Quantity)

	snap, ok := f.engine.QuoteSnapshot(sym)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{bid.ID, ask.ID}, snap.ActiveOrders)
	assert.InDelta(t, 99.90, snap.Bid, 1e-9)
	assert.InDelta(t, 100.10, snap.Ask, 1e-9)

	stats := f.engine.GetStatistics()
	assert.Equal(t, int64(1), stats.TotalQuotes)
	assert.Equal(t, int64(2), stats.TotalOrders)
	n, err := testutil.GatherAndCount(f.monitor.Registry(), "impact_mm_quotes_generated_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCancelAndReplace(t *testing.T) {
	f := newFixture(t)
	f.fillHistory(sym, 50)

	f.engine.OnTopOfBook(sym, time.Now())
	first, _ := f.router.snapshot()
	require.Len(t, first, 2)

	f.engine.OnTopOfBook(sym, time.Now())
	submitted, canceled := f.router.snapshot()
	require.Len(t, submitted, 4)
	assert.ElementsMatch(t, []string{first[0].ID, first[1].ID}, canceled)

	snap, _ := f.engine.QuoteSnapshot(sym)
	assert.ElementsMatch(t, []string{submitted[2].ID, submitted[3].ID}, snap.ActiveOrders)
}

func TestInsufficientHistorySkips(t *testing.T) {
	f := newFixture(t)

	f.engine.OnTrade(market.Trade{Symbol: sym, Price: 100.01, Qty: 1, BuyAggressor: true})

	submitted, _ := f.router.snapshot()
	assert.Empty(t, submitted)
	assert.Equal(t, 1, f.history.Len(sym))
	stats := f.engine.GetStatistics()
	assert.Equal(t, int64(1), stats.TotalTrades)
	assert.Equal(t, int64(1), stats.TotalSkips)
}

func TestGateBlocksCrossedQuote(t *testing.T) {
	f := newFixture(t)
	f.fillHistory(sym, 50)
	// 满仓时两侧下移 0.02*mid = 2.0，卖价低于对手买一
	f.positions.set(sym, 100)

	f.engine.OnTopOfBook(sym, time.Now())

	submitted, _ := f.router.snapshot()
	assert.Empty(t, submitted)
	assert.Equal(t, int64(1), f.engine.GetStatistics().TotalSkips)
}

func TestPositionShiftsQuoteOnWideBook(t *testing.T) {
	f := newFixture(t)
	f.fillHistory(sym, 50)
	f.publishBook(sym, 100, 5)
	f.positions.set(sym, 100)

	f.engine.OnTopOfBook(sym, time.Now())

	submitted, _ := f.router.snapshot()
	require.Len(t, submitted, 2)
	assert.InDelta(t, 97.90, submitted[0].Price, 1e-9)
	assert.InDelta(t, 98.10, submitted[1].Price, 1e-9)
	// 满仓：基础量为 0，两侧钳制到最小挂单量
	assert.Equal(t, 10.0, submitted[0].Quantity)
	assert.Equal(t, 10.0, submitted[1].Quantity)
}

func TestFillRequotesAndRecordsAvgPrice(t *testing.T) {
	f := newFixture(t)
	f.fillHistory(sym, 50)
	f.engine.OnTopOfBook(sym, time.Now())
	first, _ := f.router.snapshot()
	require.Len(t, first, 2)
	bidID, askID := first[0].ID, first[1].ID

	f.positions.set(sym, 100)
	f.publishBook(sym, 100, 5)
	f.router.reset()
	f.engine.OnOrderUpdate(order.Update{
		OrderID: bidID, Symbol: sym, Side: order.SideBuy,
		Kind: order.UpdateFill, FillQty: 100, FillPrice: 99.9,
	})

	submitted, canceled := f.router.snapshot()
	assert.Equal(t, []string{askID}, canceled, "only the remaining quote is canceled")
	assert.Len(t, submitted, 2)
	snap, _ := f.engine.QuoteSnapshot(sym)
	assert.Equal(t, 99.9, snap.AvgFillPrice)
	assert.NotContains(t, snap.ActiveOrders, bidID)
	assert.Equal(t, int64(1), f.engine.GetStatistics().TotalFills)
}

func TestFillWhenFlatKeepsAvgPrice(t *testing.T) {
	f := newFixture(t)
	f.fillHistory(sym, 50)
	f.engine.OnTopOfBook(sym, time.Now())
	first, _ := f.router.snapshot()

	f.engine.OnOrderUpdate(order.Update{OrderID: first[0].ID, Symbol: sym, Side: order.SideBuy, Kind: order.UpdateFill, FillQty: 1, FillPrice: 99.9})

	snap, _ := f.engine.QuoteSnapshot(sym)
	assert.Zero(t, snap.AvgFillPrice)
}

func TestPartialFillRequotes(t *testing.T) {
	f := newFixture(t)
	f.fillHistory(sym, 50)
	f.engine.OnTopOfBook(sym, time.Now())
	first, _ := f.router.snapshot()
	f.router.reset()

	f.engine.OnOrderUpdate(order.Update{OrderID: first[1].ID, Symbol: sym, Side: order.SideSell, Kind: order.UpdatePartialFill, FillQty: 10, FillPrice: 100.1})

	submitted, canceled := f.router.snapshot()
	assert.ElementsMatch(t, []string{first[0].ID, first[1].ID}, canceled, "requote cancels the partially filled remainder")
	assert.Len(t, submitted, 2)
	snap, _ := f.engine.QuoteSnapshot(sym)
	assert.Equal(t, 100.1, snap.AvgFillPrice)
}

func TestCancelAndRejectDoNotRequote(t *testing.T) {
	f := newFixture(t)
	f.fillHistory(sym, 50)
	f.engine.OnTopOfBook(sym, time.Now())
	first, _ := f.router.snapshot()
	f.router.reset()

	f.engine.OnOrderUpdate(order.Update{OrderID: first[0].ID, Symbol: sym, Kind: order.UpdateCancel})
	f.engine.OnOrderUpdate(order.Update{OrderID: first[1].ID, Symbol: sym, Kind: order.UpdateReject, Reason: "post only"})
	f.engine.OnOrderUpdate(order.Update{OrderID: first[1].ID, Symbol: sym, Kind: order.UpdateOpen})

	submitted, canceled := f.router.snapshot()
	assert.Empty(t, submitted)
	assert.Empty(t, canceled)
	snap, _ := f.engine.QuoteSnapshot(sym)
	assert.Empty(t, snap.ActiveOrders)
}

func TestForeignUpdatesIgnored(t *testing.T) {
	f := newFixture(t)
	f.fillHistory(sym, 50)

	f.engine.OnOrderUpdate(order.Update{OrderID: "hunter-1", Symbol: sym, Kind: order.UpdateFill, FillQty: 1, FillPrice: 100})

	submitted, _ := f.router.snapshot()
	assert.Empty(t, submitted)
	assert.Zero(t, f.engine.GetStatistics().TotalFills)
}

func TestSubmitErrorDoesNotAbort(t *testing.T) {
	f := newFixture(t)
	f.router.failSide = order.SideBuy
	f.fillHistory(sym, 50)

	f.engine.OnTopOfBook(sym, time.Now())

	submitted, _ := f.router.snapshot()
	require.Len(t, submitted, 1)
	assert.Equal(t, order.SideSell, submitted[0].Side)
	assert.Equal(t, int64(1), f.engine.GetStatistics().TotalErrors)
}

func TestCancelErrorStillClearsActive(t *testing.T) {
	f := newFixture(t)
	f.fillHistory(sym, 50)
	f.engine.OnTopOfBook(sym, time.Now())
	f.router.errCancel = errors.New("unknown order")

	f.engine.OnTopOfBook(sym, time.Now())

	submitted, _ := f.router.snapshot()
	snap, _ := f.engine.QuoteSnapshot(sym)
	assert.ElementsMatch(t, []string{submitted[2].ID, submitted[3].ID}, snap.ActiveOrders)
	assert.Equal(t, int64(2), f.engine.GetStatistics().TotalErrors)
}

func TestPanicIsContainedPerSymbol(t *testing.T) {
	f := newFixture(t)
	f.router.panicOn = "BTCUSDC"
	f.fillHistory(sym, 50)
	f.fillHistory("BTCUSDC", 50)
	f.publishBook("BTCUSDC", 100, 0.01)

	assert.NotPanics(t, func() { f.engine.OnTopOfBook("BTCUSDC", time.Now()) })
	assert.Equal(t, int64(1), f.engine.GetStatistics().TotalFaults)
	snap, _ := f.engine.QuoteSnapshot("BTCUSDC")
	assert.Empty(t, snap.ActiveOrders)

	f.engine.OnTopOfBook(sym, time.Now())
	submitted, _ := f.router.snapshot()
	assert.Len(t, submitted, 2, "other symbols keep quoting")
}

func TestLotSizeRounding(t *testing.T) {
	f := newFixture(t, func(cfg *Config, _ *Components) {
		cfg.LotSizes = map[string]float64{sym: 7}
	})
	f.fillHistory(sym, 50)

	f.engine.OnTopOfBook(sym, time.Now())

	submitted, _ := f.router.snapshot()
	require.Len(t, submitted, 2)
	assert.Equal(t, 98.0, submitted[0].Quantity)
}

func TestPauseResumeStop(t *testing.T) {
	f := newFixture(t)
	f.fillHistory(sym, 50)
	f.engine.OnTopOfBook(sym, time.Now())

	require.NoError(t, f.engine.Pause())
	assert.Error(t, f.engine.Pause())
	_, canceled := f.router.snapshot()
	assert.Len(t, canceled, 2)

	f.router.reset()
	f.engine.OnTrade(market.Trade{Symbol: sym, Price: 100, Qty: 1, BuyAggressor: true})
	submitted, _ := f.router.snapshot()
	assert.Empty(t, submitted, "paused engine does not quote")

	require.NoError(t, f.engine.Resume())
	f.engine.OnTopOfBook(sym, time.Now())
	submitted, _ = f.router.snapshot()
	assert.Len(t, submitted, 2)

	require.NoError(t, f.engine.Stop())
	require.NoError(t, f.engine.Stop())
	assert.Equal(t, StateStopped, f.engine.State())
	assert.Error(t, f.engine.Resume())
}

func TestConcurrentSymbols(t *testing.T) {
	f := newFixture(t)
	symbols := []string{"AAA", "BBB", "CCC", "DDD"}
	for _, s := range symbols {
		f.publishBook(s, 100, 0.01)
	}

	var wg sync.WaitGroup
	for _, s := range symbols {
		wg.Add(1)
		go func(s string) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				f.engine.OnTrade(market.Trade{Symbol: s, Price: 100, Qty: float64(i%5 + 1), BuyAggressor: i%2 == 0})
			}
		}(s)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			_ = f.engine.SetParam("rolling_window", 40+i)
			f.engine.CancelAll()
		}
	}()
	wg.Wait()

	for _, s := range symbols {
		assert.LessOrEqual(t, f.history.Len(s), f.history.Window())
	}
	assert.Zero(t, f.engine.GetStatistics().TotalFaults)
}

func TestJournalRecordsQuotesAndParams(t *testing.T) {
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	f := newFixture(t, func(_ *Config, c *Components) { c.Journal = j })
	f.fillHistory(sym, 50)
	f.engine.OnTopOfBook(sym, time.Now())
	require.NoError(t, f.engine.SetParam("quote_size", 50))
	require.Error(t, f.engine.SetParam("quote_size", "lots"))

	quotes, err := j.Quotes(sym, 0)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.InDelta(t, 99.90, quotes[0].Bid, 1e-9)
	assert.Equal(t, 100.0, quotes[0].BidSize)

	changes, err := j.ParamChanges()
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.True(t, changes[0].Accepted)
	assert.False(t, changes[1].Accepted)
}
