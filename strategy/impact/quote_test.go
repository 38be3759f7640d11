package impact

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"impact-maker-go/config"
	"impact-maker-go/market"
)

func bookAround(mid, half float64) market.TopOfBook {
	return market.TopOfBook{
		Symbol: "ETHUSDC",
		Bids:   []market.Level{{Price: mid - half, Size: 10}},
		Asks:   []market.Level{{Price: mid + half, Size: 10}},
	}
}

// 50 笔买方、50 笔卖方冲击，窗口 50、分位 0.1：
// 两侧偏移均为 5，价差被钳制到 20 tick，报价落在 99.90 / 100.10。
func TestComputeQuoteSymmetricScenario(t *testing.T) {
	p := config.DefaultParams()
	book := bookAround(100, 0.01)

	q, reason := ComputeQuote(QuoteInput{
		Book:    book,
		History: symmetricHistory(50),
		Params:  p,
	})
	require.Equal(t, SkipNone, reason)
	assert.InDelta(t, 99.90, q.Bid, 1e-9)
	assert.InDelta(t, 100.10, q.Ask, 1e-9)
	assert.Equal(t, GateOK, Check(book, q.Bid, q.Ask, p))
}

func TestComputeQuoteInsufficientHistory(t *testing.T) {
	p := config.DefaultParams()
	q, reason := ComputeQuote(QuoteInput{
		Book:    bookAround(100, 0.01),
		History: symmetricHistory(10),
		Params:  p,
	})
	assert.Equal(t, SkipInsufficientHistory, reason)
	assert.False(t, q.Valid())
}

func TestComputeQuoteNoBook(t *testing.T) {
	_, reason := ComputeQuote(QuoteInput{History: symmetricHistory(50), Params: config.DefaultParams()})
	assert.Equal(t, SkipNoBook, reason)
}

func TestComputeQuotePositionShiftsBothSides(t *testing.T) {
	p := config.DefaultParams()
	p.RollingWindow = 2
	p.QuantileThreshold = 0.5

	in := QuoteInput{
		Book:     bookAround(100, 0.01),
		History:  []float64{0.001, -0.001},
		Position: 50, // pf = 0.5*0.02 = 0.01，两侧下移 1.0
		Params:   p,
	}
	q, reason := ComputeQuote(in)
	require.Equal(t, SkipNone, reason)
	assert.InDelta(t, 98.99, q.Bid, 1e-9)
	assert.InDelta(t, 99.01, q.Ask, 1e-9)

	in.Position = -50
	q, _ = ComputeQuote(in)
	assert.InDelta(t, 100.99, q.Bid, 1e-9)
	assert.InDelta(t, 101.01, q.Ask, 1e-9)
}

func TestComputeQuoteNonPositive(t *testing.T) {
	p := config.DefaultParams()
	q, reason := ComputeQuote(QuoteInput{
		Book:    bookAround(0.02, 0.01),
		History: symmetricHistory(50),
		Params:  p,
	})
	assert.Equal(t, SkipNonPositive, reason)
	assert.False(t, q.Valid())
}

func TestClampSpread(t *testing.T) {
	bid, ask := ClampSpread(100, 100.001, 0.02, 0.2)
	assert.InDelta(t, 0.02, ask-bid, 1e-12)
	assert.InDelta(t, 100.0005, (bid+ask)/2, 1e-9)

	bid, ask = ClampSpread(90, 110, 0.02, 0.2)
	assert.InDelta(t, 99.9, bid, 1e-9)
	assert.InDelta(t, 100.1, ask, 1e-9)

	bid, ask = ClampSpread(99.95, 100.05, 0.02, 0.2)
	assert.Equal(t, 99.95, bid)
	assert.Equal(t, 100.05, ask)
}

func TestComputeQuoteProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := config.DefaultParams()
		p.RollingWindow = rapid.IntRange(2, 40).Draw(t, "window")
		p.QuantileThreshold = rapid.Float64Range(0.01, 0.99).Draw(t, "q")
		p.MinSpreadTicks = float64(rapid.IntRange(1, 10).Draw(t, "minTicks"))
		p.MaxSpreadTicks = p.MinSpreadTicks + float64(rapid.IntRange(0, 30).Draw(t, "extraTicks"))

		mid := rapid.Float64Range(1, 1000).Draw(t, "mid")
		history := rapid.SliceOfN(rapid.Float64Range(-2, 2), p.RollingWindow, 2*p.RollingWindow).Draw(t, "history")
		position := rapid.Float64Range(-p.MaxPosition, p.MaxPosition).Draw(t, "position")

		q, reason := ComputeQuote(QuoteInput{
			Book:     bookAround(mid, p.TickSize),
			History:  history,
			Position: position,
			Params:   p,
		})
		if reason != SkipNone {
			return
		}
		if q.Bid > q.Ask {
			t.Fatalf("bid %v above ask %v", q.Bid, q.Ask)
		}
		if !OnTick(q.Bid, p.TickSize) || !OnTick(q.Ask, p.TickSize) {
			t.Fatalf("quote (%v,%v) off tick", q.Bid, q.Ask)
		}
		ticks := math.Round(q.Spread() / p.TickSize)
		if ticks < p.MinSpreadTicks || ticks > p.MaxSpreadTicks+1 {
			t.Fatalf("spread %v ticks outside [%v,%v+1]", ticks, p.MinSpreadTicks, p.MaxSpreadTicks)
		}
	})
}
