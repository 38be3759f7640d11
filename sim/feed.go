package sim

import (
	"math"
	"math/rand"
	"time"

	"impact-maker-go/market"
	"impact-maker-go/strategy/impact"
)

// FeedConfig 合成行情参数
type FeedConfig struct {
	Symbol     string
	Seed       int64
	StartMid   float64
	Tick       float64
	Volatility float64 // 每步中间价扰动（tick 数，标准差）
	Levels     int     // 每侧档位数
	TradeNoise float64 // 成交价相对中间价的扰动（价格单位，标准差）
	MaxSize    float64 // 档位与成交数量上限（整数）
	Step       time.Duration
	Start      time.Time
}

// DefaultFeedConfig 四档盘口、成交价围绕中间价 0.1 的正态扰动。
func DefaultFeedConfig(symbol string) FeedConfig {
	return FeedConfig{
		Symbol:     symbol,
		Seed:       1,
		StartMid:   100,
		Tick:       0.01,
		Volatility: 1,
		Levels:     4,
		TradeNoise: 0.1,
		MaxSize:    10,
		Step:       time.Second,
		Start:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Event 一步行情：先发布盘口，再发生一笔成交。
type Event struct {
	Book  market.TopOfBook
	Trade market.Trade
}

// Feed 可复现的随机游走行情生成器；同一种子产生相同序列。
// 不加锁，每个交易对一个实例。
type Feed struct {
	cfg FeedConfig
	rng *rand.Rand
	mid float64
	now time.Time
}

func NewFeed(cfg FeedConfig) *Feed {
	def := DefaultFeedConfig(cfg.Symbol)
	if cfg.StartMid <= 0 {
		cfg.StartMid = def.StartMid
	}
	if cfg.Tick <= 0 {
		cfg.Tick = def.Tick
	}
	if cfg.Levels <= 0 {
		cfg.Levels = def.Levels
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = def.MaxSize
	}
	if cfg.Step <= 0 {
		cfg.Step = def.Step
	}
	if cfg.Start.IsZero() {
		cfg.Start = def.Start
	}
	return &Feed{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
		mid: impact.FloorToTick(cfg.StartMid, cfg.Tick),
		now: cfg.Start,
	}
}

// Next 推进一步：中间价随机游走，生成盘口与一笔随机方向的成交。
func (f *Feed) Next() Event {
	tick := f.cfg.Tick
	f.now = f.now.Add(f.cfg.Step)

	move := math.Round(f.rng.NormFloat64() * f.cfg.Volatility)
	f.mid = math.Max(tick*float64(f.cfg.Levels+1), f.mid+move*tick)
	mid := impact.FloorToTick(f.mid, tick)

	book := market.TopOfBook{
		Symbol: f.cfg.Symbol,
		Bids:   make([]market.Level, 0, f.cfg.Levels),
		Asks:   make([]market.Level, 0, f.cfg.Levels),
		Ts:     f.now,
	}
	for i := 0; i < f.cfg.Levels; i++ {
		off := float64(i+1) * tick
		book.Bids = append(book.Bids, market.Level{Price: impact.FloorToTick(mid-off, tick), Size: f.size()})
		book.Asks = append(book.Asks, market.Level{Price: impact.CeilToTick(mid+off, tick), Size: f.size()})
	}

	buy := f.rng.Intn(2) == 0
	price := mid + f.rng.NormFloat64()*f.cfg.TradeNoise
	if buy {
		price = impact.CeilToTick(math.Max(price, book.BestAsk()), tick)
	} else {
		price = impact.FloorToTick(math.Max(tick, math.Min(price, book.BestBid())), tick)
	}
	tr := market.Trade{
		Symbol:       f.cfg.Symbol,
		Price:        price,
		Qty:          f.size(),
		BuyAggressor: buy,
		Ts:           f.now,
	}
	return Event{Book: book, Trade: tr}
}

// size 在 [1, MaxSize] 内取整数，成交量始终是整手。
func (f *Feed) size() float64 {
	return math.Min(f.cfg.MaxSize, math.Floor(1+f.rng.Float64()*f.cfg.MaxSize))
}

// Mid 当前中间价
func (f *Feed) Mid() float64 { return f.mid }
