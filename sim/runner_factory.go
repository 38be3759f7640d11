package sim

import (
	"fmt"
	"sort"
	"time"

	"impact-maker-go/config"
	"impact-maker-go/infrastructure/logger"
	"impact-maker-go/infrastructure/monitor"
	"impact-maker-go/internal/engine"
	"impact-maker-go/internal/journal"
	"impact-maker-go/inventory"
	"impact-maker-go/market"
	"impact-maker-go/order"
	"impact-maker-go/strategy/hunter"
)

const (
	makerClientID  = "mm"
	hunterClientID = "hunter"
)

// Deps Runner 可选的基础设施依赖
type Deps struct {
	Logger  *logger.Logger
	Monitor *monitor.Monitor
	Journal *journal.Journal
}

// BuildRunner 基于配置组装 Runner（全部使用内存组件，适合离线/仿真）。
func BuildRunner(cfg config.AppConfig, deps Deps) (*Runner, error) {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	symbols := cfg.SymbolNames()
	sort.Strings(symbols)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols configured")
	}

	books := market.NewService()
	gw := NewPaperGateway(books)
	mgr := order.NewManager(gw)

	constraints := make(map[string]order.SymbolConstraints, len(symbols))
	lots := make(map[string]float64, len(symbols))
	ticks := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		sc := cfg.Symbols[sym]
		constraints[sym] = order.SymbolConstraints{
			TickSize: sc.TickSize,
			StepSize: sc.StepSize,
			MinQty:   sc.MinQty,
			MaxQty:   sc.MaxQty,
		}
		lots[sym] = sc.StepSize
		ticks[sym] = sc.TickSize
	}
	mgr.SetConstraints(constraints)

	maker := inventory.NewPortfolio()
	eng, err := engine.New(engine.Config{
		Symbols:  symbols,
		Params:   cfg.Strategy,
		LotSizes: lots,
		ClientID: makerClientID,
	}, engine.Components{
		Books:     books,
		Positions: maker,
		Orders:    mgr,
		Logger:    deps.Logger,
		Monitor:   deps.Monitor,
		Journal:   deps.Journal,
	})
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	r := &Runner{
		Feeds:           make(map[string]*Feed, len(symbols)),
		Books:           books,
		Gateway:         gw,
		Orders:          mgr,
		Engine:          eng,
		MakerBook:       maker,
		Fills:           order.NewFillTracker(1000, 5*time.Minute),
		Journal:         deps.Journal,
		Logger:          deps.Logger,
		Events:          cfg.Sim.Events,
		BarInterval:     cfg.Hunter.BarInterval,
		TransactionCost: cfg.Sim.TransactionCost,
		HunterClientID:  hunterClientID,
	}

	if cfg.Hunter.Enabled {
		r.HunterBook = inventory.NewPortfolio()
		h, err := hunter.New(hunter.Config{
			Params:    cfg.Hunter.Params,
			TickSizes: ticks,
			ClientID:  hunterClientID,
		}, hunter.Components{
			Books:     books,
			Positions: r.HunterBook,
			Orders:    mgr,
			Logger:    deps.Logger,
			Monitor:   deps.Monitor,
			Journal:   deps.Journal,
		})
		if err != nil {
			return nil, fmt.Errorf("build hunter: %w", err)
		}
		r.Hunter = h
	}

	for i, sym := range symbols {
		fc := DefaultFeedConfig(sym)
		fc.Seed = cfg.Sim.Seed + int64(i)
		fc.StartMid = cfg.Sim.StartMid
		fc.Tick = ticks[sym]
		fc.Volatility = cfg.Sim.Volatility
		r.Feeds[sym] = NewFeed(fc)
	}
	return r, nil
}
