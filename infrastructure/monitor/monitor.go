package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor Prometheus监控指标收集器
type Monitor struct {
	registry *prometheus.Registry

	// 报价指标
	quotesGenerated *prometheus.CounterVec
	quoteSkips      *prometheus.CounterVec
	bidPrice        *prometheus.GaugeVec
	askPrice        *prometheus.GaugeVec
	quotedSpread    *prometheus.GaugeVec

	// 冲击样本
	impactSamples *prometheus.HistogramVec
	historyLength *prometheus.GaugeVec

	// 订单指标
	ordersPlaced   *prometheus.CounterVec
	ordersCanceled *prometheus.CounterVec
	ordersFilled   *prometheus.CounterVec
	ordersRejected *prometheus.CounterVec
	orderErrors    *prometheus.CounterVec

	// 仓位指标
	position *prometheus.GaugeVec

	// 参数与故障
	paramChanges *prometheus.CounterVec
	faults       *prometheus.CounterVec

	// 猎杀策略
	hunterState   *prometheus.GaugeVec
	hunterEntries *prometheus.CounterVec
	hunterExits   *prometheus.CounterVec
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "impact",
		Subsystem: "mm",
	}
}

var symbolLabel = []string{"symbol"}

// New 创建新的Monitor实例
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		}, labels)
	}
	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		}, labels)
	}

	return &Monitor{
		registry: reg,

		quotesGenerated: counter("quotes_generated_total", "成功下发的报价周期数", symbolLabel...),
		quoteSkips:      counter("quote_skips_total", "跳过报价的周期数（按原因）", "symbol", "reason"),
		bidPrice:        gauge("bid_price", "最近一次报出的买价", symbolLabel...),
		askPrice:        gauge("ask_price", "最近一次报出的卖价", symbolLabel...),
		quotedSpread:    gauge("quoted_spread", "最近一次报价价差", symbolLabel...),

		impactSamples: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "trade_impact",
			Help:      "单笔成交冲击样本分布（带符号）",
			Buckets:   []float64{-1, -0.5, -0.1, -0.05, -0.01, 0, 0.01, 0.05, 0.1, 0.5, 1},
		}, symbolLabel),
		historyLength: gauge("impact_history_length", "滚动窗口内冲击样本数", symbolLabel...),

		ordersPlaced:   counter("orders_placed_total", "订单下单总数", "symbol", "side"),
		ordersCanceled: counter("orders_canceled_total", "订单撤单总数", symbolLabel...),
		ordersFilled:   counter("orders_filled_total", "订单成交总数", "symbol", "side"),
		ordersRejected: counter("orders_rejected_total", "订单拒绝总数", symbolLabel...),
		orderErrors:    counter("order_errors_total", "下单/撤单调用失败次数", "symbol", "action"),

		position: gauge("position", "当前净仓位", symbolLabel...),

		paramChanges: counter("param_changes_total", "运行时参数修改次数", "param", "result"),
		faults:       counter("recovered_faults_total", "事件处理中被恢复的异常", "symbol", "handler"),

		hunterState:   gauge("hunter_state", "猎杀策略状态(0=IDLE,1=HUNTING,2=IN_POSITION,3=EXITING,4=NO_TRADE)", symbolLabel...),
		hunterEntries: counter("hunter_entries_total", "猎杀策略入场次数", "symbol", "side"),
		hunterExits:   counter("hunter_exits_total", "猎杀策略离场次数", "symbol", "reason"),
	}
}

// 报价相关方法
func (m *Monitor) RecordQuote(symbol string, bid, ask float64) {
	m.quotesGenerated.WithLabelValues(symbol).Inc()
	m.bidPrice.WithLabelValues(symbol).Set(bid)
	m.askPrice.WithLabelValues(symbol).Set(ask)
	m.quotedSpread.WithLabelValues(symbol).Set(ask - bid)
}

func (m *Monitor) RecordQuoteSkip(symbol, reason string) {
	m.quoteSkips.WithLabelValues(symbol, reason).Inc()
}

func (m *Monitor) RecordImpact(symbol string, impact float64, historyLen int) {
	m.impactSamples.WithLabelValues(symbol).Observe(impact)
	m.historyLength.WithLabelValues(symbol).Set(float64(historyLen))
}

// 订单相关方法
func (m *Monitor) RecordOrderPlaced(symbol, side string) {
	m.ordersPlaced.WithLabelValues(symbol, side).Inc()
}

func (m *Monitor) RecordOrderCanceled(symbol string) {
	m.ordersCanceled.WithLabelValues(symbol).Inc()
}

func (m *Monitor) RecordOrderFilled(symbol, side string) {
	m.ordersFilled.WithLabelValues(symbol, side).Inc()
}

func (m *Monitor) RecordOrderRejected(symbol string) {
	m.ordersRejected.WithLabelValues(symbol).Inc()
}

func (m *Monitor) RecordOrderError(symbol, action string) {
	m.orderErrors.WithLabelValues(symbol, action).Inc()
}

// 仓位相关方法
func (m *Monitor) UpdatePosition(symbol string, value float64) {
	m.position.WithLabelValues(symbol).Set(value)
}

// RecordParamChange result 取 accepted / rejected
func (m *Monitor) RecordParamChange(param, result string) {
	m.paramChanges.WithLabelValues(param, result).Inc()
}

func (m *Monitor) RecordFault(symbol, handler string) {
	m.faults.WithLabelValues(symbol, handler).Inc()
}

// 猎杀策略相关方法
func (m *Monitor) UpdateHunterState(symbol string, state int) {
	m.hunterState.WithLabelValues(symbol).Set(float64(state))
}

func (m *Monitor) RecordHunterEntry(symbol, side string) {
	m.hunterEntries.WithLabelValues(symbol, side).Inc()
}

func (m *Monitor) RecordHunterExit(symbol, reason string) {
	m.hunterExits.WithLabelValues(symbol, reason).Inc()
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}
