package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"impact-maker-go/config"
	"impact-maker-go/internal/journal"
)

// Params 当前参数副本。
func (e *TradingEngine) Params() config.Params {
	e.paramsMu.RLock()
	defer e.paramsMu.RUnlock()
	return e.params
}

// SetParam 修改单个运行时参数。校验失败返回 *config.ParamError，原参数保持不变；
// rolling_window 变化时按新窗口截断冲击样本。
func (e *TradingEngine) SetParam(name string, value interface{}) error {
	e.paramsMu.Lock()
	next, err := e.params.With(name, value)
	if err != nil {
		e.paramsMu.Unlock()
		e.recordParamChange(name, value, err)
		e.logger.Warn("Parameter change rejected",
			zap.String("param", name),
			zap.Any("value", value),
			zap.Error(err))
		return err
	}
	prev := e.params
	e.params = next
	e.paramsMu.Unlock()

	if next.RollingWindow != prev.RollingWindow {
		e.history.Resize(next.RollingWindow)
	}
	e.recordParamChange(name, value, nil)
	e.logger.Info("Parameter changed",
		zap.String("param", name),
		zap.Any("value", value),
		zap.Stringer("params", next))
	return nil
}

func (e *TradingEngine) recordParamChange(name string, value interface{}, err error) {
	result := "accepted"
	if err != nil {
		result = "rejected"
	}
	if e.monitor != nil {
		e.monitor.RecordParamChange(name, result)
	}
	if e.journal == nil {
		return
	}
	rec := journal.ParamChange{
		Scope:    "strategy",
		Name:     name,
		Value:    fmt.Sprint(value),
		Accepted: err == nil,
		Ts:       time.Now(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if jerr := e.journal.RecordParamChange(rec); jerr != nil {
		e.logger.Warn("Failed to journal parameter change", zap.Error(jerr))
	}
}
