package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"impact-maker-go/order"
)

// ErrUnknownCommand 不支持的运维命令。
var ErrUnknownCommand = errors.New("unknown command")

const (
	CmdFlatten   = "flatten"
	CmdCancelAll = "cancel_all"
	CmdReset     = "reset"
)

// CommandInfo 命令名与说明
type CommandInfo struct {
	Name        string
	Description string
}

// Commands 返回引擎支持的运维命令。
func Commands() []CommandInfo {
	return []CommandInfo{
		{CmdFlatten, "Flatten all positions"},
		{CmdCancelAll, "Cancel all open orders"},
		{CmdReset, "Reset strategy state"},
	}
}

// HandleCommand 执行运维命令。
func (e *TradingEngine) HandleCommand(cmd string) error {
	name := strings.ToLower(strings.TrimSpace(cmd))
	e.logger.Info("Strategy command", zap.String("command", name))

	switch name {
	case CmdFlatten:
		return e.Flatten()
	case CmdCancelAll:
		e.CancelAll()
		return nil
	case CmdReset:
		e.Reset()
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
}

// Flatten 对每个持仓不为 0 的交易对发出反向市价单，数量为 |position|。
func (e *TradingEngine) Flatten() error {
	var errs []error
	for _, sym := range e.Symbols() {
		pos := e.calc.Positions.Position(sym)
		if pos == 0 {
			continue
		}
		side := order.SideSell
		if pos < 0 {
			side = order.SideBuy
		}
		st := e.quoteState(sym)
		st.mu.Lock()
		_, ok := e.submit(st, sym, side, order.TypeMarket, 0, math.Abs(pos))
		st.mu.Unlock()
		if !ok {
			errs = append(errs, fmt.Errorf("flatten %s: submit failed", sym))
			continue
		}
		e.logger.LogRisk("flatten", map[string]interface{}{
			"symbol":   sym,
			"side":     string(side),
			"position": pos,
		})
	}
	return errors.Join(errs...)
}

// CancelAll 撤销所有交易对的全部挂单。
func (e *TradingEngine) CancelAll() {
	for _, sym := range e.Symbols() {
		st := e.quoteState(sym)
		st.mu.Lock()
		e.cancelTracked(sym, st)
		st.mu.Unlock()
	}
}
