package order

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition 回报与当前订单状态不相容。
var ErrIllegalTransition = errors.New("illegal state transition")

// StateTransition 状态转换
type StateTransition struct {
	From Status
	To   Status
}

// StateMachine 订单状态机；转换表创建后只读，可并发使用。
type StateMachine struct {
	transitions map[StateTransition]bool
}

// NewStateMachine 创建新的状态机
func NewStateMachine() *StateMachine {
	sm := &StateMachine{transitions: make(map[StateTransition]bool)}
	for _, t := range []StateTransition{
		{StatusNew, StatusAck},
		{StatusNew, StatusPartial},
		{StatusNew, StatusFilled},
		{StatusNew, StatusCanceling},
		{StatusNew, StatusCanceled},
		{StatusNew, StatusRejected},

		{StatusAck, StatusPartial},
		{StatusAck, StatusFilled},
		{StatusAck, StatusCanceling},
		{StatusAck, StatusCanceled},

		{StatusPartial, StatusPartial}, // 多次部分成交
		{StatusPartial, StatusFilled},
		{StatusPartial, StatusCanceling},
		{StatusPartial, StatusCanceled},

		// 撤单在途时仍可能收到成交
		{StatusCanceling, StatusPartial},
		{StatusCanceling, StatusFilled},
		{StatusCanceling, StatusCanceled},
	} {
		sm.transitions[t] = true
	}
	return sm
}

// ValidateTransition 验证状态转换是否合法；相同状态视为幂等。
func (sm *StateMachine) ValidateTransition(from, to Status) error {
	if from == to && from != StatusPartial {
		return nil
	}
	if !sm.transitions[StateTransition{From: from, To: to}] {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}

// AllowedTransitions 返回当前状态所有合法的目标状态
func (sm *StateMachine) AllowedTransitions(current Status) []Status {
	allowed := make([]Status, 0)
	for t := range sm.transitions {
		if t.From == current {
			allowed = append(allowed, t.To)
		}
	}
	return allowed
}

// IsFinalState 判断是否是终态
func (sm *StateMachine) IsFinalState(status Status) bool {
	switch status {
	case StatusFilled, StatusCanceled, StatusRejected:
		return true
	default:
		return false
	}
}

// IsActiveState 判断是否是活跃状态（可能产生成交）
func (sm *StateMachine) IsActiveState(status Status) bool {
	switch status {
	case StatusNew, StatusAck, StatusPartial, StatusCanceling:
		return true
	default:
		return false
	}
}

// CanCancel 判断当前状态下是否可以撤单
func (sm *StateMachine) CanCancel(status Status) bool {
	switch status {
	case StatusNew, StatusAck, StatusPartial:
		return true
	default:
		return false
	}
}
