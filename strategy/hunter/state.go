// Package hunter 止损猎杀：价格逼近上一根小时线高低点且逐笔动量同向时市价追入，
// 以固定 tick 止盈，超时市价平仓。每个交易对独立维护一个状态机。
package hunter

// State 单个交易对的猎杀状态
type State int

const (
	StateIdle       State = iota // 等待入场信号
	StateHunting                 // 入场市价单已发出
	StateInPosition              // 已持仓，止盈单在簿上
	StateExiting                 // 超时平仓中
	StateNoTrade                 // 本小时已完成一轮，等待下一根K线
)

var stateNames = [...]string{"IDLE", "HUNTING", "IN_POSITION", "EXITING", "NO_TRADE"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Event 驱动状态迁移的事件
type Event int

const (
	EventEntrySignal   Event = iota // 入场单已提交
	EventBarClosed                  // 新小时线闭合
	EventEntryFilled                // 入场单成交
	EventEntryRejected              // 入场单被拒或撤销
	EventTargetFilled               // 止盈单全部成交
	EventHoldExpired                // 持仓超时，平仓单已提交
	EventExitFilled                 // 平仓单全部成交
	EventExitRejected               // 平仓单被拒
)

var eventNames = [...]string{
	"ENTRY_SIGNAL", "BAR_CLOSED", "ENTRY_FILLED", "ENTRY_REJECTED",
	"TARGET_FILLED", "HOLD_EXPIRED", "EXIT_FILLED", "EXIT_REJECTED",
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return "UNKNOWN"
	}
	return eventNames[e]
}

const (
	numStates = 5
	numEvents = 8
)

// transitions[state][event]，每个格子都显式写出，保持原状态的格子即为忽略该事件。
var transitions = [numStates][numEvents]State{
	StateIdle: {
		EventEntrySignal:   StateHunting,
		EventBarClosed:     StateIdle,
		EventEntryFilled:   StateIdle,
		EventEntryRejected: StateIdle,
		EventTargetFilled:  StateIdle,
		EventHoldExpired:   StateIdle,
		EventExitFilled:    StateIdle,
		EventExitRejected:  StateIdle,
	},
	StateHunting: {
		EventEntrySignal:   StateHunting,
		EventBarClosed:     StateHunting,
		EventEntryFilled:   StateInPosition,
		EventEntryRejected: StateIdle,
		EventTargetFilled:  StateHunting,
		EventHoldExpired:   StateHunting,
		EventExitFilled:    StateHunting,
		EventExitRejected:  StateHunting,
	},
	StateInPosition: {
		EventEntrySignal:   StateInPosition,
		EventBarClosed:     StateInPosition,
		EventEntryFilled:   StateInPosition,
		EventEntryRejected: StateInPosition,
		EventTargetFilled:  StateNoTrade,
		EventHoldExpired:   StateExiting,
		EventExitFilled:    StateInPosition,
		EventExitRejected:  StateInPosition,
	},
	StateExiting: {
		EventEntrySignal:   StateExiting,
		EventBarClosed:     StateExiting,
		EventEntryFilled:   StateExiting,
		EventEntryRejected: StateExiting,
		EventTargetFilled:  StateExiting,
		EventHoldExpired:   StateExiting,
		EventExitFilled:    StateNoTrade,
		EventExitRejected:  StateInPosition,
	},
	StateNoTrade: {
		EventEntrySignal:   StateNoTrade,
		EventBarClosed:     StateIdle,
		EventEntryFilled:   StateNoTrade,
		EventEntryRejected: StateNoTrade,
		EventTargetFilled:  StateNoTrade,
		EventHoldExpired:   StateNoTrade,
		EventExitFilled:    StateNoTrade,
		EventExitRejected:  StateNoTrade,
	},
}

// Next 返回 s 收到 ev 之后的状态；未知状态或事件原样返回 s。
func Next(s State, ev Event) State {
	if s < 0 || int(s) >= numStates || ev < 0 || int(ev) >= numEvents {
		return s
	}
	return transitions[s][ev]
}
