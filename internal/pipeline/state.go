package pipeline

import "github.com/zhanglei/newsrelay/internal/logger"

// State 表示检查周期的当前阶段。
type State int

const (
	// StateIdle — 空闲，等待下一个周期。
	StateIdle State = iota
	// StateFetching — 正在抓取订阅源。
	StateFetching
	// StateRanking — 正在排序和截断候选文章。
	StateRanking
	// StateDelivering — 正在逐条推送文章。
	StateDelivering
	// StatePersisting — 正在保存已推送标识。
	StatePersisting
	// StateTerminal — 单次模式结束，不再进入新周期。
	StateTerminal
)

var stateNames = [...]string{
	"Idle",
	"Fetching",
	"Ranking",
	"Delivering",
	"Persisting",
	"Terminal",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// stateMachine 管理周期阶段的转换。
// 流程是单线程同步的，不需要加锁，校验只是为了尽早暴露编排错误。
type stateMachine struct {
	current State
}

func newStateMachine() *stateMachine {
	return &stateMachine{current: StateIdle}
}

// Current 返回当前阶段。
func (sm *stateMachine) Current() State {
	return sm.current
}

// Transition 尝试切换阶段。只有合法的转换才会生效：
//
//	Idle       → Fetching    （周期开始）
//	Fetching   → Ranking     （所有源抓取完毕）
//	Ranking    → Delivering  （候选集确定）
//	Delivering → Persisting  （推送结束）
//	Persisting → Idle        （循环模式，等待下个周期）
//	Persisting → Terminal    （单次模式结束）
//
// 任何阶段都可以回到 Idle，用于错误恢复。
func (sm *stateMachine) Transition(to State) bool {
	if !validTransition(sm.current, to) {
		logger.Warnf("[state] 非法转换 %s → %s", sm.current, to)
		return false
	}

	from := sm.current
	sm.current = to
	logger.Debugf("[state] %s → %s", from, to)
	return true
}

// validTransition 检查阶段转换是否合法。
func validTransition(from, to State) bool {
	// 始终允许回到 Idle（错误恢复）
	if to == StateIdle {
		return true
	}
	switch from {
	case StateIdle:
		return to == StateFetching
	case StateFetching:
		return to == StateRanking
	case StateRanking:
		return to == StateDelivering
	case StateDelivering:
		return to == StatePersisting
	case StatePersisting:
		return to == StateTerminal
	}
	return false
}
