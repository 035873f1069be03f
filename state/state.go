package state

import (
	"errors"
	"fmt"
)

// Phase 房间当前所处的回合阶段
type Phase string

const (
	Waiting       Phase = "waiting"
	Role          Phase = "role"
	WordSelect    Phase = "wordSelect"
	Discussion    Phase = "discussion"
	EndDiscussion Phase = "endDiscussion"
	WolfKill      Phase = "wolfKill"
	Vote          Phase = "vote"
	Result        Phase = "result"
)

// Phases lists every phase in round order.
var Phases = []Phase{Waiting, Role, WordSelect, Discussion, EndDiscussion, WolfKill, Vote, Result}

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// 状态机接口
type StateMachine interface {
	ChangeState(to Phase) error
	Current() Phase
	Is(phases ...Phase) bool
	AddTransition(from, to Phase, condition func() bool)
}

// BaseStateMachine is a guarded transition table. It is not safe for
// concurrent use; the owning room serialises access.
type BaseStateMachine struct {
	current     Phase
	transitions map[Phase]map[Phase]func() bool // fromState -> toState -> condition
	onChange    func(from, to Phase)
}

func NewBaseStateMachine(initial Phase) *BaseStateMachine {
	return &BaseStateMachine{
		current:     initial,
		transitions: make(map[Phase]map[Phase]func() bool),
	}
}

// AddTransition registers from -> to. A nil condition always passes.
func (sm *BaseStateMachine) AddTransition(from, to Phase, condition func() bool) {
	if _, exists := sm.transitions[from]; !exists {
		sm.transitions[from] = make(map[Phase]func() bool)
	}
	sm.transitions[from][to] = condition
}

// OnChange installs a hook called after every successful transition.
func (sm *BaseStateMachine) OnChange(fn func(from, to Phase)) {
	sm.onChange = fn
}

// Can reports whether ChangeState(to) would succeed right now.
func (sm *BaseStateMachine) Can(to Phase) bool {
	conditions, exists := sm.transitions[sm.current]
	if !exists {
		return false
	}
	condition, exists := conditions[to]
	if !exists {
		return false
	}
	return condition == nil || condition()
}

func (sm *BaseStateMachine) ChangeState(to Phase) error {
	if !sm.Can(to) {
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, sm.current, to)
	}
	from := sm.current
	sm.current = to
	if sm.onChange != nil {
		sm.onChange(from, to)
	}
	return nil
}

func (sm *BaseStateMachine) Current() Phase {
	return sm.current
}

// Is reports whether the machine is in any of the given phases.
func (sm *BaseStateMachine) Is(phases ...Phase) bool {
	for _, p := range phases {
		if sm.current == p {
			return true
		}
	}
	return false
}
