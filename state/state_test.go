package state

import (
	"errors"
	"testing"
)

func TestStateMachine_InitialState(t *testing.T) {
	sm := NewBaseStateMachine(Waiting)

	if sm.Current() != Waiting {
		t.Errorf("Expected initial phase %s, got %s", Waiting, sm.Current())
	}
	if sm.Can(Role) {
		t.Error("No transitions registered, Can should be false")
	}
}

func TestStateMachine_ChangeState(t *testing.T) {
	sm := NewBaseStateMachine(Waiting)
	sm.AddTransition(Waiting, Role, nil)

	var from, to Phase
	sm.OnChange(func(f, n Phase) { from, to = f, n })

	if err := sm.ChangeState(Role); err != nil {
		t.Fatalf("ChangeState should not return an error, but got: %v", err)
	}
	if sm.Current() != Role {
		t.Errorf("Expected phase %s, got %s", Role, sm.Current())
	}
	if from != Waiting || to != Role {
		t.Errorf("Expected OnChange(waiting, role), got (%s, %s)", from, to)
	}
}

func TestStateMachine_AddAndUseTransition(t *testing.T) {
	sm := NewBaseStateMachine(Waiting)

	allowed := false
	sm.AddTransition(Waiting, Role, func() bool { return allowed })
	sm.AddTransition(Role, WordSelect, nil)

	// --- Test blocked transition ---
	err := sm.ChangeState(Role)
	if !errors.Is(err, ErrTransitionNotAllowed) {
		t.Errorf("Expected ErrTransitionNotAllowed, but got: %v", err)
	}
	if sm.Current() != Waiting {
		t.Errorf("Expected phase to remain waiting after a blocked transition, got %s", sm.Current())
	}

	// --- Test valid transition ---
	allowed = true
	if err := sm.ChangeState(Role); err != nil {
		t.Errorf("Expected transition to be allowed, got: %v", err)
	}

	// --- Test unregistered transition ---
	if err := sm.ChangeState(Result); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Errorf("Expected ErrTransitionNotAllowed for role -> result, got: %v", err)
	}
	if !sm.Is(Role, Result) {
		t.Errorf("Expected Is(role, result) to be true in %s", sm.Current())
	}
}
