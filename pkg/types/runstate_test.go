package types

import (
	"testing"
)

func TestCanTransition_LifecyclePath(t *testing.T) {
	path := []RunState{
		RunStatePending,
		RunStateValidating,
		RunStateRunning,
		RunStateMonitoring,
		RunStateRunning,
		RunStateCompleted,
	}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Errorf("expected %v -> %v to be allowed", path[i], path[i+1])
		}
	}
}

func TestCanTransition_NoShortcuts(t *testing.T) {
	tests := []struct {
		from RunState
		to   RunState
	}{
		{RunStatePending, RunStateRunning},
		{RunStatePending, RunStateCompleted},
		{RunStatePending, RunStateAborted},
		{RunStateValidating, RunStateMonitoring},
		{RunStateValidating, RunStateCompleted},
		{RunStateMonitoring, RunStateCompleted},
		{RunStateRunning, RunStateBlockedByPolicy},
	}
	for _, tt := range tests {
		if CanTransition(tt.from, tt.to) {
			t.Errorf("expected %v -> %v to be rejected", tt.from, tt.to)
		}
	}
}

func TestCanTransition_TerminalStatesAreFinal(t *testing.T) {
	terminals := []RunState{RunStateCompleted, RunStateAborted, RunStateFailed, RunStateBlockedByPolicy}
	targets := []RunState{RunStatePending, RunStateValidating, RunStateRunning, RunStateMonitoring, RunStateCompleted, RunStateAborted, RunStateFailed, RunStateBlockedByPolicy}
	for _, from := range terminals {
		for _, to := range targets {
			if CanTransition(from, to) {
				t.Errorf("terminal state %v must not transition to %v", from, to)
			}
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, state := range []RunState{RunStateCompleted, RunStateAborted, RunStateFailed, RunStateBlockedByPolicy} {
		if !state.Terminal() {
			t.Errorf("expected %v to be terminal", state)
		}
	}
	for _, state := range []RunState{RunStatePending, RunStateValidating, RunStateRunning, RunStateMonitoring} {
		if state.Terminal() {
			t.Errorf("expected %v to be non-terminal", state)
		}
	}
}

func TestSloTargetKey(t *testing.T) {
	target := SloTarget{Metric: LatencyP95}
	if target.Key() != "latency_p95" {
		t.Errorf("expected latency_p95, got %s", target.Key())
	}
}
