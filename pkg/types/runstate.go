package types

// RunState is the finite, monotonic lifecycle state of a run
type RunState string

const (
	RunStatePending         RunState = "PENDING"
	RunStateValidating      RunState = "VALIDATING"
	RunStateRunning         RunState = "RUNNING"
	RunStateMonitoring      RunState = "MONITORING"
	RunStateCompleted       RunState = "COMPLETED"
	RunStateAborted         RunState = "ABORTED"
	RunStateFailed          RunState = "FAILED"
	RunStateBlockedByPolicy RunState = "BLOCKED_BY_POLICY"
)

// transitions encodes the forward edges of the run lifecycle graph.
// Terminal states have no outgoing edges, so no transition moves backward.
var transitions = map[RunState][]RunState{
	RunStatePending:    {RunStateValidating, RunStateBlockedByPolicy, RunStateFailed},
	RunStateValidating: {RunStateRunning, RunStateAborted, RunStateFailed},
	RunStateRunning:    {RunStateMonitoring, RunStateCompleted, RunStateAborted, RunStateFailed},
	RunStateMonitoring: {RunStateRunning, RunStateAborted, RunStateFailed},
}

// Terminal reports whether the state can never be exited
func (s RunState) Terminal() bool {
	switch s {
	case RunStateCompleted, RunStateAborted, RunStateFailed, RunStateBlockedByPolicy:
		return true
	}
	return false
}

// CanTransition reports whether the lifecycle graph allows moving from one state to another
func CanTransition(from, to RunState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
