package types

import (
	"strings"
	"time"
)

const (
	// BaselineCheck initial stage of a run, checks target health before fault injection
	BaselineCheck string = "BaselineCheck"
	// RuntimeCheck periodic stage during fault injection
	RuntimeCheck string = "RuntimeCheck"
	// RecoveryCheck pre-final stage of a run, checks target health after fault injection
	RecoveryCheck string = "RecoveryCheck"
	// Summary final stage of a run, records the outcome
	Summary string = "Summary"
)

// FaultType enumerates the supported fault injections
type FaultType string

const (
	PodKill          FaultType = "POD_KILL"
	CPUStress        FaultType = "CPU_STRESS"
	MemoryStress     FaultType = "MEMORY_STRESS"
	NetworkDelay     FaultType = "NETWORK_DELAY"
	NetworkPartition FaultType = "NETWORK_PARTITION"
)

// SloMetric enumerates the metric kinds an SLO target can gate on
type SloMetric string

const (
	LatencyP95   SloMetric = "LATENCY_P95"
	LatencyP99   SloMetric = "LATENCY_P99"
	ErrorRate    SloMetric = "ERROR_RATE"
	Availability SloMetric = "AVAILABILITY"
	Throughput   SloMetric = "THROUGHPUT"
)

// TargetSystem identifies the system a fault is injected into
type TargetSystem struct {
	Cluster   string            `json:"cluster" yaml:"cluster"`
	Namespace string            `json:"namespace" yaml:"namespace"`
	Labels    map[string]string `json:"labels" yaml:"labels"`
}

// SloTarget is a single pass/fail gate on an observable metric
type SloTarget struct {
	Metric     SloMetric `json:"metric" yaml:"metric"`
	Query      string    `json:"query" yaml:"query"`
	Threshold  float64   `json:"threshold" yaml:"threshold"`
	Comparator string    `json:"comparator" yaml:"comparator"`
}

// Key derives the result-map key for the target, LATENCY_P95 -> latency_p95
func (t SloTarget) Key() string {
	return strings.ToLower(string(t.Metric))
}

// ExperimentDefinition is the admitted description of a chaos experiment.
// It is immutable once admitted, runs hold read-only references to it.
type ExperimentDefinition struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	FaultType     FaultType         `json:"faultType"`
	Parameters    map[string]string `json:"parameters"`
	Target        TargetSystem      `json:"target"`
	Timeout       time.Duration     `json:"timeout"`
	Slos          []SloTarget       `json:"slos"`
	DryRunAllowed bool              `json:"dryRunAllowed"`
	CreatedBy     string            `json:"createdBy"`
}

// RunPlan schedules one execution of an admitted experiment
type RunPlan struct {
	RunID       string                `json:"runId"`
	Definition  *ExperimentDefinition `json:"definition"`
	ScheduledAt time.Time             `json:"scheduledAt"`
	DryRun      bool                  `json:"dryRun"`
}

// Report is generated exactly once when a run enters a terminal state
type Report struct {
	RunID          string             `json:"runId"`
	ExperimentName string             `json:"experimentName"`
	StartedAt      time.Time          `json:"startedAt"`
	EndedAt        time.Time          `json:"endedAt"`
	Outcome        RunState           `json:"outcome"`
	SloDeltas      map[string]float64 `json:"sloDeltas"`
}

// ViolationType classifies the phase a breach was detected in
type ViolationType string

const (
	// BaselineBreach the target was already unhealthy before fault injection
	BaselineBreach ViolationType = "BASELINE_BREACH"
	// RuntimeBreach an SLO or blast-radius threshold was crossed during injection
	RuntimeBreach ViolationType = "RUNTIME_BREACH"
	// RecoveryFailure the target did not return to acceptable SLO levels after injection
	RecoveryFailure ViolationType = "RECOVERY_FAILURE"
)

// Severity levels for violations and alerts
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ViolationRecord is an immutable entry in a run's breach history
type ViolationRecord struct {
	ID         string        `json:"id"`
	RunID      string        `json:"runId"`
	Type       ViolationType `json:"type"`
	Timestamp  time.Time     `json:"timestamp"`
	SloResults SloResults    `json:"sloResults"`
}

// SloResult is the observed outcome for a single SLO target
type SloResult struct {
	Target SloTarget `json:"target"`
	Value  float64   `json:"value"`
	// Found is false when the query returned no sample, which counts as a breach
	Found bool   `json:"found"`
	Error string `json:"error,omitempty"`
}

// SloResults maps SLO target keys to their observed outcomes
type SloResults map[string]SloResult

// Snapshot returns a copy safe to hand to a ViolationRecord
func (r SloResults) Snapshot() SloResults {
	out := make(SloResults, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
