package violation

import (
	"sync"
	"time"

	"github.com/chaoslab/control-plane/pkg/log"
	"github.com/chaoslab/control-plane/pkg/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Recommended action identifiers attached to violation decisions
const (
	ActionAbortExperiment        = "ABORT_EXPERIMENT"
	ActionNotifyOnCallEngineer   = "NOTIFY_ON_CALL_ENGINEER"
	ActionInvestigateHealth      = "INVESTIGATE_SYSTEM_HEALTH"
	ActionDelayExperiment        = "DELAY_EXPERIMENT"
	ActionIncreaseMonitoringFreq = "INCREASE_MONITORING_FREQUENCY"
	ActionPrepareRollback        = "PREPARE_ROLLBACK"
	ActionTriggerRemediation     = "TRIGGER_REMEDIATION"
	ActionScaleUpResources       = "SCALE_UP_RESOURCES"
	ActionCreateIncidentTicket   = "CREATE_INCIDENT_TICKET"
)

// Decision is the tracker's recommendation after recording a violation
type Decision struct {
	Severity           types.Severity
	ShouldAbort        bool
	ShouldAlert        bool
	RecommendedActions []string
}

// Stats summarizes a run's violation history
type Stats struct {
	Total            int
	BaselineBreaches int
	RuntimeBreaches  int
	RecoveryFailures int
	FirstViolation   time.Time
	LastViolation    time.Time
}

// history holds one run's violation records behind its own lock, so the
// append-then-count abort decision is atomic with respect to concurrent
// recording for the same run without serializing unrelated runs.
type history struct {
	mu      sync.Mutex
	records []types.ViolationRecord
}

// Tracker records breach events per run and decides, via a sliding time
// window and violation-count threshold, whether the run should abort.
type Tracker struct {
	histories sync.Map // runID -> *history
	window    time.Duration
	threshold int
	now       func() time.Time
}

// NewTracker returns a tracker that recommends abort once the count of a
// run's violations inside the trailing window reaches the threshold.
func NewTracker(window time.Duration, threshold int) *Tracker {
	return &Tracker{window: window, threshold: threshold, now: time.Now}
}

// WithClock overrides the tracker's time source, used by tests
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

func (t *Tracker) historyFor(runID string) *history {
	if existing, ok := t.histories.Load(runID); ok {
		return existing.(*history)
	}
	actual, _ := t.histories.LoadOrStore(runID, &history{})
	return actual.(*history)
}

// Record appends a ViolationRecord for the run and computes the response:
// severity by fixed rule on the violation type, abort via the windowed
// count (including the record just appended), alert on HIGH or CRITICAL.
func (t *Tracker) Record(runID string, violationType types.ViolationType, sloResults types.SloResults) Decision {
	record := types.ViolationRecord{
		ID:         uuid.New().String(),
		RunID:      runID,
		Type:       violationType,
		Timestamp:  t.now(),
		SloResults: sloResults.Snapshot(),
	}

	h := t.historyFor(runID)
	h.mu.Lock()
	h.records = append(h.records, record)
	shouldAbort := t.countInWindow(h.records) >= t.threshold
	h.mu.Unlock()

	severity := severityFor(violationType)
	decision := Decision{
		Severity:           severity,
		ShouldAbort:        shouldAbort,
		ShouldAlert:        severity == types.SeverityHigh || severity == types.SeverityCritical,
		RecommendedActions: recommendedActions(violationType, shouldAbort),
	}

	log.InfoWithValues("[Violation]: The violation has been recorded", logrus.Fields{
		"Run ID":       runID,
		"Violation ID": record.ID,
		"Type":         violationType,
		"Severity":     decision.Severity,
		"Should Abort": decision.ShouldAbort,
	})
	return decision
}

// ShouldAbort re-derives the windowed-count decision at query time.
// It agrees with the value returned inside the last Record call for the run.
func (t *Tracker) ShouldAbort(runID string) bool {
	h := t.historyFor(runID)
	h.mu.Lock()
	defer h.mu.Unlock()
	return t.countInWindow(h.records) >= t.threshold
}

// countInWindow counts records with timestamps inside the trailing window.
// Callers hold the history lock.
func (t *Tracker) countInWindow(records []types.ViolationRecord) int {
	cutoff := t.now().Add(-t.window)
	count := 0
	for _, record := range records {
		if record.Timestamp.After(cutoff) {
			count++
		}
	}
	return count
}

// History returns a copy of the run's ordered violation records
func (t *Tracker) History(runID string) []types.ViolationRecord {
	h := t.historyFor(runID)
	h.mu.Lock()
	defer h.mu.Unlock()
	records := make([]types.ViolationRecord, len(h.records))
	copy(records, h.records)
	return records
}

// Statistics summarizes the run's violation history by type and time span
func (t *Tracker) Statistics(runID string) Stats {
	h := t.historyFor(runID)
	h.mu.Lock()
	defer h.mu.Unlock()

	stats := Stats{Total: len(h.records)}
	for _, record := range h.records {
		switch record.Type {
		case types.BaselineBreach:
			stats.BaselineBreaches++
		case types.RuntimeBreach:
			stats.RuntimeBreaches++
		case types.RecoveryFailure:
			stats.RecoveryFailures++
		}
	}
	if len(h.records) > 0 {
		stats.FirstViolation = h.records[0].Timestamp
		stats.LastViolation = h.records[len(h.records)-1].Timestamp
	}
	return stats
}

// Clear removes all of the run's records
func (t *Tracker) Clear(runID string) {
	t.histories.Delete(runID)
}

// severityFor maps violation types to severities by fixed rule,
// not by breach magnitude
func severityFor(violationType types.ViolationType) types.Severity {
	switch violationType {
	case types.BaselineBreach:
		return types.SeverityCritical
	case types.RecoveryFailure:
		return types.SeverityHigh
	default:
		return types.SeverityMedium
	}
}

func recommendedActions(violationType types.ViolationType, shouldAbort bool) []string {
	var actions []string
	if shouldAbort {
		actions = append(actions, ActionAbortExperiment, ActionNotifyOnCallEngineer)
	}
	switch violationType {
	case types.BaselineBreach:
		actions = append(actions, ActionInvestigateHealth, ActionDelayExperiment)
	case types.RuntimeBreach:
		actions = append(actions, ActionIncreaseMonitoringFreq, ActionPrepareRollback)
	case types.RecoveryFailure:
		actions = append(actions, ActionTriggerRemediation, ActionScaleUpResources, ActionCreateIncidentTicket)
	}
	return actions
}
