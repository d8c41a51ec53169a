package blastradius

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordAffected_IdempotentAdds(t *testing.T) {
	tracker := NewTracker()

	tracker.RecordAffectedPod("run-1", "checkout-5d4f7b-abcde")
	tracker.RecordAffectedPod("run-1", "checkout-5d4f7b-abcde")
	tracker.RecordAffectedPod("run-1", "checkout-5d4f7b-fghij")
	tracker.RecordAffectedNamespace("run-1", "staging")
	tracker.RecordAffectedNamespace("run-1", "staging")
	tracker.RecordAffectedService("run-1", "checkout")

	pods, namespaces, services := tracker.Counts("run-1")
	if pods != 2 {
		t.Errorf("expected 2 pods, got %d", pods)
	}
	if namespaces != 1 {
		t.Errorf("expected 1 namespace, got %d", namespaces)
	}
	if services != 1 {
		t.Errorf("expected 1 service, got %d", services)
	}
}

func TestValidate_WithinLimits(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordAffectedPod("run-1", "pod-a")
	tracker.RecordAffectedNamespace("run-1", "staging")

	valid, details := tracker.Validate("run-1", 10, 1, 5)
	assert.True(t, valid)
	assert.Empty(t, details)
	assert.Empty(t, tracker.BreachHistory("run-1"), "a passing validation must not record a breach")
}

func TestValidate_PodLimitExceeded(t *testing.T) {
	tracker := NewTracker()
	for i := 0; i < 11; i++ {
		tracker.RecordAffectedPod("run-1", fmt.Sprintf("pod-%d", i))
	}

	valid, details := tracker.Validate("run-1", 10, 1, 5)
	assert.False(t, valid)
	assert.Equal(t, []string{"Pods: 11 > 10 (limit)"}, details)
}

func TestValidate_MultipleLimitsExceeded(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordAffectedPod("run-1", "pod-a")
	tracker.RecordAffectedPod("run-1", "pod-b")
	tracker.RecordAffectedNamespace("run-1", "staging")
	tracker.RecordAffectedNamespace("run-1", "dev")

	valid, details := tracker.Validate("run-1", 1, 1, 5)
	assert.False(t, valid)
	assert.Equal(t, []string{"Pods: 2 > 1 (limit)", "Namespaces: 2 > 1 (limit)"}, details)
}

func TestValidate_DoesNotMutateSets(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordAffectedPod("run-1", "pod-a")
	tracker.RecordAffectedPod("run-1", "pod-b")

	tracker.Validate("run-1", 1, 1, 5)
	tracker.Validate("run-1", 1, 1, 5)

	pods, _, _ := tracker.Counts("run-1")
	assert.Equal(t, 2, pods, "validation must only read the sets")
}

func TestValidate_BreachHistoryAccumulates(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordAffectedPod("run-1", "pod-a")
	tracker.RecordAffectedPod("run-1", "pod-b")

	tracker.Validate("run-1", 1, 1, 5)
	tracker.RecordAffectedPod("run-1", "pod-c")
	tracker.Validate("run-1", 1, 1, 5)

	history := tracker.BreachHistory("run-1")
	assert.Len(t, history, 2)
	assert.Equal(t, 2, history[0].PodCount)
	assert.Equal(t, 3, history[1].PodCount)
}

func TestTracker_RunsAreIndependent(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordAffectedPod("run-1", "pod-a")
	tracker.RecordAffectedPod("run-2", "pod-a")

	pods, _, _ := tracker.Counts("run-1")
	assert.Equal(t, 1, pods)

	valid, _ := tracker.Validate("run-2", 10, 1, 5)
	assert.True(t, valid)
}

func TestClear(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordAffectedPod("run-1", "pod-a")
	tracker.Validate("run-1", 0, 0, 0)

	tracker.Clear("run-1")

	pods, namespaces, services := tracker.Counts("run-1")
	assert.Zero(t, pods)
	assert.Zero(t, namespaces)
	assert.Zero(t, services)
	assert.Empty(t, tracker.BreachHistory("run-1"))
}
