package blastradius

import (
	"fmt"
	"sync"
	"time"

	"github.com/chaoslab/control-plane/pkg/log"
	"github.com/sirupsen/logrus"
)

// Breach is an append-only record of a blast-radius threshold violation
type Breach struct {
	RunID          string
	Timestamp      time.Time
	PodCount       int
	NamespaceCount int
	ServiceCount   int
	Details        []string
}

// state holds the affected-resource sets for one run.
// Each run carries its own lock so unrelated runs never serialize.
type state struct {
	mu         sync.Mutex
	pods       map[string]struct{}
	namespaces map[string]struct{}
	services   map[string]struct{}
	breaches   []Breach
}

func newState() *state {
	return &state{
		pods:       make(map[string]struct{}),
		namespaces: make(map[string]struct{}),
		services:   make(map[string]struct{}),
	}
}

// Tracker accumulates the blast radius of each active run and validates
// it against configured maxima. All additions are idempotent, the sets
// grow monotonically until the run's tracking is cleared.
type Tracker struct {
	states sync.Map // runID -> *state
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) stateFor(runID string) *state {
	if existing, ok := t.states.Load(runID); ok {
		return existing.(*state)
	}
	actual, _ := t.states.LoadOrStore(runID, newState())
	return actual.(*state)
}

// RecordAffectedPod adds a pod identifier to the run's blast radius
func (t *Tracker) RecordAffectedPod(runID, pod string) {
	s := t.stateFor(runID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pods[pod] = struct{}{}
}

// RecordAffectedNamespace adds a namespace to the run's blast radius
func (t *Tracker) RecordAffectedNamespace(runID, namespace string) {
	s := t.stateFor(runID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.namespaces[namespace] = struct{}{}
}

// RecordAffectedService adds a service identifier to the run's blast radius
func (t *Tracker) RecordAffectedService(runID, service string) {
	s := t.stateFor(runID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[service] = struct{}{}
}

// Counts returns the current affected-resource set sizes for the run
func (t *Tracker) Counts(runID string) (pods, namespaces, services int) {
	s := t.stateFor(runID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pods), len(s.namespaces), len(s.services)
}

// Validate compares the run's current set sizes to the maxima. On breach
// it appends a Breach record to the run's history and returns the detail
// strings describing every exceeded limit.
func (t *Tracker) Validate(runID string, maxPods, maxNamespaces, maxServices int) (bool, []string) {
	s := t.stateFor(runID)
	s.mu.Lock()
	defer s.mu.Unlock()

	var details []string
	if len(s.pods) > maxPods {
		details = append(details, fmt.Sprintf("Pods: %d > %d (limit)", len(s.pods), maxPods))
	}
	if len(s.namespaces) > maxNamespaces {
		details = append(details, fmt.Sprintf("Namespaces: %d > %d (limit)", len(s.namespaces), maxNamespaces))
	}
	if len(s.services) > maxServices {
		details = append(details, fmt.Sprintf("Services: %d > %d (limit)", len(s.services), maxServices))
	}

	if len(details) == 0 {
		return true, nil
	}

	breach := Breach{
		RunID:          runID,
		Timestamp:      time.Now(),
		PodCount:       len(s.pods),
		NamespaceCount: len(s.namespaces),
		ServiceCount:   len(s.services),
		Details:        details,
	}
	s.breaches = append(s.breaches, breach)

	log.ErrorWithValues("[BlastRadius]: The blast radius limits has been exceeded", logrus.Fields{
		"Run ID":     runID,
		"Pods":       breach.PodCount,
		"Namespaces": breach.NamespaceCount,
		"Services":   breach.ServiceCount,
		"Details":    details,
	})
	return false, details
}

// BreachHistory returns the run's recorded breaches in order of detection
func (t *Tracker) BreachHistory(runID string) []Breach {
	s := t.stateFor(runID)
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]Breach, len(s.breaches))
	copy(history, s.breaches)
	return history
}

// Clear discards the run's blast radius state, called when the run
// reaches a terminal state
func (t *Tracker) Clear(runID string) {
	t.states.Delete(runID)
}
