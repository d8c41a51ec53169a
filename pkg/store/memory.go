package store

import (
	"sync"

	"github.com/chaoslab/control-plane/pkg/cerrors"
	"github.com/chaoslab/control-plane/pkg/types"
)

// Memory is a map-backed Repository for tests and single-process use
type Memory struct {
	mu          sync.RWMutex
	definitions map[string]*types.ExperimentDefinition
	runPlans    map[string]*types.RunPlan
	reports     map[string]*types.Report
}

func NewMemory() *Memory {
	return &Memory{
		definitions: make(map[string]*types.ExperimentDefinition),
		runPlans:    make(map[string]*types.RunPlan),
		reports:     make(map[string]*types.Report),
	}
}

func (m *Memory) SaveDefinition(def *types.ExperimentDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.definitions[def.ID] = def
	return nil
}

func (m *Memory) FindDefinition(id string) (*types.ExperimentDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.definitions[id]
	if !ok {
		return nil, cerrors.NotFound("experiment", id)
	}
	return def, nil
}

func (m *Memory) ListDefinitions() ([]*types.ExperimentDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	defs := make([]*types.ExperimentDefinition, 0, len(m.definitions))
	for _, def := range m.definitions {
		defs = append(defs, def)
	}
	return defs, nil
}

func (m *Memory) DeleteDefinition(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.definitions[id]; !ok {
		return cerrors.NotFound("experiment", id)
	}
	delete(m.definitions, id)
	return nil
}

func (m *Memory) SaveRunPlan(plan *types.RunPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runPlans[plan.RunID] = plan
	return nil
}

func (m *Memory) FindRunPlan(runID string) (*types.RunPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	plan, ok := m.runPlans[runID]
	if !ok {
		return nil, cerrors.NotFound("run", runID)
	}
	return plan, nil
}

func (m *Memory) FindRunsByExperimentID(experimentID string) ([]*types.RunPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var plans []*types.RunPlan
	for _, plan := range m.runPlans {
		if plan.Definition != nil && plan.Definition.ID == experimentID {
			plans = append(plans, plan)
		}
	}
	return plans, nil
}

func (m *Memory) SaveReport(report *types.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[report.RunID] = report
	return nil
}

func (m *Memory) FindReport(runID string) (*types.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	report, ok := m.reports[runID]
	if !ok {
		return nil, cerrors.NotFound("report", runID)
	}
	return report, nil
}
