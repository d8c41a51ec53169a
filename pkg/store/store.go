package store

import (
	"github.com/chaoslab/control-plane/pkg/types"
)

// Repository persists experiment definitions, run plans and reports.
// Lookups for unknown identifiers return a cerrors NotFound error.
type Repository interface {
	SaveDefinition(def *types.ExperimentDefinition) error
	FindDefinition(id string) (*types.ExperimentDefinition, error)
	ListDefinitions() ([]*types.ExperimentDefinition, error)
	DeleteDefinition(id string) error

	SaveRunPlan(plan *types.RunPlan) error
	FindRunPlan(runID string) (*types.RunPlan, error)
	FindRunsByExperimentID(experimentID string) ([]*types.RunPlan, error)

	SaveReport(report *types.Report) error
	FindReport(runID string) (*types.Report, error)
}
