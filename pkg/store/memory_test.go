package store

import (
	"testing"
	"time"

	"github.com/chaoslab/control-plane/pkg/cerrors"
	"github.com/chaoslab/control-plane/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDefinition(id string) *types.ExperimentDefinition {
	return &types.ExperimentDefinition{
		ID:        id,
		Name:      "checkout-pod-kill",
		FaultType: types.PodKill,
		Target:    types.TargetSystem{Cluster: "staging-cluster", Namespace: "staging"},
		Timeout:   2 * time.Minute,
		Slos: []types.SloTarget{
			{Metric: types.ErrorRate, Query: "error_rate", Threshold: 5, Comparator: "<"},
		},
	}
}

func TestMemory_DefinitionRoundTrip(t *testing.T) {
	repo := NewMemory()
	def := sampleDefinition("exp-1")

	require.NoError(t, repo.SaveDefinition(def))

	found, err := repo.FindDefinition("exp-1")
	require.NoError(t, err)
	assert.Equal(t, "checkout-pod-kill", found.Name)
	assert.Equal(t, types.PodKill, found.FaultType)
}

func TestMemory_FindDefinition_Unknown(t *testing.T) {
	repo := NewMemory()

	_, err := repo.FindDefinition("missing")
	require.Error(t, err)
	assert.True(t, cerrors.Is(err, cerrors.ErrorTypeNotFound))
}

func TestMemory_ListDefinitions(t *testing.T) {
	repo := NewMemory()
	require.NoError(t, repo.SaveDefinition(sampleDefinition("exp-1")))
	require.NoError(t, repo.SaveDefinition(sampleDefinition("exp-2")))

	defs, err := repo.ListDefinitions()
	require.NoError(t, err)
	assert.Len(t, defs, 2)
}

func TestMemory_DeleteDefinition(t *testing.T) {
	repo := NewMemory()
	require.NoError(t, repo.SaveDefinition(sampleDefinition("exp-1")))

	require.NoError(t, repo.DeleteDefinition("exp-1"))
	_, err := repo.FindDefinition("exp-1")
	assert.True(t, cerrors.Is(err, cerrors.ErrorTypeNotFound))

	err = repo.DeleteDefinition("exp-1")
	assert.True(t, cerrors.Is(err, cerrors.ErrorTypeNotFound), "deleting twice reports not found")
}

func TestMemory_RunPlansByExperiment(t *testing.T) {
	repo := NewMemory()
	def := sampleDefinition("exp-1")
	other := sampleDefinition("exp-2")

	require.NoError(t, repo.SaveRunPlan(&types.RunPlan{RunID: "run-1", Definition: def}))
	require.NoError(t, repo.SaveRunPlan(&types.RunPlan{RunID: "run-2", Definition: def}))
	require.NoError(t, repo.SaveRunPlan(&types.RunPlan{RunID: "run-3", Definition: other}))

	plans, err := repo.FindRunsByExperimentID("exp-1")
	require.NoError(t, err)
	assert.Len(t, plans, 2)

	plan, err := repo.FindRunPlan("run-3")
	require.NoError(t, err)
	assert.Equal(t, "exp-2", plan.Definition.ID)
}

func TestMemory_ReportRoundTrip(t *testing.T) {
	repo := NewMemory()
	report := &types.Report{
		RunID:          "run-1",
		ExperimentName: "checkout-pod-kill",
		Outcome:        types.RunStateCompleted,
		SloDeltas:      map[string]float64{"error_rate": 0.4},
	}

	require.NoError(t, repo.SaveReport(report))

	found, err := repo.FindReport("run-1")
	require.NoError(t, err)
	assert.Equal(t, types.RunStateCompleted, found.Outcome)
	assert.Equal(t, 0.4, found.SloDeltas["error_rate"])

	_, err = repo.FindReport("run-2")
	assert.True(t, cerrors.Is(err, cerrors.ErrorTypeNotFound))
}
