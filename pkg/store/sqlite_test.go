package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/chaoslab/control-plane/pkg/cerrors"
	"github.com/chaoslab/control-plane/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "control-plane.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLite_DefinitionRoundTrip(t *testing.T) {
	repo := newTestSQLite(t)
	def := sampleDefinition("exp-1")

	require.NoError(t, repo.SaveDefinition(def))

	found, err := repo.FindDefinition("exp-1")
	require.NoError(t, err)
	assert.Equal(t, def.Name, found.Name)
	assert.Equal(t, def.FaultType, found.FaultType)
	assert.Equal(t, def.Target, found.Target)
	assert.Equal(t, def.Slos, found.Slos)
}

func TestSQLite_SaveDefinition_Upserts(t *testing.T) {
	repo := newTestSQLite(t)
	def := sampleDefinition("exp-1")
	require.NoError(t, repo.SaveDefinition(def))

	updated := sampleDefinition("exp-1")
	updated.Name = "checkout-pod-kill-v2"
	require.NoError(t, repo.SaveDefinition(updated))

	found, err := repo.FindDefinition("exp-1")
	require.NoError(t, err)
	assert.Equal(t, "checkout-pod-kill-v2", found.Name)

	defs, err := repo.ListDefinitions()
	require.NoError(t, err)
	assert.Len(t, defs, 1)
}

func TestSQLite_DeleteDefinition(t *testing.T) {
	repo := newTestSQLite(t)
	require.NoError(t, repo.SaveDefinition(sampleDefinition("exp-1")))

	require.NoError(t, repo.DeleteDefinition("exp-1"))

	_, err := repo.FindDefinition("exp-1")
	assert.True(t, cerrors.Is(err, cerrors.ErrorTypeNotFound))

	err = repo.DeleteDefinition("exp-1")
	assert.True(t, cerrors.Is(err, cerrors.ErrorTypeNotFound))
}

func TestSQLite_RunPlansByExperiment(t *testing.T) {
	repo := newTestSQLite(t)
	def := sampleDefinition("exp-1")
	require.NoError(t, repo.SaveDefinition(def))

	scheduledAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.SaveRunPlan(&types.RunPlan{RunID: "run-1", Definition: def, ScheduledAt: scheduledAt}))
	require.NoError(t, repo.SaveRunPlan(&types.RunPlan{RunID: "run-2", Definition: def, DryRun: true}))

	plans, err := repo.FindRunsByExperimentID("exp-1")
	require.NoError(t, err)
	assert.Len(t, plans, 2)

	plan, err := repo.FindRunPlan("run-1")
	require.NoError(t, err)
	assert.True(t, plan.ScheduledAt.Equal(scheduledAt))
	assert.False(t, plan.DryRun)
}

func TestSQLite_ReportRoundTrip(t *testing.T) {
	repo := newTestSQLite(t)
	report := &types.Report{
		RunID:          "run-1",
		ExperimentName: "checkout-pod-kill",
		StartedAt:      time.Now().UTC().Truncate(time.Second),
		EndedAt:        time.Now().UTC().Truncate(time.Second),
		Outcome:        types.RunStateAborted,
		SloDeltas:      map[string]float64{"latency_p95": 250},
	}

	require.NoError(t, repo.SaveReport(report))

	found, err := repo.FindReport("run-1")
	require.NoError(t, err)
	assert.Equal(t, types.RunStateAborted, found.Outcome)
	assert.Equal(t, 250.0, found.SloDeltas["latency_p95"])

	_, err = repo.FindReport("missing")
	assert.True(t, cerrors.Is(err, cerrors.ErrorTypeNotFound))
}
