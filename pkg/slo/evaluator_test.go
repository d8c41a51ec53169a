package slo

import (
	"context"
	"testing"

	"github.com/chaoslab/control-plane/pkg/metrics"
	"github.com/chaoslab/control-plane/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func latencyTarget(threshold float64, comparator string) types.SloTarget {
	return types.SloTarget{
		Metric:     types.LatencyP95,
		Query:      "histogram_quantile(0.95, http_request_duration_ms_bucket)",
		Threshold:  threshold,
		Comparator: comparator,
	}
}

func TestEvaluate_RecordsObservedValues(t *testing.T) {
	provider := metrics.NewMock()
	provider.SetValue("histogram_quantile(0.95, http_request_duration_ms_bucket)", 420)

	evaluator := NewEvaluator(provider)
	results := evaluator.Evaluate(context.Background(), []types.SloTarget{latencyTarget(500, "<")})

	result, ok := results["latency_p95"]
	require.True(t, ok, "result keyed by lowercase metric name")
	assert.Equal(t, 420.0, result.Value)
	assert.True(t, result.Found)
	assert.Empty(t, result.Error)
}

func TestBreaches_WithinThreshold(t *testing.T) {
	provider := metrics.NewMock()
	provider.SetValue("histogram_quantile(0.95, http_request_duration_ms_bucket)", 420)

	evaluator := NewEvaluator(provider)
	results := evaluator.Evaluate(context.Background(), []types.SloTarget{latencyTarget(500, "<")})

	if evaluator.Breaches(results) {
		t.Errorf("420 < 500 must not breach")
	}
}

func TestBreaches_OverThreshold(t *testing.T) {
	provider := metrics.NewMock()
	provider.SetValue("histogram_quantile(0.95, http_request_duration_ms_bucket)", 600)

	evaluator := NewEvaluator(provider)
	results := evaluator.Evaluate(context.Background(), []types.SloTarget{latencyTarget(500, "<")})

	if !evaluator.Breaches(results) {
		t.Errorf("600 < 500 must breach")
	}
	breached := BreachedTargets(results)
	assert.Contains(t, breached, "latency_p95")
}

func TestBreaches_MissingSampleFailsClosed(t *testing.T) {
	provider := metrics.NewMock()
	provider.MarkAbsent("histogram_quantile(0.95, http_request_duration_ms_bucket)")

	evaluator := NewEvaluator(provider)
	results := evaluator.Evaluate(context.Background(), []types.SloTarget{latencyTarget(500, "<")})

	if !evaluator.Breaches(results) {
		t.Error("a target without a sample must count as breached")
	}
	assert.Equal(t, "query yielded no sample", BreachedTargets(results)["latency_p95"])
}

func TestBreaches_UnknownComparatorFailsClosed(t *testing.T) {
	provider := metrics.NewMock()
	provider.SetValue("histogram_quantile(0.95, http_request_duration_ms_bucket)", 1)

	evaluator := NewEvaluator(provider)
	results := evaluator.Evaluate(context.Background(), []types.SloTarget{latencyTarget(500, "approx")})

	if !evaluator.Breaches(results) {
		t.Error("a target with an unrecognized comparator must count as breached")
	}
}

func TestDeltas(t *testing.T) {
	baseline := types.SloResults{
		"latency_p95": {Value: 400, Found: true},
		"error_rate":  {Value: 1, Found: true},
	}
	current := types.SloResults{
		"latency_p95": {Value: 650, Found: true},
		"error_rate":  {Found: false},
	}

	deltas := Deltas(baseline, current)

	assert.Equal(t, 250.0, deltas["latency_p95"])
	// a side without a sample reports no movement
	assert.Equal(t, 0.0, deltas["error_rate"])
}

func TestDeltas_TargetOnlyInBaseline(t *testing.T) {
	baseline := types.SloResults{"availability": {Value: 99.9, Found: true}}
	deltas := Deltas(baseline, types.SloResults{})

	assert.Equal(t, 0.0, deltas["availability"])
}
