package slo

import (
	"context"

	"github.com/chaoslab/control-plane/pkg/cerrors"
	"github.com/chaoslab/control-plane/pkg/log"
	"github.com/chaoslab/control-plane/pkg/metrics"
	"github.com/chaoslab/control-plane/pkg/slo/comparator"
	"github.com/chaoslab/control-plane/pkg/types"
	"github.com/sirupsen/logrus"
)

// Evaluator checks a set of SLO targets against the metrics backend.
// Evaluation is synchronous and performs no retries, the provider's
// own timeout bounds each query.
type Evaluator struct {
	provider metrics.Provider
}

func NewEvaluator(provider metrics.Provider) *Evaluator {
	return &Evaluator{provider: provider}
}

// Evaluate queries the metrics backend once per target and returns the
// observed value for each. A failed or empty query is captured in the
// result rather than returned as an error, Breaches decides what it means.
func (e *Evaluator) Evaluate(ctx context.Context, targets []types.SloTarget) types.SloResults {
	results := make(types.SloResults, len(targets))
	if len(targets) == 0 {
		log.Warn("[SLO]: No targets to evaluate")
		return results
	}

	for _, target := range targets {
		value, found, err := e.provider.QueryInstant(ctx, target.Query)
		result := types.SloResult{Target: target, Value: value, Found: found}
		if err != nil {
			result.Error = err.Error()
			log.Errorf("[SLO]: The %v target evaluation has Failed, err: %v", target.Key(), err)
		} else {
			log.InfoWithValues("[SLO]: The slo target evaluation is as follows", logrus.Fields{
				"Metric":     target.Metric,
				"Query":      target.Query,
				"Value":      value,
				"Found":      found,
				"Comparator": target.Comparator,
				"Threshold":  target.Threshold,
			})
		}
		results[target.Key()] = result
	}
	return results
}

// Breaches applies each target's comparator to its threshold and returns
// true if any target fails. A target whose query returned no sample, or
// whose comparator is unrecognized, counts as a breach (fail closed).
func (e *Evaluator) Breaches(results types.SloResults) bool {
	return len(BreachedTargets(results)) > 0
}

// BreachedTargets returns the keys of all failing targets along with the
// reason each one failed
func BreachedTargets(results types.SloResults) map[string]string {
	breached := make(map[string]string)
	for key, result := range results {
		if result.Error != "" {
			breached[key] = result.Error
			continue
		}
		if !result.Found {
			breached[key] = "query yielded no sample"
			continue
		}
		if err := comparator.FirstValue(result.Value).
			SecondValue(result.Target.Threshold).
			Criteria(result.Target.Comparator).
			Target(key).
			CompareFloat(cerrors.ErrorTypeSloEvaluation); err != nil {
			breached[key] = err.Error()
		}
	}
	for key, reason := range breached {
		log.Warnf("[SLO]: Breach detected for %v, %v", key, reason)
	}
	return breached
}

// Deltas computes, per target, the observed change between a baseline
// evaluation and a later one. Targets missing from either side report zero.
func Deltas(baseline, current types.SloResults) map[string]float64 {
	deltas := make(map[string]float64, len(current))
	for key, after := range current {
		deltas[key] = 0
		before, ok := baseline[key]
		if ok && before.Found && after.Found {
			deltas[key] = after.Value - before.Value
		}
	}
	for key := range baseline {
		if _, ok := deltas[key]; !ok {
			deltas[key] = 0
		}
	}
	return deltas
}
