package orchestrator

import (
	"context"
	"time"

	"github.com/chaoslab/control-plane/pkg/alert"
	"github.com/chaoslab/control-plane/pkg/cerrors"
	"github.com/chaoslab/control-plane/pkg/events"
	"github.com/chaoslab/control-plane/pkg/log"
	"github.com/chaoslab/control-plane/pkg/report"
	"github.com/chaoslab/control-plane/pkg/slo"
	"github.com/chaoslab/control-plane/pkg/telemetry"
	"github.com/chaoslab/control-plane/pkg/types"
	"github.com/chaoslab/control-plane/pkg/violation"
	"github.com/sirupsen/logrus"
)

// executeRun drives one run through the lifecycle state machine. It is
// the only goroutine issuing checks for its run, so violation records are
// appended in the order their checks complete.
func (o *Orchestrator) executeRun(ctx context.Context, h *runHandle) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[Run]: The run %v has hit an unrecoverable internal error: %v", h.plan.RunID, r)
			o.finalize(h, types.RunStateFailed)
		}
	}()

	ctx, span := telemetry.StartSpan(ctx, "ExecuteRun")
	defer span.End()

	plan := h.plan
	def := plan.Definition

	if !o.waitForScheduledTime(ctx, h) {
		return
	}

	h.mu.Lock()
	h.startedAt = time.Now()
	h.mu.Unlock()

	// admission re-check at run start, PENDING -> BLOCKED_BY_POLICY is
	// terminal and produces no report
	if err := o.chain.run(ctx, CheckpointPreExecution, def, plan); err != nil {
		log.Errorf("[Policy]: The run %v has been blocked by a pre-execution interceptor, err: %v", plan.RunID, err)
		o.finalize(h, types.RunStateBlockedByPolicy)
		return
	}
	if _, err := o.gate.Admit(def); err != nil {
		log.Errorf("[Policy]: The run %v has been blocked by policy, err: %v", plan.RunID, err)
		o.finalize(h, types.RunStateBlockedByPolicy)
		return
	}

	// baseline check, confirms the target is healthy enough to experiment on
	if !o.transition(h, types.RunStateValidating) {
		return
	}
	log.Infof("[Baseline]: Verify that the target system is healthy (pre-chaos) for run %v", plan.RunID)
	baseline := o.evaluator.Evaluate(ctx, def.Slos)
	h.mu.Lock()
	h.baseline = baseline
	h.latest = baseline
	h.mu.Unlock()

	if o.evaluator.Breaches(baseline) {
		decision := o.handleViolation(h, types.BaselineBreach, baseline)
		if o.settings.AbortOnBaselineBreach {
			log.Errorf("[Baseline]: The baseline SLOs are already breached, aborting run %v before fault injection", plan.RunID)
			o.finalize(h, types.RunStateAborted)
			return
		}
		log.Warnf("[Baseline]: The baseline SLOs are breached but abort-on-breach is disabled, proceeding with run %v (severity %v)", plan.RunID, decision.Severity)
	}

	if !o.transition(h, types.RunStateRunning) {
		return
	}

	if plan.DryRun {
		o.completeDryRun(h)
		return
	}

	log.Infof("[Inject]: Dispatching the %v fault for run %v", def.FaultType, plan.RunID)
	if err := o.injector.Start(ctx, plan); err != nil {
		rootCause, errorCode := cerrors.GetRootCauseAndErrorCode(err)
		log.ErrorWithValues("[Inject]: Unable to start fault injection", logrus.Fields{
			"Run ID":     plan.RunID,
			"Error Code": errorCode,
			"Reason":     rootCause,
		})
		o.finalize(h, types.RunStateFailed)
		return
	}

	if !o.transition(h, types.RunStateMonitoring) {
		return
	}
	if aborted := o.monitorLoop(ctx, h); aborted {
		return
	}

	// experiment steps finished without abort, run the recovery check
	if err := o.chain.run(ctx, CheckpointPostExecution, def, plan); err != nil {
		log.Errorf("[Recovery]: The post-execution interceptor has failed for run %v, err: %v", plan.RunID, err)
	}
	if !o.transition(h, types.RunStateRunning) {
		return
	}

	log.Infof("[Recovery]: Verify that the target system has recovered (post-chaos) for run %v", plan.RunID)
	results := o.evaluator.Evaluate(ctx, def.Slos)
	h.setLatest(results)
	if o.evaluator.Breaches(results) {
		o.handleViolation(h, types.RecoveryFailure, results)
		o.abort(ctx, h, "target system failed to recover to acceptable SLO levels")
		return
	}

	o.finalize(h, types.RunStateCompleted)
}

// waitForScheduledTime blocks until the plan's scheduled time, returning
// false if the run was cancelled while waiting
func (o *Orchestrator) waitForScheduledTime(ctx context.Context, h *runHandle) bool {
	delay := time.Until(h.plan.ScheduledAt)
	if delay <= 0 {
		return true
	}
	log.Infof("[Schedule]: Waiting %v before starting run %v", delay.Round(time.Second), h.plan.RunID)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// completeDryRun computes the predicted effect without invoking the
// fault-injection collaborator
func (o *Orchestrator) completeDryRun(h *runHandle) {
	def := h.plan.Definition
	log.InfoWithValues("[DryRun]: The predicted experiment effect is as follows", logrus.Fields{
		"Run ID":     h.plan.RunID,
		"Fault Type": def.FaultType,
		"Target":     def.Target.Cluster + "/" + def.Target.Namespace,
		"Duration":   def.Timeout,
		"Parameters": def.Parameters,
	})
	o.finalize(h, types.RunStateCompleted)
}

// monitorLoop periodically evaluates SLOs and the blast radius for the
// duration of the fault. It returns true if the run was aborted, either
// by a violation decision or by external cancellation.
func (o *Orchestrator) monitorLoop(ctx context.Context, h *runHandle) bool {
	plan := h.plan
	def := plan.Definition

	endTime := time.After(def.Timeout)
	ticker := time.NewTicker(o.settings.MonitorInterval)
	defer ticker.Stop()

	log.Infof("[Monitor]: Monitoring run %v every %v for %v", plan.RunID, o.settings.MonitorInterval, def.Timeout)
	for {
		select {
		case <-ctx.Done():
			return true
		case <-endTime:
			log.Infof("[Monitor]: Time is up for run %v", plan.RunID)
			return false
		case <-ticker.C:
			results := o.evaluator.Evaluate(ctx, def.Slos)
			h.setLatest(results)

			if o.evaluator.Breaches(results) {
				decision := o.handleViolation(h, types.RuntimeBreach, results)
				if decision.ShouldAbort {
					o.abort(ctx, h, "violation threshold reached inside the sliding window")
					return true
				}
			}

			if valid, details := o.blast.Validate(plan.RunID, o.settings.MaxPods, o.settings.MaxNamespaces, o.settings.MaxServices); !valid {
				log.Errorf("[Monitor]: The blast radius limits are exceeded for run %v: %v", plan.RunID, details)
				decision := o.handleViolation(h, types.RuntimeBreach, results)
				if decision.ShouldAbort {
					o.abort(ctx, h, "blast radius containment limits exceeded")
					return true
				}
			}

			if err := o.chain.run(ctx, CheckpointPostStep, def, plan); err != nil {
				log.Errorf("[Monitor]: The post-step interceptor has failed for run %v, err: %v", plan.RunID, err)
			}
		}
	}
}

// handleViolation routes a breach through the violation tracker and fans
// out the resulting decision to telemetry, the event bus and the alerter
func (o *Orchestrator) handleViolation(h *runHandle, violationType types.ViolationType, results types.SloResults) violation.Decision {
	decision := o.violations.Record(h.plan.RunID, violationType, results)

	if o.metrics != nil {
		o.metrics.ViolationsRecorded.WithLabelValues(string(violationType)).Inc()
	}
	o.bus.Publish(events.Event{
		Type:    events.ViolationRecorded,
		RunID:   h.plan.RunID,
		State:   h.currentState(),
		Message: string(violationType),
	})
	if decision.ShouldAlert && o.notifier != nil {
		o.notifier.Notify(alert.Event{
			RunID:     h.plan.RunID,
			Severity:  decision.Severity,
			Message:   "SLO violation recorded: " + string(violationType),
			Actions:   decision.RecommendedActions,
			Timestamp: time.Now(),
		})
	}
	return decision
}

// abort moves the run to ABORTED and asks the injector to roll back.
// Rollback is best-effort, its failure is logged and alerted but does not
// change the already-decided terminal state. The first caller claims the
// abort under the handle mutex, so the abort event and metric are emitted
// exactly once even when an external abort races an internal one.
func (o *Orchestrator) abort(ctx context.Context, h *runHandle, reason string) {
	h.mu.Lock()
	if h.state.Terminal() || h.aborting {
		h.mu.Unlock()
		return
	}
	h.aborting = true
	h.mu.Unlock()
	if o.metrics != nil {
		o.metrics.AbortsIssued.Inc()
	}
	o.bus.Publish(events.Event{Type: events.RunAborted, RunID: h.plan.RunID, Message: reason})

	if !h.plan.DryRun {
		if err := o.injector.Rollback(ctx, h.plan.RunID); err != nil {
			log.Errorf("[Rollback]: Unable to roll back run %v, err: %v", h.plan.RunID, err)
			if o.notifier != nil {
				o.notifier.Notify(alert.Event{
					RunID:     h.plan.RunID,
					Severity:  types.SeverityHigh,
					Message:   "rollback failed after abort: " + err.Error(),
					Timestamp: time.Now(),
				})
			}
		}
	}
	o.finalize(h, types.RunStateAborted)
}

// transition moves the run forward along the lifecycle graph. It returns
// false when the run is already terminal, which ends the driving goroutine.
func (o *Orchestrator) transition(h *runHandle, to types.RunState) bool {
	h.mu.Lock()
	if h.state.Terminal() {
		h.mu.Unlock()
		return false
	}
	if !types.CanTransition(h.state, to) {
		h.mu.Unlock()
		log.Errorf("[Run]: Illegal transition %v -> %v requested for run %v", h.currentState(), to, h.plan.RunID)
		return false
	}
	from := h.state
	h.state = to
	h.mu.Unlock()

	log.Infof("[Run]: The run %v has moved %v -> %v", h.plan.RunID, from, to)
	o.bus.Publish(events.Event{Type: events.StateChanged, RunID: h.plan.RunID, State: to})
	return true
}

// finalize moves the run into a terminal state, cancels its monitoring
// goroutine, generates the report exactly once, and discards the run's
// violation and blast-radius tracking
func (o *Orchestrator) finalize(h *runHandle, outcome types.RunState) {
	h.mu.Lock()
	if h.state.Terminal() {
		h.mu.Unlock()
		return
	}
	from := h.state
	// an abort issued while the run is still PENDING passes through
	// VALIDATING so the recorded sequence stays on the lifecycle graph
	if !types.CanTransition(h.state, outcome) && h.state == types.RunStatePending && outcome == types.RunStateAborted {
		h.state = types.RunStateValidating
		from = h.state
	}
	if !types.CanTransition(h.state, outcome) {
		h.mu.Unlock()
		log.Errorf("[Run]: Illegal terminal transition %v -> %v requested for run %v", from, outcome, h.plan.RunID)
		return
	}
	h.state = outcome
	alreadyReported := h.reported
	h.reported = true
	startedAt := h.startedAt
	deltas := slo.Deltas(h.baseline, h.latest)
	cancel := h.cancel
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	log.Infof("[Run]: The run %v has moved %v -> %v (terminal)", h.plan.RunID, from, outcome)
	o.bus.Publish(events.Event{Type: events.StateChanged, RunID: h.plan.RunID, State: outcome})
	if o.metrics != nil {
		o.metrics.RunsByOutcome.WithLabelValues(string(outcome)).Inc()
		o.metrics.ActiveRuns.Dec()
	}

	// BLOCKED_BY_POLICY has no run execution to report on
	if outcome != types.RunStateBlockedByPolicy && !alreadyReported {
		if startedAt.IsZero() {
			startedAt = time.Now()
		}
		runReport := &types.Report{
			RunID:          h.plan.RunID,
			ExperimentName: h.plan.Definition.Name,
			StartedAt:      startedAt,
			EndedAt:        time.Now(),
			Outcome:        outcome,
			SloDeltas:      deltas,
		}
		if err := o.repo.SaveReport(runReport); err != nil {
			log.Errorf("[Summary]: Unable to persist the report for run %v, err: %v", h.plan.RunID, err)
		} else {
			o.bus.Publish(events.Event{Type: events.ReportGenerated, RunID: h.plan.RunID, State: outcome})
		}
		log.Info("[Summary]: " + report.Summary(runReport))
	}

	o.blast.Clear(h.plan.RunID)
	o.violations.Clear(h.plan.RunID)
}
