package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/chaoslab/control-plane/pkg/alert"
	"github.com/chaoslab/control-plane/pkg/blastradius"
	"github.com/chaoslab/control-plane/pkg/cerrors"
	"github.com/chaoslab/control-plane/pkg/environment"
	"github.com/chaoslab/control-plane/pkg/events"
	"github.com/chaoslab/control-plane/pkg/injector"
	"github.com/chaoslab/control-plane/pkg/log"
	"github.com/chaoslab/control-plane/pkg/policy"
	"github.com/chaoslab/control-plane/pkg/slo"
	"github.com/chaoslab/control-plane/pkg/store"
	"github.com/chaoslab/control-plane/pkg/telemetry"
	"github.com/chaoslab/control-plane/pkg/types"
	"github.com/chaoslab/control-plane/pkg/violation"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Deps carries the orchestrator's collaborators. A single orchestrator is
// constructed once at process start and passed by reference to callers.
type Deps struct {
	Repository store.Repository
	Gate       *policy.Gate
	Evaluator  *slo.Evaluator
	Blast      *blastradius.Tracker
	Violations *violation.Tracker
	Injector   injector.Injector
	Notifier   alert.Notifier
	Bus        *events.Bus
	Settings   *environment.Settings
	Metrics    *telemetry.Metrics

	// Checkpoints enables a subset of the interceptor checkpoints.
	// Nil enables all of them.
	Checkpoints []Checkpoint
}

// Orchestrator owns the run lifecycle state machine. Each active run's
// monitoring loop executes as its own cancellable goroutine; run state is
// kept in a concurrent map keyed by run id so unrelated runs never
// serialize on a shared lock.
type Orchestrator struct {
	repo       store.Repository
	gate       *policy.Gate
	evaluator  *slo.Evaluator
	blast      *blastradius.Tracker
	violations *violation.Tracker
	injector   injector.Injector
	notifier   alert.Notifier
	bus        *events.Bus
	settings   *environment.Settings
	metrics    *telemetry.Metrics

	chain *interceptorChain
	runs  sync.Map // runID -> *runHandle
}

// runHandle is the orchestrator's private view of one run
type runHandle struct {
	mu        sync.Mutex
	plan      *types.RunPlan
	state     types.RunState
	startedAt time.Time
	baseline  types.SloResults
	latest    types.SloResults
	cancel    context.CancelFunc
	reported  bool
	aborting  bool
}

func (h *runHandle) currentState() types.RunState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *runHandle) setLatest(results types.SloResults) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = results
}

func New(deps Deps) *Orchestrator {
	checkpoints := deps.Checkpoints
	if checkpoints == nil {
		checkpoints = DefaultCheckpoints()
	}
	return &Orchestrator{
		repo:       deps.Repository,
		gate:       deps.Gate,
		evaluator:  deps.Evaluator,
		blast:      deps.Blast,
		violations: deps.Violations,
		injector:   deps.Injector,
		notifier:   deps.Notifier,
		bus:        deps.Bus,
		settings:   deps.Settings,
		metrics:    deps.Metrics,
		chain:      newInterceptorChain(checkpoints),
	}
}

// RegisterInterceptor attaches an interceptor to a lifecycle checkpoint
func (o *Orchestrator) RegisterInterceptor(cp Checkpoint, interceptor Interceptor) {
	o.chain.register(cp, interceptor)
}

// AdmitExperiment validates the definition against the policy gate and
// persists it. A denied definition is never persisted. The restricted
// fault type rule does not deny, it flags the experiment for approval.
func (o *Orchestrator) AdmitExperiment(ctx context.Context, def *types.ExperimentDefinition) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "AdmitExperiment")
	defer span.End()

	if err := o.chain.run(ctx, CheckpointPreAdmission, def, nil); err != nil {
		return "", cerrors.PolicyViolation(err.Error())
	}

	approvalRequired, err := o.gate.Admit(def)
	if err != nil {
		log.Errorf("[Admission]: The experiment '%v' has been denied, err: %v", def.Name, err)
		return "", err
	}

	admitted := *def
	admitted.ID = uuid.New().String()
	if err := o.repo.SaveDefinition(&admitted); err != nil {
		return "", err
	}

	if approvalRequired {
		log.Warnf("[Admission]: %v", o.gate.DenialReason(&admitted))
	}
	log.InfoWithValues("[Admission]: The experiment has been admitted", logrus.Fields{
		"Experiment ID":     admitted.ID,
		"Name":              admitted.Name,
		"Fault Type":        admitted.FaultType,
		"Approval Required": approvalRequired,
	})
	return admitted.ID, nil
}

// ScheduleRun creates a run for an admitted experiment and launches its
// lifecycle in a background goroutine. The goroutine waits for the
// scheduled time before starting validation.
func (o *Orchestrator) ScheduleRun(ctx context.Context, experimentID string, when time.Time, dryRun bool) (string, error) {
	_, span := telemetry.StartSpan(ctx, "ScheduleRun")
	defer span.End()

	def, err := o.repo.FindDefinition(experimentID)
	if err != nil {
		return "", err
	}
	if dryRun && !def.DryRunAllowed {
		return "", cerrors.PolicyViolation("Dry run not allowed for experiment: " + experimentID)
	}

	plan := &types.RunPlan{
		RunID:       uuid.New().String(),
		Definition:  def,
		ScheduledAt: when,
		DryRun:      dryRun,
	}
	if err := o.repo.SaveRunPlan(plan); err != nil {
		return "", err
	}

	// the run outlives the scheduling request
	runCtx, cancel := context.WithCancel(context.Background())
	handle := &runHandle{plan: plan, state: types.RunStatePending, cancel: cancel}
	o.runs.Store(plan.RunID, handle)

	if o.metrics != nil {
		o.metrics.RunsStarted.Inc()
		o.metrics.ActiveRuns.Inc()
	}
	o.bus.Publish(events.Event{Type: events.RunScheduled, RunID: plan.RunID, State: types.RunStatePending})
	log.InfoWithValues("[Schedule]: The run has been scheduled", logrus.Fields{
		"Run ID":        plan.RunID,
		"Experiment ID": experimentID,
		"Scheduled At":  when,
		"Dry Run":       dryRun,
	})

	go o.executeRun(runCtx, handle)
	return plan.RunID, nil
}

// GetRunState returns the run's current lifecycle state
func (o *Orchestrator) GetRunState(runID string) (types.RunState, error) {
	if value, ok := o.runs.Load(runID); ok {
		return value.(*runHandle).currentState(), nil
	}
	// not held in memory, a persisted report still knows the outcome
	if report, err := o.repo.FindReport(runID); err == nil {
		return report.Outcome, nil
	}
	if _, err := o.repo.FindRunPlan(runID); err == nil {
		return types.RunStatePending, nil
	}
	return "", cerrors.NotFound("run", runID)
}

// GetReport returns the run's final report, or NotFound while the run is
// still executing
func (o *Orchestrator) GetReport(runID string) (*types.Report, error) {
	return o.repo.FindReport(runID)
}

// AbortRun aborts an active run. Aborting an already-terminal run is a
// no-op, the terminal state and report are unchanged.
func (o *Orchestrator) AbortRun(ctx context.Context, runID, reason string) error {
	value, ok := o.runs.Load(runID)
	if !ok {
		if _, err := o.repo.FindRunPlan(runID); err != nil {
			return cerrors.NotFound("run", runID)
		}
		return cerrors.InvalidState(runID, "run is not active on this orchestrator")
	}
	handle := value.(*runHandle)
	if handle.currentState().Terminal() {
		return nil
	}

	log.Warnf("[Abort]: Aborting run %v, reason: %v", runID, reason)
	o.abort(ctx, handle, reason)
	return nil
}

// ListRunsForExperiment returns the run plans created for an experiment
func (o *Orchestrator) ListRunsForExperiment(experimentID string) ([]*types.RunPlan, error) {
	if _, err := o.repo.FindDefinition(experimentID); err != nil {
		return nil, err
	}
	return o.repo.FindRunsByExperimentID(experimentID)
}

// ListExperiments returns every admitted experiment definition
func (o *Orchestrator) ListExperiments() ([]*types.ExperimentDefinition, error) {
	return o.repo.ListDefinitions()
}

// DeleteExperiment removes an experiment definition
func (o *Orchestrator) DeleteExperiment(experimentID string) error {
	if err := o.repo.DeleteDefinition(experimentID); err != nil {
		return err
	}
	log.Infof("[Admission]: The experiment %v has been deleted", experimentID)
	return nil
}

// ApproveExperiment records an approval for an experiment carrying a
// restricted fault type and returns an approval id for the audit trail
func (o *Orchestrator) ApproveExperiment(experimentID, approver string) (string, error) {
	if _, err := o.repo.FindDefinition(experimentID); err != nil {
		return "", err
	}
	approvalID := uuid.New().String()
	log.InfoWithValues("[Approval]: The experiment has been approved", logrus.Fields{
		"Experiment ID": experimentID,
		"Approver":      approver,
		"Approval ID":   approvalID,
	})
	return approvalID, nil
}

// ViolationStatistics summarizes the run's recorded violations. The
// tracking is discarded when the run reaches a terminal state, so this
// reports on active runs only.
func (o *Orchestrator) ViolationStatistics(runID string) violation.Stats {
	return o.violations.Statistics(runID)
}

// BlastRadiusBreaches returns the run's recorded blast-radius breaches
func (o *Orchestrator) BlastRadiusBreaches(runID string) []blastradius.Breach {
	return o.blast.BreachHistory(runID)
}

// RecordImpact adds observed affected resources to the run's blast radius.
// It is called by whatever observes the fault's effect, typically the
// agent-update path of the transport layer.
func (o *Orchestrator) RecordImpact(runID string, pods, namespaces, services []string) {
	for _, pod := range pods {
		o.blast.RecordAffectedPod(runID, pod)
	}
	for _, namespace := range namespaces {
		o.blast.RecordAffectedNamespace(runID, namespace)
	}
	for _, service := range services {
		o.blast.RecordAffectedService(runID, service)
	}
}
