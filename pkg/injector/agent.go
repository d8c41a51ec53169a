package injector

import (
	"bufio"
	"context"
	"strconv"
	"sync"

	"os/exec"

	"github.com/chaoslab/control-plane/pkg/log"
	"github.com/chaoslab/control-plane/pkg/types"
	"github.com/pkg/errors"
)

// AgentInjector launches an external fault agent process per run.
// The agent performs the actual fault injection against the target system;
// this side only dispatches, observes its output, and signals rollback.
type AgentInjector struct {
	command string
	procs   sync.Map // runID -> *exec.Cmd
}

func NewAgentInjector(command string) *AgentInjector {
	return &AgentInjector{command: command}
}

// Start launches the fault agent for the run and streams its output into
// the log. The process is not waited on here, the monitoring loop owns
// the run's duration.
func (a *AgentInjector) Start(ctx context.Context, plan *types.RunPlan) error {
	def := plan.Definition

	mode := "production"
	if plan.DryRun {
		mode = "dry-run"
	}
	intensity := def.Parameters["intensity"]
	if intensity == "" {
		intensity = "50"
	}

	cmd := exec.CommandContext(ctx, a.command,
		"--fault-type", agentFaultType(def.FaultType),
		"--target", def.Target.Cluster,
		"--duration", strconv.Itoa(int(def.Timeout.Seconds())),
		"--mode", mode,
		"--intensity", intensity,
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "unable to attach to fault agent output")
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "unable to start fault agent for run %s", plan.RunID)
	}
	a.procs.Store(plan.RunID, cmd)

	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			log.Infof("[FaultAgent]: %v", scanner.Text())
		}
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			log.Errorf("[FaultAgent]: The fault agent for run %v has exited, err: %v", plan.RunID, err)
		}
		a.procs.Delete(plan.RunID)
	}()

	log.Infof("[FaultAgent]: Dispatched fault agent for run %v on cluster %v", plan.RunID, def.Target.Cluster)
	return nil
}

// Rollback stops the run's fault agent if it is still alive. Failure to
// stop it is reported, never retried.
func (a *AgentInjector) Rollback(_ context.Context, runID string) error {
	value, ok := a.procs.Load(runID)
	if !ok {
		return nil
	}
	cmd := value.(*exec.Cmd)
	if cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		return errors.Wrapf(err, "unable to stop fault agent for run %s", runID)
	}
	a.procs.Delete(runID)
	log.Infof("[FaultAgent]: Rolled back fault agent for run %v", runID)
	return nil
}

// agentFaultType maps fault types to the agent's command-line vocabulary
func agentFaultType(fault types.FaultType) string {
	switch fault {
	case types.CPUStress:
		return "cpu"
	case types.MemoryStress:
		return "memory"
	case types.NetworkDelay, types.NetworkPartition:
		return "network"
	default:
		return "exception"
	}
}
