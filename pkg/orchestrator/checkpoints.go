package orchestrator

import (
	"context"
	"sync"

	"github.com/chaoslab/control-plane/pkg/types"
)

// Checkpoint names a point in the run lifecycle where registered
// interceptors are invoked. The active checkpoint list is configuration,
// not metadata attached to call sites.
type Checkpoint string

const (
	CheckpointPreAdmission  Checkpoint = "pre-admission"
	CheckpointPreExecution  Checkpoint = "pre-execution"
	CheckpointPostStep      Checkpoint = "post-step"
	CheckpointPostExecution Checkpoint = "post-execution"
)

// DefaultCheckpoints enables every checkpoint
func DefaultCheckpoints() []Checkpoint {
	return []Checkpoint{
		CheckpointPreAdmission,
		CheckpointPreExecution,
		CheckpointPostStep,
		CheckpointPostExecution,
	}
}

// Interceptor is invoked at a checkpoint. plan is nil at pre-admission,
// where only the definition exists yet.
type Interceptor func(ctx context.Context, def *types.ExperimentDefinition, plan *types.RunPlan) error

type interceptorChain struct {
	mu       sync.RWMutex
	enabled  map[Checkpoint]bool
	handlers map[Checkpoint][]Interceptor
}

func newInterceptorChain(checkpoints []Checkpoint) *interceptorChain {
	chain := &interceptorChain{
		enabled:  make(map[Checkpoint]bool, len(checkpoints)),
		handlers: make(map[Checkpoint][]Interceptor),
	}
	for _, cp := range checkpoints {
		chain.enabled[cp] = true
	}
	return chain
}

func (c *interceptorChain) register(cp Checkpoint, interceptor Interceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[cp] = append(c.handlers[cp], interceptor)
}

// run invokes the checkpoint's interceptors in registration order,
// stopping at the first error
func (c *interceptorChain) run(ctx context.Context, cp Checkpoint, def *types.ExperimentDefinition, plan *types.RunPlan) error {
	c.mu.RLock()
	if !c.enabled[cp] {
		c.mu.RUnlock()
		return nil
	}
	interceptors := make([]Interceptor, len(c.handlers[cp]))
	copy(interceptors, c.handlers[cp])
	c.mu.RUnlock()

	for _, interceptor := range interceptors {
		if err := interceptor(ctx, def, plan); err != nil {
			return err
		}
	}
	return nil
}
