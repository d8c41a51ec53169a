package injector

import (
	"context"

	"github.com/chaoslab/control-plane/pkg/types"
)

// Injector is the fault-injection collaborator. Rollback is requested,
// not guaranteed, on abort.
type Injector interface {
	// Start begins fault injection for the run
	Start(ctx context.Context, plan *types.RunPlan) error

	// Rollback asks the injector to undo the run's fault, best-effort
	Rollback(ctx context.Context, runID string) error
}

// Noop performs no injection, used for dry runs and tests
type Noop struct{}

func (Noop) Start(context.Context, *types.RunPlan) error { return nil }
func (Noop) Rollback(context.Context, string) error { return nil }
