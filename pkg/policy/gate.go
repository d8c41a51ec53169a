package policy

import (
	"fmt"
	"time"

	"github.com/chaoslab/control-plane/pkg/cerrors"
	"github.com/chaoslab/control-plane/pkg/environment"
	"github.com/chaoslab/control-plane/pkg/types"
)

// Gate enforces the static admission rules over an experiment definition.
// It acts as the safety gate preventing dangerous or unauthorized experiments.
type Gate struct {
	allowedNamespaces map[string]struct{}
	allowedClusters   map[string]struct{}
	restrictedFaults  map[types.FaultType]struct{}
	maxDuration       time.Duration
	minSloCount       int

	// kept in configured order for readable denial messages
	namespaceList []string
	clusterList   []string
}

func NewGate(settings *environment.Settings) *Gate {
	gate := &Gate{
		allowedNamespaces: make(map[string]struct{}, len(settings.AllowedNamespaces)),
		allowedClusters:   make(map[string]struct{}, len(settings.AllowedClusters)),
		restrictedFaults:  make(map[types.FaultType]struct{}, len(settings.RestrictedFaultTypes)),
		maxDuration:       settings.MaxDuration,
		minSloCount:       settings.MinSloCount,
		namespaceList:     settings.AllowedNamespaces,
		clusterList:       settings.AllowedClusters,
	}
	for _, ns := range settings.AllowedNamespaces {
		gate.allowedNamespaces[ns] = struct{}{}
	}
	for _, cluster := range settings.AllowedClusters {
		gate.allowedClusters[cluster] = struct{}{}
	}
	for _, fault := range settings.RestrictedFaultTypes {
		gate.restrictedFaults[fault] = struct{}{}
	}
	return gate
}

// Admit evaluates the admission rules in fixed order, fail-fast.
// The restricted fault type rule is non-blocking, it only flags the
// definition as requiring approval. A non-nil error is always a
// cerrors PolicyViolation carrying the first failing rule's reason.
func (g *Gate) Admit(def *types.ExperimentDefinition) (approvalRequired bool, err error) {
	if reason := g.blockingDenialReason(def); reason != "" {
		return false, cerrors.PolicyViolation(reason)
	}
	return g.isRestrictedFaultType(def), nil
}

// DenialReason performs the same checks as Admit and returns a descriptive
// message for the first failing rule, the approval-required message if only
// the non-blocking rule fires, or the empty string if fully clear.
func (g *Gate) DenialReason(def *types.ExperimentDefinition) string {
	if reason := g.blockingDenialReason(def); reason != "" {
		return reason
	}
	if g.isRestrictedFaultType(def) {
		return fmt.Sprintf("Fault type '%s' requires approval before execution. Please request approval from a chaos engineering lead.", def.FaultType)
	}
	return ""
}

func (g *Gate) blockingDenialReason(def *types.ExperimentDefinition) string {
	if def == nil {
		return "Experiment definition is nil"
	}

	if _, ok := g.allowedNamespaces[def.Target.Namespace]; !ok {
		return fmt.Sprintf("Invalid namespace: '%s'. Allowed namespaces: %v", def.Target.Namespace, g.namespaceList)
	}

	if _, ok := g.allowedClusters[def.Target.Cluster]; !ok {
		return fmt.Sprintf("Invalid cluster: '%s'. Allowed clusters: %v", def.Target.Cluster, g.clusterList)
	}

	if def.Timeout <= 0 || def.Timeout > g.maxDuration {
		return fmt.Sprintf("Experiment duration exceeds maximum: %v (max: %v)", def.Timeout, g.maxDuration)
	}

	if len(def.Slos) < g.minSloCount {
		return fmt.Sprintf("Insufficient SLO definitions: %d (minimum required: %d). At least one SLO must be defined to measure experiment impact.", len(def.Slos), g.minSloCount)
	}

	return ""
}

func (g *Gate) isRestrictedFaultType(def *types.ExperimentDefinition) bool {
	_, ok := g.restrictedFaults[def.FaultType]
	return ok
}
