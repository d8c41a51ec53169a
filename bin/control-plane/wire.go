package main

import (
	"io"

	"github.com/chaoslab/control-plane/pkg/alert"
	"github.com/chaoslab/control-plane/pkg/blastradius"
	"github.com/chaoslab/control-plane/pkg/environment"
	"github.com/chaoslab/control-plane/pkg/events"
	"github.com/chaoslab/control-plane/pkg/injector"
	"github.com/chaoslab/control-plane/pkg/log"
	"github.com/chaoslab/control-plane/pkg/metrics"
	"github.com/chaoslab/control-plane/pkg/orchestrator"
	"github.com/chaoslab/control-plane/pkg/policy"
	"github.com/chaoslab/control-plane/pkg/slo"
	"github.com/chaoslab/control-plane/pkg/store"
	"github.com/chaoslab/control-plane/pkg/telemetry"
	"github.com/chaoslab/control-plane/pkg/violation"
	"github.com/pkg/errors"
)

// app bundles the assembled control plane for the CLI commands
type app struct {
	orchestrator *orchestrator.Orchestrator
	metrics      *telemetry.Metrics
	bus          *events.Bus
	settings     *environment.Settings
	closer       io.Closer
}

func (a *app) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// buildApp assembles the control plane from its settings
func buildApp(settings *environment.Settings) (*app, error) {
	var repo store.Repository
	var closer io.Closer
	if settings.StorePath != "" {
		sqlite, err := store.NewSQLite(settings.StorePath)
		if err != nil {
			return nil, errors.Wrap(err, "unable to open the experiment store")
		}
		log.Infof("[Setup]: Persisting runs to %v", settings.StorePath)
		repo = sqlite
		closer = sqlite
	} else {
		log.Warn("[Setup]: No store path configured, runs will not survive a restart")
		repo = store.NewMemory()
	}

	var provider metrics.Provider
	if settings.PrometheusEndpoint != "" {
		log.Infof("[Setup]: Querying SLO metrics from %v", settings.PrometheusEndpoint)
		provider = metrics.NewPrometheusProvider(settings.PrometheusEndpoint, settings.QueryTimeout)
	} else {
		log.Warn("[Setup]: No prometheus endpoint configured, using the mock metrics provider")
		provider = metrics.NewMock()
	}

	var faultInjector injector.Injector
	if settings.FaultAgentCommand != "" {
		faultInjector = injector.NewAgentInjector(settings.FaultAgentCommand)
	} else {
		log.Warn("[Setup]: No fault agent configured, injections are no-ops")
		faultInjector = injector.Noop{}
	}

	collectors := telemetry.NewMetrics()
	bus := events.NewBus()

	deps := orchestrator.Deps{
		Repository: repo,
		Gate:       policy.NewGate(settings),
		Evaluator:  slo.NewEvaluator(provider),
		Blast:      blastradius.NewTracker(),
		Violations: violation.NewTracker(settings.ViolationWindow, settings.ViolationThreshold),
		Injector:   faultInjector,
		Notifier:   alert.LogNotifier{},
		Bus:        bus,
		Settings:   settings,
		Metrics:    collectors,
	}
	return &app{
		orchestrator: orchestrator.New(deps),
		metrics:      collectors,
		bus:          bus,
		settings:     settings,
		closer:       closer,
	}, nil
}

// loadSettings reads the config file when one is given and falls back to
// the defaults plus environment overrides otherwise
func loadSettings() (*environment.Settings, error) {
	settings, err := environment.Load(cfgFile)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load the configuration")
	}
	return settings, nil
}
