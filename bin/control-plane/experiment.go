package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chaoslab/control-plane/pkg/log"
	"github.com/chaoslab/control-plane/pkg/report"
	"github.com/chaoslab/control-plane/pkg/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"
)

var runFlags struct {
	file   string
	dryRun bool
	output string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Admit an experiment definition and execute one run",
	Long: `Admit the experiment definition from the given YAML file, execute a
single run and print the resulting report when the run ends.

Example definition:

  name: checkout-pod-kill
  faultType: POD_KILL
  target:
    cluster: staging-cluster
    namespace: staging
  timeout: 2m
  slos:
    - metric: ERROR_RATE
      query: sum(rate(http_requests_total{status=~"5.."}[1m]))
      threshold: 5
      comparator: "<"
  dryRunAllowed: true`,
	RunE: runExperiment,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runFlags.file, "file", "f", "", "experiment definition file (required)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "predict the effect without injecting the fault")
	runCmd.Flags().StringVarP(&runFlags.output, "output", "o", "markdown", "report format (json, markdown)")
	_ = runCmd.MarkFlagRequired("file")
}

// experimentFile is the on-disk YAML shape of a definition. Timeout is a
// duration string such as "90s" or "2m".
type experimentFile struct {
	Name          string             `yaml:"name"`
	FaultType     types.FaultType    `yaml:"faultType"`
	Parameters    map[string]string  `yaml:"parameters"`
	Target        types.TargetSystem `yaml:"target"`
	Timeout       string             `yaml:"timeout"`
	Slos          []types.SloTarget  `yaml:"slos"`
	DryRunAllowed bool               `yaml:"dryRunAllowed"`
	CreatedBy     string             `yaml:"createdBy"`
}

func loadDefinition(path string) (*types.ExperimentDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read definition file %s", path)
	}
	var file experimentFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrapf(err, "unable to parse definition file %s", path)
	}
	timeout, err := time.ParseDuration(file.Timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid timeout %q", file.Timeout)
	}
	return &types.ExperimentDefinition{
		Name:          file.Name,
		FaultType:     file.FaultType,
		Parameters:    file.Parameters,
		Target:        file.Target,
		Timeout:       timeout,
		Slos:          file.Slos,
		DryRunAllowed: file.DryRunAllowed,
		CreatedBy:     file.CreatedBy,
	}, nil
}

func runExperiment(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	def, err := loadDefinition(runFlags.file)
	if err != nil {
		return err
	}

	application, err := buildApp(settings)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := context.Background()
	experimentID, err := application.orchestrator.AdmitExperiment(ctx, def)
	if err != nil {
		return err
	}
	log.Infof("[Admission]: The experiment %v has been admitted as %v", def.Name, experimentID)

	runID, err := application.orchestrator.ScheduleRun(ctx, experimentID, time.Now(), runFlags.dryRun)
	if err != nil {
		return err
	}
	log.Infof("[Schedule]: The run %v has been scheduled", runID)

	if err := waitForRun(application, runID, def.Timeout); err != nil {
		return err
	}

	runReport, err := application.orchestrator.GetReport(runID)
	if err != nil {
		// a policy-blocked run has a state but no report
		state, stateErr := application.orchestrator.GetRunState(runID)
		if stateErr == nil && state == types.RunStateBlockedByPolicy {
			log.Errorf("[Policy]: The run %v was blocked by policy", runID)
			return nil
		}
		return err
	}

	format := report.FormatMarkdown
	if strings.EqualFold(runFlags.output, "json") {
		format = report.FormatJSON
	}
	rendered, err := report.Render(runReport, format)
	if err != nil {
		return err
	}
	fmt.Println(string(rendered))
	return nil
}

// waitForRun polls the run until it reaches a terminal state. The grace
// period on top of the definition timeout covers the recovery check.
func waitForRun(application *app, runID string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout + 2*time.Minute)
	for time.Now().Before(deadline) {
		state, err := application.orchestrator.GetRunState(runID)
		if err != nil {
			return err
		}
		if state.Terminal() {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return errors.Errorf("run %s did not finish within %v", runID, timeout+2*time.Minute)
}
