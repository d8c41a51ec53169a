package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "control-plane",
	Short: "Chaos experiment control plane",
	Long: `The chaos experiment control plane admits experiment definitions,
schedules runs against approved clusters and aborts them when service
level objectives degrade beyond the configured tolerance.

It provides:
  - Policy-gated admission of experiment definitions
  - A run lifecycle with baseline, runtime and recovery SLO checks
  - Sliding-window violation tracking with automatic abort
  - Blast-radius containment limits per run
  - Persisted run reports with per-SLO deltas`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
