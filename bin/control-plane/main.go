// Control plane for running chaos experiments against pre-production
// clusters with policy admission, SLO safety gating and blast-radius
// containment.
//
// Usage:
//
//	# Start the control plane with the default settings
//	control-plane serve
//
//	# Start with a config file
//	control-plane serve --config /etc/chaoslab/config.yaml
//
//	# Admit a definition and execute one run, then exit
//	control-plane run --file experiment.yaml
//
//	# Show version information
//	control-plane version
package main

import (
	"github.com/sirupsen/logrus"
)

func init() {
	// Log as JSON instead of the default ASCII formatter.
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:          true,
		DisableSorting:         true,
		DisableLevelTruncation: true,
	})
}

func main() {
	Execute()
}
