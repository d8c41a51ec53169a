package environment

import (
	"os"
	"strconv"
	"time"

	"github.com/chaoslab/control-plane/pkg/types"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Settings is the aggregate configuration for the control plane
type Settings struct {
	AllowedNamespaces    []string          `yaml:"allowedNamespaces"`
	AllowedClusters      []string          `yaml:"allowedClusters"`
	RestrictedFaultTypes []types.FaultType `yaml:"restrictedFaultTypes"`
	MaxDuration          time.Duration     `yaml:"maxDuration"`
	MinSloCount          int               `yaml:"minSloCount"`

	MonitorInterval       time.Duration `yaml:"monitorInterval"`
	ViolationWindow       time.Duration `yaml:"violationWindow"`
	ViolationThreshold    int           `yaml:"violationThreshold"`
	AbortOnBaselineBreach bool          `yaml:"abortOnBaselineBreach"`

	MaxPods       int `yaml:"maxPods"`
	MaxNamespaces int `yaml:"maxNamespaces"`
	MaxServices   int `yaml:"maxServices"`

	PrometheusEndpoint string        `yaml:"prometheusEndpoint"`
	QueryTimeout       time.Duration `yaml:"queryTimeout"`
	FaultAgentCommand  string        `yaml:"faultAgentCommand"`
	StorePath          string        `yaml:"storePath"`
	ListenAddr         string        `yaml:"listenAddr"`
	OTLPEndpoint       string        `yaml:"otlpEndpoint"`
}

// Default returns the settings used when no config file overrides them.
// The admission allow-lists deliberately exclude production namespaces.
func Default() *Settings {
	return &Settings{
		AllowedNamespaces:     []string{"default", "staging", "test", "dev"},
		AllowedClusters:       []string{"production-cluster", "staging-cluster", "dev-cluster"},
		RestrictedFaultTypes:  []types.FaultType{types.NetworkPartition},
		MaxDuration:           30 * time.Minute,
		MinSloCount:           1,
		MonitorInterval:       10 * time.Second,
		ViolationWindow:       60 * time.Second,
		ViolationThreshold:    3,
		AbortOnBaselineBreach: true,
		MaxPods:               10,
		MaxNamespaces:         1,
		MaxServices:           5,
		PrometheusEndpoint:    "http://localhost:9090",
		QueryTimeout:          10 * time.Second,
		ListenAddr:            ":8088",
	}
}

// Load reads settings from the given YAML file on top of the defaults,
// then applies environment variable overrides. An empty path skips the file.
func Load(path string) (*Settings, error) {
	settings := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read config file %s", path)
		}
		if err := yaml.Unmarshal(raw, settings); err != nil {
			return nil, errors.Wrapf(err, "unable to parse config file %s", path)
		}
	}
	settings.getEnv()
	return settings, nil
}

//getEnv fetches the override ENVs for the control plane process
func (s *Settings) getEnv() {
	if v := os.Getenv("PROMETHEUS_ENDPOINT"); v != "" {
		s.PrometheusEndpoint = v
	}
	if v := os.Getenv("FAULT_AGENT_COMMAND"); v != "" {
		s.FaultAgentCommand = v
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		s.StorePath = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		s.ListenAddr = v
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		s.OTLPEndpoint = v
	}
	if v := os.Getenv("MONITOR_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			s.MonitorInterval = d
		}
	}
	if v := os.Getenv("VIOLATION_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.ViolationThreshold = n
		}
	}
	if v := os.Getenv("ABORT_ON_BASELINE_BREACH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.AbortOnBaselineBreach = b
		}
	}
}
