package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ossim/ossim/sim"
	"github.com/ossim/ossim/sim/workload"
)

// Workload describes a preset workload in defaults.yaml.
type Workload struct {
	Description string                 `yaml:"description"`
	Partitions  []int64                `yaml:"partitions,omitempty"`
	Processes   []workload.ProcessSpec `yaml:"processes"`
}

// DefaultConfig holds the run defaults applied before any config file or flag.
type DefaultConfig struct {
	Scheduler  string  `yaml:"scheduler"`
	Quantum    int64   `yaml:"quantum"`
	Partitions []int64 `yaml:"partitions"`
	MaxTicks   int64   `yaml:"max_ticks"`
}

// Config represents the full defaults.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Version   string              `yaml:"version"`
	Defaults  DefaultConfig       `yaml:"defaults"`
	Workloads map[string]Workload `yaml:"workloads"`
}

// loadDefaultsConfig parses defaults.yaml into a Config struct.
// Uses strict field checking so typos fail loudly.
func loadDefaultsConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read defaults file: %w", err)
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse defaults YAML %s: %w", path, err)
	}
	return &cfg, nil
}

// GetDefaultSimConfig returns the built-in configuration overlaid with the
// defaults section of path. A missing file is not an error.
func GetDefaultSimConfig(path string) (sim.SimConfig, error) {
	simCfg := sim.DefaultSimConfig()
	cfg, err := loadDefaultsConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		logrus.Debugf("Defaults file %s not found, using built-in defaults", path)
		return simCfg, nil
	}
	if err != nil {
		return simCfg, err
	}

	d := cfg.Defaults
	if d.Scheduler != "" {
		simCfg.Scheduler = d.Scheduler
	}
	if d.Quantum > 0 {
		simCfg.Quantum = d.Quantum
	}
	if len(d.Partitions) > 0 {
		simCfg.PartitionCapacities = append([]int64(nil), d.Partitions...)
	}
	if d.MaxTicks > 0 {
		simCfg.MaxTicks = d.MaxTicks
	}
	return simCfg, nil
}

// loadPresetWorkload loads a named preset from defaults.yaml as a workload spec.
func loadPresetWorkload(defaultsPath, name string) (*workload.WorkloadSpec, error) {
	cfg, err := loadDefaultsConfig(defaultsPath)
	if err != nil {
		return nil, err
	}
	wl, ok := cfg.Workloads[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (available: %v)", name, presetNames(cfg))
	}
	spec := &workload.WorkloadSpec{
		Version:    workload.CurrentVersion,
		Partitions: wl.Partitions,
		Processes:  wl.Processes,
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("preset %q: %w", name, err)
	}
	return spec, nil
}

func presetNames(cfg *Config) []string {
	names := make([]string, 0, len(cfg.Workloads))
	for name := range cfg.Workloads {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
