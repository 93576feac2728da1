package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigBundle holds simulation configuration, loadable from a YAML file.
// Nil pointer fields mean "not set in YAML" and do not override the base SimConfig.
// String fields use empty string for "not set".
type ConfigBundle struct {
	Scheduler       string  `yaml:"scheduler"`
	Quantum         *int64  `yaml:"quantum"`
	Partitions      []int64 `yaml:"partitions"`
	MaxTicks        *int64  `yaml:"max_ticks"`
	CheckInvariants *bool   `yaml:"check_invariants"`
	TraceLevel      string  `yaml:"trace_level"`
}

// LoadConfigBundle reads and parses a YAML configuration file.
// Unknown keys are rejected so typos fail loudly.
func LoadConfigBundle(path string) (*ConfigBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sim config: %w", err)
	}
	return ParseConfigBundle(data)
}

// ParseConfigBundle decodes YAML bytes into a ConfigBundle with strict field checking.
func ParseConfigBundle(data []byte) (*ConfigBundle, error) {
	var bundle ConfigBundle
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	// an empty file decodes to io.EOF and means "nothing set"
	if err := decoder.Decode(&bundle); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing sim config: %w", err)
	}
	return &bundle, nil
}

// Validate checks names and parameter ranges of the fields that are set.
func (b *ConfigBundle) Validate() error {
	if b.Scheduler != "" && !IsValidScheduler(b.Scheduler) {
		return fmt.Errorf("unknown scheduler %q", b.Scheduler)
	}
	if b.Quantum != nil && *b.Quantum <= 0 {
		return fmt.Errorf("quantum must be > 0, got %d", *b.Quantum)
	}
	for i, c := range b.Partitions {
		if c <= 0 {
			return fmt.Errorf("partition %d capacity must be > 0, got %d", i+1, c)
		}
	}
	if b.MaxTicks != nil && *b.MaxTicks < 0 {
		return fmt.Errorf("max_ticks must be non-negative, got %d", *b.MaxTicks)
	}
	return nil
}

// ApplyTo overlays the fields set in the bundle onto cfg.
func (b *ConfigBundle) ApplyTo(cfg *SimConfig) {
	if b.Scheduler != "" {
		cfg.Scheduler = b.Scheduler
	}
	if b.Quantum != nil {
		cfg.Quantum = *b.Quantum
	}
	if len(b.Partitions) > 0 {
		cfg.PartitionCapacities = append([]int64(nil), b.Partitions...)
	}
	if b.MaxTicks != nil {
		cfg.MaxTicks = *b.MaxTicks
	}
	if b.CheckInvariants != nil {
		cfg.CheckInvariants = *b.CheckInvariants
	}
	if b.TraceLevel != "" {
		cfg.TraceLevel = b.TraceLevel
	}
}
