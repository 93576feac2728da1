package sim

import (
	"fmt"

	"github.com/ossim/ossim/sim/trace"
)

// MemoryConfig groups the fixed partition layout.
type MemoryConfig struct {
	PartitionCapacities []int64 // one entry per partition, in ID order (must be non-empty, all > 0)
}

// PolicyConfig groups scheduling policy selection.
type PolicyConfig struct {
	Scheduler string // "FCFS" (default), "EP", "RR"
	Quantum   int64  // RR time slice in ticks (must be > 0 for RR)
}

// RunConfig groups loop control and diagnostics.
type RunConfig struct {
	MaxTicks        int64  // safety valve; 0 = run until every process terminates
	CheckInvariants bool   // verify queue/partition invariants after every tick; panics on violation
	TraceLevel      string // "full" (default), "transitions", "none"
}

// SimConfig is the complete configuration of one simulation run.
type SimConfig struct {
	MemoryConfig
	PolicyConfig
	RunConfig
}

// NewMemoryConfig creates a MemoryConfig. The slice is copied.
func NewMemoryConfig(capacities []int64) MemoryConfig {
	return MemoryConfig{PartitionCapacities: append([]int64(nil), capacities...)}
}

// NewPolicyConfig creates a PolicyConfig.
func NewPolicyConfig(scheduler string, quantum int64) PolicyConfig {
	return PolicyConfig{Scheduler: scheduler, Quantum: quantum}
}

// NewRunConfig creates a RunConfig.
func NewRunConfig(maxTicks int64, checkInvariants bool, traceLevel string) RunConfig {
	return RunConfig{MaxTicks: maxTicks, CheckInvariants: checkInvariants, TraceLevel: traceLevel}
}

// DefaultSimConfig returns the layout and policy of the reference simulator:
// six partitions (40, 25, 15, 10, 8, 2), FCFS, RR quantum 100, full trace, no tick cap.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		MemoryConfig: NewMemoryConfig(DefaultPartitionCapacities),
		PolicyConfig: NewPolicyConfig(string(FCFS), DefaultQuantum),
		RunConfig:    NewRunConfig(0, false, string(trace.TraceLevelFull)),
	}
}

// WithScheduler returns a copy of the config with a different scheduler.
// Used to replay the same workload under every policy.
func (c SimConfig) WithScheduler(name string) SimConfig {
	c.Scheduler = name
	c.PartitionCapacities = append([]int64(nil), c.PartitionCapacities...)
	return c
}

// Validate checks policy names and parameter ranges.
func (c SimConfig) Validate() error {
	if len(c.PartitionCapacities) == 0 {
		return fmt.Errorf("at least one partition capacity is required")
	}
	for i, capacity := range c.PartitionCapacities {
		if capacity <= 0 {
			return fmt.Errorf("partition %d capacity must be > 0, got %d", i+1, capacity)
		}
	}
	kind, err := ParseSchedulerKind(c.Scheduler)
	if err != nil {
		return err
	}
	if kind == RR && c.Quantum <= 0 {
		return fmt.Errorf("quantum must be > 0 for RR, got %d", c.Quantum)
	}
	if c.MaxTicks < 0 {
		return fmt.Errorf("max ticks must be non-negative, got %d", c.MaxTicks)
	}
	if !trace.IsValidTraceLevel(c.TraceLevel) {
		return fmt.Errorf("unknown trace level %q", c.TraceLevel)
	}
	return nil
}
