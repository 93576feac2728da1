package sim

import (
	"fmt"
	"strings"
)

// SchedulerKind identifies one of the closed set of dispatch policies.
type SchedulerKind string

const (
	// FCFS dispatches the head of the ready queue and never preempts.
	FCFS SchedulerKind = "FCFS"
	// EP dispatches the lowest Priority value, earliest-queued on ties, and never preempts.
	EP SchedulerKind = "EP"
	// RR dispatches the head of the ready queue for at most one quantum.
	RR SchedulerKind = "RR"
)

// DefaultQuantum is the round-robin time slice in ticks.
const DefaultQuantum int64 = 100

// SchedulerKinds lists every policy in display order.
var SchedulerKinds = []SchedulerKind{FCFS, EP, RR}

// selectFunc picks the position in the ready view of the process to dispatch.
// The view is never empty when called.
type selectFunc func(ready []*Process) int

var selectors = map[SchedulerKind]selectFunc{
	FCFS: selectHead,
	EP:   selectLowestPriority,
	RR:   selectHead,
}

// selectHead implements FCFS and RR: insertion order is arrival-into-ready order.
func selectHead(_ []*Process) int {
	return 0
}

// selectLowestPriority returns the first process holding the numerically smallest Priority.
func selectLowestPriority(ready []*Process) int {
	best := 0
	for i := 1; i < len(ready); i++ {
		// strict < keeps the earliest-queued process on ties
		if ready[i].Priority < ready[best].Priority {
			best = i
		}
	}
	return best
}

// ParseSchedulerKind maps a name (case-insensitive) to a SchedulerKind.
// Empty string defaults to FCFS (for CLI flag default compatibility).
func ParseSchedulerKind(name string) (SchedulerKind, error) {
	switch SchedulerKind(strings.ToUpper(strings.TrimSpace(name))) {
	case "", FCFS:
		return FCFS, nil
	case EP:
		return EP, nil
	case RR:
		return RR, nil
	default:
		return "", fmt.Errorf("unknown scheduler %q (valid: FCFS, EP, RR)", name)
	}
}

// IsValidScheduler returns true if name parses to a known scheduler.
func IsValidScheduler(name string) bool {
	_, err := ParseSchedulerKind(name)
	return err == nil
}

// Scheduler is the run-time dispatch policy: a kind plus its RR quantum.
type Scheduler struct {
	Kind    SchedulerKind
	Quantum int64 // ticks per slice; only read when Kind == RR
}

// NewScheduler creates a Scheduler by name.
// Panics on unrecognized names or a non-positive RR quantum; callers validate config first.
func NewScheduler(name string, quantum int64) Scheduler {
	kind, err := ParseSchedulerKind(name)
	if err != nil {
		panic(err.Error())
	}
	if kind == RR && quantum <= 0 {
		panic(fmt.Sprintf("scheduler RR: quantum must be > 0, got %d", quantum))
	}
	return Scheduler{Kind: kind, Quantum: quantum}
}

// Preemptive reports whether running processes can lose the CPU on quantum expiry.
func (s Scheduler) Preemptive() bool {
	return s.Kind == RR
}

// Select returns the position in ready of the next process to run.
func (s Scheduler) Select(ready []*Process) int {
	if len(ready) == 0 {
		panic("Select: ready queue must not be empty")
	}
	fn, ok := selectors[s.Kind]
	if !ok {
		panic(fmt.Sprintf("unhandled scheduler %q", s.Kind))
	}
	return fn(ready)
}

func (s Scheduler) String() string {
	if s.Kind == RR {
		return fmt.Sprintf("%s(q=%d)", s.Kind, s.Quantum)
	}
	return string(s.Kind)
}
