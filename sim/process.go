// Defines the Process struct that models an individual simulated job.
// Tracks static description, remaining CPU and I/O countdowns, and timestamps for metrics.

package sim

import (
	"fmt"
)

// ProcessState represents the lifecycle state of a process.
type ProcessState string

const (
	StateNew        ProcessState = "NEW"
	StateReady      ProcessState = "READY"
	StateRunning    ProcessState = "RUNNING"
	StateWaiting    ProcessState = "WAITING"
	StateTerminated ProcessState = "TERMINATED"
)

// legalTransitions lists every state change the engine may perform.
// NEW→NEW is absent: a stalled arrival stays NEW and is only queued for memory.
var legalTransitions = map[ProcessState]map[ProcessState]bool{
	StateNew:     {StateReady: true},
	StateReady:   {StateRunning: true},
	StateRunning: {StateReady: true, StateWaiting: true, StateTerminated: true},
	StateWaiting: {StateReady: true},
}

// Descriptor is the static description of a process as supplied by a loader.
type Descriptor struct {
	PID          int
	Size         int64 // memory units requested
	ArrivalTime  int64 // tick at which the process enters the system
	TotalCPUTime int64 // ticks of CPU needed to finish
	IOFrequency  int64 // CPU ticks between I/O requests (0 = never)
	IODuration   int64 // ticks each I/O takes (0 = never)
	Priority     int   // lower value = higher priority (EP only)
}

// Validate reports the first field that cannot be simulated.
func (d Descriptor) Validate() error {
	switch {
	case d.PID < 0:
		return fmt.Errorf("pid must be non-negative, got %d", d.PID)
	case d.Size < 0:
		return fmt.Errorf("pid %d: size must be non-negative, got %d", d.PID, d.Size)
	case d.ArrivalTime < 0:
		return fmt.Errorf("pid %d: arrival time must be non-negative, got %d", d.PID, d.ArrivalTime)
	case d.TotalCPUTime < 1:
		return fmt.Errorf("pid %d: total CPU time must be >= 1, got %d", d.PID, d.TotalCPUTime)
	case d.IOFrequency < 0:
		return fmt.Errorf("pid %d: I/O frequency must be non-negative, got %d", d.PID, d.IOFrequency)
	case d.IODuration < 0:
		return fmt.Errorf("pid %d: I/O duration must be non-negative, got %d", d.PID, d.IODuration)
	}
	return nil
}

// Process models a single process's lifecycle in the simulation.
// The engine is its only writer; static fields are never modified after NewProcess.
type Process struct {
	PID          int
	Size         int64
	ArrivalTime  int64
	TotalCPUTime int64
	IOFrequency  int64
	IODuration   int64
	Priority     int

	State            ProcessState
	RemainingCPUTime int64 // never increases; 0 exactly when TERMINATED
	NextIOTime       int64 // CPU ticks left before the next I/O request
	IORemaining      int64 // ticks left in the current I/O (WAITING only)
	QuantumRemaining int64 // RR ticks left in the current slice (RUNNING only)
	PartitionID      int   // 0 until allocated

	StartTime         int64 // tick memory was granted (NEW → READY)
	FinishTime        int64 // tick of RUNNING → TERMINATED
	ResponseTime      int64 // first dispatch - arrival
	LastScheduledTime int64
	HasStarted        bool // dispatched at least once

	TotalWaitTime  int64 // ticks spent in the ready queue
	MemoryWaitTime int64 // ticks spent stalled waiting for a partition
	TotalIOTime    int64
	NumberOfIO     int
}

// NewProcess builds a process in the NEW state from its descriptor.
func NewProcess(d Descriptor) *Process {
	return &Process{
		PID:              d.PID,
		Size:             d.Size,
		ArrivalTime:      d.ArrivalTime,
		TotalCPUTime:     d.TotalCPUTime,
		IOFrequency:      d.IOFrequency,
		IODuration:       d.IODuration,
		Priority:         d.Priority,
		State:            StateNew,
		RemainingCPUTime: d.TotalCPUTime,
		NextIOTime:       d.IOFrequency,
	}
}

// DoesIO reports whether the process ever blocks for I/O.
func (p *Process) DoesIO() bool {
	return p.IOFrequency > 0 && p.IODuration > 0
}

// WaitTime is the time the process spent arrived but neither running nor doing I/O.
func (p *Process) WaitTime() int64 {
	return p.TotalWaitTime + p.MemoryWaitTime
}

// Turnaround returns FinishTime - ArrivalTime. Only meaningful once TERMINATED.
func (p *Process) Turnaround() int64 {
	return p.FinishTime - p.ArrivalTime
}

// setState moves the process to a new state, panicking on an illegal change.
func (p *Process) setState(to ProcessState) {
	if !legalTransitions[p.State][to] {
		panic(fmt.Sprintf("process %d: illegal transition %s -> %s", p.PID, p.State, to))
	}
	p.State = to
}

// This method returns a human-readable string representation of a Process.
func (p Process) String() string {
	return fmt.Sprintf("Process: (PID: %d, State: %s, Remaining: %d, Arrival: %d)", p.PID, p.State, p.RemainingCPUTime, p.ArrivalTime)
}
