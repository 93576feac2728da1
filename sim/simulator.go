// sim/simulator.go
package sim

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ossim/ossim/sim/trace"
)

// noProcess marks an idle CPU.
const noProcess = -1

// Simulator is the core object that holds simulation time, system state, and the tick loop.
// It is the only reader and writer of the process table, the queues and the partition table.
type Simulator struct {
	Clock     int64
	Config    SimConfig
	Scheduler Scheduler
	Memory    *PartitionTable
	// Processes is the owned process table in input order; queues store slots into it.
	Processes []*Process
	// ReadyQ holds processes eligible for dispatch, in arrival-into-ready order.
	ReadyQ *ProcessQueue
	// WaitingQ holds processes blocked on I/O.
	WaitingQ *ProcessQueue
	// MemoryWaitQ holds arrived processes for which no partition fits yet (FIFO).
	MemoryWaitQ *ProcessQueue
	// Trace is nil when the trace level is "none".
	Trace *trace.SimulationTrace
	// TickCapReached is set when the run stopped at MaxTicks with live processes.
	TickCapReached bool

	running        int // slot of the RUNNING process, or noProcess
	terminated     int
	peakMemoryUsed int64
}

// NewSimulator validates the configuration and descriptors and builds a simulator at tick 0.
// Descriptors keep their input order, which is also the order arrivals are handled within a tick.
func NewSimulator(cfg SimConfig, descriptors []Descriptor) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sim config: %w", err)
	}
	memory, err := NewPartitionTable(cfg.PartitionCapacities)
	if err != nil {
		return nil, err
	}

	largest := memory.LargestCapacity()
	seen := make(map[int]bool, len(descriptors))
	processes := make([]*Process, 0, len(descriptors))
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if seen[d.PID] {
			return nil, fmt.Errorf("duplicate pid %d", d.PID)
		}
		seen[d.PID] = true
		if d.Size > largest {
			logrus.Warnf("pid %d: size %d exceeds the largest partition (%d); it will stall in memory-wait", d.PID, d.Size, largest)
		}
		processes = append(processes, NewProcess(d))
	}

	var tr *trace.SimulationTrace
	if level := trace.TraceLevel(cfg.TraceLevel); level != trace.TraceLevelNone {
		tr = trace.NewSimulationTrace(trace.TraceConfig{Level: level})
	}

	return &Simulator{
		Clock:       0,
		Config:      cfg,
		Scheduler:   NewScheduler(cfg.Scheduler, cfg.Quantum),
		Memory:      memory,
		Processes:   processes,
		ReadyQ:      NewProcessQueue("ready"),
		WaitingQ:    NewProcessQueue("waiting"),
		MemoryWaitQ: NewProcessQueue("memory-wait"),
		Trace:       tr,
		running:     noProcess,
	}, nil
}

// Run steps the simulation until every process has terminated or the tick cap is hit.
// ctx is checked once per tick; on cancellation the partial state is kept and ctx.Err() returned.
func (sim *Simulator) Run(ctx context.Context) error {
	logrus.Infof("[tick %07d] Starting %s simulation: %d processes, %d partitions (%d units)",
		sim.Clock, sim.Scheduler, len(sim.Processes), sim.Memory.Len(), sim.Memory.TotalCapacity())
	for {
		if err := ctx.Err(); err != nil {
			logrus.Warnf("[tick %07d] Simulation cancelled: %v", sim.Clock, err)
			return err
		}
		if !sim.Step() {
			break
		}
	}
	if sim.TickCapReached {
		logrus.Warnf("[tick %07d] Tick cap reached with %d unterminated processes",
			sim.Clock, len(sim.Processes)-sim.terminated)
	}
	logrus.Infof("[tick %07d] Simulation ended", sim.Clock)
	return nil
}

// Finished reports whether every process has terminated.
func (sim *Simulator) Finished() bool {
	return sim.terminated == len(sim.Processes)
}

// Step simulates one tick. The order of the phases is fixed: reordering them
// changes wait and response statistics. Returns false, without advancing the
// clock, when the run is already over.
func (sim *Simulator) Step() bool {
	if sim.Finished() {
		return false
	}
	if sim.Config.MaxTicks > 0 && sim.Clock >= sim.Config.MaxTicks {
		sim.TickCapReached = true
		return false
	}

	now := sim.Clock
	sim.admitArrivals(now)
	sim.retryMemoryWait(now)
	sim.advanceIO(now)
	if sim.Scheduler.Preemptive() {
		sim.expireQuantum(now)
	}
	sim.dispatch(now)
	sim.execute(now)
	sim.age()

	if sim.Config.CheckInvariants {
		sim.CheckInvariants()
	}
	sim.Clock++
	return true
}

// Running returns the process holding the CPU, or nil when idle.
func (sim *Simulator) Running() *Process {
	if sim.running == noProcess {
		return nil
	}
	return sim.Processes[sim.running]
}

// Process returns the process with the given PID, or nil.
func (sim *Simulator) Process(pid int) *Process {
	for _, p := range sim.Processes {
		if p.PID == pid {
			return p
		}
	}
	return nil
}

// admitArrivals handles every NEW process whose arrival tick is now, in table order.
func (sim *Simulator) admitArrivals(now int64) {
	for slot, p := range sim.Processes {
		if p.State != StateNew || p.ArrivalTime != now {
			continue
		}
		logrus.Debugf("[tick %07d] << Arrival: pid %d (size %d)", now, p.PID, p.Size)
		if id, ok := sim.Memory.FindBestFit(p.Size); ok {
			sim.admit(slot, id, now)
			continue
		}
		logrus.Debugf("[tick %07d] pid %d: no partition fits %d; queued for memory", now, p.PID, p.Size)
		sim.MemoryWaitQ.Enqueue(slot)
	}
}

// retryMemoryWait admits stalled processes front to back; the rest keep their relative order.
func (sim *Simulator) retryMemoryWait(now int64) {
	for i := 0; i < sim.MemoryWaitQ.Len(); {
		slot := sim.MemoryWaitQ.Items()[i]
		id, ok := sim.Memory.FindBestFit(sim.Processes[slot].Size)
		if !ok {
			i++
			continue
		}
		sim.MemoryWaitQ.RemoveAt(i)
		sim.admit(slot, id, now)
	}
}

// admit grants partition id to the process in slot and moves it NEW → READY.
func (sim *Simulator) admit(slot int, id int, now int64) {
	p := sim.Processes[slot]
	sim.Memory.Allocate(id, p.PID)
	sim.peakMemoryUsed = max(sim.peakMemoryUsed, sim.Memory.UsedMemory())
	p.PartitionID = id
	p.StartTime = now
	sim.recordMemory(now)
	sim.transition(p, StateReady, now)
	sim.ReadyQ.Enqueue(slot)
}

// advanceIO counts down every in-flight I/O and readies the processes that finish.
func (sim *Simulator) advanceIO(now int64) {
	sim.WaitingQ.Filter(func(slot int) bool {
		p := sim.Processes[slot]
		p.IORemaining--
		p.TotalIOTime++
		if p.IORemaining > 0 {
			return true
		}
		p.NextIOTime = p.IOFrequency
		sim.transition(p, StateReady, now)
		sim.ReadyQ.Enqueue(slot)
		return false
	})
}

// expireQuantum preempts the running process to the ready tail once its slice is used up.
func (sim *Simulator) expireQuantum(now int64) {
	if sim.running == noProcess {
		return
	}
	p := sim.Processes[sim.running]
	p.QuantumRemaining--
	if p.QuantumRemaining > 0 {
		return
	}
	logrus.Debugf("[tick %07d] pid %d: quantum expired", now, p.PID)
	sim.transition(p, StateReady, now)
	sim.ReadyQ.Enqueue(sim.running)
	sim.running = noProcess
}

// dispatch gives an idle CPU to the process the scheduler selects.
func (sim *Simulator) dispatch(now int64) {
	if sim.running != noProcess || sim.ReadyQ.Len() == 0 {
		return
	}
	pos := sim.Scheduler.Select(sim.readyView())
	slot := sim.ReadyQ.RemoveAt(pos)
	p := sim.Processes[slot]
	if !p.HasStarted {
		p.ResponseTime = now - p.ArrivalTime
		p.HasStarted = true
	}
	p.LastScheduledTime = now
	if sim.Scheduler.Preemptive() {
		p.QuantumRemaining = sim.Scheduler.Quantum
	}
	sim.transition(p, StateRunning, now)
	sim.running = slot
}

// readyView resolves the ready queue into processes, in queue order.
func (sim *Simulator) readyView() []*Process {
	view := make([]*Process, sim.ReadyQ.Len())
	for i, slot := range sim.ReadyQ.Items() {
		view[i] = sim.Processes[slot]
	}
	return view
}

// execute spends one CPU tick on the running process, then terminates or blocks it if due.
func (sim *Simulator) execute(now int64) {
	if sim.running == noProcess {
		return
	}
	slot := sim.running
	p := sim.Processes[slot]
	p.RemainingCPUTime--
	if p.DoesIO() {
		p.NextIOTime--
	}

	switch {
	case p.RemainingCPUTime == 0:
		p.FinishTime = now
		p.QuantumRemaining = 0
		sim.running = noProcess
		sim.Memory.Release(p.PartitionID)
		sim.recordMemory(now)
		sim.transition(p, StateTerminated, now)
		sim.terminated++
		logrus.Debugf("[tick %07d] Finished pid %d: turnaround %d", now, p.PID, p.Turnaround())
	case p.DoesIO() && p.NextIOTime == 0:
		p.NextIOTime = p.IOFrequency
		p.IORemaining = p.IODuration
		p.QuantumRemaining = 0
		p.NumberOfIO++
		sim.running = noProcess
		sim.transition(p, StateWaiting, now)
		sim.WaitingQ.Enqueue(slot)
	}
}

// age charges one tick of waiting to every ready or memory-stalled process.
func (sim *Simulator) age() {
	for _, slot := range sim.ReadyQ.Items() {
		sim.Processes[slot].TotalWaitTime++
	}
	for _, slot := range sim.MemoryWaitQ.Items() {
		sim.Processes[slot].MemoryWaitTime++
	}
}

// transition applies a state change and records it.
func (sim *Simulator) transition(p *Process, to ProcessState, now int64) {
	from := p.State
	p.setState(to)
	logrus.Debugf("[tick %07d] pid %d: %s -> %s", now, p.PID, from, to)
	sim.Trace.RecordTransition(trace.TransitionRecord{Clock: now, PID: p.PID, From: string(from), To: string(to)})
}

// recordMemory snapshots the partition table after an allocation or release.
func (sim *Simulator) recordMemory(now int64) {
	if sim.Trace == nil {
		return
	}
	sim.Trace.RecordMemory(sim.Memory.Snapshot(now, sim.smallestStalledSize()))
}

// smallestStalledSize returns the smallest request in memory-wait, or 0 when none is stalled.
func (sim *Simulator) smallestStalledSize() int64 {
	var smallest int64
	for i, slot := range sim.MemoryWaitQ.Items() {
		size := sim.Processes[slot].Size
		if i == 0 || size < smallest {
			smallest = size
		}
	}
	return smallest
}
