package sim

import "fmt"

// CheckInvariants panics if the engine state is inconsistent. Any violation is
// an engine defect, never a runtime condition, so nothing is corrected here.
//
// Checked after a tick completes (before the clock advances):
//   - at most one RUNNING process, and it is the one the CPU holds
//   - every process sits in exactly the queue its state implies:
//     READY → ready, WAITING → waiting, arrived NEW → memory-wait,
//     RUNNING/TERMINATED/not-yet-arrived NEW → no queue
//   - RemainingCPUTime stays in [0, TotalCPUTime] and is 0 only when TERMINATED
//   - partitions hold at most one admitted, live process each, and every live
//     admitted process holds the partition it records
//   - used + free memory == total capacity
func (sim *Simulator) CheckInvariants() {
	membership := make([]int, len(sim.Processes))
	queueOf := make([]string, len(sim.Processes))
	for _, q := range []*ProcessQueue{sim.ReadyQ, sim.WaitingQ, sim.MemoryWaitQ} {
		for _, slot := range q.Items() {
			membership[slot]++
			queueOf[slot] = q.Name()
		}
	}

	running := 0
	for slot, p := range sim.Processes {
		if p.RemainingCPUTime < 0 || p.RemainingCPUTime > p.TotalCPUTime {
			sim.violation("pid %d: remaining CPU %d outside [0, %d]", p.PID, p.RemainingCPUTime, p.TotalCPUTime)
		}
		if (p.RemainingCPUTime == 0) != (p.State == StateTerminated) {
			sim.violation("pid %d: remaining CPU %d in state %s", p.PID, p.RemainingCPUTime, p.State)
		}

		want := ""
		switch p.State {
		case StateReady:
			want = sim.ReadyQ.Name()
		case StateWaiting:
			want = sim.WaitingQ.Name()
		case StateNew:
			if p.ArrivalTime <= sim.Clock {
				want = sim.MemoryWaitQ.Name()
			}
		case StateRunning:
			running++
			if slot != sim.running {
				sim.violation("pid %d: RUNNING but the CPU holds slot %d", p.PID, sim.running)
			}
		}
		switch {
		case want == "" && membership[slot] != 0:
			sim.violation("pid %d: state %s but queued in %s", p.PID, p.State, queueOf[slot])
		case want != "" && membership[slot] != 1:
			sim.violation("pid %d: state %s but in %d queues", p.PID, p.State, membership[slot])
		case want != "" && queueOf[slot] != want:
			sim.violation("pid %d: state %s but queued in %s", p.PID, p.State, queueOf[slot])
		}
	}
	if running > 1 {
		sim.violation("%d processes RUNNING", running)
	}
	if running == 0 && sim.running != noProcess {
		sim.violation("CPU holds slot %d which is not RUNNING", sim.running)
	}

	sim.checkPartitions()
}

// checkPartitions verifies the partition table against the process table.
func (sim *Simulator) checkPartitions() {
	byPID := make(map[int]*Process, len(sim.Processes))
	for _, p := range sim.Processes {
		byPID[p.PID] = p
	}

	var used, free int64
	holders := make(map[int]int)
	for _, part := range sim.Memory.Partitions() {
		if part.Free() {
			free += part.Capacity
			continue
		}
		used += part.Capacity
		holders[part.Occupant]++
		p, ok := byPID[part.Occupant]
		switch {
		case !ok:
			sim.violation("partition %d held by unknown pid %d", part.ID, part.Occupant)
		case p.State == StateNew || p.State == StateTerminated:
			sim.violation("partition %d held by pid %d in state %s", part.ID, p.PID, p.State)
		case p.PartitionID != part.ID:
			sim.violation("partition %d held by pid %d which records partition %d", part.ID, p.PID, p.PartitionID)
		case part.Capacity < p.Size:
			sim.violation("partition %d (capacity %d) too small for pid %d (size %d)", part.ID, part.Capacity, p.PID, p.Size)
		}
	}
	for _, p := range sim.Processes {
		live := p.State != StateNew && p.State != StateTerminated
		if live && holders[p.PID] != 1 {
			sim.violation("pid %d in state %s holds %d partitions", p.PID, p.State, holders[p.PID])
		}
	}
	if used != sim.Memory.UsedMemory() || used+free != sim.Memory.TotalCapacity() {
		sim.violation("memory accounting: used %d (tracked %d) + free %d != total %d",
			used, sim.Memory.UsedMemory(), free, sim.Memory.TotalCapacity())
	}
}

func (sim *Simulator) violation(format string, args ...any) {
	panic(fmt.Sprintf("invariant violated at tick %d: %s", sim.Clock, fmt.Sprintf(format, args...)))
}
