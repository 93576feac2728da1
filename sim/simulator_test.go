package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossim/ossim/sim/trace"
)

// newTestSimulator builds a simulator with invariant checking on every tick.
func newTestSimulator(t *testing.T, scheduler string, quantum int64, caps []int64, descriptors ...Descriptor) *Simulator {
	t.Helper()
	cfg := DefaultSimConfig()
	cfg.Scheduler = scheduler
	cfg.Quantum = quantum
	if caps != nil {
		cfg.PartitionCapacities = caps
	}
	cfg.CheckInvariants = true
	sim, err := NewSimulator(cfg, descriptors)
	require.NoError(t, err)
	return sim
}

func runToEnd(t *testing.T, sim *Simulator) {
	t.Helper()
	require.NoError(t, sim.Run(context.Background()))
}

// dispatchOrder returns the PIDs of READY -> RUNNING transitions in log order.
func dispatchOrder(sim *Simulator) []int {
	var pids []int
	for _, r := range sim.Trace.Transitions {
		if r.From == string(StateReady) && r.To == string(StateRunning) {
			pids = append(pids, r.PID)
		}
	}
	return pids
}

func TestSimulator_FCFS_MemoryStall_Deterministic(t *testing.T) {
	// GIVEN one partition of 10 and two size-10 processes arriving at 0
	descs := []Descriptor{
		{PID: 1, Size: 10, ArrivalTime: 0, TotalCPUTime: 3},
		{PID: 2, Size: 10, ArrivalTime: 0, TotalCPUTime: 2},
	}

	for run := 0; run < 2; run++ {
		sim := newTestSimulator(t, "FCFS", 0, []int64{10}, descs...)

		// WHEN run to completion
		runToEnd(t, sim)

		// THEN A runs first, B is admitted only after A releases the partition
		a, b := sim.Process(1), sim.Process(2)
		assert.Equal(t, int64(0), a.ResponseTime)
		assert.Equal(t, int64(2), a.FinishTime)
		assert.Equal(t, int64(3), b.StartTime)
		assert.Equal(t, int64(4), b.FinishTime)
		assert.Equal(t, int64(3), b.WaitTime())
		assert.Equal(t, int64(3), b.MemoryWaitTime)
		assert.Equal(t, int64(5), sim.Clock)
		assert.False(t, sim.TickCapReached)

		m := sim.Metrics()
		assert.InDelta(t, 0.4, m.Throughput, 1e-9)
		assert.Equal(t, 2, m.CompletedProcesses)
	}
}

func TestSimulator_FCFS_TransitionAndMemoryLogs(t *testing.T) {
	sim := newTestSimulator(t, "FCFS", 0, []int64{10},
		Descriptor{PID: 1, Size: 10, TotalCPUTime: 3},
		Descriptor{PID: 2, Size: 10, TotalCPUTime: 2},
	)
	runToEnd(t, sim)

	want := []trace.TransitionRecord{
		{Clock: 0, PID: 1, From: "NEW", To: "READY"},
		{Clock: 0, PID: 1, From: "READY", To: "RUNNING"},
		{Clock: 2, PID: 1, From: "RUNNING", To: "TERMINATED"},
		{Clock: 3, PID: 2, From: "NEW", To: "READY"},
		{Clock: 3, PID: 2, From: "READY", To: "RUNNING"},
		{Clock: 4, PID: 2, From: "RUNNING", To: "TERMINATED"},
	}
	assert.Equal(t, want, sim.Trace.Transitions)

	// one memory record per allocation and per release
	require.Len(t, sim.Trace.Memory, 4)
	assert.Equal(t, []int64{0, 2, 3, 4}, []int64{
		sim.Trace.Memory[0].Clock, sim.Trace.Memory[1].Clock, sim.Trace.Memory[2].Clock, sim.Trace.Memory[3].Clock,
	})
	assert.Equal(t, []int{1}, sim.Trace.Memory[0].Occupants)
	// after A's release B is stalled on size 10, so the freed partition is usable
	assert.Equal(t, []int{NoOccupant}, sim.Trace.Memory[1].Occupants)
	assert.Equal(t, int64(10), sim.Trace.Memory[1].UsableFree)
	assert.Equal(t, int64(0), sim.Trace.Memory[2].TotalFree)
}

func TestSimulator_EP_DispatchesLowestPriorityFirst(t *testing.T) {
	// GIVEN three processes at tick 0 with priorities 3, 1, 1
	sim := newTestSimulator(t, "EP", 0, nil,
		Descriptor{PID: 1, Size: 5, TotalCPUTime: 2, Priority: 3},
		Descriptor{PID: 2, Size: 5, TotalCPUTime: 1, Priority: 1},
		Descriptor{PID: 3, Size: 5, TotalCPUTime: 1, Priority: 1},
	)

	// WHEN run
	runToEnd(t, sim)

	// THEN the tie on priority 1 goes to the earlier-queued PID 2, and PID 1 runs last
	assert.Equal(t, []int{2, 3, 1}, dispatchOrder(sim))
	assert.Equal(t, int64(3), sim.Process(1).FinishTime)
	assert.Equal(t, int64(4), sim.Clock)
}

func TestSimulator_EP_NonPreemptive(t *testing.T) {
	// GIVEN a long low-priority job running when a high-priority job arrives
	sim := newTestSimulator(t, "EP", 0, nil,
		Descriptor{PID: 1, Size: 5, ArrivalTime: 0, TotalCPUTime: 4, Priority: 9},
		Descriptor{PID: 2, Size: 5, ArrivalTime: 1, TotalCPUTime: 1, Priority: 0},
	)
	runToEnd(t, sim)

	// THEN the running job keeps the CPU until it finishes
	assert.Equal(t, []int{1, 2}, dispatchOrder(sim))
	assert.Equal(t, int64(3), sim.Process(1).FinishTime)
	assert.Equal(t, int64(4), sim.Process(2).FinishTime)
	assert.Equal(t, int64(3), sim.Process(2).ResponseTime)
}

func TestSimulator_RR_Fairness(t *testing.T) {
	// GIVEN quantum 2 and two 5-tick jobs at tick 0 with ample memory
	sim := newTestSimulator(t, "RR", 2, nil,
		Descriptor{PID: 1, Size: 5, TotalCPUTime: 5},
		Descriptor{PID: 2, Size: 5, TotalCPUTime: 5},
	)

	// WHEN run
	runToEnd(t, sim)

	// THEN they alternate every 2 ticks and finish at 8 and 9, total time 10
	assert.Equal(t, []int{1, 2, 1, 2, 1, 2}, dispatchOrder(sim))
	assert.Equal(t, int64(8), sim.Process(1).FinishTime)
	assert.Equal(t, int64(9), sim.Process(2).FinishTime)
	assert.Equal(t, int64(10), sim.Clock)
	assert.Equal(t, int64(4), sim.Process(1).WaitTime())
	assert.Equal(t, int64(5), sim.Process(2).WaitTime())
	assert.Equal(t, int64(2), sim.Process(2).ResponseTime)
}

func TestSimulator_RR_SingleProcessIsRedispatched(t *testing.T) {
	// GIVEN a lone 3-tick job and quantum 1
	sim := newTestSimulator(t, "RR", 1, nil, Descriptor{PID: 1, Size: 5, TotalCPUTime: 3})
	runToEnd(t, sim)

	// THEN each expiry sends it to the ready tail and it is dispatched again at once
	assert.Equal(t, []int{1, 1, 1}, dispatchOrder(sim))
	assert.Equal(t, int64(2), sim.Process(1).FinishTime)
	assert.Equal(t, int64(0), sim.Process(1).WaitTime())
}

func TestSimulator_IOCycle(t *testing.T) {
	// GIVEN a 4-tick job that requests 3 ticks of I/O every 2 CPU ticks
	sim := newTestSimulator(t, "FCFS", 0, nil,
		Descriptor{PID: 1, Size: 5, TotalCPUTime: 4, IOFrequency: 2, IODuration: 3},
	)

	// WHEN run
	runToEnd(t, sim)

	// THEN it blocks once at tick 1, returns at tick 4, and terminates before the next I/O
	p := sim.Process(1)
	assert.Equal(t, 1, p.NumberOfIO)
	assert.Equal(t, int64(3), p.TotalIOTime)
	assert.Equal(t, int64(5), p.FinishTime)
	assert.Equal(t, int64(0), p.WaitTime())

	want := []trace.TransitionRecord{
		{Clock: 0, PID: 1, From: "NEW", To: "READY"},
		{Clock: 0, PID: 1, From: "READY", To: "RUNNING"},
		{Clock: 1, PID: 1, From: "RUNNING", To: "WAITING"},
		{Clock: 4, PID: 1, From: "WAITING", To: "READY"},
		{Clock: 4, PID: 1, From: "READY", To: "RUNNING"},
		{Clock: 5, PID: 1, From: "RUNNING", To: "TERMINATED"},
	}
	assert.Equal(t, want, sim.Trace.Transitions)
}

func TestSimulator_IOOverlapsOtherProcessCPU(t *testing.T) {
	// GIVEN A blocks for I/O after 1 tick while B is ready
	sim := newTestSimulator(t, "FCFS", 0, nil,
		Descriptor{PID: 1, Size: 5, TotalCPUTime: 2, IOFrequency: 1, IODuration: 2},
		Descriptor{PID: 2, Size: 5, TotalCPUTime: 3},
	)
	runToEnd(t, sim)

	// THEN B gets the CPU at tick 1 and A waits for B after its I/O
	assert.Equal(t, []int{1, 2, 1}, dispatchOrder(sim))
	assert.Equal(t, int64(3), sim.Process(2).FinishTime)
	assert.Equal(t, int64(4), sim.Process(1).FinishTime)
}

func TestSimulator_ZeroIOFieldsNeverBlock(t *testing.T) {
	sim := newTestSimulator(t, "FCFS", 0, nil,
		Descriptor{PID: 1, Size: 5, TotalCPUTime: 3, IOFrequency: 1, IODuration: 0},
		Descriptor{PID: 2, Size: 5, TotalCPUTime: 3, IOFrequency: 0, IODuration: 4},
	)
	runToEnd(t, sim)

	for _, p := range sim.Processes {
		assert.Equal(t, 0, p.NumberOfIO, "pid %d", p.PID)
		assert.Equal(t, int64(0), p.TotalIOTime, "pid %d", p.PID)
	}
}

func TestSimulator_LateArrival_IdleTicksAdvanceClock(t *testing.T) {
	sim := newTestSimulator(t, "FCFS", 0, nil, Descriptor{PID: 7, Size: 1, ArrivalTime: 3, TotalCPUTime: 1})
	runToEnd(t, sim)

	p := sim.Process(7)
	assert.Equal(t, int64(3), p.StartTime)
	assert.Equal(t, int64(0), p.ResponseTime)
	assert.Equal(t, int64(0), p.Turnaround())
	assert.Equal(t, int64(4), sim.Clock)
}

func TestSimulator_Starvation_TickCap(t *testing.T) {
	// GIVEN a process larger than every partition and a tick cap of 20
	cfg := DefaultSimConfig()
	cfg.PartitionCapacities = []int64{40}
	cfg.MaxTicks = 20
	cfg.CheckInvariants = true
	sim, err := NewSimulator(cfg, []Descriptor{
		{PID: 1, Size: 50, TotalCPUTime: 1},
		{PID: 2, Size: 10, TotalCPUTime: 2},
	})
	require.NoError(t, err)

	// WHEN run
	runToEnd(t, sim)

	// THEN the run stops at the cap and reports the stalled process
	assert.True(t, sim.TickCapReached)
	assert.Equal(t, int64(20), sim.Clock)
	assert.Equal(t, StateNew, sim.Process(1).State)
	assert.Equal(t, int64(20), sim.Process(1).MemoryWaitTime)
	assert.Equal(t, StateTerminated, sim.Process(2).State)

	m := sim.Metrics()
	assert.Equal(t, 1, m.CompletedProcesses)
	assert.Equal(t, 1, m.NeverStarted)
	assert.Equal(t, 1, m.Unterminated)
	assert.True(t, m.TickCapReached)
}

func TestSimulator_Monotonicity(t *testing.T) {
	// GIVEN a mixed workload under RR with I/O and memory pressure
	sim := newTestSimulator(t, "RR", 3, []int64{20, 10, 5},
		Descriptor{PID: 1, Size: 18, ArrivalTime: 0, TotalCPUTime: 7, IOFrequency: 3, IODuration: 2},
		Descriptor{PID: 2, Size: 9, ArrivalTime: 1, TotalCPUTime: 4},
		Descriptor{PID: 3, Size: 15, ArrivalTime: 2, TotalCPUTime: 5, IOFrequency: 2, IODuration: 1},
		Descriptor{PID: 4, Size: 5, ArrivalTime: 2, TotalCPUTime: 2},
		Descriptor{PID: 5, Size: 4, ArrivalTime: 6, TotalCPUTime: 6, IOFrequency: 4, IODuration: 3},
	)

	// WHEN stepped tick by tick
	remaining := make(map[int]int64)
	for _, p := range sim.Processes {
		remaining[p.PID] = p.RemainingCPUTime
	}
	for {
		before := sim.Clock
		if !sim.Step() {
			break
		}
		// THEN the clock advances by exactly one and no process regains CPU time
		require.Equal(t, before+1, sim.Clock)
		for _, p := range sim.Processes {
			require.LessOrEqual(t, p.RemainingCPUTime, remaining[p.PID], "pid %d at tick %d", p.PID, before)
			remaining[p.PID] = p.RemainingCPUTime
		}
		require.Less(t, sim.Clock, int64(1000), "run did not terminate")
	}
	assert.True(t, sim.Finished())

	// AND log timestamps never go backwards
	for i := 1; i < len(sim.Trace.Transitions); i++ {
		assert.LessOrEqual(t, sim.Trace.Transitions[i-1].Clock, sim.Trace.Transitions[i].Clock)
	}
	for i := 1; i < len(sim.Trace.Memory); i++ {
		assert.LessOrEqual(t, sim.Trace.Memory[i-1].Clock, sim.Trace.Memory[i].Clock)
	}
}

func TestSimulator_EveryScheduler_TerminatesEveryProcess(t *testing.T) {
	descs := []Descriptor{
		{PID: 10, Size: 30, ArrivalTime: 0, TotalCPUTime: 6, IOFrequency: 2, IODuration: 2, Priority: 2},
		{PID: 11, Size: 40, ArrivalTime: 1, TotalCPUTime: 3, Priority: 1},
		{PID: 12, Size: 2, ArrivalTime: 1, TotalCPUTime: 8, IOFrequency: 5, IODuration: 1, Priority: 3},
		{PID: 13, Size: 35, ArrivalTime: 4, TotalCPUTime: 2, Priority: 0},
	}
	for _, kind := range SchedulerKinds {
		t.Run(string(kind), func(t *testing.T) {
			sim := newTestSimulator(t, string(kind), 2, nil, descs...)
			runToEnd(t, sim)

			assert.True(t, sim.Finished())
			assert.Nil(t, sim.Running())
			assert.Equal(t, int64(0), sim.Memory.UsedMemory())
			for _, p := range sim.Processes {
				assert.Equal(t, StateTerminated, p.State)
				assert.True(t, p.HasStarted)
				assert.GreaterOrEqual(t, p.FinishTime, p.ArrivalTime)
			}
		})
	}
}

func TestSimulator_EmptyWorkload_EndsImmediately(t *testing.T) {
	sim := newTestSimulator(t, "FCFS", 0, nil)
	runToEnd(t, sim)
	assert.Equal(t, int64(0), sim.Clock)
	assert.Equal(t, 0.0, sim.Metrics().Throughput)
}

func TestSimulator_Run_CancelledContext(t *testing.T) {
	sim := newTestSimulator(t, "FCFS", 0, nil, Descriptor{PID: 1, Size: 1, TotalCPUTime: 5})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sim.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), sim.Clock)
}

func TestSimulator_TraceLevelNone_HasNoTrace(t *testing.T) {
	cfg := DefaultSimConfig()
	cfg.TraceLevel = "none"
	sim, err := NewSimulator(cfg, []Descriptor{{PID: 1, Size: 1, TotalCPUTime: 2}})
	require.NoError(t, err)

	runToEnd(t, sim)

	assert.Nil(t, sim.Trace)
	assert.True(t, sim.Finished())
}

func TestSimulator_TraceLevelTransitions_SkipsMemory(t *testing.T) {
	cfg := DefaultSimConfig()
	cfg.TraceLevel = "transitions"
	sim, err := NewSimulator(cfg, []Descriptor{{PID: 1, Size: 1, TotalCPUTime: 2}})
	require.NoError(t, err)

	runToEnd(t, sim)

	assert.Len(t, sim.Trace.Transitions, 3)
	assert.Empty(t, sim.Trace.Memory)
}

func TestNewSimulator_RejectsBadInput(t *testing.T) {
	cfg := DefaultSimConfig()

	_, err := NewSimulator(cfg, []Descriptor{{PID: 1, TotalCPUTime: 1}, {PID: 1, TotalCPUTime: 2}})
	assert.Error(t, err, "duplicate pid")

	_, err = NewSimulator(cfg, []Descriptor{{PID: 1, TotalCPUTime: 0}})
	assert.Error(t, err, "zero cpu")

	bad := cfg.WithScheduler("SJF")
	_, err = NewSimulator(bad, nil)
	assert.Error(t, err, "unknown scheduler")
}
