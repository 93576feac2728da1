package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyOf(priorities ...int) []*Process {
	ready := make([]*Process, len(priorities))
	for i, prio := range priorities {
		ready[i] = NewProcess(Descriptor{PID: i + 1, TotalCPUTime: 1, Priority: prio})
	}
	return ready
}

func TestFCFSScheduler_SelectsHead(t *testing.T) {
	s := NewScheduler("FCFS", 0)
	assert.Equal(t, 0, s.Select(readyOf(5, 1, 3)))
	assert.False(t, s.Preemptive())
}

func TestRRScheduler_SelectsHead(t *testing.T) {
	s := NewScheduler("RR", 2)
	assert.Equal(t, 0, s.Select(readyOf(5, 1, 3)))
	assert.True(t, s.Preemptive())
	assert.Equal(t, int64(2), s.Quantum)
}

func TestEPScheduler_SelectsLowestPriorityValue(t *testing.T) {
	// GIVEN ready priorities [5, 1, 3]
	s := NewScheduler("EP", 0)

	// WHEN Select is called
	got := s.Select(readyOf(5, 1, 3))

	// THEN the process with priority 1 is chosen
	assert.Equal(t, 1, got)
}

func TestEPScheduler_TieBreakByQueueOrder(t *testing.T) {
	// GIVEN two processes with equal priority, queued X then Y
	s := NewScheduler("EP", 0)
	ready := readyOf(4, 2, 2)

	// WHEN Select is called
	got := s.Select(ready)

	// THEN the earlier-queued one wins
	assert.Equal(t, 1, got)
	assert.Equal(t, 2, ready[got].PID)
}

func TestScheduler_Select_Empty_Panics(t *testing.T) {
	s := NewScheduler("FCFS", 0)
	assert.Panics(t, func() { s.Select(nil) })
}

func TestParseSchedulerKind_CaseInsensitive(t *testing.T) {
	tests := []struct {
		in   string
		want SchedulerKind
	}{
		{"", FCFS},
		{"fcfs", FCFS},
		{"Ep", EP},
		{" rr ", RR},
	}
	for _, tc := range tests {
		got, err := ParseSchedulerKind(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseSchedulerKind_Unknown(t *testing.T) {
	_, err := ParseSchedulerKind("SJF")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid: FCFS, EP, RR")
	assert.False(t, IsValidScheduler("SJF"))
}

func TestNewScheduler_UnknownName_Panics(t *testing.T) {
	assert.Panics(t, func() { NewScheduler("lottery", 0) })
}

func TestNewScheduler_RRWithoutQuantum_Panics(t *testing.T) {
	assert.Panics(t, func() { NewScheduler("RR", 0) })
}

func TestScheduler_String(t *testing.T) {
	assert.Equal(t, "FCFS", NewScheduler("fcfs", 100).String())
	assert.Equal(t, "RR(q=2)", NewScheduler("rr", 2).String())
}
