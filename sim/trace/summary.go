package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalTransitions int
	TransitionCounts map[string]int // "FROM->TO" → count
	DistinctPIDs     int
	MemoryEvents     int
	PeakMemoryUsed   int64
	MinUsableFree    int64 // lowest usable free memory across snapshots; 0 when none recorded
	LastClock        int64 // clock of the latest transition
}

// TransitionKey formats the key used in TraceSummary.TransitionCounts.
func TransitionKey(from, to string) string {
	return from + "->" + to
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		TransitionCounts: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalTransitions = len(st.Transitions)
	pids := make(map[int]struct{})
	for _, t := range st.Transitions {
		summary.TransitionCounts[TransitionKey(t.From, t.To)]++
		pids[t.PID] = struct{}{}
		if t.Clock > summary.LastClock {
			summary.LastClock = t.Clock
		}
	}
	summary.DistinctPIDs = len(pids)

	summary.MemoryEvents = len(st.Memory)
	for i, m := range st.Memory {
		if m.MemoryUsed > summary.PeakMemoryUsed {
			summary.PeakMemoryUsed = m.MemoryUsed
		}
		if i == 0 || m.UsableFree < summary.MinUsableFree {
			summary.MinUsableFree = m.UsableFree
		}
	}

	return summary
}
