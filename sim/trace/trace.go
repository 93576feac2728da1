package trace

// TraceLevel controls which logs a simulation collects.
type TraceLevel string

const (
	// TraceLevelNone disables recording (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelTransitions captures process state changes only.
	TraceLevelTransitions TraceLevel = "transitions"
	// TraceLevelFull captures state changes and memory snapshots.
	TraceLevelFull TraceLevel = "full"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:        true,
	TraceLevelTransitions: true,
	TraceLevelFull:        true,
	"":                    true, // empty defaults to full
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects transition and memory records during a simulation.
type SimulationTrace struct {
	Config      TraceConfig
	Transitions []TransitionRecord
	Memory      []MemoryRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	if config.Level == "" {
		config.Level = TraceLevelFull
	}
	return &SimulationTrace{
		Config:      config,
		Transitions: make([]TransitionRecord, 0),
		Memory:      make([]MemoryRecord, 0),
	}
}

// RecordTransition appends a state change record.
// Safe to call on a nil trace.
func (st *SimulationTrace) RecordTransition(record TransitionRecord) {
	if st == nil || st.Config.Level == TraceLevelNone {
		return
	}
	st.Transitions = append(st.Transitions, record)
}

// RecordMemory appends a memory snapshot. Ignored below TraceLevelFull.
func (st *SimulationTrace) RecordMemory(record MemoryRecord) {
	if st == nil || st.Config.Level != TraceLevelFull {
		return
	}
	// occupants are copied so later table mutation cannot rewrite history
	record.Occupants = append([]int(nil), record.Occupants...)
	st.Memory = append(st.Memory, record)
}
