// Package trace provides transition and memory-status recording for a simulation run.
// This package has no dependencies on sim/ and stores pure data types only.
package trace

// TransitionRecord captures a single process state change.
type TransitionRecord struct {
	Clock int64
	PID   int
	From  string
	To    string
}

// FreePartition is the occupant value recorded for an unoccupied partition.
const FreePartition = -1

// MemoryRecord captures the partition table right after an allocation or release.
type MemoryRecord struct {
	Clock      int64
	MemoryUsed int64
	Occupants  []int // PID per partition in table order, FreePartition when empty
	TotalFree  int64
	UsableFree int64 // free capacity that could serve the smallest stalled request
}
