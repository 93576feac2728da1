// sim/partition.go
package sim

import (
	"fmt"

	"github.com/ossim/ossim/sim/trace"
)

// NoOccupant marks a free partition.
const NoOccupant = trace.FreePartition

// DefaultPartitionCapacities is the fixed memory layout used when none is configured.
var DefaultPartitionCapacities = []int64{40, 25, 15, 10, 8, 2}

// Partition is a fixed-size memory region that holds at most one process.
type Partition struct {
	ID       int   // 1-based, stable for the whole run
	Capacity int64 // fixed at construction
	Occupant int   // PID, or NoOccupant
}

// Free reports whether the partition is unoccupied.
func (p Partition) Free() bool {
	return p.Occupant == NoOccupant
}

// PartitionTable maintains the fixed partition layout and its occupancy.
// Partitions are never added, removed or resized after construction.
type PartitionTable struct {
	partitions    []Partition
	totalCapacity int64
	usedCapacity  int64 // tracked incrementally
}

// NewPartitionTable creates one free partition per capacity, numbered from 1 in order.
func NewPartitionTable(capacities []int64) (*PartitionTable, error) {
	if len(capacities) == 0 {
		return nil, fmt.Errorf("partition table: at least one partition is required")
	}
	pt := &PartitionTable{partitions: make([]Partition, len(capacities))}
	for i, c := range capacities {
		if c <= 0 {
			return nil, fmt.Errorf("partition table: partition %d capacity must be > 0, got %d", i+1, c)
		}
		pt.partitions[i] = Partition{ID: i + 1, Capacity: c, Occupant: NoOccupant}
		pt.totalCapacity += c
	}
	return pt, nil
}

// FindBestFit returns the free partition whose capacity exceeds size by the least.
// Ties go to the lowest partition ID. ok is false when no free partition fits;
// the caller is expected to queue the request, not fail it.
// This is a pure method and does not modify table state.
func (pt *PartitionTable) FindBestFit(size int64) (id int, ok bool) {
	var bestLeftover int64
	for _, p := range pt.partitions {
		if !p.Free() || p.Capacity < size {
			continue
		}
		leftover := p.Capacity - size
		// strict < keeps the earliest (lowest ID) partition on ties
		if !ok || leftover < bestLeftover {
			id, bestLeftover, ok = p.ID, leftover, true
		}
	}
	return id, ok
}

// Allocate assigns partition id to pid. Allocating an occupied partition is an engine defect.
func (pt *PartitionTable) Allocate(id int, pid int) {
	p := pt.partition(id)
	if !p.Free() {
		panic(fmt.Sprintf("partition %d: allocate for pid %d but already held by pid %d", id, pid, p.Occupant))
	}
	p.Occupant = pid
	pt.usedCapacity += p.Capacity
}

// Release frees partition id and returns the PID that held it.
// Releasing a free partition is an engine defect.
func (pt *PartitionTable) Release(id int) int {
	p := pt.partition(id)
	if p.Free() {
		panic(fmt.Sprintf("partition %d: release of a free partition", id))
	}
	pid := p.Occupant
	p.Occupant = NoOccupant
	pt.usedCapacity -= p.Capacity
	return pid
}

// partition returns a pointer into the table for the given 1-based ID.
func (pt *PartitionTable) partition(id int) *Partition {
	if id < 1 || id > len(pt.partitions) {
		panic(fmt.Sprintf("partition %d: out of range [1, %d]", id, len(pt.partitions)))
	}
	return &pt.partitions[id-1]
}

// Partitions returns a copy of the table in ID order.
func (pt *PartitionTable) Partitions() []Partition {
	return append([]Partition(nil), pt.partitions...)
}

// Len returns the number of partitions.
func (pt *PartitionTable) Len() int { return len(pt.partitions) }

// TotalCapacity returns the sum of all partition capacities.
func (pt *PartitionTable) TotalCapacity() int64 { return pt.totalCapacity }

// UsedMemory returns the capacity of occupied partitions.
func (pt *PartitionTable) UsedMemory() int64 { return pt.usedCapacity }

// FreeMemory returns the capacity of unoccupied partitions.
func (pt *PartitionTable) FreeMemory() int64 { return pt.totalCapacity - pt.usedCapacity }

// LargestCapacity returns the capacity of the biggest partition, free or not.
func (pt *PartitionTable) LargestCapacity() int64 {
	var largest int64
	for _, p := range pt.partitions {
		largest = max(largest, p.Capacity)
	}
	return largest
}

// UsableFreeMemory sums the free partitions that can hold a request of minSize.
// Pass 0 when nothing is stalled on memory; every free partition then counts.
func (pt *PartitionTable) UsableFreeMemory(minSize int64) int64 {
	var usable int64
	for _, p := range pt.partitions {
		if p.Free() && p.Capacity >= minSize {
			usable += p.Capacity
		}
	}
	return usable
}

// Snapshot captures the table as a memory log record at the given clock.
func (pt *PartitionTable) Snapshot(clock int64, minStalledSize int64) trace.MemoryRecord {
	occupants := make([]int, len(pt.partitions))
	for i, p := range pt.partitions {
		occupants[i] = p.Occupant
	}
	return trace.MemoryRecord{
		Clock:      clock,
		MemoryUsed: pt.UsedMemory(),
		Occupants:  occupants,
		TotalFree:  pt.FreeMemory(),
		UsableFree: pt.UsableFreeMemory(minStalledSize),
	}
}
