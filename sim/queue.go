// Implements the ProcessQueue used for the ready, waiting and memory-wait queues.
// Entries are slots in the simulator's process table, never pointers.

package sim

import (
	"fmt"
	"strings"
)

// ProcessQueue is an ordered queue of process-table slots.
// Insertion order is preserved; the ready queue's selection policy decides
// which element leaves, the other queues scan in order.
type ProcessQueue struct {
	name  string
	slots []int
}

// NewProcessQueue creates an empty queue. The name only appears in diagnostics.
func NewProcessQueue(name string) *ProcessQueue {
	return &ProcessQueue{name: name}
}

// Enqueue adds a slot to the back of the queue.
func (q *ProcessQueue) Enqueue(slot int) {
	q.slots = append(q.slots, slot)
}

func (q *ProcessQueue) String() string {
	var sb strings.Builder
	sb.WriteString(q.name)
	sb.WriteString("[")
	for i, val := range q.slots {
		sb.WriteString(fmt.Sprint(val))
		if i < len(q.slots)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Name returns the queue's diagnostic name.
func (q *ProcessQueue) Name() string { return q.name }

// Len returns the number of entries in the queue.
func (q *ProcessQueue) Len() int {
	return len(q.slots)
}

// Peek returns the slot at the front of the queue without removing it.
// ok is false if the queue is empty.
func (q *ProcessQueue) Peek() (slot int, ok bool) {
	if len(q.slots) == 0 {
		return 0, false
	}
	return q.slots[0], true
}

// Items returns the queue contents for iteration.
// The returned slice is the queue's internal storage -- callers within the
// sim package may iterate over it but MUST NOT append to or reslice it.
func (q *ProcessQueue) Items() []int {
	return q.slots
}

// RemoveAt removes and returns the entry at position pos, preserving the order of the rest.
func (q *ProcessQueue) RemoveAt(pos int) int {
	if pos < 0 || pos >= len(q.slots) {
		panic(fmt.Sprintf("%s.RemoveAt: position %d out of range [0, %d)", q.name, pos, len(q.slots)))
	}
	slot := q.slots[pos]
	q.slots = append(q.slots[:pos], q.slots[pos+1:]...)
	return slot
}

// Filter keeps only the entries for which keep returns true, preserving order.
// keep is called exactly once per entry, front to back, so it may carry side effects.
func (q *ProcessQueue) Filter(keep func(slot int) bool) {
	if keep == nil {
		panic("Filter: keep must not be nil")
	}
	kept := q.slots[:0]
	for _, slot := range q.slots {
		if keep(slot) {
			kept = append(kept, slot)
		}
	}
	q.slots = kept
}

// Contains reports whether slot is queued.
func (q *ProcessQueue) Contains(slot int) bool {
	for _, s := range q.slots {
		if s == slot {
			return true
		}
	}
	return false
}
