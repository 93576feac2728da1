package trace

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	executionBorder = "+--------------------+-----+-------------+------------+\n"
	executionHeader = "| Time of Transition | PID |  Old State  | New State  |\n"

	memoryBorder = "+------------+------------+---------------------------+-------------------+-------------------+\n"
	memoryHeader = "| Time Event | Memory Used|   Partitions State        | Total Free Memory | Usable Free Memory|\n"
)

// WriteExecutionTable renders transitions as a bordered text table.
// The closing border is the sentinel row that marks the end of the run.
func WriteExecutionTable(w io.Writer, records []TransitionRecord) error {
	var sb strings.Builder
	sb.WriteString(executionBorder)
	sb.WriteString(executionHeader)
	sb.WriteString(executionBorder)
	for _, r := range records {
		fmt.Fprintf(&sb, "| %-18d | %-3d | %-11s | %-10s |\n", r.Clock, r.PID, r.From, r.To)
	}
	sb.WriteString(executionBorder)
	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteMemoryTable renders memory snapshots as a bordered text table.
func WriteMemoryTable(w io.Writer, records []MemoryRecord) error {
	var sb strings.Builder
	sb.WriteString(memoryBorder)
	sb.WriteString(memoryHeader)
	sb.WriteString(memoryBorder)
	for _, r := range records {
		fmt.Fprintf(&sb, "| %-10d | %-10d | %-25s | %-17d | %-17d |\n",
			r.Clock, r.MemoryUsed, FormatOccupants(r.Occupants), r.TotalFree, r.UsableFree)
	}
	sb.WriteString(memoryBorder)
	_, err := io.WriteString(w, sb.String())
	return err
}

// FormatOccupants joins per-partition occupants as "3, -1, 7".
func FormatOccupants(occupants []int) string {
	parts := make([]string, len(occupants))
	for i, pid := range occupants {
		parts[i] = strconv.Itoa(pid)
	}
	return strings.Join(parts, ", ")
}
