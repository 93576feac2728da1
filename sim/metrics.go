// Tracks run-wide and per-process performance metrics such as:
// throughput, turnaround, wait, response and I/O time.

package sim

import (
	"fmt"
	"io"
	"sort"
)

// ProcessMetrics is the final accounting of one process.
type ProcessMetrics struct {
	PID          int    `json:"pid"`
	State        string `json:"state"`
	ArrivalTime  int64  `json:"arrival_time"`
	StartTime    int64  `json:"start_time"`
	FinishTime   int64  `json:"finish_time"`
	Turnaround   int64  `json:"turnaround"`
	WaitTime     int64  `json:"wait_time"`
	MemoryWait   int64  `json:"memory_wait_time"`
	ResponseTime int64  `json:"response_time"`
	IOTime       int64  `json:"io_time"`
	NumberOfIO   int    `json:"number_of_io"`
	Started      bool   `json:"started"`
}

// Metrics aggregates statistics about the simulation for final reporting.
// Averages cover TERMINATED processes only.
type Metrics struct {
	RunID     string `json:"run_id,omitempty"`
	Scheduler string `json:"scheduler"`
	Quantum   int64  `json:"quantum,omitempty"`

	SimEndedTime       int64 `json:"total_simulated_time"` // ticks elapsed when the run stopped
	TotalProcesses     int   `json:"total_processes"`
	CompletedProcesses int   `json:"processes_completed"`
	NeverStarted       int   `json:"never_started"` // never dispatched (e.g. stalled on memory)
	Unterminated       int   `json:"unterminated"`
	TickCapReached     bool  `json:"tick_cap_reached"`
	PeakMemoryUsed     int64 `json:"peak_memory_used"`

	Throughput        float64 `json:"throughput"` // completed / SimEndedTime
	AvgTurnaroundTime float64 `json:"avg_turnaround_time"`
	AvgWaitTime       float64 `json:"avg_wait_time"`
	AvgResponseTime   float64 `json:"avg_response_time"`
	AvgIOTime         float64 `json:"avg_io_time"`
	TurnaroundP50     float64 `json:"turnaround_p50"`
	TurnaroundP90     float64 `json:"turnaround_p90"`

	Processes []ProcessMetrics `json:"processes"`
}

// NewMetrics returns an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{Processes: make([]ProcessMetrics, 0)}
}

// Metrics computes the run's metrics from the current simulator state.
// Safe to call mid-run; unterminated processes are counted, not averaged.
func (sim *Simulator) Metrics() *Metrics {
	m := NewMetrics()
	m.Scheduler = string(sim.Scheduler.Kind)
	if sim.Scheduler.Preemptive() {
		m.Quantum = sim.Scheduler.Quantum
	}
	m.SimEndedTime = sim.Clock
	m.TotalProcesses = len(sim.Processes)
	m.TickCapReached = sim.TickCapReached
	m.PeakMemoryUsed = sim.peakMemoryUsed

	var turnaround, wait, response, ioTime int64
	turnarounds := make([]int64, 0, len(sim.Processes))
	for _, p := range sim.Processes {
		pm := ProcessMetrics{
			PID:          p.PID,
			State:        string(p.State),
			ArrivalTime:  p.ArrivalTime,
			StartTime:    p.StartTime,
			FinishTime:   p.FinishTime,
			WaitTime:     p.WaitTime(),
			MemoryWait:   p.MemoryWaitTime,
			ResponseTime: p.ResponseTime,
			IOTime:       p.TotalIOTime,
			NumberOfIO:   p.NumberOfIO,
			Started:      p.HasStarted,
		}
		if !p.HasStarted {
			m.NeverStarted++
		}
		if p.State != StateTerminated {
			m.Unterminated++
			m.Processes = append(m.Processes, pm)
			continue
		}
		pm.Turnaround = p.Turnaround()
		m.Processes = append(m.Processes, pm)

		m.CompletedProcesses++
		turnaround += pm.Turnaround
		wait += pm.WaitTime
		response += pm.ResponseTime
		ioTime += pm.IOTime
		turnarounds = append(turnarounds, pm.Turnaround)
	}

	if m.CompletedProcesses > 0 {
		n := float64(m.CompletedProcesses)
		m.AvgTurnaroundTime = float64(turnaround) / n
		m.AvgWaitTime = float64(wait) / n
		m.AvgResponseTime = float64(response) / n
		m.AvgIOTime = float64(ioTime) / n
		sort.Slice(turnarounds, func(i, j int) bool { return turnarounds[i] < turnarounds[j] })
		m.TurnaroundP50 = CalculatePercentile(turnarounds, 50)
		m.TurnaroundP90 = CalculatePercentile(turnarounds, 90)
	}
	if m.SimEndedTime > 0 {
		m.Throughput = float64(m.CompletedProcesses) / float64(m.SimEndedTime)
	}
	return m
}

// Print displays aggregated metrics at the end of the simulation, followed by
// a per-process table.
func (m *Metrics) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	if m.RunID != "" {
		fmt.Fprintf(w, "Run ID                  : %s\n", m.RunID)
	}
	fmt.Fprintf(w, "Scheduler Type          : %s\n", m.Scheduler)
	if m.Quantum > 0 {
		fmt.Fprintf(w, "Time Quantum            : %d ticks\n", m.Quantum)
	}
	fmt.Fprintf(w, "Total Simulation Time   : %d ticks\n", m.SimEndedTime)
	fmt.Fprintf(w, "Processes Completed     : %d / %d\n", m.CompletedProcesses, m.TotalProcesses)
	if m.Unterminated > 0 {
		fmt.Fprintf(w, "Unterminated Processes  : %d (never started: %d, tick cap reached: %t)\n",
			m.Unterminated, m.NeverStarted, m.TickCapReached)
	}
	fmt.Fprintf(w, "Throughput              : %.4f processes/tick\n", m.Throughput)
	fmt.Fprintf(w, "Average Turnaround Time : %.2f ticks\n", m.AvgTurnaroundTime)
	fmt.Fprintf(w, "Average Wait Time       : %.2f ticks\n", m.AvgWaitTime)
	fmt.Fprintf(w, "Average Response Time   : %.2f ticks\n", m.AvgResponseTime)
	fmt.Fprintf(w, "Average I/O Time        : %.2f ticks\n", m.AvgIOTime)
	if m.CompletedProcesses > 0 {
		fmt.Fprintf(w, "Turnaround p50 / p90    : %.2f / %.2f ticks\n", m.TurnaroundP50, m.TurnaroundP90)
	}
	fmt.Fprintf(w, "Peak Memory Used        : %d\n", m.PeakMemoryUsed)

	if len(m.Processes) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-5s %-11s %8s %8s %11s %6s %9s %5s %4s\n",
		"PID", "State", "Arrival", "Finish", "Turnaround", "Wait", "Response", "I/O", "#IO")
	for _, p := range m.Processes {
		if p.State != string(StateTerminated) {
			fmt.Fprintf(w, "%-5d %-11s %8d %8s %11s %6d %9s %5d %4d\n",
				p.PID, p.State, p.ArrivalTime, "-", "-", p.WaitTime, responseCell(p), p.IOTime, p.NumberOfIO)
			continue
		}
		fmt.Fprintf(w, "%-5d %-11s %8d %8d %11d %6d %9d %5d %4d\n",
			p.PID, p.State, p.ArrivalTime, p.FinishTime, p.Turnaround, p.WaitTime, p.ResponseTime, p.IOTime, p.NumberOfIO)
	}
}

func responseCell(p ProcessMetrics) string {
	if !p.Started {
		return "-"
	}
	return fmt.Sprint(p.ResponseTime)
}
