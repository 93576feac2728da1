// Package testutil provides shared test infrastructure for the OS simulator.
// It holds the golden scenario dataset types and assertion helpers used by
// the sim and cmd test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenProcess is one process descriptor of a golden scenario.
type GoldenProcess struct {
	PID          int   `json:"pid"`
	Size         int64 `json:"size"`
	ArrivalTime  int64 `json:"arrival_time"`
	TotalCPUTime int64 `json:"total_cpu_time"`
	IOFrequency  int64 `json:"io_frequency"`
	IODuration   int64 `json:"io_duration"`
	Priority     int   `json:"priority"`
}

// GoldenTestCase represents a single scenario from the golden dataset.
type GoldenTestCase struct {
	Name       string          `json:"name"`
	Scheduler  string          `json:"scheduler"`
	Quantum    int64           `json:"quantum"`
	Partitions []int64         `json:"partitions"` // empty = default layout
	Processes  []GoldenProcess `json:"processes"`
	Metrics    GoldenMetrics   `json:"metrics"`
}

// GoldenMetrics represents the expected metrics from a golden scenario.
type GoldenMetrics struct {
	// Exact match metrics (integers)
	TotalSimulatedTime int64 `json:"total_simulated_time"`
	CompletedProcesses int   `json:"processes_completed"`
	Transitions        int   `json:"transitions"`
	MemoryEvents       int   `json:"memory_events"`

	// Derived from integer tick counts, compared with a relative tolerance
	Throughput        float64 `json:"throughput"`
	AvgTurnaroundTime float64 `json:"avg_turnaround_time"`
	AvgWaitTime       float64 `json:"avg_wait_time"`
	AvgResponseTime   float64 `json:"avg_response_time"`
	AvgIOTime         float64 `json:"avg_io_time"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
