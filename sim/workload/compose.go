package workload

import (
	"fmt"
	"slices"
)

// ComposeSpecs merges specs into one, keeping process order spec by spec.
// Specs that declare a partition layout must agree on it; PIDs must be unique
// across all inputs.
func ComposeSpecs(specs []*WorkloadSpec) (*WorkloadSpec, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("no specs to compose")
	}
	merged := &WorkloadSpec{Version: CurrentVersion}
	owner := make(map[int]int)
	for i, spec := range specs {
		if len(spec.Partitions) > 0 {
			if len(merged.Partitions) > 0 && !slices.Equal(merged.Partitions, spec.Partitions) {
				return nil, fmt.Errorf("spec %d: partition layout %v conflicts with %v", i, spec.Partitions, merged.Partitions)
			}
			merged.Partitions = append([]int64(nil), spec.Partitions...)
		}
		for _, p := range spec.Processes {
			if j, dup := owner[p.PID]; dup {
				return nil, fmt.Errorf("spec %d: pid %d already defined by spec %d", i, p.PID, j)
			}
			owner[p.PID] = i
			merged.Processes = append(merged.Processes, p)
		}
	}
	return merged, nil
}
