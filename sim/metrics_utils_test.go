package sim

import "testing"

func TestCalculatePercentile_EmptyInput_ReturnsZero(t *testing.T) {
	// GIVEN empty float64 slice
	// WHEN CalculatePercentile is called
	result := CalculatePercentile([]float64{}, 99)
	// THEN it returns 0 (not panic)
	if result != 0.0 {
		t.Errorf("expected 0.0 for empty input, got %f", result)
	}

	// Also verify with int64 (generic constraint covers both)
	resultInt := CalculatePercentile([]int64{}, 50)
	if resultInt != 0.0 {
		t.Errorf("expected 0.0 for empty int64 input, got %f", resultInt)
	}
}

func TestCalculatePercentile_SingleElement_ReturnsElement(t *testing.T) {
	// GIVEN a single-element slice
	// WHEN CalculatePercentile is called
	result := CalculatePercentile([]int64{7}, 90)
	// THEN it returns the element unscaled
	if result != 7.0 {
		t.Errorf("expected 7.0 for single element 7, got %f", result)
	}
}

func TestCalculatePercentile_Interpolates(t *testing.T) {
	// GIVEN sorted turnarounds [2, 4, 6, 8, 10]
	data := []int64{2, 4, 6, 8, 10}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 2},
		{50, 6},
		{90, 9.2}, // rank 3.6 between 8 and 10
		{100, 10},
	}
	for _, tc := range tests {
		// WHEN the p-th percentile is computed
		got := CalculatePercentile(data, tc.p)
		// THEN it interpolates between the closest ranks
		if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("p%v: got %f, want %f", tc.p, got, tc.want)
		}
	}
}

func TestCalculateMean(t *testing.T) {
	if got := CalculateMean([]int64{}); got != 0 {
		t.Errorf("empty: got %f, want 0", got)
	}
	if got := CalculateMean([]int64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("got %f, want 2.5", got)
	}
}
