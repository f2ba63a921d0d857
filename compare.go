package kernelbench

import (
	"fmt"
	"time"
)

// Comparison pairs a baseline and an optimized measurement of equivalent
// units. The harness measures one unit at a time; the ratio is computed
// here, by the caller.
type Comparison struct {
	Name      string      `json:"name"`
	Baseline  Measurement `json:"baseline"`
	Optimized Measurement `json:"optimized"`
	// Speedup is baseline latency over optimized latency.
	Speedup float64 `json:"speedup"`
}

// Compare computes the speedup of optimized over baseline. Both must have
// been measured with the same iteration and warm-up counts.
func Compare(name string, baseline, optimized Measurement) (Comparison, error) {
	if baseline.Iterations != optimized.Iterations || baseline.Warmup != optimized.Warmup {
		return Comparison{}, NewInvalidArgError("Compare",
			fmt.Sprintf("mismatched runs: baseline %d/%d, optimized %d/%d iterations/warm-up",
				baseline.Iterations, baseline.Warmup, optimized.Iterations, optimized.Warmup))
	}
	opt := optimized.Milliseconds()
	if opt <= 0 {
		return Comparison{}, NewInvalidArgError("Compare", "optimized latency is zero")
	}
	return Comparison{
		Name:      name,
		Baseline:  baseline,
		Optimized: optimized,
		Speedup:   baseline.Milliseconds() / opt,
	}, nil
}

// CompareSeries compares two series by their means. The measurements in
// the result carry the average over runs in place of a single run's
// timing; per-run hardware counters are dropped.
func CompareSeries(name string, baseline, optimized Series) (Comparison, error) {
	if len(baseline.Runs) == 0 || len(optimized.Runs) == 0 {
		return Comparison{}, NewInvalidArgError("CompareSeries", "empty series")
	}
	return Compare(name, seriesMeasurement(baseline), seriesMeasurement(optimized))
}

// seriesMeasurement averages the runs' totals so that Milliseconds keeps
// sub-nanosecond precision.
func seriesMeasurement(s Series) Measurement {
	m := s.Runs[0]
	m.Counters = nil

	var total time.Duration
	for _, r := range s.Runs {
		total += r.Total
	}
	m.Total = total / time.Duration(len(s.Runs))
	m.Mean = s.Mean
	return m
}
