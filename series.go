package kernelbench

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Series aggregates repeated measurements of the same unit. Mean is the
// figure to report; the spread is there to judge how noisy it is.
type Series struct {
	Unit   string        `json:"unit"`
	Runs   []Measurement `json:"runs"`
	Mean   time.Duration `json:"mean"`
	Median time.Duration `json:"median"`
	StdDev time.Duration `json:"stddev"`
	// CV is the coefficient of variation, StdDev/Mean.
	CV float64 `json:"cv"`
}

// MeasureRepeated calls Measure runs times with the same arguments and
// aggregates the per-call means. The first failure aborts the series.
func (h *Harness) MeasureRepeated(unit Unit, input *Tensor, iterations, warmup, runs int) (Series, error) {
	if runs <= 0 {
		return Series{}, NewInvalidArgError("MeasureRepeated", "runs must be positive")
	}

	measurements := make([]Measurement, 0, runs)
	for i := 0; i < runs; i++ {
		m, err := h.Measure(unit, input, iterations, warmup)
		if err != nil {
			return Series{}, err
		}
		measurements = append(measurements, m)
	}
	return NewSeries(measurements), nil
}

// NewSeries computes the aggregate of measurements taken of one unit.
func NewSeries(measurements []Measurement) Series {
	s := Series{Runs: measurements}
	if len(measurements) == 0 {
		return s
	}
	s.Unit = measurements[0].Unit

	// Per-call means in nanoseconds, taken from Total to keep the fraction
	ns := make([]float64, len(measurements))
	for i, m := range measurements {
		if m.Iterations > 0 {
			ns[i] = float64(m.Total) / float64(m.Iterations)
		}
	}

	mean := stat.Mean(ns, nil)
	s.Mean = time.Duration(math.Round(mean))

	s.Median = time.Duration(math.Round(median(ns)))

	if len(ns) > 1 {
		sd := stat.StdDev(ns, nil)
		s.StdDev = time.Duration(math.Round(sd))
		if mean > 0 {
			s.CV = sd / mean
		}
	}
	return s
}

// median averages the two middle values for an even count. gonum's
// empirical quantile would return the lower one.
func median(x []float64) float64 {
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Milliseconds returns the series mean in milliseconds.
func (s Series) Milliseconds() float64 {
	return float64(s.Mean) / float64(time.Millisecond)
}
