package util

import (
	"math"
	"slices"
)

// Stats summarizes a series of measurements
type Stats struct {
	Count        int     `json:"count"`
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// NewStats computes the population standard deviation, min, max and mean of
// values. An empty series yields the zero Stats.
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sumSquaredDiffs float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiffs += diff * diff
	}

	s := Stats{
		Count:        len(values),
		StdDeviation: math.Sqrt(sumSquaredDiffs / float64(len(values))),
		Min:          slices.Min(values),
		Max:          slices.Max(values),
		Mean:         mean,
		MinMaxRatio:  1.0,
	}
	if s.Max > 0 {
		s.MinMaxRatio = s.Min / s.Max
	}
	return s
}

// CoefficientOfVariation is StdDeviation relative to Mean, or 0 for a zero mean
func (s Stats) CoefficientOfVariation() float64 {
	if s.Mean == 0 {
		return 0
	}
	return s.StdDeviation / s.Mean
}
