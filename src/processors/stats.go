package processors

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the middle value of a sorted copy of values. For an even
// count it averages the two middle values. The input is not modified.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// PopulationVariance divides by N, not N-1.
func PopulationVariance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	acc := 0.0
	for _, v := range values {
		d := v - m
		acc += d * d
	}
	return acc / float64(len(values))
}

// PopulationStdDev is the square root of PopulationVariance.
func PopulationStdDev(values []float64) float64 {
	return math.Sqrt(PopulationVariance(values))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
