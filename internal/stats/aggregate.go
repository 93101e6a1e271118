// Package stats recomputes latency statistics from persisted result artifacts
// or from recorded timing samples.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean. Callers must pass a non-empty slice.
func Mean(samples []float64) float64 {
	return sum(samples) / float64(len(samples))
}

// StdDev returns the population standard deviation around mean.
func StdDev(samples []float64, mean float64) float64 {
	var sq float64
	for _, v := range samples {
		d := mean - v
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(samples)))
}

// Median averages the two middle elements when the count is even.
func Median(samples []float64) float64 {
	s := sorted(samples)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}

func MinMax(samples []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range samples {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// Percentile picks the element at round(p/100*(n-1)) of the sorted samples,
// without interpolation.
func Percentile(samples []float64, p int) float64 {
	s := sorted(samples)
	idx := int(math.Round(float64(p) / 100 * float64(len(s)-1)))
	return s[idx]
}

// Throughput is samples per second of summed latency. ok is false when the
// samples sum to zero.
func Throughput(samples []float64) (perSecond float64, ok bool) {
	total := sum(samples)
	if total <= 0 {
		return 0, false
	}
	return float64(len(samples)) / total, true
}

// Summary holds every aggregate of one metric.
type Summary struct {
	Count        int
	Mean         float64
	StdDev       float64
	Median       float64
	Min          float64
	Max          float64
	Percentile   float64
	Throughput   float64
	ThroughputOK bool
}

// Summarize computes every aggregate of samples. ok is false for an empty
// slice.
func Summarize(samples []float64, percentile int) (Summary, bool) {
	if len(samples) == 0 {
		return Summary{}, false
	}
	mean := Mean(samples)
	lo, hi := MinMax(samples)
	tp, tpOK := Throughput(samples)
	return Summary{
		Count:        len(samples),
		Mean:         mean,
		StdDev:       StdDev(samples, mean),
		Median:       Median(samples),
		Min:          lo,
		Max:          hi,
		Percentile:   Percentile(samples, percentile),
		Throughput:   tp,
		ThroughputOK: tpOK,
	}, true
}

func sum(samples []float64) float64 {
	var total float64
	for _, v := range samples {
		total += v
	}
	return total
}

func sorted(samples []float64) []float64 {
	s := make([]float64, len(samples))
	copy(s, samples)
	sort.Float64s(s)
	return s
}
