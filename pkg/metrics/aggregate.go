// Package metrics implements sample aggregation (spec.md §4.9) and a
// Prometheus registry exposing the scheduler's runtime counters, grounded
// on the teacher's monitoring/observability packages.
package metrics

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Summary is the reduced view of a nonempty vector of sample durations.
type Summary struct {
	Mean float64
	P95  float64
	P99  float64
	Max  float64
}

// Aggregate reduces samples (seconds) into mean/p95/p99/max using linear
// interpolation between order statistics for the quantiles. samples is left
// unmodified; Aggregate sorts a private copy. Panics on an empty input,
// mirroring the spec's "nonempty vector" precondition.
func Aggregate(samples []float64) Summary {
	if len(samples) == 0 {
		panic("metrics: Aggregate requires a nonempty sample vector")
	}

	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	return Summary{
		Mean: stat.Mean(sorted, nil),
		P95:  stat.Quantile(0.95, stat.LinInterp, sorted, nil),
		P99:  stat.Quantile(0.99, stat.LinInterp, sorted, nil),
		Max:  sorted[len(sorted)-1],
	}
}

// AggregateDurations is a convenience wrapper for time.Duration samples.
func AggregateDurations(samples []time.Duration) Summary {
	seconds := make([]float64, len(samples))
	for i, d := range samples {
		seconds[i] = d.Seconds()
	}
	return Aggregate(seconds)
}
