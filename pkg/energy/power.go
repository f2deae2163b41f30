// Package energy implements the power/energy model and the DVFS frequency
// selector: estimating watts from a CMOS power decomposition, integrating
// power samples into joules, and choosing an operating frequency under a
// utilization target or an energy/deadline budget.
package energy

import (
	"fmt"
	"sort"

	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/types"
)

// PowerModel maps an operating frequency (Hz) to estimated watts.
type PowerModel func(freqHz float64) float64

// Estimator implements the CMOS-style power decomposition
// P_total = P_static + C*V^2*f*alpha. C and PStatic are platform
// constants.
type Estimator struct {
	C       float64 // farads
	PStatic float64 // watts
}

// DefaultEstimator returns a reasonable baseline set of platform constants
// for a modern CPU core.
func DefaultEstimator() Estimator {
	return Estimator{C: 1e-9, PStatic: 5}
}

// Estimate returns a nonnegative watt value for any finite freqHz, voltage,
// and utilization. It never fails.
func (e Estimator) Estimate(freqHz, voltage, utilization float64) float64 {
	p := e.PStatic + e.C*voltage*voltage*freqHz*utilization
	if p < 0 {
		return 0
	}
	return p
}

// IntegrateEnergy integrates an ordered sequence of power readings with the
// trapezoidal rule, returning joules. Fewer than two samples yields 0.
func IntegrateEnergy(readings []types.PowerReading) float64 {
	if len(readings) < 2 {
		return 0
	}

	var joules float64
	for i := 1; i < len(readings); i++ {
		dt := readings[i].Timestamp.Sub(readings[i-1].Timestamp).Seconds()
		avgWatts := (readings[i].TotalWatts + readings[i-1].TotalWatts) / 2
		joules += dt * avgWatts
	}
	return joules
}

// InsufficientDataError reports that a measured-data model was built from
// fewer than two (frequency, watts) points.
type InsufficientDataError struct {
	PointCount int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("energy: need at least 2 measured points, got %d", e.PointCount)
}

// NewMeasuredPowerModel builds a PowerModel from paired frequency/watt
// samples. Points are sorted by frequency ascending; the returned model
// performs piecewise linear interpolation between points and clamps to the
// endpoints outside the measured range. Requires at least 2 points.
func NewMeasuredPowerModel(freqsHz, watts []float64) (PowerModel, error) {
	if len(freqsHz) != len(watts) || len(freqsHz) < 2 {
		return nil, &InsufficientDataError{PointCount: len(freqsHz)}
	}

	type point struct{ f, w float64 }
	points := make([]point, len(freqsHz))
	for i := range freqsHz {
		points[i] = point{f: freqsHz[i], w: watts[i]}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].f < points[j].f })

	return func(freqHz float64) float64 {
		if freqHz <= points[0].f {
			return points[0].w
		}
		last := len(points) - 1
		if freqHz >= points[last].f {
			return points[last].w
		}
		for i := 1; i < len(points); i++ {
			if freqHz <= points[i].f {
				lo, hi := points[i-1], points[i]
				if hi.f == lo.f {
					return lo.w
				}
				frac := (freqHz - lo.f) / (hi.f - lo.f)
				return lo.w + frac*(hi.w-lo.w)
			}
		}
		return points[last].w
	}, nil
}
