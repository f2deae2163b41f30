package energy

import "sort"

// DefaultFrequenciesMHz is the fallback frequency ladder used when the
// platform reports no available frequencies.
var DefaultFrequenciesMHz = []float64{800, 1200, 1600, 2000, 2400, 2800, 3200, 3600}

// FrequencyProvider is the narrow slice of the platform capability
// interface that frequency discovery needs. Any sensor implementation
// exposing AvailableFrequencies satisfies this.
type FrequencyProvider interface {
	AvailableFrequencies(coreID int) []float64
}

// AvailableFrequencies asks provider for coreID's frequency ladder, falling
// back to DefaultFrequenciesMHz when the platform reports none.
func AvailableFrequencies(provider FrequencyProvider, coreID int) []float64 {
	if provider != nil {
		if freqs := provider.AvailableFrequencies(coreID); len(freqs) > 0 {
			return freqs
		}
	}
	out := make([]float64, len(DefaultFrequenciesMHz))
	copy(out, DefaultFrequenciesMHz)
	return out
}

// PowerAtUtilization estimates watts for a frequency under a fixed
// utilization level; OptimalForWorkload uses this to score candidates
// against a power budget.
type PowerAtUtilization func(freqHz, utilization float64) float64

// OptimalForWorkload implements a heuristic frequency selector: pick a
// target fraction of f_max from utilization u and memory pressure m, then
// choose the frequency in frequencies closest to that target whose
// estimated power at u stays within budget. If no candidate satisfies the
// budget, returns the minimum frequency.
func OptimalForWorkload(u, m, budgetWatts float64, frequencies []float64, estimate PowerAtUtilization) float64 {
	fmax := maxOf(frequencies)
	target := targetFraction(u, m) * fmax

	candidates := make([]float64, len(frequencies))
	copy(candidates, frequencies)
	sort.Slice(candidates, func(i, j int) bool {
		di := abs(candidates[i] - target)
		dj := abs(candidates[j] - target)
		if di != dj {
			return di < dj
		}
		return candidates[i] < candidates[j]
	})

	for _, f := range candidates {
		if estimate(f, u) <= budgetWatts {
			return f
		}
	}

	return minOf(frequencies)
}

func targetFraction(u, m float64) float64 {
	switch {
	case u > 0.8 && m < 0.5:
		return 0.9
	case m > 0.7:
		return 0.6
	case u < 0.3:
		return 0.4
	default:
		return 0.7
	}
}

// EnergyOptimalFrequency implements a deadline-constrained DVFS selector:
// models t(f) = t0*fmax/f, skips frequencies that miss the deadline, and
// returns the frequency minimizing E(f) = powerModel(f)*t(f), ties broken
// by preferring the higher frequency. If no frequency meets the deadline,
// returns f_max, failing open toward performance rather than stalling.
func EnergyOptimalFrequency(frequencies []float64, t0 float64, deadline *float64, powerModel PowerModel) float64 {
	fmax := maxOf(frequencies)

	bestF := -1.0
	var bestE float64
	for _, f := range frequencies {
		t := t0 * fmax / f
		if deadline != nil && t > *deadline {
			continue
		}
		e := powerModel(f) * t
		if bestF < 0 || e < bestE || (e == bestE && f > bestF) {
			bestF = f
			bestE = e
		}
	}

	if bestF < 0 {
		return fmax
	}
	return bestF
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
