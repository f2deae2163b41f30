package sensors_test

import (
	"testing"
	"time"

	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/energy"
	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/sensors"
	"github.com/stretchr/testify/require"
)

func TestStaticSatisfiesPlatform(t *testing.T) {
	var _ sensors.Platform = (*sensors.Static)(nil)
}

func TestStaticReturnsRecordedValues(t *testing.T) {
	s := &sensors.Static{
		System:      sensors.SystemSnapshot{TotalCPUPct: 42},
		Frequencies: map[int][]float64{0: {1000, 2000, 3000}},
	}

	snap, err := s.ReadSystemMetrics()
	require.NoError(t, err)
	require.Equal(t, 42.0, snap.TotalCPUPct)

	require.Equal(t, []float64{1000, 2000, 3000}, s.AvailableFrequencies(0))
	require.Nil(t, s.AvailableFrequencies(1))
}

// TestStaticSatisfiesFrequencyProvider confirms a sensors.Static plugs
// directly into the DVFS selector's narrow FrequencyProvider interface
// without any adapter.
func TestStaticSatisfiesFrequencyProvider(t *testing.T) {
	s := &sensors.Static{Frequencies: map[int][]float64{0: {800, 1600}}}
	got := energy.AvailableFrequencies(s, 0)
	require.Equal(t, []float64{800, 1600}, got)
}

func TestSetFrequencyPropagatesConfiguredError(t *testing.T) {
	wantErr := &sensors.UnsupportedError{Operation: "set_frequency"}
	s := &sensors.Static{SetFreqErr: wantErr}

	err := s.SetFrequency(0, 2000)
	require.ErrorIs(t, err, wantErr)
}

func TestRateLimitedAllowsBurstThenThrottles(t *testing.T) {
	inner := &sensors.Static{}
	limited := sensors.NewRateLimited(inner, time.Hour, 2)

	require.NoError(t, limited.SetFrequency(0, 2000))
	require.NoError(t, limited.SetFrequency(0, 2000))

	err := limited.SetFrequency(0, 2000)
	require.Error(t, err)
	var unsupported *sensors.UnsupportedError
	require.ErrorAs(t, err, &unsupported)
}

func TestRateLimitedDelegatesOtherMethods(t *testing.T) {
	inner := &sensors.Static{System: sensors.SystemSnapshot{TotalCPUPct: 7}}
	limited := sensors.NewRateLimited(inner, time.Hour, 1)

	snap, err := limited.ReadSystemMetrics()
	require.NoError(t, err)
	require.Equal(t, 7.0, snap.TotalCPUPct)
}
