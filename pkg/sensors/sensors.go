// Package sensors defines the platform sensor interface (spec.md §6): the
// contract through which the core consumes CPU/GPU/power telemetry as pure
// data snapshots. The core never shells out to the OS directly; concrete
// implementations (RAPL, NVML, SMC, hwmon) live outside this module.
package sensors

import (
	"fmt"
	"time"

	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/types"
	"golang.org/x/time/rate"
)

// SystemSnapshot is one sample of host-level telemetry.
type SystemSnapshot struct {
	PerCoreUtilizationPct []float64
	TotalCPUPct           float64
	MemoryUsedBytes       uint64
	MemoryTotalBytes      uint64
	MemoryAvailableBytes  uint64
	LoadAverage1          float64
	LoadAverage5          float64
	LoadAverage15         float64
	PerCoreFrequencyMHz   []float64
	TemperatureCelsius    *float64
	PlatformTag           string
	Timestamp             time.Time
}

// GPUSnapshot is one sample of a single GPU's telemetry.
type GPUSnapshot struct {
	ID               int
	Vendor           string
	MemoryTotalBytes uint64
	MemoryUsedBytes  uint64
	MemoryFreeBytes  uint64
	UtilizationPct   float64
	TemperatureC     *float64
	PowerWatts       *float64
	ClockMHz         *float64
}

// UnsupportedError reports that the platform does not support the
// requested capability.
type UnsupportedError struct {
	Operation string
}

func (e *UnsupportedError) Error() string { return "sensors: unsupported operation: " + e.Operation }

// PermissionDeniedError reports that the capability exists but the caller
// lacks the privilege to invoke it (e.g. writing an MSR).
type PermissionDeniedError struct {
	Operation string
}

func (e *PermissionDeniedError) Error() string {
	return "sensors: permission denied for operation: " + e.Operation
}

// InvalidValueError reports that a requested value (e.g. a frequency) is
// not one the platform can honor.
type InvalidValueError struct {
	Operation string
	Value     float64
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("sensors: invalid value %v for operation %s", e.Value, e.Operation)
}

// Platform is the narrow capability surface the core depends on. The core
// treats every method as a pure data input; none may shell out.
type Platform interface {
	ReadSystemMetrics() (SystemSnapshot, error)
	ReadGPUs() ([]GPUSnapshot, error)
	ReadPower() (types.PowerReading, error)
	AvailableFrequencies(coreID int) []float64
	SetFrequency(coreID int, mhz float64) error
	SetAffinity(pid int, cores []int) error
}

// Static is a fixed-response Platform implementation for tests: every
// method returns a prerecorded value, with no clock or OS dependency.
type Static struct {
	System      SystemSnapshot
	GPUs        []GPUSnapshot
	Power       types.PowerReading
	Frequencies map[int][]float64
	SetFreqErr  error
	SetAffErr   error
}

func (s *Static) ReadSystemMetrics() (SystemSnapshot, error) { return s.System, nil }

func (s *Static) ReadGPUs() ([]GPUSnapshot, error) { return s.GPUs, nil }

func (s *Static) ReadPower() (types.PowerReading, error) { return s.Power, nil }

func (s *Static) AvailableFrequencies(coreID int) []float64 {
	if s.Frequencies == nil {
		return nil
	}
	return s.Frequencies[coreID]
}

func (s *Static) SetFrequency(coreID int, mhz float64) error { return s.SetFreqErr }

func (s *Static) SetAffinity(pid int, cores []int) error { return s.SetAffErr }

// RateLimited wraps a Platform and throttles SetFrequency: rapid DVFS
// write-backs from a tight control loop can thrash real hardware (and on
// some laptops trip thermal firmware), so writes beyond the limiter's rate
// are rejected rather than queued.
type RateLimited struct {
	Platform
	limiter *rate.Limiter
}

// NewRateLimited wraps platform, allowing at most one SetFrequency call
// per interval with a burst of burst calls.
func NewRateLimited(platform Platform, interval time.Duration, burst int) *RateLimited {
	return &RateLimited{
		Platform: platform,
		limiter:  rate.NewLimiter(rate.Every(interval), burst),
	}
}

// SetFrequency delegates to the wrapped Platform only if the limiter
// currently permits it; otherwise it fails with UnsupportedError so callers
// treat a throttled write the same way they'd treat an unsupported one.
func (r *RateLimited) SetFrequency(coreID int, mhz float64) error {
	if !r.limiter.Allow() {
		return &UnsupportedError{Operation: "set_frequency (rate limited)"}
	}
	return r.Platform.SetFrequency(coreID, mhz)
}
