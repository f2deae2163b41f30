package types

import "time"

// PowerSource identifies which sensor produced a PowerReading.
type PowerSource string

const (
	SourceRAPL      PowerSource = "RAPL"
	SourceNVML      PowerSource = "NVML"
	SourceSMC       PowerSource = "SMC"
	SourceHWMon     PowerSource = "hwmon"
	SourceEstimated PowerSource = "estimated"
)

// DomainWatts breaks a PowerReading down by power domain, when the sensor
// reports one.
type DomainWatts struct {
	CPUPackage *float64
	GPU        *float64
	Memory     *float64
	Uncore     *float64
}

// PowerReading is a single instantaneous power sample.
type PowerReading struct {
	Timestamp   time.Time
	TotalWatts  float64
	PerDomain   *DomainWatts
	Source      PowerSource
}
