// Package types holds the data model shared across the scheduler's
// components: tasks, execution profiles, resources, and the communication
// matrix that connects them. Keeping these in one package avoids import
// cycles between pkg/graph, pkg/commcost, and pkg/heft, which all need to
// agree on the same vocabulary.
package types

import "time"

// ResourceKind is a closed set of resource categories. Matches are expected
// to be exhaustive wherever a ResourceKind is switched on.
type ResourceKind string

const (
	CPUCore     ResourceKind = "cpu_core"
	GPUDevice   ResourceKind = "gpu_device"
	MemoryNode  ResourceKind = "memory_node"
	Accelerator ResourceKind = "accelerator"
)

// WorkloadTag classifies a task's dominant resource pressure.
type WorkloadTag string

const (
	CPUBound    WorkloadTag = "cpu-bound"
	GPUBound    WorkloadTag = "gpu-bound"
	MemoryBound WorkloadTag = "memory-bound"
	IOBound     WorkloadTag = "io-bound"
)

// Task is an opaque unit of work submitted to the planner or runtime.
type Task struct {
	ID               string
	MemoryBytes      uint64
	ComputeIntensity float64
	WorkloadTag      WorkloadTag
	Dependencies     []string
	// Deadline is relative to the submission time t0. Nil means no deadline.
	Deadline *time.Duration
	// Priority is advisory, in [0,1].
	Priority float64
}

// TaskProfile describes how long a task takes on each resource kind it can
// run on, how much data it produces, and how much memory it needs.
type TaskProfile struct {
	TaskID         string
	ExecTime       map[ResourceKind]float64 // seconds at unit speed
	DataSize       uint64                    // bytes produced
	MemoryRequired uint64                    // bytes
}

// ExecTimeFor returns the profile's execution time for kind and whether the
// profile supports that kind at all.
func (p *TaskProfile) ExecTimeFor(kind ResourceKind) (float64, bool) {
	t, ok := p.ExecTime[kind]
	return t, ok
}

// Resource is a schedulable compute unit: a CPU core, a GPU device, a
// memory node, or an accelerator.
type Resource struct {
	ID                 int
	Kind               ResourceKind
	Speed              float64 // relative compute speed multiplier
	MemoryBandwidthGBs float64 // advisory
	AvailableAt        float64 // seconds, mutated by the planner
	MaxMemory          uint64
	CommittedMemory    uint64
	PowerWatts         float64 // power at nominal frequency
}

// FreeMemory returns the resource's unused memory capacity.
func (r *Resource) FreeMemory() uint64 {
	if r.CommittedMemory >= r.MaxMemory {
		return 0
	}
	return r.MaxMemory - r.CommittedMemory
}

// CommLink describes the bandwidth and latency between two resources.
type CommLink struct {
	BandwidthMBs float64
	LatencyMs    float64
}

// Default communication parameters used when a resource pair is missing
// from the matrix.
const (
	DefaultBandwidthMBs = 1000.0
	DefaultLatencyMs    = 0.1
)

// CommMatrix is a sparse (src, dst) -> CommLink lookup. Self-edges may be
// stored (commcost.CreateDefaultMatrix records them), but CommTime treats
// src == dst as free (zero seconds) regardless of matrix contents.
type CommMatrix struct {
	links map[[2]int]CommLink
}

// NewCommMatrix returns an empty matrix; all cross-pairs fall back to the
// package defaults until explicitly set.
func NewCommMatrix() *CommMatrix {
	return &CommMatrix{links: make(map[[2]int]CommLink)}
}

// Set records the link from src to dst. Links are directional: set both
// directions if the channel is symmetric.
func (m *CommMatrix) Set(src, dst int, link CommLink) {
	m.links[[2]int{src, dst}] = link
}

// Lookup returns the link for (src, dst) and whether it was explicitly set.
func (m *CommMatrix) Lookup(src, dst int) (CommLink, bool) {
	link, ok := m.links[[2]int{src, dst}]
	return link, ok
}
