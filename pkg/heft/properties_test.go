package heft_test

import (
	"fmt"
	"testing"

	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/graph"
	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/heft"
	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// chainGraph builds a linear chain t0 -> t1 -> ... -> t(n-1), each task
// running on whichever of the two resources it is handed.
func chainGraph(n int, execTimes []float64, dataSizes []uint64) (*graph.Graph, map[string]*types.TaskProfile) {
	tasks := make([]types.Task, n)
	profiles := make(map[string]*types.TaskProfile, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("t%d", i)
		var deps []string
		if i > 0 {
			deps = []string{fmt.Sprintf("t%d", i-1)}
		}
		tasks[i] = types.Task{ID: id, Dependencies: deps}
		profiles[id] = &types.TaskProfile{
			TaskID:   id,
			ExecTime: map[types.ResourceKind]float64{types.CPUCore: execTimes[i], types.GPUDevice: execTimes[i]},
			DataSize: dataSizes[i],
		}
	}
	g, err := graph.New(tasks)
	if err != nil {
		panic(err)
	}
	return g, profiles
}

// TestPlanRespectsDependencyOrderingAndMemory checks invariants 1-3
// (spec.md §8): dependency-respecting start times, disjoint resource
// intervals per resource (implied by AvailableAt monotonicity), and the
// memory budget is never exceeded.
func TestPlanRespectsDependencyOrderingAndMemory(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("chain schedule validates and never exceeds memory", prop.ForAll(
		func(n int, memPerTask uint64) bool {
			execTimes := make([]float64, n)
			dataSizes := make([]uint64, n)
			for i := range execTimes {
				execTimes[i] = float64(i%5 + 1)
				dataSizes[i] = uint64(i%3) * 1000
			}
			g, profiles := chainGraph(n, execTimes, dataSizes)
			for _, p := range profiles {
				p.MemoryRequired = memPerTask
			}

			resources := []types.Resource{
				{ID: 1, Kind: types.CPUCore, Speed: 1, MaxMemory: memPerTask * uint64(n) + 1, PowerWatts: 50},
				{ID: 2, Kind: types.GPUDevice, Speed: 1, MaxMemory: memPerTask * uint64(n) + 1, PowerWatts: 150},
			}

			result, err := heft.Plan(g, profiles, resources, nil)
			if err != nil {
				return false
			}
			if !heft.ValidateSchedule(result, g) {
				return false
			}

			for _, st := range result.Tasks {
				for _, dep := range st.Dependencies {
					var depFinish float64
					for _, other := range result.Tasks {
						if other.TaskID == dep {
							depFinish = other.Finish
						}
					}
					if depFinish > st.Start+1e-9 {
						return false
					}
				}
			}
			return true
		},
		gen.IntRange(1, 8),
		gen.UInt64Range(0, 500),
	))

	properties.TestingRun(t)
}

// TestPlanIsDeterministic checks the round-trip property: repeated Plan
// calls on identical input produce identical schedules.
func TestPlanIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("plan is deterministic", prop.ForAll(
		func(n int) bool {
			execTimes := make([]float64, n)
			dataSizes := make([]uint64, n)
			for i := range execTimes {
				execTimes[i] = float64(i%4 + 1)
				dataSizes[i] = uint64(i * 10)
			}

			run := func() *heft.Result {
				g, profiles := chainGraph(n, execTimes, dataSizes)
				resources := []types.Resource{
					{ID: 1, Kind: types.CPUCore, Speed: 1, MaxMemory: 1 << 40, PowerWatts: 50},
					{ID: 2, Kind: types.GPUDevice, Speed: 1, MaxMemory: 1 << 40, PowerWatts: 150},
				}
				result, err := heft.Plan(g, profiles, resources, nil)
				if err != nil {
					panic(err)
				}
				return result
			}

			r1 := run()
			r2 := run()
			if r1.Makespan != r2.Makespan {
				return false
			}
			for i := range r1.Tasks {
				a, b := r1.Tasks[i], r2.Tasks[i]
				if a.TaskID != b.TaskID || a.ResourceID != b.ResourceID || a.Start != b.Start || a.Finish != b.Finish {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}
