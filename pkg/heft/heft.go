// Package heft implements the HEFT (Heterogeneous Earliest Finish Time)
// list scheduler: it places tasks onto resources in decreasing
// upward-rank order, each time picking the resource that minimizes that
// task's finish time.
package heft

import (
	"fmt"
	"sort"
	"time"

	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/commcost"
	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/graph"
	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/metrics"
	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/types"
)

// ScheduledTask is one task's placement in a produced schedule.
type ScheduledTask struct {
	TaskID        string
	ResourceID    int
	Start         float64
	Finish        float64
	Dependencies  []string
	DataReadyTime float64
}

// Result is the planner's output.
type Result struct {
	Tasks               []ScheduledTask
	Makespan            float64
	ResourceUtilization map[int]float64 // resource id -> percent busy
	TotalEnergyJ        float64
	CriticalPath        []string
}

// NoFeasibleResourceError reports that no resource supports TaskID's
// required kinds.
type NoFeasibleResourceError struct {
	TaskID string
}

func (e *NoFeasibleResourceError) Error() string {
	return fmt.Sprintf("heft: no resource supports task %q's required kinds", e.TaskID)
}

// MemoryExhaustedError reports that every resource capable of running
// TaskID lacks sufficient free memory.
type MemoryExhaustedError struct {
	TaskID string
}

func (e *MemoryExhaustedError) Error() string {
	return fmt.Sprintf("heft: no resource has enough free memory for task %q", e.TaskID)
}

// Plan schedules every task in g onto resources, honoring dependency,
// memory, and communication constraints. If matrix is nil, a default
// communication matrix is synthesized from resources' ids. Plan resets
// every resource's AvailableAt and CommittedMemory before scheduling, so
// resources must not be shared across concurrent Plan calls without
// external synchronization.
//
// reg is an optional metrics registry: pass none, or a nil *metrics.Registry,
// to skip instrumentation. When present, Plan records the task count,
// wall-clock duration, makespan, energy, and per-resource utilization of
// this run.
func Plan(g *graph.Graph, profiles map[string]*types.TaskProfile, resources []types.Resource, matrix *types.CommMatrix, reg ...*metrics.Registry) (*Result, error) {
	start := time.Now()

	if matrix == nil {
		ids := make([]int, len(resources))
		for i, r := range resources {
			ids[i] = r.ID
		}
		matrix = commcost.CreateDefaultMatrix(ids)
	}

	ranks := g.UpwardRank(profiles, resources, matrix)
	priority := scheduleOrder(g, ranks)

	for i := range resources {
		resources[i].AvailableAt = 0
		resources[i].CommittedMemory = 0
	}

	scheduled := make(map[string]*ScheduledTask, len(priority))
	tasks := make([]ScheduledTask, 0, len(priority))

	for _, taskID := range priority {
		task, _ := g.Task(taskID)
		profile := profiles[taskID]

		var kindCandidates []*types.Resource
		for i := range resources {
			if _, ok := profile.ExecTimeFor(resources[i].Kind); ok {
				kindCandidates = append(kindCandidates, &resources[i])
			}
		}
		if len(kindCandidates) == 0 {
			return nil, &NoFeasibleResourceError{TaskID: taskID}
		}

		var memCandidates []*types.Resource
		for _, r := range kindCandidates {
			if r.FreeMemory() >= profile.MemoryRequired {
				memCandidates = append(memCandidates, r)
			}
		}
		if len(memCandidates) == 0 {
			return nil, &MemoryExhaustedError{TaskID: taskID}
		}

		bestIdx := -1
		var bestFinish, bestStart, bestDataReady float64
		for idx, r := range memCandidates {
			dataReady := 0.0
			for _, dep := range task.Dependencies {
				depSched := scheduled[dep]
				depProfile := profiles[dep]
				ct := commcost.CommTime(matrix, depProfile.DataSize, depSched.ResourceID, r.ID)
				ready := depSched.Finish + ct
				if ready > dataReady {
					dataReady = ready
				}
			}

			start := dataReady
			if r.AvailableAt > start {
				start = r.AvailableAt
			}

			execTime, _ := profile.ExecTimeFor(r.Kind)
			speed := r.Speed
			if speed <= 0 {
				speed = 1
			}
			finish := start + execTime/speed

			if bestIdx == -1 || finish < bestFinish || (finish == bestFinish && r.ID < memCandidates[bestIdx].ID) {
				bestIdx = idx
				bestFinish = finish
				bestStart = start
				bestDataReady = dataReady
			}
		}

		chosen := memCandidates[bestIdx]
		st := ScheduledTask{
			TaskID:        taskID,
			ResourceID:    chosen.ID,
			Start:         bestStart,
			Finish:        bestFinish,
			Dependencies:  append([]string(nil), task.Dependencies...),
			DataReadyTime: bestDataReady,
		}
		scheduled[taskID] = &st
		tasks = append(tasks, st)

		chosen.AvailableAt = bestFinish
		chosen.CommittedMemory += profile.MemoryRequired
	}

	result := &Result{Tasks: tasks}
	result.Makespan = Makespan(tasks)
	result.ResourceUtilization = ResourceUtilization(tasks, resources, result.Makespan)
	result.TotalEnergyJ = totalEnergy(tasks, resources)
	result.CriticalPath = CriticalPath(tasks, g)

	firstRegistry(reg).ObserveSchedule(len(tasks), time.Since(start), result.Makespan, result.TotalEnergyJ, result.ResourceUtilization)

	return result, nil
}

// firstRegistry returns the first registry in regs, or nil if regs is
// empty. metrics.Registry's Observe* methods are nil-receiver safe, so
// the result can always be called directly.
func firstRegistry(regs []*metrics.Registry) *metrics.Registry {
	if len(regs) == 0 {
		return nil
	}
	return regs[0]
}

// scheduleOrder walks the graph in dependency-respecting order, at each
// step picking the highest-rank task among those whose predecessors have
// all already been placed (ties broken by ascending id). graph.PriorityOrder
// alone sorts purely by rank and can put a successor ahead of a
// zero-weight predecessor on a rank tie (e.g. a single-resource pool with a
// zero-exec-time dependency); scheduleOrder's readiness gate rules that out
// while still matching graph.PriorityOrder's tie-break whenever no
// dependency relationship forces otherwise.
func scheduleOrder(g *graph.Graph, ranks map[string]float64) []string {
	ids := g.IDs()
	remaining := make(map[string]int, len(ids))
	ready := make(map[string]bool, len(ids))
	for _, id := range ids {
		n := len(g.Predecessors(id))
		remaining[id] = n
		if n == 0 {
			ready[id] = true
		}
	}

	order := make([]string, 0, len(ids))
	for len(order) < len(ids) {
		best := ""
		for id := range ready {
			if best == "" || ranks[id] > ranks[best] || (ranks[id] == ranks[best] && id < best) {
				best = id
			}
		}
		delete(ready, best)
		order = append(order, best)
		for _, s := range g.Successors(best) {
			remaining[s]--
			if remaining[s] == 0 {
				ready[s] = true
			}
		}
	}
	return order
}

// Makespan returns the maximum finish time across tasks (0 for an empty
// schedule).
func Makespan(tasks []ScheduledTask) float64 {
	var max float64
	for _, t := range tasks {
		if t.Finish > max {
			max = t.Finish
		}
	}
	return max
}

// ResourceUtilization returns, for each resource, the percent of makespan
// spent executing tasks.
func ResourceUtilization(tasks []ScheduledTask, resources []types.Resource, makespan float64) map[int]float64 {
	busy := make(map[int]float64, len(resources))
	for _, r := range resources {
		busy[r.ID] = 0
	}
	for _, t := range tasks {
		busy[t.ResourceID] += t.Finish - t.Start
	}

	util := make(map[int]float64, len(resources))
	for id, b := range busy {
		if makespan <= 0 {
			util[id] = 0
			continue
		}
		util[id] = b / makespan * 100
	}
	return util
}

func totalEnergy(tasks []ScheduledTask, resources []types.Resource) float64 {
	power := make(map[int]float64, len(resources))
	for _, r := range resources {
		power[r.ID] = r.PowerWatts
	}

	var joules float64
	for _, t := range tasks {
		joules += power[t.ResourceID] * (t.Finish - t.Start)
	}
	return joules
}

// CriticalPath follows, from each entry task, the successor with the
// largest subtree finish-time sum in the schedule, returning the
// identifier sequence for the best such chain overall.
func CriticalPath(tasks []ScheduledTask, g *graph.Graph) []string {
	finish := make(map[string]float64, len(tasks))
	for _, t := range tasks {
		finish[t.TaskID] = t.Finish
	}

	memoValue := make(map[string]float64)
	memoNext := make(map[string]string)

	var value func(id string) float64
	value = func(id string) float64 {
		if v, ok := memoValue[id]; ok {
			return v
		}
		best := 0.0
		bestSucc := ""
		for _, succ := range sortedIDs(g.Successors(id)) {
			v := value(succ)
			if v > best {
				best = v
				bestSucc = succ
			}
		}
		total := finish[id] + best
		memoValue[id] = total
		memoNext[id] = bestSucc
		return total
	}

	var bestEntry string
	var bestTotal float64
	for _, entry := range g.EntryTasks() {
		v := value(entry)
		if bestEntry == "" || v > bestTotal {
			bestEntry = entry
			bestTotal = v
		}
	}
	if bestEntry == "" {
		return nil
	}

	var path []string
	for id := bestEntry; id != ""; id = memoNext[id] {
		path = append(path, id)
	}
	return path
}

func sortedIDs(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

// ValidateSchedule checks that every dependency's finish time precedes its
// successor's start time. Communication time between resources is not
// taken into account, since ValidateSchedule's signature doesn't carry
// profiles or a comm matrix.
func ValidateSchedule(result *Result, g *graph.Graph) bool {
	finish := make(map[string]float64, len(result.Tasks))
	start := make(map[string]float64, len(result.Tasks))
	for _, t := range result.Tasks {
		finish[t.TaskID] = t.Finish
		start[t.TaskID] = t.Start
	}

	for _, t := range result.Tasks {
		for _, dep := range t.Dependencies {
			if finish[dep] > start[t.TaskID] {
				return false
			}
		}
	}
	_ = g
	return true
}
