// Package graph implements the task graph: validated DAG construction,
// upward-rank priorities, and deterministic priority ordering.
// Critical-path extraction lives in pkg/heft because it operates on a
// produced schedule, not on the graph alone.
package graph

import (
	"fmt"
	"sort"

	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/commcost"
	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/types"
)

// CycleError reports that the submitted tasks contain a dependency cycle.
// OffendingIDs lists the task IDs Kahn's algorithm could never drain
// because every remaining task still had an unsatisfied predecessor.
type CycleError struct {
	OffendingIDs []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("graph: cycle detected among tasks %v", e.OffendingIDs)
}

// UnknownDependencyError reports that TaskID depends on an id not present
// in the submission.
type UnknownDependencyError struct {
	TaskID       string
	DependencyID string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("graph: task %q depends on unknown task %q", e.TaskID, e.DependencyID)
}

// DuplicateIDError reports that two tasks in the submission share an id.
type DuplicateIDError struct {
	TaskID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("graph: duplicate task id %q", e.TaskID)
}

// Graph is a validated, acyclic task graph.
type Graph struct {
	tasks        map[string]types.Task
	order        []string // insertion order, for deterministic iteration
	successors   map[string][]string
	predecessors map[string][]string
	topological  []string
}

// New validates tasks and builds a Graph. It fails with DuplicateIDError,
// UnknownDependencyError, or CycleError before any other state is derived.
func New(tasks []types.Task) (*Graph, error) {
	g := &Graph{
		tasks:        make(map[string]types.Task, len(tasks)),
		successors:   make(map[string][]string, len(tasks)),
		predecessors: make(map[string][]string, len(tasks)),
	}

	for _, t := range tasks {
		if _, exists := g.tasks[t.ID]; exists {
			return nil, &DuplicateIDError{TaskID: t.ID}
		}
		g.tasks[t.ID] = t
		g.order = append(g.order, t.ID)
	}

	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			if _, ok := g.tasks[dep]; !ok {
				return nil, &UnknownDependencyError{TaskID: t.ID, DependencyID: dep}
			}
			g.predecessors[t.ID] = append(g.predecessors[t.ID], dep)
			g.successors[dep] = append(g.successors[dep], t.ID)
		}
	}

	topo, err := kahn(g.order, g.predecessors)
	if err != nil {
		return nil, err
	}
	g.topological = topo

	return g, nil
}

// kahn runs Kahn's algorithm over ids using predecessors as the edge map,
// returning a cycle error naming every id it could not drain.
func kahn(ids []string, predecessors map[string][]string) ([]string, error) {
	inDegree := make(map[string]int, len(ids))
	for _, id := range ids {
		inDegree[id] = len(predecessors[id])
	}

	// successors derived locally to avoid depending on Graph's fields.
	successors := make(map[string][]string)
	for id, preds := range predecessors {
		for _, p := range preds {
			successors[p] = append(successors[p], id)
		}
	}

	var queue []string
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	var order []string
	remaining := make(map[string]int, len(ids))
	for id, d := range inDegree {
		remaining[id] = d
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		var newlyReady []string
		for _, s := range successors[id] {
			remaining[s]--
			if remaining[s] == 0 {
				newlyReady = append(newlyReady, s)
			}
		}
		sort.Strings(newlyReady)
		queue = append(queue, newlyReady...)
		sort.Strings(queue)
	}

	if len(order) != len(ids) {
		seen := make(map[string]bool, len(order))
		for _, id := range order {
			seen[id] = true
		}
		var offending []string
		for _, id := range ids {
			if !seen[id] {
				offending = append(offending, id)
			}
		}
		sort.Strings(offending)
		return nil, &CycleError{OffendingIDs: offending}
	}

	return order, nil
}

// Task returns the task with id and whether it exists.
func (g *Graph) Task(id string) (types.Task, bool) {
	t, ok := g.tasks[id]
	return t, ok
}

// IDs returns every task id in submission order.
func (g *Graph) IDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// TopologicalOrder returns one valid topological ordering. Deterministic
// given identical input (ties broken by ascending id).
func (g *Graph) TopologicalOrder() []string {
	out := make([]string, len(g.topological))
	copy(out, g.topological)
	return out
}

// Predecessors returns the dependency ids of id.
func (g *Graph) Predecessors(id string) []string {
	return g.predecessors[id]
}

// Successors returns the ids that depend on id.
func (g *Graph) Successors(id string) []string {
	return g.successors[id]
}

// EntryTasks returns ids with no predecessors, in ascending order.
func (g *Graph) EntryTasks() []string {
	var entries []string
	for _, id := range g.order {
		if len(g.predecessors[id]) == 0 {
			entries = append(entries, id)
		}
	}
	sort.Strings(entries)
	return entries
}

// UpwardRank computes rank(t) = avgExecTime(t) + max over successors s of
// (avgCommCost(t,s) + rank(s)), memoized via post-order DFS. profiles
// must contain an entry for every task id.
func (g *Graph) UpwardRank(profiles map[string]*types.TaskProfile, resources []types.Resource, matrix *types.CommMatrix) map[string]float64 {
	ranks := make(map[string]float64, len(g.order))
	visiting := make(map[string]bool, len(g.order))

	var visit func(id string) float64
	visit = func(id string) float64 {
		if r, ok := ranks[id]; ok {
			return r
		}
		if visiting[id] {
			// Guarded by New()'s cycle check; defensive only.
			return 0
		}
		visiting[id] = true

		avgExec := averageExecTime(profiles[id], resources)

		var best float64
		for _, s := range g.successors[id] {
			commAvg := averageCommCost(profiles[id], resources, matrix)
			candidate := commAvg + visit(s)
			if candidate > best {
				best = candidate
			}
		}

		rank := avgExec + best
		ranks[id] = rank
		visiting[id] = false
		return rank
	}

	for _, id := range g.order {
		visit(id)
	}
	return ranks
}

func averageExecTime(profile *types.TaskProfile, resources []types.Resource) float64 {
	if profile == nil {
		return 0
	}
	var sum float64
	var count int
	for _, r := range resources {
		t, ok := profile.ExecTimeFor(r.Kind)
		if !ok {
			continue
		}
		speed := r.Speed
		if speed <= 0 {
			speed = 1
		}
		sum += t / speed
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func averageCommCost(profile *types.TaskProfile, resources []types.Resource, matrix *types.CommMatrix) float64 {
	if profile == nil || len(resources) < 2 {
		return 0
	}
	var sum float64
	var count int
	for _, src := range resources {
		for _, dst := range resources {
			if src.ID == dst.ID {
				continue
			}
			sum += commcost.CommTime(matrix, profile.DataSize, src.ID, dst.ID)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// PriorityOrder returns task ids sorted by descending rank, ties broken by
// ascending id, so scheduling order is fully deterministic.
func PriorityOrder(ranks map[string]float64) []string {
	ids := make([]string, 0, len(ranks))
	for id := range ranks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ranks[ids[i]] != ranks[ids[j]] {
			return ranks[ids[i]] > ranks[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}
