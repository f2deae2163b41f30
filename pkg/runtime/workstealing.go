// Package runtime implements a work-stealing dispatcher: one deque per
// worker, FIFO local pop, LIFO steal, gated by a steal threshold so
// workers don't thrash stealing from near-empty queues.
package runtime

import (
	"sync"

	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/metrics"
)

// deque is a double-ended queue guarded by its own lock. Owners push onto
// the tail and pop from the head (FIFO); thieves steal from the tail (LIFO).
type deque[T any] struct {
	mu    sync.Mutex
	items []T
}

func (d *deque[T]) pushBack(item T) {
	d.mu.Lock()
	d.items = append(d.items, item)
	d.mu.Unlock()
}

func (d *deque[T]) popFront() (item T, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return item, false
	}
	item = d.items[0]
	d.items = d.items[1:]
	return item, true
}

func (d *deque[T]) popBack() (item T, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return item, false
	}
	n := len(d.items) - 1
	item = d.items[n]
	d.items = d.items[:n]
	return item, true
}

func (d *deque[T]) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Scheduler is a pool of N worker queues, each protected by its own lock.
// Workers are identified by integers in [0, N). It never nests locks: a
// steal snapshots candidate lengths, releases every lock, then reacquires
// only the chosen victim's lock before removing an item.
type Scheduler[T any] struct {
	queues         []*deque[T]
	stealThreshold int
	reg            *metrics.Registry
}

// NewWorkStealing builds a Scheduler with nWorkers queues. Items are only
// eligible for stealing from a queue once its length reaches
// stealThreshold. reg is an optional metrics registry: pass none, or a
// nil *metrics.Registry, to skip instrumentation. When present, every
// successful steal is recorded against it.
func NewWorkStealing[T any](nWorkers, stealThreshold int, reg ...*metrics.Registry) *Scheduler[T] {
	queues := make([]*deque[T], nWorkers)
	for i := range queues {
		queues[i] = &deque[T]{}
	}
	var r *metrics.Registry
	if len(reg) > 0 {
		r = reg[0]
	}
	return &Scheduler[T]{queues: queues, stealThreshold: stealThreshold, reg: r}
}

// Workers returns the number of worker queues.
func (s *Scheduler[T]) Workers() int { return len(s.queues) }

// Push appends item to the tail of worker's own queue.
func (s *Scheduler[T]) Push(worker int, item T) {
	s.queues[worker].pushBack(item)
}

// Pop removes and returns worker's own head item (FIFO, submission order).
// If worker's queue is empty, Pop falls back to Steal on worker's behalf.
// Each item is delivered to exactly one caller across Pop and Steal.
func (s *Scheduler[T]) Pop(worker int) (T, bool) {
	if item, ok := s.queues[worker].popFront(); ok {
		return item, true
	}
	return s.Steal(worker)
}

// Steal scans every queue other than thief's, snapshotting lengths under
// each queue's own lock (released immediately after the snapshot), and
// removes the tail item from the longest queue at or above the steal
// threshold (ties broken toward the smallest queue index). Returns false
// if no queue qualifies, or if the chosen queue emptied between the
// snapshot and the reacquired lock.
func (s *Scheduler[T]) Steal(thief int) (T, bool) {
	victim := -1
	victimLen := -1

	for j, q := range s.queues {
		if j == thief {
			continue
		}
		l := q.len()
		if l >= s.stealThreshold && l > victimLen {
			victimLen = l
			victim = j
		}
	}

	var zero T
	if victim < 0 {
		return zero, false
	}
	item, ok := s.queues[victim].popBack()
	if ok {
		s.reg.ObserveSteal()
	}
	return item, ok
}

// TotalPending returns the sum of items across all queues.
func (s *Scheduler[T]) TotalPending() int {
	total := 0
	for _, q := range s.queues {
		total += q.len()
	}
	return total
}
