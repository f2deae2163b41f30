// Package policy implements the policy scheduler: a pool of workers
// draining a task stream under a shared energy budget and deadline,
// re-enqueueing any task whose completion would violate either.
package policy

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Task is one unit of work submitted to the policy scheduler. Run executes
// the work and reports how long it actually took; the policy derives
// estimated energy from that measured duration.
type Task struct {
	ID  string
	Run func() time.Duration
}

// DeadlineExpiredError reports that the deadline had already passed at
// admission; every drained id was dropped without executing.
type DeadlineExpiredError struct {
	DrainedIDs []string
}

func (e *DeadlineExpiredError) Error() string {
	return fmt.Sprintf("policy: deadline already expired at admission, dropped %d tasks", len(e.DrainedIDs))
}

// BudgetExhaustedError reports that the drain-attempt limit was reached
// while RemainingIDs still could not be afforded.
type BudgetExhaustedError struct {
	RemainingIDs []string
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("policy: energy budget exhausted, %d tasks remain", len(e.RemainingIDs))
}

// State is the policy scheduler's shared mutable state: the remaining
// energy budget, the fixed power constant used to derive estimated energy
// from measured duration, and the absolute wallclock deadline. All reads
// and writes go through State's own mutex; it is never held alongside
// any other lock.
type State struct {
	mu            sync.Mutex
	EnergyBudgetJ float64
	FixedWatts    float64
	DeadlineAt    time.Time
}

// NewState builds a State with the given starting budget, fixed-watts
// constant (50W is a reasonable default for a single CPU core), and
// absolute deadline.
func NewState(energyBudgetJ, fixedWatts float64, deadlineAt time.Time) *State {
	return &State{EnergyBudgetJ: energyBudgetJ, FixedWatts: fixedWatts, DeadlineAt: deadlineAt}
}

// RemainingBudget returns the current energy budget under the state's lock.
func (s *State) RemainingBudget() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.EnergyBudgetJ
}

// Outcome reports which tasks completed. A nil Outcome.err-equivalent is
// conveyed by RunPolicy's separate error return.
type Outcome struct {
	CompletedIDs []string
}

// RunPolicy drains tasks across nWorkers goroutines against state. Each
// worker runs a task, then under state's single mutex checks whether the
// measured duration would blow the deadline or the estimated energy
// (measured_duration * FixedWatts) exceeds the remaining budget; if so the
// task is handed to a dedicated dispatcher for re-enqueue rather than
// counted complete. Workers never write to the channel they read from —
// a worker that needs to defer a task sends it to a separate requeue
// channel, and only the dispatcher goroutine forwards requeued tasks back
// onto the work channel and ultimately closes it. maxDrainAttempts bounds
// total re-enqueues (default 2*len(tasks)) to rule out livelock when no
// remaining task can ever be afforded.
//
// reg is an optional metrics registry: pass none, or a nil
// *metrics.Registry, to skip instrumentation. When present, every
// deferral and every permanently-dropped task is recorded against it.
func RunPolicy(nWorkers int, tasks []Task, state *State, maxDrainAttempts int, reg ...*metrics.Registry) (time.Duration, *Outcome, error) {
	start := time.Now()

	if len(tasks) == 0 {
		return time.Since(start), &Outcome{}, nil
	}
	if maxDrainAttempts <= 0 {
		maxDrainAttempts = 2 * len(tasks)
	}
	if nWorkers <= 0 {
		nWorkers = 1
	}

	if time.Now().After(state.DeadlineAt) {
		drained := make([]string, len(tasks))
		for i, t := range tasks {
			drained[i] = t.ID
		}
		return time.Since(start), nil, &DeadlineExpiredError{DrainedIDs: drained}
	}

	var r *metrics.Registry
	if len(reg) > 0 {
		r = reg[0]
	}

	// workCh is read by workers only; requeueCh is written by workers only.
	// The dispatcher goroutine below is the sole writer of workCh and the
	// sole reader of requeueCh, so no worker ever writes back to the
	// channel it ranges over.
	workCh := make(chan Task, len(tasks))
	requeueCh := make(chan Task, len(tasks))
	for _, t := range tasks {
		workCh <- t
	}

	var mu sync.Mutex
	var completed []string
	var neverCompleted []string

	var attemptsUsed int64
	inFlight := int64(len(tasks))
	var closeRequeueOnce sync.Once

	finalizeOne := func() {
		if atomic.AddInt64(&inFlight, -1) == 0 {
			closeRequeueOnce.Do(func() { close(requeueCh) })
		}
	}

	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		for task := range requeueCh {
			workCh <- task
		}
		close(workCh)
	}()

	g := new(errgroup.Group)
	for w := 0; w < nWorkers; w++ {
		g.Go(func() error {
			for task := range workCh {
				duration := task.Run()
				estimatedEnergy := duration.Seconds() * state.FixedWatts
				now := time.Now()

				state.mu.Lock()
				violatesDeadline := now.Add(duration).After(state.DeadlineAt)
				violatesBudget := state.EnergyBudgetJ < estimatedEnergy
				if violatesDeadline || violatesBudget {
					state.mu.Unlock()

					if atomic.AddInt64(&attemptsUsed, 1) > int64(maxDrainAttempts) {
						mu.Lock()
						neverCompleted = append(neverCompleted, task.ID)
						mu.Unlock()
						r.ObserveExhausted()
						finalizeOne()
					} else {
						r.ObserveDeferred()
						requeueCh <- task
					}
					continue
				}

				state.EnergyBudgetJ -= estimatedEnergy
				state.mu.Unlock()

				mu.Lock()
				completed = append(completed, task.ID)
				mu.Unlock()
				finalizeOne()
			}
			return nil
		})
	}
	_ = g.Wait()
	<-dispatcherDone

	outcome := &Outcome{CompletedIDs: completed}
	if len(neverCompleted) > 0 {
		return time.Since(start), outcome, &BudgetExhaustedError{RemainingIDs: neverCompleted}
	}
	return time.Since(start), outcome, nil
}
