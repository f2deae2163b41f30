package policy_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/policy"
	"github.com/stretchr/testify/require"
)

func fixedDurationTask(id string, d time.Duration) policy.Task {
	return policy.Task{ID: id, Run: func() time.Duration { return d }}
}

// TestPolicyDeferralScenario implements spec.md §8 Scenario D: 10 tasks
// each estimated at 5J, budget 30J, deadline far away. Exactly 6 tasks
// complete (budget -> 0 after 6); the remaining 4 reappear in
// BudgetExhausted.RemainingIDs.
func TestPolicyDeferralScenario(t *testing.T) {
	const fixedWatts = 50.0
	perTaskDuration := time.Duration(5.0 / fixedWatts * float64(time.Second)) // 5J at 50W

	tasks := make([]policy.Task, 10)
	for i := range tasks {
		tasks[i] = fixedDurationTask(fmt.Sprintf("task-%d", i), perTaskDuration)
	}

	state := policy.NewState(30.0, fixedWatts, time.Now().Add(time.Hour))
	_, outcome, err := policy.RunPolicy(1, tasks, state, 0)

	require.Error(t, err)
	var budgetExhausted *policy.BudgetExhaustedError
	require.ErrorAs(t, err, &budgetExhausted)

	require.Len(t, outcome.CompletedIDs, 6)
	require.Len(t, budgetExhausted.RemainingIDs, 4)
	require.InDelta(t, 0.0, state.RemainingBudget(), 1e-9)

	all := append(append([]string(nil), outcome.CompletedIDs...), budgetExhausted.RemainingIDs...)
	require.Len(t, all, 10)
	seen := make(map[string]bool, 10)
	for _, id := range all {
		require.False(t, seen[id], "task %s reported twice", id)
		seen[id] = true
	}
}

func TestPolicyDropsEverythingWhenDeadlineAlreadyPassed(t *testing.T) {
	tasks := []policy.Task{fixedDurationTask("a", time.Millisecond), fixedDurationTask("b", time.Millisecond)}
	state := policy.NewState(1000, 50, time.Now().Add(-time.Hour))

	_, outcome, err := policy.RunPolicy(1, tasks, state, 0)
	require.Nil(t, outcome)
	var deadlineExpired *policy.DeadlineExpiredError
	require.ErrorAs(t, err, &deadlineExpired)
	require.ElementsMatch(t, []string{"a", "b"}, deadlineExpired.DrainedIDs)
}

func TestPolicyCompletesAllWhenBudgetAndDeadlineAreAmple(t *testing.T) {
	tasks := make([]policy.Task, 5)
	for i := range tasks {
		tasks[i] = fixedDurationTask(fmt.Sprintf("t%d", i), time.Millisecond)
	}
	state := policy.NewState(1e9, 50, time.Now().Add(time.Hour))

	_, outcome, err := policy.RunPolicy(2, tasks, state, 0)
	require.NoError(t, err)
	require.Len(t, outcome.CompletedIDs, 5)
}

func TestPolicyNeverGoesNegative(t *testing.T) {
	tasks := make([]policy.Task, 20)
	for i := range tasks {
		tasks[i] = fixedDurationTask(fmt.Sprintf("t%d", i), time.Second)
	}
	state := policy.NewState(1.0, 50, time.Now().Add(time.Hour))

	_, _, err := policy.RunPolicy(4, tasks, state, 0)
	require.Error(t, err)
	require.GreaterOrEqual(t, state.RemainingBudget(), 0.0)
}
