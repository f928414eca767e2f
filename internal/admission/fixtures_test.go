package admission

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newSet ranks tasks in the order given. Each pair is (execution, period).
func newSet(t *testing.T, pairs ...[2]int64) *TaskSet {
	t.Helper()

	tasks := make([]Task, len(pairs))
	for ix, pair := range pairs {
		tasks[ix] = Task{
			ID:              string(rune('A' + ix)),
			PriorityRank:    ix,
			ExecutionTimeMs: pair[0],
			PeriodMs:        pair[1],
		}
	}

	set, errCr := NewTaskSet(tasks)
	require.NoError(t, errCr)

	return set
}

// evaluateUpTo runs the orchestrator over every task before ix.
func evaluateUpTo(t *testing.T, set *TaskSet, ix int) *Results {
	t.Helper()

	results := NewResults(set)

	orchestrator, errCr := NewOrchestrator(set, results, nil)
	require.NoError(t, errCr)

	for i := 0; i < ix; i++ {
		_, errEval := orchestrator.Evaluate(i)
		require.NoError(t, errEval)
	}

	return results
}
