package admission

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimeDemandAnalysis(t *testing.T) {
	t.Run(
		"1. converges at the deadline",
		func(t *testing.T) {
			set := newSet(t, [2]int64{1, 4}, [2]int64{2, 6}, [2]int64{5, 12})
			results := evaluateUpTo(t, set, 2)

			require.NoError(t, TimeDemandAnalysis(set, 2, results))

			slot := results.At(2)
			require.True(t, slot.Accepted)
			require.Equal(t, VerdictAccepted, slot.Verdict)
			require.Equal(t, TestTDA, slot.DecidedBy)
			require.EqualValues(t, 12, slot.ResponseTimeMs)
			require.Equal(t, 3, slot.Iterations)
		},
	)

	t.Run(
		"2. exceeds the deadline",
		func(t *testing.T) {
			set := newSet(t, [2]int64{4, 5}, [2]int64{7, 10})
			results := evaluateUpTo(t, set, 1)

			require.NoError(t, TimeDemandAnalysis(set, 1, results))

			slot := results.At(1)
			require.False(t, slot.Accepted)
			require.Equal(t, VerdictRejected, slot.Verdict)
			require.EqualValues(t, 15, slot.ResponseTimeMs)
			require.Equal(t, 1, slot.Iterations)
		},
	)

	t.Run(
		"3. execution equals period",
		func(t *testing.T) {
			set := newSet(t, [2]int64{10, 10})
			results := NewResults(set)

			require.NoError(t, TimeDemandAnalysis(set, 0, results))

			slot := results.At(0)
			require.True(t, slot.Accepted)
			require.EqualValues(t, 10, slot.ResponseTimeMs)
		},
	)

	t.Run(
		"4. idempotent",
		func(t *testing.T) {
			set := newSet(t, [2]int64{1, 4}, [2]int64{2, 6}, [2]int64{5, 12})
			results := evaluateUpTo(t, set, 2)

			require.NoError(t, TimeDemandAnalysis(set, 2, results))
			first := results.At(2)

			require.NoError(t, TimeDemandAnalysis(set, 2, results))
			require.Equal(t, first, results.At(2))
		},
	)

	t.Run(
		"5. overflow is a fault",
		func(t *testing.T) {
			set := newSet(
				t,
				[2]int64{1 << 62, math.MaxInt64},
				[2]int64{1 << 62, math.MaxInt64},
			)
			results := evaluateUpTo(t, set, 1)
			require.True(t, results.At(0).Accepted)

			errTDA := TimeDemandAnalysis(set, 1, results)
			require.ErrorIs(t, errTDA, ErrArithmeticOverflow)

			var fault *AnalysisFault
			require.ErrorAs(t, errTDA, &fault)
			require.Equal(t, TestTDA, fault.Test)
			require.Equal(t, "B", fault.TaskID)

			slot := results.At(1)
			require.False(t, slot.Accepted)
			require.Equal(t, VerdictUndeterminable, slot.Verdict)
			require.ErrorIs(t, slot.Fault, ErrArithmeticOverflow)
		},
	)

	t.Run(
		"6. iteration limit is a fault",
		func(t *testing.T) {
			set := newSet(t, [2]int64{1, 4}, [2]int64{2, 6}, [2]int64{5, 12})
			results := evaluateUpTo(t, set, 2)

			errTDA := timeDemandAnalysis(set, 2, results, 1)
			require.ErrorIs(t, errTDA, ErrIterationLimit)
			require.Equal(t, VerdictUndeterminable, results.At(2).Verdict)
		},
	)

	t.Run(
		"7. out of order",
		func(t *testing.T) {
			set := newSet(t, [2]int64{1, 4}, [2]int64{2, 6})
			results := NewResults(set)

			require.ErrorIs(t, TimeDemandAnalysis(set, 1, results), ErrOutOfOrder)
			require.ErrorIs(t, TimeDemandAnalysis(set, 2, results), ErrIndexOutOfRange)
			require.ErrorIs(t, TimeDemandAnalysis(set, -1, results), ErrIndexOutOfRange)
		},
	)

	t.Run(
		"8. table of another set",
		func(t *testing.T) {
			set := newSet(t, [2]int64{1, 4}, [2]int64{2, 6})
			other := newSet(t, [2]int64{1, 4})

			require.ErrorIs(t, TimeDemandAnalysis(set, 0, NewResults(other)), ErrSizeMismatch)
		},
	)
}

func TestWorstCaseSimulation(t *testing.T) {
	t.Run(
		"1. matches TDA when rejecting",
		func(t *testing.T) {
			set := newSet(t, [2]int64{4, 5}, [2]int64{7, 10})

			tda := evaluateUpTo(t, set, 1)
			require.NoError(t, TimeDemandAnalysis(set, 1, tda))

			wcs := evaluateUpTo(t, set, 1)
			require.NoError(t, WorstCaseSimulation(set, 1, wcs))

			slot := wcs.At(1)
			require.False(t, slot.Accepted)
			require.True(t, slot.WCSEvaluated)
			require.Equal(t, TestWCS, slot.DecidedBy)
			require.EqualValues(t, 15, slot.WorstCaseCompletionMs)
			require.Equal(t, tda.At(1).ResponseTimeMs, slot.WorstCaseCompletionMs)
			require.Equal(t, tda.At(1).Accepted, slot.Accepted)
		},
	)

	t.Run(
		"2. matches TDA when accepting",
		func(t *testing.T) {
			set := newSet(t, [2]int64{1, 4}, [2]int64{2, 6}, [2]int64{5, 12})

			results := evaluateUpTo(t, set, 2)
			require.NoError(t, WorstCaseSimulation(set, 2, results))

			slot := results.At(2)
			require.True(t, slot.Accepted)
			require.EqualValues(t, 12, slot.WorstCaseCompletionMs)
			require.Equal(t, 3, slot.Iterations)
		},
	)

	t.Run(
		"3. overflow is a fault",
		func(t *testing.T) {
			set := newSet(
				t,
				[2]int64{1 << 62, math.MaxInt64},
				[2]int64{1 << 62, math.MaxInt64},
			)
			results := evaluateUpTo(t, set, 1)

			errWCS := WorstCaseSimulation(set, 1, results)
			require.ErrorIs(t, errWCS, ErrArithmeticOverflow)
			require.False(t, results.At(1).WCSEvaluated)
		},
	)
}

// sweepSets pairs a few interferer mixes with candidate tasks of growing load.
// Every set is in rate-monotonic order, where the utilization bound holds.
func sweepSets(t *testing.T) []*TaskSet {
	t.Helper()

	var result []*TaskSet

	interferers := [][][2]int64{
		{{1, 4}, {2, 6}},
		{{2, 5}, {1, 7}, {3, 11}},
		{{1, 3}},
		{{3, 10}, {2, 12}},
	}

	for _, hp := range interferers {
		for execution := int64(1); execution <= 12; execution++ {
			for _, period := range []int64{12, 17, 25, 40} {
				if execution > period {
					continue
				}

				pairs := append(append([][2]int64{}, hp...), [2]int64{execution, period})
				result = append(result, newSet(t, pairs...))
			}
		}
	}

	return result
}

func TestRecurrenceProperties(t *testing.T) {
	for _, set := range sweepSets(t) {
		last := set.Len() - 1

		ubt := evaluateUpTo(t, set, last)
		require.NoError(t, UtilizationBoundTest(set, last, ubt))

		tda := evaluateUpTo(t, set, last)
		require.NoError(t, TimeDemandAnalysis(set, last, tda))

		wcs := evaluateUpTo(t, set, last)
		require.NoError(t, WorstCaseSimulation(set, last, wcs))

		if ubt.At(last).Accepted {
			require.True(t, tda.At(last).Accepted, "UBT accepted where TDA rejects: %v", set.Tasks())
		}

		require.Equal(t, tda.At(last).Accepted, wcs.At(last).Accepted)
		require.Equal(t, tda.At(last).ResponseTimeMs, wcs.At(last).WorstCaseCompletionMs)
		require.LessOrEqual(t, tda.At(last).Iterations, iterationCap(set.At(last).PeriodMs, set.Tasks()[:last]))
	}
}

func TestRecurrenceIsMonotonic(t *testing.T) {
	hp := []Task{
		{ID: "a", ExecutionTimeMs: 2, PeriodMs: 5},
		{ID: "b", ExecutionTimeMs: 1, PeriodMs: 7},
		{ID: "c", ExecutionTimeMs: 3, PeriodMs: 20},
	}

	demand := func(execution, response int64) int64 {
		result := execution

		for _, task := range hp {
			result += ceilDiv(response, task.PeriodMs) * task.ExecutionTimeMs
		}

		return result
	}

	for execution := int64(1); execution <= 10; execution++ {
		const deadline = 30

		previous := execution
		response := demand(execution, previous)
		exceeded := false

		for step := 0; step < 20; step++ {
			require.GreaterOrEqual(t, response, previous)

			if exceeded {
				require.Greater(t, response, int64(deadline))
			}

			exceeded = exceeded || response > deadline
			previous, response = response, demand(execution, response)
		}
	}
}

func TestHelpers(t *testing.T) {
	require.EqualValues(t, 0, ceilDiv(0, 4))
	require.EqualValues(t, 1, ceilDiv(1, 4))
	require.EqualValues(t, 1, ceilDiv(4, 4))
	require.EqualValues(t, 2, ceilDiv(5, 4))
	require.EqualValues(t, 1, ceilDiv(math.MaxInt64, math.MaxInt64))

	_, ok := mulChecked(1<<32, 1<<31)
	require.False(t, ok)

	product, ok := mulChecked(1<<31, 1<<31)
	require.True(t, ok)
	require.EqualValues(t, int64(1)<<62, product)

	_, ok = addChecked(math.MaxInt64, 1)
	require.False(t, ok)

	require.Equal(t, 2, iterationCap(10, nil))
	require.Equal(t, 2*(12/4+1)+2, iterationCap(12, []Task{{PeriodMs: 4}, {PeriodMs: 6}}))
	require.Equal(t, math.MaxInt32, iterationCap(math.MaxInt64, []Task{{PeriodMs: 1}}))
}
