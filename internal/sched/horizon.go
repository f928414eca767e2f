package sched

import (
	"math"

	"rtadmit/internal/admission"
)

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}

// Hyperperiod returns the least common multiple of the task periods, or limit
// once it would exceed limit. It returns 0 for no tasks.
func Hyperperiod(tasks []admission.Task, limit int64) int64 {
	if len(tasks) == 0 {
		return 0
	}

	if limit <= 0 {
		limit = math.MaxInt64
	}

	result := int64(1)

	for _, task := range tasks {
		step := result / gcd(result, task.PeriodMs)
		if step > limit/task.PeriodMs {
			return limit
		}

		result = step * task.PeriodMs
	}

	return min(result, limit)
}

// Horizon is the simulated time: hyperperiods whole hyperperiods, capped.
func Horizon(tasks []admission.Task, hyperperiods int, capMs int64) int64 {
	if capMs <= 0 {
		capMs = math.MaxInt64
	}

	hyperperiod := Hyperperiod(tasks, capMs)
	if hyperperiod == 0 {
		return 0
	}

	count := int64(max(hyperperiods, 1))
	if hyperperiod > capMs/count {
		return capMs
	}

	return hyperperiod * count
}
