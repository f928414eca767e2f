package admission

import "math"

func ternary[T any](condition bool, value1, value2 T) T {
	if condition {
		return value1
	}

	return value2
}

// ceilDiv expects a >= 0 and b > 0.
func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 {
		q++
	}

	return q
}

// mulChecked expects non-negative operands.
func mulChecked(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}

	if a > math.MaxInt64/b {
		return 0, false
	}

	return a * b, true
}

// addChecked expects non-negative operands.
func addChecked(a, b int64) (int64, bool) {
	if a > math.MaxInt64-b {
		return 0, false
	}

	return a + b, true
}

// iterationCap bounds the number of recurrence steps for a task with the given
// deadline and interferers. Every step that does not terminate raises the
// demand by at least one more interfering job, and no interferer can release
// more than deadline/period+1 jobs before the deadline is passed.
func iterationCap(deadline int64, interferers []Task) int {
	if len(interferers) == 0 {
		return 2
	}

	minPeriod := interferers[0].PeriodMs
	for _, task := range interferers[1:] {
		minPeriod = min(minPeriod, task.PeriodMs)
	}

	n := int64(len(interferers))

	fullPeriods := deadline / minPeriod
	if fullPeriods >= (math.MaxInt32-2)/n-1 {
		return math.MaxInt32
	}

	return int(n*(fullPeriods+1) + 2)
}
