package admission

import "math"

// LiuLaylandBound returns n(2^(1/n) - 1), the utilization below which any n
// implicit-deadline tasks are schedulable under rate-ordered fixed priorities.
func LiuLaylandBound(n int) float64 {
	if n <= 0 {
		return 0
	}

	nf := float64(n)

	return nf * (math.Pow(2, 1/nf) - 1)
}

// UtilizationBoundTest compares the utilization of task ix plus every accepted
// higher-priority task against the Liu-Layland bound.
// The test is sufficient only: a rejection from it is inconclusive.
func UtilizationBoundTest(set *TaskSet, ix int, results *Results) error {
	if errCheck := results.checkSlot(set, ix); errCheck != nil {
		return errCheck
	}

	considered := append(results.interferers(set, ix), set.At(ix))

	var utilization float64
	for _, task := range considered {
		utilization = utilization + task.Utilization()
	}

	bound := LiuLaylandBound(len(considered))

	slot := results.slot(ix)
	slot.UtilizationAtTest = utilization
	slot.UtilizationBound = bound
	slot.setVerdict(TestUBT, utilization <= bound)

	return nil
}
