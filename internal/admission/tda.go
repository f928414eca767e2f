package admission

// TimeDemandAnalysis computes the worst-case response time of task ix under
// preemption by the accepted higher-priority tasks:
//
//	R(0)   = C(ix)
//	R(m+1) = C(ix) + sum over interferers i of ceil(R(m)/T(i)) * C(i)
//
// The test is exact for implicit deadlines, its verdict is final.
func TimeDemandAnalysis(set *TaskSet, ix int, results *Results) error {
	return timeDemandAnalysis(set, ix, results, 0)
}

// timeDemandAnalysis uses the derived iteration cap when limit <= 0.
func timeDemandAnalysis(set *TaskSet, ix int, results *Results, limit int) error {
	if errCheck := results.checkSlot(set, ix); errCheck != nil {
		return errCheck
	}

	task := set.At(ix)
	interferers := results.interferers(set, ix)
	deadline := task.PeriodMs

	if limit <= 0 {
		limit = iterationCap(deadline, interferers)
	}

	slot := results.slot(ix)

	fault := func(kind error, iterations int, last int64) error {
		f := &AnalysisFault{
			Kind:        kind,
			TaskID:      task.ID,
			Test:        TestTDA,
			Iterations:  iterations,
			LastValueMs: last,
		}

		slot.ResponseTimeMs = last
		slot.setFault(f)

		return f
	}

	// response never decreases between iterations, so the loop ends either at
	// the fixed point or on the first value past the deadline.
	response := task.ExecutionTimeMs
	var iterations int

	for response <= deadline {
		if iterations == limit {
			return fault(ErrIterationLimit, iterations, response)
		}

		iterations++

		demand := task.ExecutionTimeMs

		for _, hp := range interferers {
			preemption, ok := mulChecked(ceilDiv(response, hp.PeriodMs), hp.ExecutionTimeMs)
			if ok {
				demand, ok = addChecked(demand, preemption)
			}

			if !ok {
				return fault(ErrArithmeticOverflow, iterations, response)
			}
		}

		if demand == response {
			break
		}

		response = demand
	}

	slot.ResponseTimeMs = response
	slot.Iterations = iterations
	slot.setVerdict(TestTDA, response <= deadline)

	return nil
}
