package admission

// WorstCaseSimulation walks the first period of task ix from the critical
// instant, where every task is released at time 0. At each checkpoint it counts
// the higher-priority jobs released so far and moves the checkpoint to the time
// by which all of that work plus the task itself can complete. The task
// completes at the first checkpoint that releases no new job.
func WorstCaseSimulation(set *TaskSet, ix int, results *Results) error {
	return worstCaseSimulation(set, ix, results, 0)
}

func worstCaseSimulation(set *TaskSet, ix int, results *Results, limit int) error {
	if errCheck := results.checkSlot(set, ix); errCheck != nil {
		return errCheck
	}

	task := set.At(ix)
	interferers := results.interferers(set, ix)
	horizon := task.PeriodMs

	if limit <= 0 {
		limit = iterationCap(horizon, interferers)
	}

	slot := results.slot(ix)

	fault := func(kind error, steps int, last int64) error {
		f := &AnalysisFault{
			Kind:        kind,
			TaskID:      task.ID,
			Test:        TestWCS,
			Iterations:  steps,
			LastValueMs: last,
		}

		slot.setFault(f)

		return f
	}

	// released[i] jobs of interferer i are already part of work.
	released := make([]int64, len(interferers))
	work := task.ExecutionTimeMs
	checkpoint := int64(0)
	var steps int

	for checkpoint < work && work <= horizon {
		if steps == limit {
			return fault(ErrIterationLimit, steps, work)
		}

		steps++
		checkpoint = work

		for i, hp := range interferers {
			jobs := ceilDiv(checkpoint, hp.PeriodMs)
			if jobs == released[i] {
				continue
			}

			extra, ok := mulChecked(jobs-released[i], hp.ExecutionTimeMs)
			if ok {
				work, ok = addChecked(work, extra)
			}

			if !ok {
				return fault(ErrArithmeticOverflow, steps, checkpoint)
			}

			released[i] = jobs
		}
	}

	slot.WorstCaseCompletionMs = work
	slot.WCSEvaluated = true
	slot.Iterations = steps
	slot.setVerdict(TestWCS, work <= horizon)

	return nil
}
