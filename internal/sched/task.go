package sched

import (
	"rtadmit/internal/admission"
	"rtadmit/internal/job"
)

// Task is an admitted periodic task as driven by the scheduler.
type Task struct {
	admission.Task

	nextRelease int64 // tick of the next job release
}

// NewTask creates a task whose first job is released at tick 0, the critical
// instant shared by every task.
func NewTask(desc admission.Task) *Task {
	return &Task{
		Task: desc,
	}
}

// release returns the job due at tick now, or nil.
func (t *Task) release(now int64) *job.Job {
	if now != t.nextRelease {
		return nil
	}

	t.nextRelease += t.PeriodMs

	return job.New(t.ID, t.PriorityRank, now, t.ExecutionTimeMs, t.PeriodMs)
}
