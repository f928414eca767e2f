package job

import "fmt"

// Job is one released instance of a periodic task. Its absolute deadline is
// the release of the next instance.
type Job struct {
	TaskID string
	Rank   int

	Release   int64
	Deadline  int64
	Remaining int64

	Missed bool
}

// New releases a job at tick release with the full execution budget.
func New(taskID string, rank int, release, executionMs, periodMs int64) *Job {
	return &Job{
		TaskID:    taskID,
		Rank:      rank,
		Release:   release,
		Deadline:  release + periodMs,
		Remaining: executionMs,
	}
}

// Run consumes up to ticks of the remaining budget and returns how many ticks
// were actually used.
func (j *Job) Run(ticks int64) int64 {
	used := min(ticks, j.Remaining)
	j.Remaining -= used

	return used
}

func (j *Job) Done() bool { return j.Remaining == 0 }

// Overdue reports an unfinished job whose deadline has been reached.
func (j *Job) Overdue(now int64) bool {
	return !j.Done() && now >= j.Deadline
}

// ResponseTime is measured from release to now.
func (j *Job) ResponseTime(now int64) int64 {
	return now - j.Release
}

func (j *Job) String() string {
	return fmt.Sprintf("%s@%d", j.TaskID, j.Release)
}
