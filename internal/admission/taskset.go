package admission

import (
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
)

// TaskSet is an immutable sequence of tasks ordered by priority rank,
// highest priority first. Index i always holds the task with rank i.
type TaskSet struct {
	tasks []Task
	byID  map[string]int
}

// NewTaskSet validates every descriptor and orders them by rank.
// Ranks must be unique and dense starting at 0, ids must be unique.
func NewTaskSet(tasks []Task) (*TaskSet, error) {
	if len(tasks) == 0 {
		return nil, ErrEmptyTaskSet
	}

	byRank := treemap.NewWithIntComparator()
	ids := make(map[string]bool, len(tasks))

	for ix := range tasks {
		task := tasks[ix]

		if errValid := task.IsValid(); errValid != nil {
			return nil,
				fmt.Errorf("task %d: %w", ix, errValid)
		}

		if ids[task.ID] {
			return nil,
				fmt.Errorf("%w: %q", ErrDuplicateID, task.ID)
		}

		if other, exists := byRank.Get(task.PriorityRank); exists {
			return nil,
				fmt.Errorf(
					"%w: %d shared by %q and %q",
					ErrDuplicateRank,
					task.PriorityRank,
					other.(Task).ID,
					task.ID,
				)
		}

		ids[task.ID] = true
		byRank.Put(task.PriorityRank, task)
	}

	result := TaskSet{
		tasks: make([]Task, 0, byRank.Size()),
		byID:  make(map[string]int, byRank.Size()),
	}

	it := byRank.Iterator()
	for it.Next() {
		expected := len(result.tasks)

		if rank := it.Key().(int); rank != expected {
			return nil,
				fmt.Errorf("%w: expected rank %d, found %d", ErrRankGap, expected, rank)
		}

		task := it.Value().(Task)

		result.byID[task.ID] = expected
		result.tasks = append(result.tasks, task)
	}

	return &result, nil
}

func (s *TaskSet) Len() int { return len(s.tasks) }

// At returns the task with priority rank ix.
func (s *TaskSet) At(ix int) Task { return s.tasks[ix] }

// Tasks returns a copy of the ordered tasks.
func (s *TaskSet) Tasks() []Task {
	result := make([]Task, len(s.tasks))
	copy(result, s.tasks)

	return result
}

func (s *TaskSet) IndexOf(id string) (int, bool) {
	ix, ok := s.byID[id]

	return ix, ok
}
