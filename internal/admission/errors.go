package admission

import (
	"errors"
	"fmt"
)

var (
	ErrArithmeticOverflow = errors.New("interference sum overflows int64")
	ErrIterationLimit     = errors.New("recurrence exceeded its iteration cap")

	ErrOutOfOrder      = errors.New("task evaluated out of priority order")
	ErrIndexOutOfRange = errors.New("task index out of range")
	ErrSizeMismatch    = errors.New("result table does not match task set")
	ErrUnknownTest     = errors.New("unknown acceptance test")

	ErrEmptyTaskSet  = errors.New("empty task set")
	ErrDuplicateRank = errors.New("duplicate priority rank")
	ErrRankGap       = errors.New("priority ranks are not dense from 0")
	ErrDuplicateID   = errors.New("duplicate task id")
)

// AnalysisFault reports a recurrence that could not be evaluated safely.
// The task is neither accepted nor rejected; its verdict is undeterminable.
type AnalysisFault struct {
	Kind   error
	TaskID string
	Test   TestKind

	Iterations  int
	LastValueMs int64
}

func (e *AnalysisFault) Error() string {
	if e == nil {
		return ""
	}

	return fmt.Sprintf(
		"%s for task %q after %d iterations (last value %d ms): %s",
		e.Test,
		e.TaskID,
		e.Iterations,
		e.LastValueMs,
		e.Kind.Error(),
	)
}

func (e *AnalysisFault) Unwrap() error { return e.Kind }
