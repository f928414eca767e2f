package admission

import (
	"errors"
	"fmt"

	goerrors "github.com/TudorHulban/go-errors"
	"github.com/asaskevich/govalidator"
)

// Task holds the timing parameters of one periodic task.
// The relative deadline equals PeriodMs.
type Task struct {
	ID string `valid:"required"`

	PriorityRank    int   // 0 is the highest priority
	ExecutionTimeMs int64 `valid:"required"`
	PeriodMs        int64 `valid:"required"`
}

// Utilization returns the fraction of processor time the task consumes.
func (t Task) Utilization() float64 {
	return float64(t.ExecutionTimeMs) / float64(t.PeriodMs)
}

func (t Task) String() string {
	return fmt.Sprintf(
		"%s(rank=%d, C=%dms, T=%dms)",
		t.ID,
		t.PriorityRank,
		t.ExecutionTimeMs,
		t.PeriodMs,
	)
}

func (t *Task) IsValid() error {
	if _, errValidation := govalidator.ValidateStruct(t); errValidation != nil {
		return goerrors.ErrServiceValidation{
			ServiceName: "admission",
			Caller:      "IsValid - Task",
			Issue:       errValidation,
		}
	}

	if t.PriorityRank < 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - Task",
			Issue: goerrors.ErrNegativeInput{
				InputName: "PriorityRank",
			},
		}
	}

	if t.ExecutionTimeMs < 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - Task",
			Issue: goerrors.ErrNegativeInput{
				InputName: "ExecutionTimeMs",
			},
		}
	}

	if t.PeriodMs < 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - Task",
			Issue: goerrors.ErrNegativeInput{
				InputName: "PeriodMs",
			},
		}
	}

	if t.PeriodMs < t.ExecutionTimeMs {
		return goerrors.ErrInvalidInput{
			Caller:     "IsValid - Task",
			InputName:  "PeriodMs",
			InputValue: t.PeriodMs,
			Issue: errors.New(
				"period shorter than execution time",
			),
		}
	}

	return nil
}
