package admission

import (
	"fmt"
	"strings"
)

// Verdict is the admission state of one task.
type Verdict uint8

const (
	VerdictUntested Verdict = iota
	VerdictAccepted
	VerdictRejected
	VerdictUndeterminable
)

func (v Verdict) String() string {
	switch v {
	case VerdictUntested:
		return "untested"
	case VerdictAccepted:
		return "accepted"
	case VerdictRejected:
		return "rejected"
	case VerdictUndeterminable:
		return "undeterminable"
	default:
		return "unknown"
	}
}

// TestKind names the feasibility test that last wrote a result slot.
type TestKind uint8

const (
	TestNone TestKind = iota
	TestUBT
	TestTDA
	TestWCS
)

func (k TestKind) String() string {
	switch k {
	case TestNone:
		return "none"
	case TestUBT:
		return "UBT"
	case TestTDA:
		return "TDA"
	case TestWCS:
		return "WCS"
	default:
		return "unknown"
	}
}

// ParseTestKind accepts the exact tests only, case insensitive.
func ParseTestKind(name string) (TestKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "tda":
		return TestTDA, nil
	case "wcs":
		return TestWCS, nil
	default:
		return TestNone,
			fmt.Errorf("%w: %q", ErrUnknownTest, name)
	}
}

// Result is the acceptance outcome of one task plus the diagnostic figures of
// the tests that ran for it.
type Result struct {
	Fault error // set only when Verdict is VerdictUndeterminable

	UtilizationAtTest float64
	UtilizationBound  float64

	ResponseTimeMs        int64
	WorstCaseCompletionMs int64 // meaningful only if WCSEvaluated
	Iterations            int

	Verdict      Verdict
	DecidedBy    TestKind
	Accepted     bool
	WCSEvaluated bool
}

func (r *Result) setVerdict(test TestKind, accepted bool) {
	r.Accepted = accepted
	r.DecidedBy = test
	r.Fault = nil
	r.Verdict = ternary(accepted, VerdictAccepted, VerdictRejected)
}

func (r *Result) setFault(fault *AnalysisFault) {
	r.Accepted = false
	r.DecidedBy = fault.Test
	r.Fault = fault
	r.Verdict = VerdictUndeterminable
	r.Iterations = fault.Iterations
}

// Results is the caller-owned result table, one slot per task of a task set.
// Slots below Evaluated() are final; only the slot at Evaluated() is writable.
type Results struct {
	slots []Result
	next  int
}

func NewResults(set *TaskSet) *Results {
	return &Results{
		slots: make([]Result, set.Len()),
	}
}

func (r *Results) Len() int { return len(r.slots) }

// Evaluated returns how many tasks already hold a final verdict, which is also
// the index of the next task to evaluate.
func (r *Results) Evaluated() int { return r.next }

func (r *Results) At(ix int) Result { return r.slots[ix] }

// Slice returns a copy of every slot.
func (r *Results) Slice() []Result {
	result := make([]Result, len(r.slots))
	copy(result, r.slots)

	return result
}

// AcceptedCount counts the tasks accepted so far.
func (r *Results) AcceptedCount() int {
	var count int

	for ix := 0; ix < r.next; ix++ {
		if r.slots[ix].Accepted {
			count++
		}
	}

	return count
}

func (r *Results) checkSlot(set *TaskSet, ix int) error {
	if set.Len() != len(r.slots) {
		return fmt.Errorf(
			"%w: %d tasks, %d slots",
			ErrSizeMismatch,
			set.Len(),
			len(r.slots),
		)
	}

	if ix < 0 || ix >= len(r.slots) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, ix)
	}

	if ix != r.next {
		return fmt.Errorf(
			"%w: got %d, next is %d",
			ErrOutOfOrder,
			ix,
			r.next,
		)
	}

	return nil
}

func (r *Results) slot(ix int) *Result { return &r.slots[ix] }

func (r *Results) commit() { r.next++ }

// interferers returns the accepted tasks with a higher priority than ix.
func (r *Results) interferers(set *TaskSet, ix int) []Task {
	result := make([]Task, 0, ix)

	for i := 0; i < ix; i++ {
		if r.slots[i].Accepted {
			result = append(result, set.At(i))
		}
	}

	return result
}

// Admitted returns the accepted tasks in priority order.
func (r *Results) Admitted(set *TaskSet) []Task {
	result := make([]Task, 0, r.next)

	for ix := 0; ix < r.next; ix++ {
		if r.slots[ix].Accepted {
			result = append(result, set.At(ix))
		}
	}

	return result
}
