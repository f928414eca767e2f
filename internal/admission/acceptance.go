package admission

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

// Options tunes the orchestrator. The zero value selects TDA as the exact test
// with derived iteration caps and no logging.
type Options struct {
	Logger logrus.FieldLogger

	// ExactTest decides tasks the utilization bound cannot accept.
	// TestNone means TestTDA.
	ExactTest TestKind

	// MaxIterations overrides the derived iteration cap when positive.
	MaxIterations int

	// Diagnostics also runs WCS next to TDA to fill WorstCaseCompletionMs.
	// The WCS figure never changes the verdict.
	Diagnostics bool
}

// Orchestrator sequences the acceptance tests for one task set, in priority
// order, writing into a caller-owned result table.
// It is not safe for concurrent use.
type Orchestrator struct {
	set     *TaskSet
	results *Results
	log     logrus.FieldLogger

	exact         TestKind
	maxIterations int
	diagnostics   bool
}

func NewOrchestrator(set *TaskSet, results *Results, opts *Options) (*Orchestrator, error) {
	if set.Len() != results.Len() {
		return nil,
			ErrSizeMismatch
	}

	if opts == nil {
		opts = &Options{}
	}

	exact := ternary(opts.ExactTest == TestNone, TestTDA, opts.ExactTest)
	if exact != TestTDA && exact != TestWCS {
		return nil,
			ErrUnknownTest
	}

	logger := opts.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)

		logger = discard
	}

	return &Orchestrator{
			set:     set,
			results: results,
			log:     logger,

			exact:         exact,
			maxIterations: opts.MaxIterations,
			diagnostics:   opts.Diagnostics,
		},
		nil
}

func (o *Orchestrator) Results() *Results { return o.results }

// Evaluate decides task ix, which must be the next unevaluated task.
// An analysis fault is both recorded in the slot and returned; the slot is
// final either way.
func (o *Orchestrator) Evaluate(ix int) (Result, error) {
	if errCheck := o.results.checkSlot(o.set, ix); errCheck != nil {
		return Result{}, errCheck
	}

	task := o.set.At(ix)
	logger := o.log.WithField("task", task.ID)

	slot := o.results.slot(ix)
	*slot = Result{}
	slot.setVerdict(TestNone, false)

	if errUBT := UtilizationBoundTest(o.set, ix, o.results); errUBT != nil {
		return Result{}, errUBT
	}

	logger.WithFields(logrus.Fields{
		"test":        TestUBT,
		"utilization": slot.UtilizationAtTest,
		"bound":       slot.UtilizationBound,
		"accepted":    slot.Accepted,
	}).Debug("utilization bound test")

	if slot.Accepted {
		return o.finish(logger, ix), nil
	}

	errExact := o.runExact(ix)

	if errExact == nil && o.diagnostics && o.exact == TestTDA {
		o.runDiagnosticWCS(logger, ix)
	}

	var fault *AnalysisFault
	if errors.As(errExact, &fault) {
		logger.WithError(fault).Warn("acceptance test undeterminable")

		return o.finish(logger, ix), fault
	}

	if errExact != nil {
		return Result{}, errExact
	}

	return o.finish(logger, ix), nil
}

// EvaluateAll evaluates every remaining task in priority order. Faults do not
// stop the walk; they are joined into the returned error.
func (o *Orchestrator) EvaluateAll() error {
	var faults []error

	for ix := o.results.Evaluated(); ix < o.set.Len(); ix++ {
		if _, errEval := o.Evaluate(ix); errEval != nil {
			var fault *AnalysisFault
			if !errors.As(errEval, &fault) {
				return errEval
			}

			faults = append(faults, errEval)
		}
	}

	return errors.Join(faults...)
}

func (o *Orchestrator) runExact(ix int) error {
	if o.exact == TestWCS {
		return worstCaseSimulation(o.set, ix, o.results, o.maxIterations)
	}

	return timeDemandAnalysis(o.set, ix, o.results, o.maxIterations)
}

// runDiagnosticWCS keeps the TDA verdict and only adds the WCS figure.
func (o *Orchestrator) runDiagnosticWCS(logger logrus.FieldLogger, ix int) {
	slot := o.results.slot(ix)
	decided := *slot

	errWCS := worstCaseSimulation(o.set, ix, o.results, o.maxIterations)

	completion, evaluated := slot.WorstCaseCompletionMs, slot.WCSEvaluated
	*slot = decided

	if errWCS != nil {
		logger.WithError(errWCS).Warn("diagnostic worst case simulation failed")

		return
	}

	slot.WorstCaseCompletionMs = completion
	slot.WCSEvaluated = evaluated
}

func (o *Orchestrator) finish(logger logrus.FieldLogger, ix int) Result {
	result := *o.results.slot(ix)
	o.results.commit()

	logger.WithFields(logrus.Fields{
		"decided_by":  result.DecidedBy,
		"verdict":     result.Verdict,
		"response_ms": result.ResponseTimeMs,
		"iterations":  result.Iterations,
	}).Debug("task evaluated")

	return result
}

// Admit evaluates a whole task set into a fresh result table.
func Admit(set *TaskSet, opts *Options) (*Results, error) {
	results := NewResults(set)

	orchestrator, errCr := NewOrchestrator(set, results, opts)
	if errCr != nil {
		return nil, errCr
	}

	return results, orchestrator.EvaluateAll()
}
