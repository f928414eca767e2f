// internal/sched/scheduler.go

package sched

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/sirupsen/logrus"

	"rtadmit/internal/admission"
	"rtadmit/internal/job"
)

var ErrAlreadyRan = errors.New("scheduler already ran")

// Options bound the simulated horizon.
type Options struct {
	Logger logrus.FieldLogger

	Hyperperiods int   // how many hyperperiods to simulate, at least 1
	HorizonCapMs int64 // upper bound of the simulated time, 0 = no cap
}

// TaskStats summarizes the jobs of one task over the horizon.
type TaskStats struct {
	TaskID string `yaml:"task"`
	Rank   int    `yaml:"rank"`

	Released       int   `yaml:"released"`
	Completed      int   `yaml:"completed"`
	DeadlineMisses int   `yaml:"deadline_misses"`
	MaxResponseMs  int64 `yaml:"max_response_ms"`
}

type Report struct {
	Tasks []TaskStats `yaml:"tasks"`

	HorizonMs   int64 `yaml:"horizon_ms"`
	IdleTicks   int64 `yaml:"idle_ticks"`
	Preemptions int   `yaml:"preemptions"`
}

// Scheduler replays fixed-priority preemptive dispatch of periodic tasks in
// virtual time, one millisecond per tick, starting from a synchronous release.
type Scheduler struct {
	// Scheduler-related
	mu       sync.Mutex
	ran      bool
	clock    *TickClock
	horizon  int64
	rbt      *redblacktree.Tree // ready jobs ordered by priority rank, then release
	tasks    []*Task
	statusCh chan StatusEvent

	// consumer-side state, touched only by Run
	stats  map[string]*TaskStats
	report Report
	log    logrus.FieldLogger

	// logging-related
	csvFile   *os.File
	csvWriter *csv.Writer
}

// New creates a scheduler for the given tasks. Ranks must be unique, as they
// are in a validated task set.
func New(tasks []admission.Task, opts *Options) *Scheduler {
	if opts == nil {
		opts = &Options{}
	}

	logger := opts.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)

		logger = discard
	}

	s := Scheduler{
		clock:    NewTickClock(),
		horizon:  Horizon(tasks, opts.Hyperperiods, opts.HorizonCapMs),
		rbt:      redblacktree.NewWith(cmp),
		tasks:    make([]*Task, 0, len(tasks)),
		statusCh: make(chan StatusEvent, 256), // buffered channel for status events
		stats:    make(map[string]*TaskStats, len(tasks)),
		log:      logger,
	}

	for _, desc := range tasks {
		s.tasks = append(s.tasks, NewTask(desc))

		stats := TaskStats{
			TaskID: desc.ID,
			Rank:   desc.PriorityRank,
		}
		s.stats[desc.ID] = &stats
	}

	s.report.HorizonMs = s.horizon

	return &s
}

// EnableCSVLogging opens the given file path for CSV logging of events.
// Must be called before Run().
func (s *Scheduler) EnableCSVLogging(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)

	// write header
	if err := w.Write([]string{"tick", "event", "task_id", "release", "remaining", "response_ms"}); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	s.csvFile = f
	s.csvWriter = w
	return nil
}

// Now returns the current virtual time.
func (s *Scheduler) Now() int64 { return s.clock.Count() }

func (s *Scheduler) Horizon() int64 { return s.horizon }

// Run drives the whole horizon and returns per-task statistics.
// It can be called once.
func (s *Scheduler) Run(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	if s.ran {
		s.mu.Unlock()
		return nil, ErrAlreadyRan
	}
	s.ran = true
	s.mu.Unlock()

	// start loop
	go s.loop(ctx)

	// consume events
	var errCSV error
	for ev := range s.statusCh {
		if err := s.handleEvent(ev); err != nil && errCSV == nil {
			errCSV = err
		}
	}

	if s.csvFile != nil {
		s.csvWriter.Flush()
		errCSV = errors.Join(errCSV, s.csvWriter.Error(), s.csvFile.Close())
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if errCSV != nil {
		return nil, fmt.Errorf("csv trace: %w", errCSV)
	}

	return s.buildReport(), nil
}

// loop runs the dispatch loop: one iteration per virtual tick.
func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.statusCh)

	var running *job.Job

	for {
		// 1) check shutdown
		if ctx.Err() != nil {
			return
		}

		now := s.clock.Count()

		// 2) deadlines fall on release instants, check them before releasing
		s.checkDeadlines(now)
		if now >= s.horizon {
			return
		}

		// 3) release due jobs
		for _, t := range s.tasks {
			if j := t.release(now); j != nil {
				s.rbt.Put(nodeKey{rank: j.Rank, release: j.Release}, j)
				s.statusCh <- jobEvent(StatusRelease, now, j)
			}
		}

		// 4) idle case: nothing ready, still advance one tick
		node := s.rbt.Left()
		if node == nil {
			s.statusCh <- StatusEvent{
				Tick: now,
				Kind: StatusIdle,
			}
			s.clock.Advance()
			continue
		}

		// 5) dispatch the highest priority ready job, preempting the running one
		j := node.Value.(*job.Job)
		if j != running {
			if running != nil && !running.Done() {
				s.statusCh <- jobEvent(StatusPreempt, now, running)
			}
			s.statusCh <- jobEvent(StatusDispatch, now, j)
			running = j
		}

		// 6) run exactly one tick
		j.Run(1)
		now = s.clock.Advance()

		if j.Done() {
			s.rbt.Remove(node.Key)
			running = nil

			ev := jobEvent(StatusFinish, now, j)
			ev.ResponseMs = j.ResponseTime(now)
			s.statusCh <- ev
		}
	}
}

// checkDeadlines reports every ready job whose deadline is reached at now.
// Late jobs stay queued and keep running.
func (s *Scheduler) checkDeadlines(now int64) {
	for _, value := range s.rbt.Values() {
		j := value.(*job.Job)
		if j.Missed || !j.Overdue(now) {
			continue
		}

		j.Missed = true
		s.statusCh <- jobEvent(StatusDeadlineMiss, now, j)
	}
}

func jobEvent(kind StatusKind, now int64, j *job.Job) StatusEvent {
	return StatusEvent{
		TaskID:    j.TaskID,
		Tick:      now,
		Release:   j.Release,
		Remaining: j.Remaining,
		Kind:      kind,
	}
}

func (s *Scheduler) handleEvent(ev StatusEvent) error {
	stats := s.stats[ev.TaskID]

	switch ev.Kind {
	case StatusIdle:
		// idle ticks are frequent, count them but keep them out of the logs.
		s.report.IdleTicks++
		return nil
	case StatusRelease:
		stats.Released++
	case StatusPreempt:
		s.report.Preemptions++
	case StatusFinish:
		stats.Completed++
		stats.MaxResponseMs = max(stats.MaxResponseMs, ev.ResponseMs)
	case StatusDeadlineMiss:
		stats.DeadlineMisses++
	}

	entry := s.log.WithFields(logrus.Fields{
		"tick":      ev.Tick,
		"task":      ev.TaskID,
		"release":   ev.Release,
		"remaining": ev.Remaining,
	})

	if ev.Kind == StatusDeadlineMiss {
		entry.Warn(ev.Kind.String())
	} else {
		entry.Debug(ev.Kind.String())
	}

	// CSV output
	if s.csvWriter != nil {
		rec := []string{
			strconv.FormatInt(ev.Tick, 10),
			ev.Kind.String(),
			ev.TaskID,
			strconv.FormatInt(ev.Release, 10),
			strconv.FormatInt(ev.Remaining, 10),
			strconv.FormatInt(ev.ResponseMs, 10),
		}
		return s.csvWriter.Write(rec)
	}

	return nil
}

func (s *Scheduler) buildReport() *Report {
	report := s.report
	report.Tasks = make([]TaskStats, 0, len(s.tasks))

	for _, t := range s.tasks {
		report.Tasks = append(report.Tasks, *s.stats[t.ID])
	}

	return &report
}

// nodeKey is used as a key in the red-black tree.
type nodeKey struct {
	rank    int
	release int64
}

// cmp orders ready jobs by priority rank, then by release (oldest first).
func cmp(a, b any) int {
	ka, kb := a.(nodeKey), b.(nodeKey)
	switch {
	case ka.rank < kb.rank:
		return -1
	case ka.rank > kb.rank:
		return 1
	case ka.release < kb.release:
		return -1
	case ka.release > kb.release:
		return 1
	default:
		return 0
	}
}
