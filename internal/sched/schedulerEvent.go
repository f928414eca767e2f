// internal/sched/schedulerEvent.go

package sched

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusRelease
	StatusDispatch
	StatusPreempt
	StatusFinish
	StatusDeadlineMiss
)

// StatusEvent is emitted on every idle tick and on key actions
type StatusEvent struct {
	TaskID string

	Tick       int64
	Release    int64 // release tick of the job concerned
	Remaining  int64 // execution budget left
	ResponseMs int64 // set on StatusFinish

	Kind StatusKind
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusRelease:
		return "Release"
	case StatusDispatch:
		return "Dispatch"
	case StatusPreempt:
		return "Preempt"
	case StatusFinish:
		return "Finish"
	case StatusDeadlineMiss:
		return "DeadlineMiss"
	default:
		return "Unknown"
	}
}
