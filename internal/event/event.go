package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	ScanStarted Type = iota + 1
	ScanComplete
	EntryFound
	EntrySkipped
	EntryFailed
	TaskStarted
	TaskCompleted
	TaskFailed
)

var typeNames = [...]string{
	ScanStarted:   "ScanStarted",
	ScanComplete:  "ScanComplete",
	EntryFound:    "EntryFound",
	EntrySkipped:  "EntrySkipped",
	EntryFailed:   "EntryFailed",
	TaskStarted:   "TaskStarted",
	TaskCompleted: "TaskCompleted",
	TaskFailed:    "TaskFailed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the engine.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // entry name
	Task      string // task kind (TaskStarted/TaskCompleted/TaskFailed)
	Size      int64  // entry size
	Total     int64  // total entries (ScanComplete)
	Error     error
	TaskID    uint64
	Code      int // task exit code
}
