package ui

import "github.com/bamsammich/statwalk/internal/event"

// Event is the engine's progress event.
type Event = event.Event

// Re-export event types for convenience.
const (
	ScanStarted   = event.ScanStarted
	ScanComplete  = event.ScanComplete
	EntryFound    = event.EntryFound
	EntrySkipped  = event.EntrySkipped
	EntryFailed   = event.EntryFailed
	TaskStarted   = event.TaskStarted
	TaskCompleted = event.TaskCompleted
	TaskFailed    = event.TaskFailed
)
