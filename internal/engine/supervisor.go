package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bamsammich/statwalk/internal/event"
	"github.com/bamsammich/statwalk/internal/stats"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// Supervisor runs tasks on their own goroutines and records how each one
// ended. A failed task never cancels its siblings; the one exception is a
// *PipelineSpawnError, which cancels the run with that error as the cause.
type Supervisor struct {
	group  errgroup.Group
	cancel context.CancelCauseFunc
	events chan<- event.Event
	stats  stats.Writer

	nextID atomic.Uint64

	mu       sync.Mutex
	statuses []TaskStatus
	failures *multierror.Error
}

// NewSupervisor creates a supervisor. cancel, events and st may be nil.
func NewSupervisor(cancel context.CancelCauseFunc, events chan<- event.Event, st stats.Writer) *Supervisor {
	return &Supervisor{cancel: cancel, events: events, stats: st}
}

// Spawn assigns the next task ID and starts fn. IDs start at 1 and are
// unique for the lifetime of the supervisor.
func (s *Supervisor) Spawn(kind TaskKind, entry string, fn func() error) uint64 {
	id := s.nextID.Add(1)
	if s.stats != nil {
		s.stats.AddTasksStarted(1)
	}
	emitEvent(s.events, event.Event{
		Type:   event.TaskStarted,
		TaskID: id,
		Task:   kind.String(),
		Path:   entry,
	})

	s.group.Go(func() error {
		start := time.Now()
		err := fn()
		s.finish(TaskStatus{
			ID:      id,
			Kind:    kind,
			Entry:   entry,
			Code:    exitCode(err),
			Err:     err,
			Elapsed: time.Since(start),
		})
		return nil
	})
	return id
}

func (s *Supervisor) finish(st TaskStatus) {
	if s.stats != nil {
		s.stats.AddTasksDone(1)
	}
	ev := event.Event{
		Type:   event.TaskCompleted,
		TaskID: st.ID,
		Task:   st.Kind.String(),
		Path:   st.Entry,
		Code:   st.Code,
	}

	if st.Err != nil {
		ev.Type = event.TaskFailed
		ev.Error = st.Err
		slog.Warn("task failed",
			"id", st.ID,
			"kind", st.Kind.String(),
			"entry", st.Entry,
			"code", st.Code,
			"error", st.Err,
		)
		if s.stats != nil {
			s.stats.AddTasksFailed(1)
		}

		var spawnErr *PipelineSpawnError
		if errors.As(st.Err, &spawnErr) && s.cancel != nil {
			s.cancel(st.Err)
		}
	} else {
		slog.Debug("task completed", "id", st.ID, "kind", st.Kind.String(), "entry", st.Entry)
	}

	s.mu.Lock()
	s.statuses = append(s.statuses, st)
	if st.Err != nil {
		s.failures = multierror.Append(s.failures,
			fmt.Errorf("task %d (%s %s): %w", st.ID, st.Kind, st.Entry, st.Err))
	}
	s.mu.Unlock()

	// Status lines are printed from these events, so they are never dropped.
	sendEvent(s.events, ev)
}

// Wait blocks until every spawned task has finished. It returns the
// statuses in completion order and the combined task failures, if any.
func (s *Supervisor) Wait() ([]TaskStatus, error) {
	_ = s.group.Wait() //nolint:errcheck // tasks report through finish, never through the group

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskStatus, len(s.statuses))
	copy(out, s.statuses)
	return out, s.failures.ErrorOrNil()
}

// emitEvent sends e without blocking; progress events may be dropped when
// the consumer falls behind.
func emitEvent(ch chan<- event.Event, e event.Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}

// sendEvent sends e, blocking until the consumer takes it.
func sendEvent(ch chan<- event.Event, e event.Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	ch <- e
}
