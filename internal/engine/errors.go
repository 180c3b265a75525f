package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
)

// StatError reports that an entry's metadata could not be read. It is
// fatal for that entry only.
type StatError struct {
	Err  error
	Op   string
	Path string
}

func (e *StatError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, cause(e.Path, e.Err))
}

func (e *StatError) Unwrap() error { return e.Err }

// IOError reports an open, read, write or create failure inside a task.
type IOError struct {
	Err  error
	Op   string
	Path string
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, cause(e.Path, e.Err))
}

func (e *IOError) Unwrap() error { return e.Err }

// PipelineSpawnError reports that a pipeline task could not be started.
// It aborts the whole run.
type PipelineSpawnError struct {
	Err   error
	Entry string
}

func (e *PipelineSpawnError) Error() string {
	return fmt.Sprintf("spawn pipeline for %s: %v", e.Entry, e.Err)
}

func (e *PipelineSpawnError) Unwrap() error { return e.Err }

// cause drops the path from err when err is a *fs.PathError for the same
// path, so messages name it once.
func cause(path string, err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Path == path {
		return pathErr.Err
	}
	return err
}

// asIOError wraps filesystem path errors so callers can match them as
// *IOError. Other errors pass through unchanged.
func asIOError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return err
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return &IOError{Op: op, Path: pathErr.Path, Err: err}
	}
	return err
}

// exitCode maps a task error to the status code the supervisor reports.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode()
	}
	return 1
}
