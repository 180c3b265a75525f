package engine

import (
	"os"
	"time"
)

// Kind identifies the kind of directory entry.
type Kind int

const (
	Regular Kind = iota
	Bitmap
	Symlink
	Directory
	Other // fifos, sockets, devices: skipped
)

var kindNames = [...]string{
	Regular:   "regular",
	Bitmap:    "bitmap",
	Symlink:   "symlink",
	Directory: "directory",
	Other:     "other",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Entry is an immutable snapshot of one directory entry, taken when it is
// dispatched.
type Entry struct {
	Name       string
	Path       string // absolute
	ModTime    time.Time
	Size       int64
	TargetSize int64 // symlinks only: size of the resolved target
	Nlink      uint64
	Perm       os.FileMode // permission bits only
	UID        uint32
	Kind       Kind
}

// TaskKind identifies the work a supervised task performs.
type TaskKind int

const (
	TaskReport TaskKind = iota + 1
	TaskGrayscale
	TaskSource
	TaskFilter
)

var taskKindNames = [...]string{
	TaskReport:    "report",
	TaskGrayscale: "grayscale",
	TaskSource:    "source",
	TaskFilter:    "filter",
}

func (k TaskKind) String() string {
	if k > 0 && int(k) < len(taskKindNames) {
		return taskKindNames[k]
	}
	return "unknown"
}

// TaskStatus records how a supervised task ended.
type TaskStatus struct {
	Err     error
	Entry   string
	Elapsed time.Duration
	ID      uint64
	Code    int
	Kind    TaskKind
}
