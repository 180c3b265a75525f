package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Writer is the engine-facing side of the collector.
type Writer interface {
	AddEntriesScanned(n int64)
	AddEntriesSkipped(n int64)
	AddEntriesFailed(n int64)
	AddReportsWritten(n int64)
	AddImagesConverted(n int64)
	AddPipelinesRun(n int64)
	AddTasksStarted(n int64)
	AddTasksDone(n int64)
	AddTasksFailed(n int64)
	AddBytesStreamed(n int64)
}

// Reader is the presenter-facing side of the collector.
type Reader interface {
	Snapshot() Snapshot
}

// Collector tracks run statistics using lock-free atomic counters.
type Collector struct {
	entriesScanned  atomic.Int64
	entriesSkipped  atomic.Int64
	entriesFailed   atomic.Int64
	reportsWritten  atomic.Int64
	imagesConverted atomic.Int64
	pipelinesRun    atomic.Int64
	tasksStarted    atomic.Int64
	tasksDone       atomic.Int64
	tasksFailed     atomic.Int64
	bytesStreamed   atomic.Int64
	startTime       time.Time
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	EntriesScanned  int64
	EntriesSkipped  int64
	EntriesFailed   int64
	ReportsWritten  int64
	ImagesConverted int64
	PipelinesRun    int64
	TasksStarted    int64
	TasksDone       int64
	TasksFailed     int64
	BytesStreamed   int64
	Elapsed         time.Duration
}

func (c *Collector) AddEntriesScanned(n int64)  { c.entriesScanned.Add(n) }
func (c *Collector) AddEntriesSkipped(n int64)  { c.entriesSkipped.Add(n) }
func (c *Collector) AddEntriesFailed(n int64)   { c.entriesFailed.Add(n) }
func (c *Collector) AddReportsWritten(n int64)  { c.reportsWritten.Add(n) }
func (c *Collector) AddImagesConverted(n int64) { c.imagesConverted.Add(n) }
func (c *Collector) AddPipelinesRun(n int64)    { c.pipelinesRun.Add(n) }
func (c *Collector) AddTasksStarted(n int64)    { c.tasksStarted.Add(n) }
func (c *Collector) AddTasksDone(n int64)       { c.tasksDone.Add(n) }
func (c *Collector) AddTasksFailed(n int64)     { c.tasksFailed.Add(n) }
func (c *Collector) AddBytesStreamed(n int64)   { c.bytesStreamed.Add(n) }

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		EntriesScanned:  c.entriesScanned.Load(),
		EntriesSkipped:  c.entriesSkipped.Load(),
		EntriesFailed:   c.entriesFailed.Load(),
		ReportsWritten:  c.reportsWritten.Load(),
		ImagesConverted: c.imagesConverted.Load(),
		PipelinesRun:    c.pipelinesRun.Load(),
		TasksStarted:    c.tasksStarted.Load(),
		TasksDone:       c.tasksDone.Load(),
		TasksFailed:     c.tasksFailed.Load(),
		BytesStreamed:   c.bytesStreamed.Load(),
		Elapsed:         c.Elapsed(),
	}
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	if c.startTime.IsZero() {
		return 0
	}
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"entries=%d skipped=%d failed=%d reports=%d images=%d pipelines=%d tasks=%d task_failures=%d bytes=%d",
		s.EntriesScanned, s.EntriesSkipped, s.EntriesFailed, s.ReportsWritten,
		s.ImagesConverted, s.PipelinesRun, s.TasksStarted, s.TasksFailed, s.BytesStreamed,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
