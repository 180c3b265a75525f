// Package engine walks a directory and runs the per-entry tasks: reports,
// bitmap grayscale conversion and scorer pipelines.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/bamsammich/statwalk/internal/event"
	"github.com/bamsammich/statwalk/internal/filter"
	"github.com/bamsammich/statwalk/internal/stats"
	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"
)

// OutputDirMode is the mode used when the output directory is created.
const OutputDirMode os.FileMode = 0o755

// Config describes one run.
type Config struct {
	Events chan<- event.Event // optional
	Filter *filter.Chain      // optional
	Stats  *stats.Collector   // optional
	Fs     afero.Fs           // report output; defaults to the OS filesystem

	Src    string
	Dst    string
	Target string // passed to the scorer as its last argument
	Scorer string // scorer command line; DefaultScorer when empty

	Workers     int   // entries in flight
	ScanWorkers int   // directory listers in recursive mode
	BWLimit     int64 // bytes/s across all sources; 0 is unlimited

	Recursive bool
	Verify    bool
}

// Result is the outcome of a run.
type Result struct {
	Statuses []TaskStatus
	Stats    stats.Snapshot
	Total    int64 // sum of all pipeline scalars
	Err      error // run-fatal error; nil when the walk completed
	TaskErr  error // combined task failures
}

// Failed reports whether any task ended with a non-zero code.
func (r Result) Failed() bool {
	return r.TaskErr != nil
}

// Run walks cfg.Src, blocking until every spawned task has finished.
func Run(ctx context.Context, cfg Config) Result {
	collector := cfg.Stats
	if collector == nil {
		collector = stats.NewCollector()
	}

	scorerLine := cfg.Scorer
	if scorerLine == "" {
		scorerLine = DefaultScorer
	}
	scorer, err := ParseScorer(scorerLine)
	if err != nil {
		return Result{Err: err, Stats: collector.Snapshot()}
	}

	root, err := filepath.Abs(cfg.Src)
	if err != nil {
		return Result{Err: fmt.Errorf("source: %w", err), Stats: collector.Snapshot()}
	}

	fsys := cfg.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if err := fsys.MkdirAll(cfg.Dst, OutputDirMode); err != nil {
		return Result{Err: fmt.Errorf("create output directory: %w", err), Stats: collector.Snapshot()}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = min(runtime.NumCPU()*2, 32)
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	sup := NewSupervisor(cancel, cfg.Events, collector)
	p := &Pipeline{
		Agg:    &Aggregator{},
		Stats:  collector,
		Scorer: scorer,
		Target: cfg.Target,
	}
	if cfg.BWLimit > 0 {
		p.Limiter = NewBWLimiter(cfg.BWLimit)
	}

	d := &dispatcher{
		sup:      sup,
		sem:      semaphore.NewWeighted(int64(workers)),
		pipeline: p,
		filter:   cfg.Filter,
		events:   cfg.Events,
		stats:    collector,
		fs:       fsys,
		root:     root,
		outDir:   cfg.Dst,
		verify:   cfg.Verify,
	}

	slog.Debug("starting walk",
		"src", root,
		"dst", cfg.Dst,
		"workers", workers,
		"recursive", cfg.Recursive,
		"scorer", scorer.String(),
	)

	scanner := NewScanner(ScannerConfig{
		Root:      root,
		Workers:   cfg.ScanWorkers,
		Recursive: cfg.Recursive,
	})
	emitEvent(cfg.Events, event.Event{Type: event.ScanStarted, Path: root})
	entries, scanErrs := scanner.Scan(runCtx)

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for err := range scanErrs {
			collector.AddEntriesFailed(1)
			slog.Warn("entry failed", "error", err)
			emitEvent(cfg.Events, event.Event{Type: event.EntryFailed, Path: failedPath(err), Error: err})
		}
	}()

	var found int64
	for e := range entries {
		found++
		collector.AddEntriesScanned(1)
		emitEvent(cfg.Events, event.Event{Type: event.EntryFound, Path: e.Name, Size: e.Size})
		if err := d.dispatch(runCtx, e); err != nil {
			slog.Debug("dispatch stopped", "entry", e.Name, "error", err)
		}
	}
	<-drained
	emitEvent(cfg.Events, event.Event{Type: event.ScanComplete, Total: found})

	d.wait()
	statuses, taskErr := sup.Wait()

	res := Result{
		Statuses: statuses,
		Stats:    collector.Snapshot(),
		Total:    p.Agg.Total(),
		TaskErr:  taskErr,
	}
	switch {
	case scanner.Err() != nil:
		res.Err = scanner.Err()
	case context.Cause(runCtx) != nil && !errors.Is(context.Cause(runCtx), context.Canceled):
		res.Err = context.Cause(runCtx)
	case ctx.Err() != nil:
		res.Err = ctx.Err()
	}
	slog.Debug("walk finished", "total", res.Total, "stats", res.Stats.String())
	return res
}

func failedPath(err error) string {
	var statErr *StatError
	if errors.As(err, &statErr) {
		return filepath.Base(statErr.Path)
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return filepath.Base(ioErr.Path)
	}
	return ""
}
