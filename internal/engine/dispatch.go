package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/bamsammich/statwalk/internal/bmp"
	"github.com/bamsammich/statwalk/internal/event"
	"github.com/bamsammich/statwalk/internal/filter"
	"github.com/bamsammich/statwalk/internal/report"
	"github.com/bamsammich/statwalk/internal/stats"
	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"
)

// dispatcher turns entries into supervised tasks. At most slots entries
// have tasks in flight; an entry's slot is released when all of its tasks
// and its pipeline join have finished.
type dispatcher struct {
	sup      *Supervisor
	sem      *semaphore.Weighted
	pipeline *Pipeline
	filter   *filter.Chain
	events   chan<- event.Event
	stats    stats.Writer
	fs       afero.Fs
	root     string
	outDir   string
	verify   bool

	inflight sync.WaitGroup
}

// dispatch spawns the tasks for e. It blocks while every slot is taken and
// returns an error only when ctx ends first.
func (d *dispatcher) dispatch(ctx context.Context, e Entry) error {
	if e.Kind == Other {
		d.skip(e, "unsupported file type")
		return nil
	}
	if d.filter != nil {
		v := d.filter.Decide(d.candidate(e))
		if !v.Allowed {
			d.skip(e, v.Rule)
			return nil
		}
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	var tasks sync.WaitGroup
	spawn := func(kind TaskKind, entry string, fn func() error) {
		tasks.Add(1)
		d.sup.Spawn(kind, entry, func() error {
			defer tasks.Done()
			return fn()
		})
	}

	spawn(TaskReport, e.Name, func() error { return d.reportTask(e) })
	switch e.Kind {
	case Bitmap:
		spawn(TaskGrayscale, e.Name, func() error { return d.grayscaleTask(e) })
	case Regular:
		joined := d.pipeline.Start(ctx, e, spawn)
		tasks.Add(1)
		go func() {
			<-joined
			tasks.Done()
		}()
	}

	d.inflight.Add(1)
	go func() {
		tasks.Wait()
		d.sem.Release(1)
		d.inflight.Done()
	}()
	return nil
}

// wait blocks until every dispatched entry has released its slot.
func (d *dispatcher) wait() {
	d.inflight.Wait()
}

func (d *dispatcher) candidate(e Entry) filter.Candidate {
	rel, err := filepath.Rel(d.root, e.Path)
	if err != nil {
		rel = e.Name
	}
	return filter.Candidate{
		Path:  filepath.ToSlash(rel),
		Size:  e.Size,
		Dir:   e.Kind == Directory,
		Sized: e.Kind == Regular || e.Kind == Bitmap,
	}
}

func (d *dispatcher) skip(e Entry, reason string) {
	if d.stats != nil {
		d.stats.AddEntriesSkipped(1)
	}
	slog.Debug("entry skipped", "entry", e.Name, "kind", e.Kind.String(), "reason", reason)
	emitEvent(d.events, event.Event{Type: event.EntrySkipped, Path: e.Name, Size: e.Size})
}

func (d *dispatcher) reportTask(e Entry) error {
	s := report.Stats{
		Name:       e.Name,
		ModTime:    e.ModTime,
		Size:       e.Size,
		TargetSize: e.TargetSize,
		Nlink:      e.Nlink,
		Perm:       e.Perm,
		UID:        e.UID,
	}

	switch e.Kind {
	case Regular:
		s.Kind = report.Regular
	case Bitmap:
		s.Kind = report.Bitmap
		w, h, err := bitmapDimensions(e.Path)
		if err != nil {
			return err
		}
		s.Width, s.Height = w, h
	case Symlink:
		s.Kind = report.Symlink
	case Directory:
		s.Kind = report.Directory
		s.Owner = report.OwnerName(e.UID)
	default:
		return fmt.Errorf("report %s: unsupported kind %s", e.Name, e.Kind)
	}

	path, err := report.Write(d.fs, d.outDir, s)
	if err != nil {
		return asIOError("write report", err)
	}
	if d.stats != nil {
		d.stats.AddReportsWritten(1)
	}
	slog.Debug("report written", "entry", e.Name, "path", path)
	return nil
}

func (d *dispatcher) grayscaleTask(e Entry) error {
	res, err := bmp.ConvertFile(e.Path, bmp.ConvertOptions{Verify: d.verify})
	if err != nil {
		return asIOError("convert", err)
	}
	if d.stats != nil {
		d.stats.AddImagesConverted(1)
	}
	slog.Debug("bitmap converted",
		"entry", e.Name,
		"width", res.Width,
		"height", res.Height,
		"pixel_bytes", res.PixelBytes,
		"header_blake3", res.HeaderDigest,
	)
	return nil
}

// bitmapDimensions reads the width and height from the bitmap at path.
func bitmapDimensions(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	_, info, err := bmp.ReadHeader(f)
	if err != nil {
		return 0, 0, fmt.Errorf("read header %s: %w", path, err)
	}
	width, height = info.Dimensions()
	return width, height, nil
}
