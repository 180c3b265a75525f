package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bamsammich/statwalk/internal/stats"
	"golang.org/x/time/rate"
)

// maxScalarBytes bounds how much scorer output the join parses.
const maxScalarBytes = 64

// Pipeline chains a source task into a filter task for one regular file
// and hands the filter's scalar to the aggregator.
//
// Channel A carries the file's bytes from source to scorer stdin. Channel B
// carries the scorer's stdout to the join. Each write end is closed exactly
// once by the task that owns it.
type Pipeline struct {
	Agg     *Aggregator
	Limiter *rate.Limiter // nil disables throttling
	Stats   stats.Writer
	Scorer  Scorer
	Target  string
}

// spawnFunc starts a supervised task.
type spawnFunc func(kind TaskKind, entry string, fn func() error)

// Start spawns the source and filter tasks for e and a join goroutine. The
// returned channel is closed once the scalar has been added. A pipeline in
// which either task failed contributes 0.
func (p *Pipeline) Start(ctx context.Context, e Entry, spawn spawnFunc) <-chan struct{} {
	ar, aw := io.Pipe()
	br, bw := io.Pipe()
	done := make(chan struct{})

	var (
		tasks  sync.WaitGroup
		failed atomic.Bool
	)
	track := func(fn func() error) func() error {
		tasks.Add(1)
		return func() error {
			defer tasks.Done()
			err := fn()
			if err != nil {
				failed.Store(true)
			}
			return err
		}
	}

	spawn(TaskSource, e.Name, track(func() error {
		return p.source(ctx, e, aw)
	}))
	spawn(TaskFilter, e.Name, track(func() error {
		return p.filter(ctx, e, ar, bw)
	}))

	go func() {
		defer close(done)
		n := readScalar(br)
		// Channel B reaches EOF only after the filter closed channel A, so
		// the source cannot stay blocked here.
		tasks.Wait()
		if failed.Load() {
			slog.Debug("pipeline failed, scalar discarded", "entry", e.Name, "value", n)
			n = 0
		}
		p.Agg.Add(n)
		if p.Stats != nil {
			p.Stats.AddPipelinesRun(1)
		}
		slog.Debug("pipeline joined", "entry", e.Name, "value", n)
	}()

	return done
}

// source copies the file into channel A unmodified.
func (p *Pipeline) source(ctx context.Context, e Entry, w *io.PipeWriter) (err error) {
	defer func() {
		w.CloseWithError(err) //nolint:errcheck // always nil
	}()

	f, err := os.Open(e.Path)
	if err != nil {
		return &IOError{Op: "open", Path: e.Path, Err: err}
	}
	defer f.Close()

	n, err := io.Copy(w, newRateLimitedReader(ctx, f, p.Limiter))
	if p.Stats != nil {
		p.Stats.AddBytesStreamed(n)
	}
	if errors.Is(err, io.ErrClosedPipe) {
		// The scorer stopped reading before EOF.
		slog.Debug("scorer closed input early", "entry", e.Name, "streamed", n)
		return nil
	}
	if err != nil {
		return asIOError("read", err)
	}
	return nil
}

// filter runs the scorer between channel A and channel B.
func (p *Pipeline) filter(ctx context.Context, e Entry, r *io.PipeReader, w *io.PipeWriter) error {
	defer w.Close()
	defer r.Close()

	cmd := p.Scorer.Command(ctx, p.Target)
	cmd.Stdin = r
	cmd.Stdout = w

	if err := cmd.Start(); err != nil {
		return &PipelineSpawnError{Entry: e.Name, Err: err}
	}
	return cmd.Wait()
}

// readScalar reads r to EOF and parses the leading decimal digits of the
// first whitespace-separated token within the first maxScalarBytes bytes.
// Anything without leading digits counts as 0.
func readScalar(r io.ReadCloser) int64 {
	defer r.Close()

	buf, _ := io.ReadAll(io.LimitReader(r, maxScalarBytes)) //nolint:errcheck // short output parses as 0
	_, _ = io.Copy(io.Discard, r)                          //nolint:errcheck // drain so the scorer can exit

	fields := strings.Fields(string(buf))
	if len(fields) == 0 {
		return 0
	}
	tok := fields[0]
	end := 0
	for end < len(tok) && tok[end] >= '0' && tok[end] <= '9' {
		end++
	}
	n, err := strconv.ParseInt(tok[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
