package engine

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// ScannerConfig controls scanner behavior.
type ScannerConfig struct {
	Root      string // absolute
	Workers   int
	Recursive bool
}

// Scanner lists a directory and emits an inspected Entry for each of its
// children. With Recursive set, subdirectories are listed as well by a
// bounded pool of goroutines.
type Scanner struct {
	cfg     ScannerConfig
	entries chan Entry
	errs    chan error

	rootErr error // set before entries is closed
}

// NewScanner creates a scanner with the given config.
func NewScanner(cfg ScannerConfig) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = min(runtime.NumCPU(), 8)
	}
	if !cfg.Recursive {
		cfg.Workers = 1
	}
	return &Scanner{
		cfg:     cfg,
		entries: make(chan Entry, cfg.Workers*4),
		errs:    make(chan error, cfg.Workers*4),
	}
}

// Scan starts the scanner and returns channels for entries and per-entry
// inspection errors. The caller must consume both until they close.
func (s *Scanner) Scan(ctx context.Context) (<-chan Entry, <-chan error) {
	go func() {
		defer close(s.entries)
		defer close(s.errs)
		s.scanTree(ctx)
	}()
	return s.entries, s.errs
}

// Err returns the error that stopped the root directory from being read.
// It is only meaningful after the entry channel has closed.
func (s *Scanner) Err() error {
	return s.rootErr
}

func (s *Scanner) scanTree(ctx context.Context) {
	queue := make(chan string)
	var outstanding sync.WaitGroup // directories queued but not yet listed

	var workers sync.WaitGroup
	for range s.cfg.Workers {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for dir := range queue {
				s.scanDir(ctx, dir, queue, &outstanding)
				outstanding.Done()
			}
		}()
	}

	outstanding.Add(1)
	queue <- s.cfg.Root

	outstanding.Wait()
	close(queue)
	workers.Wait()
}

func (s *Scanner) scanDir(ctx context.Context, dir string, queue chan<- string, outstanding *sync.WaitGroup) {
	names, err := readDirNames(dir)
	if err != nil {
		ioErr := &IOError{Op: "readdir", Path: dir, Err: err}
		if dir == s.cfg.Root {
			s.rootErr = ioErr
			return
		}
		s.sendErr(ctx, ioErr)
		return
	}

	for _, name := range names {
		if ctx.Err() != nil {
			return
		}

		e, err := Inspect(filepath.Join(dir, name))
		if err != nil {
			s.sendErr(ctx, err)
			continue
		}
		if !s.sendEntry(ctx, e) {
			return
		}

		if s.cfg.Recursive && e.Kind == Directory {
			outstanding.Add(1)
			// Queue from a separate goroutine so a worker never blocks on
			// a queue only workers drain.
			go func(path string) {
				select {
				case queue <- path:
				case <-ctx.Done():
					outstanding.Done()
				}
			}(e.Path)
		}
	}
}

// readDirNames lists dir in name order. os.ReadDir never returns the
// "." and ".." entries.
func readDirNames(dir string) ([]string, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(des))
	for i, de := range des {
		names[i] = de.Name()
	}
	return names, nil
}

func (s *Scanner) sendEntry(ctx context.Context, e Entry) bool {
	select {
	case s.entries <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Scanner) sendErr(ctx context.Context, err error) {
	select {
	case s.errs <- err:
	case <-ctx.Done():
	}
}
