package ui

import (
	"io"
	"time"

	"github.com/bamsammich/statwalk/internal/stats"
)

// Presenter consumes events and displays progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan Event) error
	// Summary returns the final summary line.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	Writer    io.Writer // task status lines
	ErrWriter io.Writer // progress and diagnostics
	Stats     stats.Reader
	// ProgressEvery is the progress interval; zero disables progress.
	ProgressEvery time.Duration
	IsTTY         bool // ErrWriter is a terminal
	Quiet         bool
	Verbose       bool
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // callers only need the Presenter behavior
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return &quietPresenter{}
	}
	return &plainPresenter{
		w:        cfg.Writer,
		errW:     cfg.ErrWriter,
		stats:    cfg.Stats,
		interval: cfg.ProgressEvery,
		isTTY:    cfg.IsTTY,
		verbose:  cfg.Verbose,
	}
}
