package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/statwalk/internal/stats"
)

// plainPresenter prints one status line per finished task to w, and
// diagnostics and periodic progress to errW.
type plainPresenter struct {
	w        io.Writer
	errW     io.Writer
	stats    stats.Reader
	interval time.Duration
	isTTY    bool
	verbose  bool

	progressShown bool
}

func (p *plainPresenter) Run(events <-chan Event) error {
	var tick <-chan time.Time
	if p.interval > 0 && p.stats != nil {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clearProgress()
				return nil
			}
			p.handleEvent(ev)
		case <-tick:
			p.printProgress()
		}
	}
}

func (p *plainPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case TaskCompleted, TaskFailed:
		p.clearProgress()
		fmt.Fprintln(p.w, StatusLine(ev))
	case EntryFailed:
		p.clearProgress()
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		fmt.Fprintf(p.errW, "%s: %s\n", displayName(ev.Path), errMsg)
	case EntrySkipped:
		if p.verbose {
			p.clearProgress()
			fmt.Fprintf(p.errW, "%s  skipped\n", displayName(ev.Path))
		}
	case ScanComplete:
		if p.verbose {
			p.clearProgress()
			fmt.Fprintf(p.errW, "scan complete: %s entries\n", FormatCount(ev.Total))
		}
	}
}

// printProgress writes a progress line. On a terminal the line is redrawn in
// place; otherwise each tick appends a new line.
func (p *plainPresenter) printProgress() {
	line := ProgressLine(p.stats.Snapshot())
	if p.isTTY {
		fmt.Fprintf(p.errW, "\r\033[K%s", line)
		p.progressShown = true
		return
	}
	fmt.Fprintln(p.errW, line)
}

func (p *plainPresenter) clearProgress() {
	if p.progressShown {
		fmt.Fprint(p.errW, "\r\033[K")
		p.progressShown = false
	}
}

func (p *plainPresenter) Summary() string {
	if p.stats == nil {
		return ""
	}
	return CompletionSummary(p.stats.Snapshot())
}

// StatusLine renders the line printed when a task finishes.
func StatusLine(ev Event) string {
	return fmt.Sprintf("task %d (%s %s) ended with code %d", ev.TaskID, ev.Task, ev.Path, ev.Code)
}

func displayName(name string) string {
	if name == "" {
		return "<unknown>"
	}
	return name
}
