package ui

import (
	"fmt"

	"github.com/bamsammich/statwalk/internal/stats"
)

// CompletionSummary builds a final summary line from a snapshot.
// Format: done ✓  entries 1,204  reports 1,198  images 31  pipelines 870  streamed 41.2 MiB  time 12s  errors 0
func CompletionSummary(snap stats.Snapshot) string {
	icon := "✓"
	failures := snap.TasksFailed + snap.EntriesFailed
	if failures > 0 {
		icon = "✗"
	}

	base := fmt.Sprintf("done %s  entries %s  reports %s  images %s  pipelines %s  streamed %s  time %s",
		icon,
		FormatCount(snap.EntriesScanned),
		FormatCount(snap.ReportsWritten),
		FormatCount(snap.ImagesConverted),
		FormatCount(snap.PipelinesRun),
		FormatBytes(snap.BytesStreamed),
		FormatDuration(snap.Elapsed),
	)
	if snap.EntriesSkipped > 0 {
		base += fmt.Sprintf("  skipped %s", FormatCount(snap.EntriesSkipped))
	}
	return base + fmt.Sprintf("  errors %d", failures)
}

// ProgressLine renders an in-flight progress line.
func ProgressLine(snap stats.Snapshot) string {
	rate := 0.0
	if s := snap.Elapsed.Seconds(); s > 0 {
		rate = float64(snap.BytesStreamed) / s
	}
	return fmt.Sprintf("progress: %s entries  %s/%s tasks done  %s",
		FormatCount(snap.EntriesScanned),
		FormatCount(snap.TasksDone),
		FormatCount(snap.TasksStarted),
		FormatRate(rate),
	)
}
