package engine

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startPipeline(t *testing.T, scorerLine, content string) (*Aggregator, []TaskStatus) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	e, err := Inspect(path)
	require.NoError(t, err)
	return runPipeline(t, scorerLine, e)
}

func runPipeline(t *testing.T, scorerLine string, e Entry) (*Aggregator, []TaskStatus) {
	t.Helper()
	scorer, err := ParseScorer(scorerLine)
	require.NoError(t, err)

	sup := NewSupervisor(nil, nil, nil)
	p := &Pipeline{Agg: &Aggregator{}, Scorer: scorer, Target: "a"}
	done := p.Start(context.Background(), e, func(kind TaskKind, entry string, fn func() error) {
		sup.Spawn(kind, entry, fn)
	})
	<-done
	statuses, _ := sup.Wait()
	return p.Agg, statuses
}

func statusByKind(statuses []TaskStatus) map[TaskKind]TaskStatus {
	out := make(map[TaskKind]TaskStatus, len(statuses))
	for _, st := range statuses {
		out[st.Kind] = st
	}
	return out
}

func TestPipelineScoresContent(t *testing.T) {
	agg, statuses := startPipeline(t, lineScorer(t), "a cat\nno\nbanana\n")
	assert.Equal(t, int64(2), agg.Total())

	byKind := statusByKind(statuses)
	require.Len(t, byKind, 2)
	assert.Zero(t, byKind[TaskSource].Code)
	assert.Zero(t, byKind[TaskFilter].Code)
}

func TestPipelineScorerQuitsEarly(t *testing.T) {
	// The scorer never reads stdin; the source must not block forever.
	agg, statuses := startPipeline(t, writeScorer(t, "echo 1"), strings.Repeat("a line\n", 200000))
	assert.Equal(t, int64(1), agg.Total())

	byKind := statusByKind(statuses)
	assert.NoError(t, byKind[TaskSource].Err)
	assert.NoError(t, byKind[TaskFilter].Err)
}

func TestPipelineScorerFailure(t *testing.T) {
	agg, statuses := startPipeline(t, writeScorer(t, "cat >/dev/null\nexit 3"), "a\n")
	assert.Zero(t, agg.Total())

	byKind := statusByKind(statuses)
	assert.Equal(t, 3, byKind[TaskFilter].Code)
	assert.Zero(t, byKind[TaskSource].Code)
}

func TestPipelineScorerFailureDiscardsOutput(t *testing.T) {
	agg, statuses := startPipeline(t, writeScorer(t, "cat >/dev/null\necho 4\nexit 3"), "a\n")
	assert.Zero(t, agg.Total(), "a failed pipeline contributes 0")

	byKind := statusByKind(statuses)
	assert.Equal(t, 3, byKind[TaskFilter].Code)
	assert.Zero(t, byKind[TaskSource].Code)
}

func TestPipelineSourceFailureDiscardsOutput(t *testing.T) {
	e := Entry{
		Name: "gone.txt",
		Path: filepath.Join(t.TempDir(), "missing", "gone.txt"),
		Kind: Regular,
	}
	agg, statuses := runPipeline(t, constantScorer(t, "7"), e)
	assert.Zero(t, agg.Total(), "a failed pipeline contributes 0")

	byKind := statusByKind(statuses)
	var ioErr *IOError
	require.ErrorAs(t, byKind[TaskSource].Err, &ioErr)
	assert.Equal(t, "open", ioErr.Op)
	assert.Equal(t, 1, byKind[TaskSource].Code)
}

func TestPipelineSpawnFailure(t *testing.T) {
	agg, statuses := startPipeline(t, "/nonexistent/scorer", "a\n")
	assert.Zero(t, agg.Total())

	byKind := statusByKind(statuses)
	var spawnErr *PipelineSpawnError
	require.ErrorAs(t, byKind[TaskFilter].Err, &spawnErr)
	assert.Equal(t, "input.txt", spawnErr.Entry)
	assert.NoError(t, byKind[TaskSource].Err)
}

func TestReadScalar(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"42\n", 42},
		{"  7 \n", 7},
		{"0", 0},
		{"", 0},
		{"abc", 0},
		{"-3", 0},
		{"12 apples", 12},
		{"2\n3\n", 2},
		{"7abc", 7},
		{"+4", 0},
		{strings.Repeat("9", 100), 0},
		{"5" + strings.Repeat(" ", 200), 5},
	}
	for _, tt := range tests {
		got := readScalar(io.NopCloser(bytes.NewReader([]byte(tt.in))))
		assert.Equal(t, tt.want, got, "%q", tt.in)
	}
}
