package main

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockedBuffer collects output written from several goroutines.
type lockedBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

func execute(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var out, errOut lockedBuffer
	code = run(args, &out, &errOut)
	return out.String(), errOut.String(), code
}

// scorerCmd writes body to a script and returns a command line running it.
func scorerCmd(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "score.sh")
	require.NoError(t, os.WriteFile(path, []byte(body+"\n"), 0o755))
	return "/bin/sh " + path
}

func inputDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("a cat.\nthe dog.\nmy hat.\n"), 0o644))
	return dir
}

func TestRunCountsSentences(t *testing.T) {
	src := inputDir(t)
	dst := filepath.Join(t.TempDir(), "out")

	stdout, _, code := execute(t, "--scorer", scorerCmd(t, `grep -c -- "$1"; exit 0`), src, dst, "a")
	require.Equal(t, 0, code)

	assert.Contains(t, stdout, "Found a total of 2 valid sentences containing the character a\n")
	assert.True(t, strings.HasSuffix(stdout, "character a\n"), "final line comes last")
	assert.Equal(t, 3, strings.Count(stdout, "ended with code 0"))
	assert.Contains(t, stdout, "(report notes.txt)")
	assert.FileExists(t, filepath.Join(dst, "notes.txt_statistica.txt"))
}

func TestRunTaskFailureExitsOne(t *testing.T) {
	src := inputDir(t)
	dst := t.TempDir()

	stdout, _, code := execute(t, "--scorer", scorerCmd(t, "cat >/dev/null; echo 4; exit 3"), src, dst, "a")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "(filter notes.txt) ended with code 3")
	// The failed pipeline's output is not counted.
	assert.Contains(t, stdout, "Found a total of 0 valid sentences containing the character a")
}

func TestRunArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"too few", []string{"in", "out"}},
		{"too many", []string{"in", "out", "a", "b"}},
		{"two characters", []string{"in", "out", "ab"}},
		{"punctuation", []string{"in", "out", "."}},
		{"empty", []string{"in", "out", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, code := execute(t, tt.args...)
			assert.Equal(t, 2, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "Error:")
			assert.Contains(t, stderr, "Usage: statwalk [flags] <input_directory> <output_directory> <c>")
		})
	}
}

func TestRunMissingInputExitsTwo(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	stdout, _, code := execute(t, "--scorer", scorerCmd(t, "echo 1"), missing, t.TempDir(), "a")
	assert.Equal(t, 2, code)
	assert.NotContains(t, stdout, "Found a total")
}

func TestRunConfigDefaults(t *testing.T) {
	src := inputDir(t)
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	body := "[defaults]\nscorer = \"" + scorerCmd(t, "cat >/dev/null; echo 5") + "\"\n" +
		"[filter]\nexclude = [\"*.txt\"]\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))

	stdout, _, code := execute(t, "--config", cfgPath, src, t.TempDir(), "z")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Found a total of 0 valid sentences containing the character z")
	assert.NotContains(t, stdout, "notes.txt", "excluded by the config filter")

	// A command-line include is consulted before the config exclude.
	stdout, _, code = execute(t, "--config", cfgPath, "--include", "notes.txt", src, t.TempDir(), "z")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Found a total of 5 valid sentences containing the character z")
}

func TestRunBadConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[defaults]\nworkers = -1\n"), 0o644))

	_, stderr, code := execute(t, "--config", cfgPath, inputDir(t), t.TempDir(), "a")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "load config")
}

func TestRunQuietHidesTaskLines(t *testing.T) {
	stdout, _, code := execute(t, "-q", "--scorer", scorerCmd(t, "cat >/dev/null; echo 1"), inputDir(t), t.TempDir(), "a")
	require.Equal(t, 0, code)
	assert.Equal(t, "Found a total of 1 valid sentences containing the character a\n", stdout)
}

func TestRunVersion(t *testing.T) {
	stdout, _, code := execute(t, "--version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "statwalk dev\n", stdout)
}

func TestParseTarget(t *testing.T) {
	r, err := parseTarget("x")
	require.NoError(t, err)
	assert.Equal(t, 'x', r)

	r, err = parseTarget("7")
	require.NoError(t, err)
	assert.Equal(t, '7', r)

	_, err = parseTarget("é!")
	assert.Error(t, err)
	_, err = parseTarget("-")
	assert.Error(t, err)
}

func TestGenDocsMarkdown(t *testing.T) {
	dir := t.TempDir()
	_, stderr, code := execute(t, "gen-docs", "--format", "markdown", "--dir", dir)
	require.Equal(t, 0, code, stderr)
	assert.FileExists(t, filepath.Join(dir, "statwalk.md"))

	_, _, code = execute(t, "gen-docs", "--format", "pdf", "--dir", dir)
	assert.Equal(t, 2, code)
}
