package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/google/shlex"
)

// DefaultScorer is the scorer command line used when none is configured.
const DefaultScorer = "/bin/sh ./s9.sh"

// ErrEmptyScorer is returned when a scorer command line has no words.
var ErrEmptyScorer = errors.New("scorer command is empty")

// Scorer is the external program a pipeline's filter task runs. It reads a
// byte stream on stdin and prints one integer on stdout.
type Scorer struct {
	Path string
	Args []string
}

// ParseScorer splits cmdline with shell word rules.
func ParseScorer(cmdline string) (Scorer, error) {
	words, err := shlex.Split(cmdline)
	if err != nil {
		return Scorer{}, fmt.Errorf("parse scorer %q: %w", cmdline, err)
	}
	if len(words) == 0 {
		return Scorer{}, ErrEmptyScorer
	}
	return Scorer{Path: words[0], Args: words[1:]}, nil
}

// Command builds the scorer invocation for target, which is passed as the
// final argument.
func (s Scorer) Command(ctx context.Context, target string) *exec.Cmd {
	args := make([]string, 0, len(s.Args)+1)
	args = append(args, s.Args...)
	args = append(args, target)
	cmd := exec.CommandContext(ctx, s.Path, args...)
	cmd.Stderr = os.Stderr
	return cmd
}

func (s Scorer) String() string {
	return fmt.Sprintf("%s %v", s.Path, s.Args)
}
