package filter

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// LoadFile reads rules from path on fsys and appends them to the chain.
func (c *Chain) LoadFile(fsys afero.Fs, path string) error {
	f, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("open filter file: %w", err)
	}
	defer f.Close()
	return c.Load(f, path)
}

// Load appends the rules read from r. One rule per line:
//
//	+ PATTERN   include
//	- PATTERN   exclude
//	PATTERN     exclude
//
// Blank lines and lines starting with # are ignored. name is used in
// error messages.
func (c *Chain) Load(r io.Reader, name string) error {
	sc := bufio.NewScanner(r)
	for lineNum := 1; sc.Scan(); lineNum++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		include, glob := parseRuleLine(line)
		var err error
		if include {
			err = c.AddInclude(glob)
		} else {
			err = c.AddExclude(glob)
		}
		if err != nil {
			return fmt.Errorf("%s:%d: %w", name, lineNum, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	return nil
}

func parseRuleLine(line string) (include bool, glob string) {
	if rest, ok := strings.CutPrefix(line, "+ "); ok {
		return true, strings.TrimSpace(rest)
	}
	if rest, ok := strings.CutPrefix(line, "- "); ok {
		return false, strings.TrimSpace(rest)
	}
	return false, line
}
