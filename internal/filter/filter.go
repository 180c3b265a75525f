// Package filter decides which walked entries are dispatched. Rules use
// rsync-style glob patterns and are evaluated in order, first match wins.
package filter

import "fmt"

// Candidate is the part of an entry the chain looks at.
type Candidate struct {
	Path  string // relative to the walk root, slash separated
	Size  int64
	Dir   bool
	Sized bool // size bounds apply (files only)
}

// Verdict is the outcome of evaluating a candidate.
type Verdict struct {
	Rule    string // the rule that decided, empty for the default
	Allowed bool
}

type rule struct {
	pat     *pattern
	include bool
}

func (r rule) String() string {
	if r.include {
		return "+ " + r.pat.source
	}
	return "- " + r.pat.source
}

// Chain is an ordered list of include/exclude rules plus optional size
// bounds. The zero value allows everything.
type Chain struct {
	rules   []rule
	minSize int64
	maxSize int64
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// AddExclude appends an exclude rule.
func (c *Chain) AddExclude(glob string) error {
	return c.add(glob, false)
}

// AddInclude appends an include rule.
func (c *Chain) AddInclude(glob string) error {
	return c.add(glob, true)
}

func (c *Chain) add(glob string, include bool) error {
	p, err := compile(glob)
	if err != nil {
		return fmt.Errorf("pattern %q: %w", glob, err)
	}
	c.rules = append(c.rules, rule{pat: p, include: include})
	return nil
}

// SetMinSize skips files smaller than n bytes. Zero disables the bound.
func (c *Chain) SetMinSize(n int64) { c.minSize = n }

// SetMaxSize skips files larger than n bytes. Zero disables the bound.
func (c *Chain) SetMaxSize(n int64) { c.maxSize = n }

// Empty reports whether the chain has neither rules nor size bounds.
func (c *Chain) Empty() bool {
	return len(c.rules) == 0 && c.minSize == 0 && c.maxSize == 0
}

// Append adds other's rules after c's own. Size bounds are not copied.
func (c *Chain) Append(other *Chain) {
	if other == nil {
		return
	}
	c.rules = append(c.rules, other.rules...)
}

// Len returns the number of pattern rules.
func (c *Chain) Len() int { return len(c.rules) }

// Decide evaluates cand against the size bounds and then the rules.
func (c *Chain) Decide(cand Candidate) Verdict {
	if cand.Sized {
		if c.minSize > 0 && cand.Size < c.minSize {
			return Verdict{Rule: fmt.Sprintf("min-size %d", c.minSize)}
		}
		if c.maxSize > 0 && cand.Size > c.maxSize {
			return Verdict{Rule: fmt.Sprintf("max-size %d", c.maxSize)}
		}
	}

	for _, r := range c.rules {
		if r.pat.match(cand.Path, cand.Dir) {
			return Verdict{Allowed: r.include, Rule: r.String()}
		}
	}
	return Verdict{Allowed: true}
}

// Allow reports whether cand should be dispatched.
func (c *Chain) Allow(cand Candidate) bool {
	return c.Decide(cand).Allowed
}
