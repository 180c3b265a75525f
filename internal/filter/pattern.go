package filter

import (
	"errors"
	"regexp"
	"strings"
)

var errEmptyPattern = errors.New("empty pattern")

// pattern is a compiled rsync-style glob.
//
// A leading or embedded slash anchors the pattern at the walk root; without
// one it matches the final path components. A trailing slash restricts it to
// directories.
type pattern struct {
	re      *regexp.Regexp
	source  string
	dirOnly bool
}

func compile(glob string) (*pattern, error) {
	p := &pattern{source: glob}

	body, dirOnly := strings.CutSuffix(glob, "/")
	p.dirOnly = dirOnly

	anchored := strings.Contains(body, "/")
	body = strings.TrimPrefix(body, "/")
	if body == "" {
		return nil, errEmptyPattern
	}

	expr := translate(body)
	if anchored {
		expr = "^" + expr + "$"
	} else {
		expr = "(^|/)" + expr + "$"
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	p.re = re
	return p, nil
}

func (p *pattern) match(rel string, dir bool) bool {
	if p.dirOnly && !dir {
		return false
	}
	return p.re.MatchString(rel)
}

// translate turns glob syntax into a regular expression body:
// ** crosses directories, * and ? stay within one component, and [...]
// classes pass through with ! negation.
func translate(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); {
		switch {
		case strings.HasPrefix(glob[i:], "**/"):
			b.WriteString("(.*/)?")
			i += 3
		case strings.HasPrefix(glob[i:], "**"):
			b.WriteString(".*")
			i += 2
		case glob[i] == '*':
			b.WriteString("[^/]*")
			i++
		case glob[i] == '?':
			b.WriteString("[^/]")
			i++
		case glob[i] == '[':
			class, n := bracket(glob[i:])
			b.WriteString(class)
			i += n
		default:
			b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
			i++
		}
	}
	return b.String()
}

// bracket translates the character class at the start of s and returns the
// regex text and the number of bytes consumed. An unterminated class is a
// literal '['.
func bracket(s string) (string, int) {
	j := 1
	if j < len(s) && s[j] == '!' {
		j++
	}
	if j < len(s) && s[j] == ']' {
		j++
	}
	end := strings.IndexByte(s[j:], ']')
	if end < 0 {
		return regexp.QuoteMeta("["), 1
	}
	end += j

	class := s[1:end]
	if rest, ok := strings.CutPrefix(class, "!"); ok {
		class = "^" + rest
	}
	return "[" + class + "]", end + 1
}
