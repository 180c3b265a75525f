package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(path string, size int64) Candidate {
	return Candidate{Path: path, Size: size, Sized: true}
}

func dir(path string) Candidate {
	return Candidate{Path: path, Dir: true}
}

func TestEmptyChainAllowsAll(t *testing.T) {
	c := NewChain()
	assert.True(t, c.Allow(file("notes.txt", 1024)))
	assert.True(t, c.Allow(dir("photos")))
	assert.True(t, c.Empty())
	assert.Zero(t, c.Len())
}

func TestExcludePattern(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("*.log"))

	assert.False(t, c.Allow(file("app.log", 100)))
	assert.False(t, c.Allow(file("sub/debug.log", 100)))
	assert.True(t, c.Allow(file("app.txt", 100)))
}

func TestFirstMatchWins(t *testing.T) {
	tests := []struct {
		name    string
		rules   func(c *Chain)
		path    string
		allowed bool
	}{
		{
			name: "include before exclude",
			rules: func(c *Chain) {
				require.NoError(t, c.AddInclude("keep.bmp"))
				require.NoError(t, c.AddExclude("*.bmp"))
			},
			path:    "keep.bmp",
			allowed: true,
		},
		{
			name: "exclude before include",
			rules: func(c *Chain) {
				require.NoError(t, c.AddExclude("*.bmp"))
				require.NoError(t, c.AddInclude("keep.bmp"))
			},
			path:    "keep.bmp",
			allowed: false,
		},
		{
			name: "double star include then catch-all exclude",
			rules: func(c *Chain) {
				require.NoError(t, c.AddInclude("**/*.txt"))
				require.NoError(t, c.AddExclude("*"))
			},
			path:    "a/b/story.txt",
			allowed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChain()
			tt.rules(c)
			assert.Equal(t, tt.allowed, c.Allow(file(tt.path, 10)))
		})
	}
}

func TestDirOnlyPattern(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("cache/"))

	assert.False(t, c.Allow(dir("cache")))
	assert.True(t, c.Allow(file("cache", 100)))
}

func TestDecideReportsRule(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("*.tmp"))
	c.SetMaxSize(1000)

	v := c.Decide(file("x.tmp", 10))
	assert.False(t, v.Allowed)
	assert.Equal(t, "- *.tmp", v.Rule)

	v = c.Decide(file("big.txt", 5000))
	assert.False(t, v.Allowed)
	assert.Equal(t, "max-size 1000", v.Rule)

	v = c.Decide(file("ok.txt", 10))
	assert.True(t, v.Allowed)
	assert.Empty(t, v.Rule)
}

func TestSizeBounds(t *testing.T) {
	c := NewChain()
	c.SetMinSize(100)
	c.SetMaxSize(10000)

	assert.False(t, c.Allow(file("tiny.txt", 50)))
	assert.True(t, c.Allow(file("medium.txt", 500)))
	assert.False(t, c.Allow(file("huge.txt", 50000)))

	// Only sized candidates are bounded.
	assert.True(t, c.Allow(dir("somedir")))
	assert.True(t, c.Allow(Candidate{Path: "link", Size: 5}))
}

func TestInvalidPattern(t *testing.T) {
	c := NewChain()
	assert.Error(t, c.AddExclude("/"))
	assert.Error(t, c.AddInclude(""))
	assert.Zero(t, c.Len())
}

func TestAppendKeepsOrder(t *testing.T) {
	front := NewChain()
	require.NoError(t, front.AddInclude("keep.txt"))

	back := NewChain()
	require.NoError(t, back.AddExclude("*.txt"))
	back.SetMinSize(10)

	c := NewChain()
	c.Append(front)
	c.Append(back)
	c.Append(nil)

	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Allow(file("keep.txt", 1)), "size bounds are not appended")
	assert.False(t, c.Allow(file("drop.txt", 100)))
}
