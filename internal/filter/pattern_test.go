package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternMatch(t *testing.T) {
	tests := []struct {
		glob string
		path string
		dir  bool
		want bool
	}{
		{"*.log", "app.log", false, true},
		{"*.log", "dir/app.log", false, true},
		{"*.log", "app.log.bak", false, false},
		{"**/*.go", "main.go", false, true},
		{"**/*.go", "cmd/statwalk/main.go", false, true},
		{"**/*.go", "main.txt", false, false},
		{"/root.txt", "root.txt", false, true},
		{"/root.txt", "sub/root.txt", false, false},
		{"build/", "build", true, true},
		{"build/", "sub/build", true, true},
		{"build/", "build", false, false},
		{"file?.txt", "file1.txt", false, true},
		{"file?.txt", "file12.txt", false, false},
		{"file?.txt", "file/.txt", false, false},
		{"sub/dir/*.txt", "sub/dir/a.txt", false, true},
		{"sub/dir/*.txt", "other/sub/dir/a.txt", false, false},
		{"img[0-9].bmp", "img7.bmp", false, true},
		{"img[!0-9].bmp", "img7.bmp", false, false},
		{"img[!0-9].bmp", "imgx.bmp", false, true},
		{"odd[name", "odd[name", false, true},
		{"a.b", "axb", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.glob+"|"+tt.path, func(t *testing.T) {
			p, err := compile(tt.glob)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.match(tt.path, tt.dir))
		})
	}
}
