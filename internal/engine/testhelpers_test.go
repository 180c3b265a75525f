package engine

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/statwalk/internal/bmp"
	"github.com/bamsammich/statwalk/internal/event"
)

// writeScorer writes a shell script scorer and returns a command line that
// runs it.
func writeScorer(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scorer.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return "/bin/sh '" + path + "'"
}

// constantScorer discards its input and prints n.
func constantScorer(t *testing.T, n string) string {
	t.Helper()
	return writeScorer(t, "cat >/dev/null\necho "+n)
}

// lineScorer prints how many input lines contain its argument.
func lineScorer(t *testing.T) string {
	t.Helper()
	return writeScorer(t, `grep -c -- "$1"
exit 0`)
}

// buildBitmap encodes a bitmap with the given dimensions and pixel bytes.
func buildBitmap(width, height int32, bitCount uint16, pixels []byte) []byte {
	hdr := bmp.Header{
		Signature:  bmp.Signature,
		FileSize:   uint32(bmp.PixelOffset + len(pixels)), //nolint:gosec // test sizes are tiny
		DataOffset: bmp.PixelOffset,
	}
	info := bmp.InfoHeader{
		Size:     bmp.InfoHeaderSize,
		Width:    width,
		Height:   height,
		Planes:   1,
		BitCount: bitCount,
	}
	var buf bytes.Buffer
	buf.Write(hdr.Encode())
	buf.Write(info.Encode())
	buf.Write(pixels)
	return buf.Bytes()
}

// createTestTree populates root with:
//
//	notes.txt        two lines containing "a", one without
//	link             -> notes.txt
//	sub/             directory
//	sub/inner.txt    one line containing "a"
func createTestTree(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"),
		[]byte("a cat.\nthe dog.\nmy hat.\n"), 0o644))
	require.NoError(t, os.Symlink("notes.txt", filepath.Join(root, "link")))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "inner.txt"),
		[]byte("bar\n"), 0o644))
}

// reportNames lists the report files in dir.
func reportNames(t *testing.T, dir string) []string {
	t.Helper()
	des, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(des))
	for _, de := range des {
		names = append(names, de.Name())
	}
	return names
}

// collectEvents returns a channel for Config.Events and a getter for the
// events received. The getter closes the channel; call it at most once,
// after Run returns.
func collectEvents(t *testing.T) (chan<- event.Event, func() []event.Event) {
	t.Helper()
	ch := make(chan event.Event, 4096)
	var collected []event.Event
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range ch {
			collected = append(collected, ev)
		}
	}()
	var once sync.Once
	drain := func() {
		once.Do(func() { close(ch) })
		<-done
	}
	t.Cleanup(drain)
	return ch, func() []event.Event {
		drain()
		return collected
	}
}

func countEvents(events []event.Event, typ event.Type) int {
	n := 0
	for _, ev := range events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}
