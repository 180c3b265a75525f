// Package report renders and persists per-entry statistics reports.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Suffix is appended to an entry name to form its report file name.
const Suffix = "_statistica.txt"

// MaxNameBytes is the longest report file name accepted.
const MaxNameBytes = 255

// FileMode is the permission set reports are created with.
const FileMode os.FileMode = 0o664

// TimeLayout matches the C locale's %c.
const TimeLayout = time.ANSIC

// ErrNameTooLong is returned when an entry's report name would exceed
// MaxNameBytes.
var ErrNameTooLong = errors.New("report file name too long")

// Kind selects the report layout.
type Kind int

const (
	Regular Kind = iota
	Bitmap
	Symlink
	Directory
)

// Stats is everything a report can show about one entry.
type Stats struct {
	ModTime    time.Time
	Name       string
	Owner      string // directories only; falls back to UID when empty
	Size       int64
	TargetSize int64
	Nlink      uint64
	Width      int
	Height     int
	Perm       os.FileMode
	UID        uint32
	Kind       Kind
}

// OutputPath returns where the report for the entry called name is written.
func OutputPath(dir, name string) (string, error) {
	base := name + Suffix
	if len(base) > MaxNameBytes {
		return "", fmt.Errorf("%s: %w", name, ErrNameTooLong)
	}
	return filepath.Join(dir, base), nil
}

// Render writes the report for s to w.
func Render(w io.Writer, s Stats) error {
	lw := &lineWriter{w: w}
	switch s.Kind {
	case Regular:
		lw.line("file name", s.Name)
		lw.line("size", s.Size)
		lw.line("user id", s.UID)
		lw.line("time of last modification", FormatTime(s.ModTime))
		lw.line("number of hard links", s.Nlink)
	case Bitmap:
		lw.line("file name", s.Name)
		lw.line("height", s.Height)
		lw.line("width", s.Width)
		lw.line("size", s.Size)
		lw.line("user id", s.UID)
		lw.line("time of last modification", FormatTime(s.ModTime))
		lw.line("number of hard links", s.Nlink)
	case Symlink:
		lw.line("link name", s.Name)
		lw.line("link size", s.Size)
		lw.line("target file size", s.TargetSize)
		lw.line("time of last modification", FormatTime(s.ModTime))
	case Directory:
		owner := s.Owner
		if owner == "" {
			owner = fmt.Sprint(s.UID)
		}
		lw.line("directory name", s.Name)
		lw.line("user id", owner)
	default:
		return fmt.Errorf("render %s: unknown kind %d", s.Name, s.Kind)
	}

	user, group, other := Permissions(s.Perm)
	lw.line("user permissions", user)
	lw.line("group permissions", group)
	lw.line("others permissions", other)
	lw.blank()
	return lw.err
}

// Persist writes body to path on fsys, replacing any previous content.
func Persist(fsys afero.Fs, path string, body []byte) (err error) {
	f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FileMode)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	n, err := f.Write(body)
	if err != nil {
		return err
	}
	if n != len(body) {
		return fmt.Errorf("write %s: %w", path, io.ErrShortWrite)
	}
	return nil
}

// Write renders the report for s and persists it under dir. It returns the
// report path.
func Write(fsys afero.Fs, dir string, s Stats) (string, error) {
	path, err := OutputPath(dir, s.Name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := Render(&buf, s); err != nil {
		return "", err
	}
	if err := Persist(fsys, path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// FormatTime formats t in local time with TimeLayout.
func FormatTime(t time.Time) string {
	return t.Local().Format(TimeLayout)
}

// Permissions renders the user, group and other triples of perm as
// R/W/X or '-'.
func Permissions(perm os.FileMode) (user, group, other string) {
	return triple(perm >> 6), triple(perm >> 3), triple(perm)
}

func triple(bits os.FileMode) string {
	b := []byte("---")
	if bits&4 != 0 {
		b[0] = 'R'
	}
	if bits&2 != 0 {
		b[1] = 'W'
	}
	if bits&1 != 0 {
		b[2] = 'X'
	}
	return string(b)
}

// lineWriter writes "label: value" lines and keeps the first error.
type lineWriter struct {
	w   io.Writer
	err error
}

func (lw *lineWriter) line(label string, value any) {
	if lw.err != nil {
		return
	}
	_, lw.err = fmt.Fprintf(lw.w, "%s: %v\n", label, value)
}

func (lw *lineWriter) blank() {
	if lw.err != nil {
		return
	}
	_, lw.err = io.WriteString(lw.w, "\n")
}
