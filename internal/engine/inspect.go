package engine

import (
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

const bitmapSuffix = ".bmp"

// rawStat is the subset of stat(2) fields the inspector needs.
type rawStat struct {
	ModTime time.Time
	Size    int64
	Nlink   uint64
	Mode    uint32
	UID     uint32
}

// Inspect takes a metadata snapshot of path and classifies it. The
// filesystem type decides first; only regular files are checked for the
// bitmap suffix, so a symlink named x.bmp is still a symlink.
func Inspect(path string) (Entry, error) {
	st, err := lstatRaw(path)
	if err != nil {
		return Entry{}, &StatError{Op: "lstat", Path: path, Err: err}
	}

	name := filepath.Base(path)
	e := Entry{
		Name:    name,
		Path:    path,
		ModTime: st.ModTime,
		Size:    st.Size,
		Nlink:   st.Nlink,
		Perm:    os.FileMode(st.Mode & 0o777),
		UID:     st.UID,
	}

	switch st.Mode & unix.S_IFMT {
	case unix.S_IFLNK:
		e.Kind = Symlink
		target, err := statRaw(path)
		if err != nil {
			return Entry{}, &StatError{Op: "stat", Path: path, Err: err}
		}
		e.TargetSize = target.Size
	case unix.S_IFDIR:
		e.Kind = Directory
	case unix.S_IFREG:
		if IsBitmapName(name) {
			e.Kind = Bitmap
		} else {
			e.Kind = Regular
		}
	default:
		e.Kind = Other
	}
	return e, nil
}

// IsBitmapName reports whether name ends in the case-sensitive suffix ".bmp".
func IsBitmapName(name string) bool {
	n := len(name)
	return n >= len(bitmapSuffix) && name[n-len(bitmapSuffix):] == bitmapSuffix
}
