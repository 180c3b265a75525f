//go:build linux

package engine

import (
	"time"

	"golang.org/x/sys/unix"
)

func lstatRaw(path string) (rawStat, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return rawStat{}, err
	}
	return fromStatT(&st), nil
}

func statRaw(path string) (rawStat, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return rawStat{}, err
	}
	return fromStatT(&st), nil
}

func fromStatT(st *unix.Stat_t) rawStat {
	return rawStat{
		Mode:    st.Mode,
		Size:    st.Size,
		UID:     st.Uid,
		Nlink:   uint64(st.Nlink), //nolint:unconvert // uint32 on some architectures
		ModTime: time.Unix(st.Mtim.Unix()),
	}
}
