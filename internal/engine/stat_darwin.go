//go:build darwin

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
		Mode:    uint32(st.Mode),
		Size:    st.Size,
		UID:     st.Uid,
		Nlink:   uint64(st.Nlink),
		ModTime: time.Unix(st.Mtim.Unix()),
	}
}
