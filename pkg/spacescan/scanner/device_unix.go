//go:build unix

package scanner

import (
	"io/fs"
	"syscall"
)

// deviceOf returns the device id of the filesystem holding info.
func deviceOf(info fs.FileInfo) (uint64, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	//nolint:unconvert // Dev is int32 on darwin, uint64 on linux
	return uint64(st.Dev), true
}
