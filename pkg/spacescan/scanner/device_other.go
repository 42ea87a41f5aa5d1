//go:build !unix

package scanner

import "io/fs"

// deviceOf is unsupported here; every directory is treated as the same device.
func deviceOf(fs.FileInfo) (uint64, bool) {
	return 0, false
}
