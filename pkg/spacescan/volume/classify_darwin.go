package volume

import (
	"github.com/shirou/gopsutil/v4/disk"
	"golang.org/x/sys/unix"
)

// classify reads the mount flags. System-internal volumes (VM, Preboot,
// Update...) are not browsable and are treated as removable so they are
// hidden, except the root.
func classify(p disk.PartitionStat) (removable, remote bool) {
	var st unix.Statfs_t
	if err := unix.Statfs(p.Mountpoint, &st); err != nil {
		return false, false
	}
	removable = st.Flags&unix.MNT_REMOVABLE != 0
	if st.Flags&unix.MNT_DONTBROWSE != 0 && p.Mountpoint != "/" {
		removable = true
	}
	return removable, st.Flags&unix.MNT_LOCAL == 0
}
