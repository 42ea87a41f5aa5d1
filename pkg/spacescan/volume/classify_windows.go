package volume

import (
	"github.com/shirou/gopsutil/v4/disk"
	"golang.org/x/sys/windows"
)

func classify(p disk.PartitionStat) (removable, remote bool) {
	root, err := windows.UTF16PtrFromString(p.Mountpoint)
	if err != nil {
		return false, false
	}
	switch windows.GetDriveType(root) {
	case windows.DRIVE_REMOVABLE, windows.DRIVE_CDROM:
		return true, false
	case windows.DRIVE_REMOTE:
		return false, true
	}
	return false, false
}
