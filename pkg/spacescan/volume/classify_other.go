//go:build !linux && !darwin && !windows

package volume

import "github.com/shirou/gopsutil/v4/disk"

func classify(disk.PartitionStat) (removable, remote bool) {
	return false, false
}
