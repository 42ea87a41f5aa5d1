package volume

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
)

func classify(p disk.PartitionStat) (removable, remote bool) {
	return sysfsRemovable(p.Device), false
}

// sysfsRemovable checks /sys/class/block/<dev>/removable, falling back to the
// parent disk for partitions.
func sysfsRemovable(device string) bool {
	if !strings.HasPrefix(device, "/dev/") {
		return false
	}
	name := filepath.Base(device)
	for _, p := range []string{
		"/sys/class/block/" + name + "/removable",
		"/sys/class/block/" + name + "/../removable",
	} {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		return strings.TrimSpace(string(data)) == "1"
	}
	return false
}
