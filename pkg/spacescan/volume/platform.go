package volume

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
)

// platformMounts lists physical partitions. Removable and network media are
// flagged by the platform's classify.
func platformMounts() ([]Mount, error) {
	parts, err := disk.Partitions(false)
	if err != nil {
		return nil, fmt.Errorf("listing partitions: %w", err)
	}
	mounts := make([]Mount, 0, len(parts))
	for _, p := range parts {
		mounts = append(mounts, fromPartition(p, classify))
	}
	return mounts, nil
}

func fromPartition(p disk.PartitionStat, classify func(disk.PartitionStat) (removable, remote bool)) Mount {
	// Drive letters come back as "C:"; walks and drive queries need the root.
	p.Mountpoint = normalizeID(p.Mountpoint)
	m := Mount{
		Mountpoint: p.Mountpoint,
		Device:     p.Device,
		FSType:     strings.ToLower(p.Fstype),
	}
	m.Removable, m.Remote = classify(p)
	for _, opt := range p.Opts {
		switch opt {
		case "cdrom", "removable":
			m.Removable = true
		case "remote":
			m.Remote = true
		}
	}
	return m
}

func platformUsage(path string) (total, free uint64, err error) {
	u, err := disk.Usage(path)
	if err != nil {
		return 0, 0, err
	}
	return u.Total, u.Free, nil
}
