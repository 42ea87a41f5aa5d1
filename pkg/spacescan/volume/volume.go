// Package volume enumerates mounted storage volumes and their capacities.
//
// The catalog filters volumes a disk scan should never offer: removable and
// optical media, network shares, memory and kernel pseudo filesystems, and
// mounts whose filesystem type is unknown.
package volume

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jamesainslie/spacescan/pkg/spacescan/logging"
	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

// ErrUnsupported is returned when mounts cannot be enumerated on this platform.
var ErrUnsupported = errors.New("volume enumeration not supported on this platform")

// Mount is one entry of the operating system's mount table.
type Mount struct {
	Mountpoint string
	Device     string
	FSType     string
	Removable  bool
	Remote     bool
}

// MountLister returns the current mount table.
type MountLister func() ([]Mount, error)

// UsageFunc returns the capacity and free space of the filesystem at path.
type UsageFunc func(path string) (total, free uint64, err error)

// Catalog lists volumes and sums their capacities.
type Catalog struct {
	mounts MountLister
	usage  UsageFunc
	log    *logging.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithMounts replaces the platform mount table.
func WithMounts(fn MountLister) Option {
	return func(c *Catalog) { c.mounts = fn }
}

// WithUsage replaces the platform capacity query.
func WithUsage(fn UsageFunc) Option {
	return func(c *Catalog) { c.usage = fn }
}

// New returns a Catalog backed by the operating system.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		mounts: platformMounts,
		usage:  platformUsage,
		log:    logging.Get("volume"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns the usable-looking volumes in mount table order. A volume
// whose capacity cannot be queried is still listed with Usable false.
func (c *Catalog) List() ([]types.Volume, error) {
	mounts, err := c.mounts()
	if err != nil {
		return nil, fmt.Errorf("listing mounts: %w", err)
	}

	// A later mount on the same point shadows the earlier one.
	index := make(map[string]int, len(mounts))
	var kept []Mount
	for _, m := range mounts {
		if i, ok := index[m.Mountpoint]; ok {
			kept[i] = m
			continue
		}
		index[m.Mountpoint] = len(kept)
		kept = append(kept, m)
	}

	volumes := make([]types.Volume, 0, len(kept))
	for _, m := range kept {
		if reason, skip := Skip(m); skip {
			c.log.Debug("skipping mount", "mountpoint", m.Mountpoint, "fstype", m.FSType, "reason", reason)
			continue
		}

		v := types.Volume{
			Mountpoint: m.Mountpoint,
			Device:     m.Device,
			FSType:     m.FSType,
		}
		total, free, err := c.usage(m.Mountpoint)
		if err != nil {
			c.log.Warn("capacity query failed", "mountpoint", m.Mountpoint, "error", err)
		} else {
			v.TotalBytes = total
			v.FreeBytes = free
			v.Usable = true
		}
		volumes = append(volumes, v)
	}
	return volumes, nil
}

// CapacityOf sums the capacity of the given mountpoints. Duplicates count
// once; a mountpoint whose capacity cannot be queried is logged and left out.
func (c *Catalog) CapacityOf(mountpoints []string) uint64 {
	seen := make(map[string]struct{}, len(mountpoints))
	var sum uint64
	for _, mp := range mountpoints {
		if _, dup := seen[mp]; dup {
			continue
		}
		seen[mp] = struct{}{}

		total, _, err := c.usage(mp)
		if err != nil {
			c.log.Warn("excluding volume from total", "mountpoint", mp, "error", err)
			continue
		}
		sum += total
	}
	return sum
}

// Select returns the volumes whose mountpoints appear in ids, in catalog
// order. Unknown ids are ignored.
func Select(volumes []types.Volume, ids []string) []types.Volume {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[normalizeID(id)] = struct{}{}
	}

	var out []types.Volume
	for _, v := range volumes {
		if _, ok := want[normalizeID(v.Mountpoint)]; ok {
			out = append(out, v)
		}
	}
	return out
}

// normalizeID maps drive letters to their root form and drops trailing slashes.
func normalizeID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) >= 2 && len(id) <= 3 && id[1] == ':' && (len(id) == 2 || id[2] == '\\' || id[2] == '/') {
		return strings.ToUpper(id[:1]) + `:\`
	}
	if len(id) > 1 {
		if trimmed := strings.TrimRight(id, "/"); trimmed != "" {
			id = trimmed
		} else {
			id = "/"
		}
	}
	return id
}

var skippedFSTypes = map[string]string{
	// optical
	"iso9660": "optical",
	"udf":     "optical",
	"cdfs":    "optical",
	"cd9660":  "optical",
	// network
	"nfs":        "network",
	"nfs4":       "network",
	"cifs":       "network",
	"smb3":       "network",
	"smbfs":      "network",
	"afpfs":      "network",
	"webdav":     "network",
	"fuse.sshfs": "network",
	"9p":         "network",
	// memory and kernel
	"proc":        "pseudo",
	"sysfs":       "pseudo",
	"devtmpfs":    "pseudo",
	"devpts":      "pseudo",
	"devfs":       "pseudo",
	"tmpfs":       "pseudo",
	"ramfs":       "pseudo",
	"cgroup":      "pseudo",
	"cgroup2":     "pseudo",
	"securityfs":  "pseudo",
	"debugfs":     "pseudo",
	"tracefs":     "pseudo",
	"pstore":      "pseudo",
	"bpf":         "pseudo",
	"configfs":    "pseudo",
	"fusectl":     "pseudo",
	"mqueue":      "pseudo",
	"hugetlbfs":   "pseudo",
	"autofs":      "pseudo",
	"binfmt_misc": "pseudo",
	"efivarfs":    "pseudo",
	"nsfs":        "pseudo",
	"rpc_pipefs":  "pseudo",
	"selinuxfs":   "pseudo",
	"squashfs":    "pseudo",
	"mtmfs":       "pseudo",
	"nullfs":      "pseudo",
}

// Skip reports whether a mount should be hidden from the catalog, and why.
func Skip(m Mount) (reason string, skip bool) {
	switch {
	case m.Mountpoint == "":
		return "no mountpoint", true
	case m.FSType == "":
		return "unknown filesystem", true
	case m.Removable:
		return "removable", true
	case m.Remote:
		return "network", true
	}
	if reason, ok := skippedFSTypes[m.FSType]; ok {
		return reason, true
	}
	return "", false
}
