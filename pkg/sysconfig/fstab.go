// Package sysconfig populates an already-mounted target root with
// configuration files and drives the in-chroot provisioning steps that
// turn it into a bootable system — the System Configurator component.
package sysconfig

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cachyos/instcore/pkg/partition"
)

// GenerateFstab renders /etc/fstab for scheme, grounded on the
// teacher's CreateFstab (open file, write a deterministic header
// comment, one line per mount) but generalized from its hardcoded
// two-root-UUID layout to an arbitrary partition list: dedup by device
// after sorting by (device, mountpoint), skip swap and zfs (zfs manages
// its own mounting), and pick the most stable source token available.
func GenerateFstab(scheme partition.PartitionScheme) string {
	rows := dedupByDevice(scheme.Partitions)

	var sb strings.Builder
	sb.WriteString("# /etc/fstab: static file system information.\n")
	sb.WriteString("# <file system> <mount point> <type> <options> <dump> <pass>\n\n")

	for _, p := range rows {
		if p.FSType == partition.FSSwap || p.FSType == partition.FSZFS {
			continue
		}

		source := p.Device
		if p.LuksMapperName != "" {
			source = "/dev/mapper/" + p.LuksMapperName
		} else if p.UUID != "" {
			source = "UUID=" + p.UUID
		}

		opts := p.MountOpts
		if p.FSType == partition.FSBtrfs && p.Subvolume != "" {
			opts = "subvol=" + p.Subvolume + "," + opts
		}
		if opts == "" {
			opts = "defaults"
		}

		pass := fstabPass(p)

		fmt.Fprintf(&sb, "# %s\n", p.Device)
		fmt.Fprintf(&sb, "%s\t%s\t%s\t%s\t0\t%d\n\n", source, fstabMountPoint(p), p.FSType, opts, pass)
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func fstabMountPoint(p partition.Partition) string {
	if p.MountPoint == "" {
		return "none"
	}
	return p.MountPoint
}

func fstabPass(p partition.Partition) int {
	switch {
	case p.MountPoint == "/" && p.FSType != partition.FSBtrfs:
		return 1
	case p.FSType != partition.FSBtrfs && p.FSType != partition.FSSwap:
		return 2
	default:
		return 0
	}
}

func dedupByDevice(parts []partition.Partition) []partition.Partition {
	sorted := append([]partition.Partition(nil), parts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Device != sorted[j].Device {
			return sorted[i].Device < sorted[j].Device
		}
		return sorted[i].MountPoint < sorted[j].MountPoint
	})

	seen := make(map[string]bool, len(sorted))
	var out []partition.Partition
	for _, p := range sorted {
		key := p.Device + "|" + p.MountPoint
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
