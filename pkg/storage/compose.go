package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cachyos/instcore/pkg/partition"
	"github.com/cachyos/instcore/pkg/process"
	"github.com/cachyos/instcore/pkg/reporter"
)

// Mount walks scheme's partitions ordered by mountpoint depth (shallow
// first, "/" before "/boot" before "/home") and mounts each beneath
// target, creating directories as needed. This generalizes the
// teacher's MountPartitions, which hardcoded the "root, then boot, then
// var" order for its fixed A/B scheme, to an arbitrary mountpoint tree.
// Swap and zfs-managed filesystems are skipped; zfs datasets mount
// through their own Mount, not this one.
func Mount(ctx context.Context, scheme partition.PartitionScheme, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create target mountpoint %s: %w", target, err)
	}

	ordered := mountable(scheme)
	sort.SliceStable(ordered, func(i, j int) bool {
		return depth(ordered[i].MountPoint) < depth(ordered[j].MountPoint)
	})

	for _, p := range ordered {
		dir := filepath.Join(target, p.MountPoint)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create mountpoint %s: %w", dir, err)
		}
		argv := []string{"mount"}
		if p.Subvolume != "" {
			argv = append(argv, "-o", "subvol="+p.Subvolume+","+p.MountOpts)
		} else if p.MountOpts != "" {
			argv = append(argv, "-o", p.MountOpts)
		}
		argv = append(argv, p.Device, dir)
		if _, err := process.RunChecked(ctx, argv); err != nil {
			return fmt.Errorf("mount %s at %s: %w", p.Device, dir, err)
		}
	}
	return nil
}

// ActivateSwap runs swapon against every swap partition in scheme,
// skipping any that's behind an unopened LUKS container (its Device is
// empty until the storage composer's LUKS step resolves the mapper
// path into the scheme).
func ActivateSwap(ctx context.Context, scheme partition.PartitionScheme, rep reporter.Reporter) error {
	for _, p := range scheme.Partitions {
		if p.FSType != partition.FSSwap || p.Device == "" {
			continue
		}
		if _, err := process.RunChecked(ctx, []string{"swapon", p.Device}); err != nil {
			return fmt.Errorf("swapon %s: %w", p.Device, err)
		}
		rep.Message("Activated swap on %s", p.Device)
	}
	return nil
}

// Unmount parses the live mount table for everything under target,
// unmounts deepest-mountpoint-first, then exports every named zpool —
// the umount_partitions contract from spec.md §4.4. Any single failure
// aborts rather than continuing past a busy mountpoint.
func Unmount(ctx context.Context, target string, zpoolNames []string, rep reporter.Reporter) error {
	mounts, err := mountpointsUnder(target)
	if err != nil {
		return fmt.Errorf("read mount table: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(mounts)))

	for _, m := range mounts {
		if _, err := process.RunChecked(ctx, []string{"umount", m}); err != nil {
			return fmt.Errorf("umount %s: %w", m, err)
		}
		rep.Message("Unmounted %s", m)
	}

	for _, pool := range zpoolNames {
		if _, err := process.RunChecked(ctx, []string{"zpool", "export", pool}); err != nil {
			return fmt.Errorf("zpool export %s: %w", pool, err)
		}
	}
	return nil
}

func mountable(scheme partition.PartitionScheme) []partition.Partition {
	var out []partition.Partition
	for _, p := range scheme.Partitions {
		if p.FSType == partition.FSSwap || p.FSType == partition.FSZFS {
			continue
		}
		if p.MountPoint == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func depth(mountpoint string) int {
	if mountpoint == "/" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(mountpoint, "/"), "/")
}

func mountpointsUnder(target string) ([]string, error) {
	data, err := os.ReadFile("/proc/mounts")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		mountpoint := fields[1]
		if mountpoint == target || strings.HasPrefix(mountpoint, target+"/") {
			out = append(out, mountpoint)
		}
	}
	return out, nil
}
