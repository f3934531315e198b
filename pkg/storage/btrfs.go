package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cachyos/instcore/pkg/partition"
	"github.com/cachyos/instcore/pkg/process"
)

// CreateSubvolume creates one btrfs subvolume at name, relative to the
// filesystem mounted at rootMountpoint, creating any missing parent
// directories first.
func CreateSubvolume(ctx context.Context, name, rootMountpoint string) error {
	full := filepath.Join(rootMountpoint, name)
	if _, err := process.RunChecked(ctx, []string{"mkdir", "-p", filepath.Dir(full)}); err != nil {
		return fmt.Errorf("mkdir parent of %s: %w", full, err)
	}
	if _, err := process.RunChecked(ctx, []string{"btrfs", "subvolume", "create", full}); err != nil {
		return fmt.Errorf("btrfs subvolume create %s: %w", full, err)
	}
	return nil
}

// SetDefaultSubvolume marks name as the subvolume mounted by default
// when no subvol= option is given.
func SetDefaultSubvolume(ctx context.Context, name, rootMountpoint string) error {
	full := filepath.Join(rootMountpoint, name)
	if _, err := process.RunChecked(ctx, []string{"btrfs", "subvolume", "set-default", full}); err != nil {
		return fmt.Errorf("btrfs subvolume set-default %s: %w", full, err)
	}
	return nil
}

// CreateSubvolumes creates every subvolume under a temporary mount of
// device, then unmounts that base mount and re-mounts each subvolume
// directly at its target mountpoint with subvol=<name>,<mountOpts>,
// following spec.md §4.4's create-then-remount sequence.
func CreateSubvolumes(ctx context.Context, device string, subvols []partition.BtrfsSubvolume, baseMount, mountOpts string) error {
	if _, err := process.RunChecked(ctx, []string{"mount", device, baseMount}); err != nil {
		return fmt.Errorf("mount %s at %s: %w", device, baseMount, err)
	}

	for _, sv := range subvols {
		if err := CreateSubvolume(ctx, sv.Subvolume, baseMount); err != nil {
			_, _ = process.Run(ctx, []string{"umount", baseMount})
			return err
		}
	}

	if _, err := process.RunChecked(ctx, []string{"umount", baseMount}); err != nil {
		return fmt.Errorf("unmount base %s: %w", baseMount, err)
	}

	for _, sv := range subvols {
		if _, err := process.RunChecked(ctx, []string{"mkdir", "-p", sv.MountPoint}); err != nil {
			return fmt.Errorf("mkdir %s: %w", sv.MountPoint, err)
		}
		opts := "subvol=" + sv.Subvolume + "," + mountOpts
		if _, err := process.RunChecked(ctx, []string{"mount", "-o", opts, device, sv.MountPoint}); err != nil {
			return fmt.Errorf("mount subvolume %s at %s: %w", sv.Subvolume, sv.MountPoint, err)
		}
	}
	return nil
}
