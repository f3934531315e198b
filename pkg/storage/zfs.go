package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cachyos/instcore/pkg/process"
	"github.com/cachyos/instcore/pkg/reporter"
)

// ZfsDataset is one entry of a pool's dataset hierarchy.
type ZfsDataset struct {
	Path       string // e.g. "zroot/ROOT/default"
	MountPoint string // "legacy" disables zfs's own mount management
}

// ZfsSetupConfig describes a pool to create and populate.
type ZfsSetupConfig struct {
	PoolName    string
	PoolOptions []string
	Passphrase  string // empty: no native encryption
	Datasets    []ZfsDataset
}

// CreatePool runs zpool create with cfg.PoolOptions, enabling native
// encryption via -O encryption=on -O keyformat=passphrase when a
// passphrase is set, fed over stdin like every other secret in this
// installer.
func CreatePool(ctx context.Context, cfg ZfsSetupConfig, device string, rep reporter.Reporter) error {
	rep.Message("Creating zpool %s on %s...", cfg.PoolName, device)

	argv := []string{"zpool", "create", "-f"}
	argv = append(argv, cfg.PoolOptions...)
	if cfg.Passphrase != "" {
		argv = append(argv, "-O", "encryption=on", "-O", "keyformat=passphrase")
	}
	argv = append(argv, cfg.PoolName, device)

	var opts []process.Option
	if cfg.Passphrase != "" {
		opts = append(opts, process.WithStdin(cfg.Passphrase))
	}
	if _, err := process.RunChecked(ctx, argv, opts...); err != nil {
		return fmt.Errorf("zpool create %s: %w", cfg.PoolName, err)
	}
	return nil
}

// CreateDataset runs zfs create for one dataset, setting mountpoint=
// explicitly per spec.md §4.4.
func CreateDataset(ctx context.Context, ds ZfsDataset) error {
	argv := []string{"zfs", "create", "-o", "mountpoint=" + ds.MountPoint, ds.Path}
	if _, err := process.RunChecked(ctx, argv); err != nil {
		return fmt.Errorf("zfs create %s: %w", ds.Path, err)
	}
	return nil
}

// SetProperty runs zfs set property=value on target (a pool or dataset).
func SetProperty(ctx context.Context, target, property, value string) error {
	if _, err := process.RunChecked(ctx, []string{"zfs", "set", property + "=" + value, target}); err != nil {
		return fmt.Errorf("zfs set %s=%s on %s: %w", property, value, target, err)
	}
	return nil
}

// MountDataset mounts ds at dir. Datasets with mountpoint=legacy need
// an explicit mount -t zfs; others are already mounted by zfs itself
// once created, matching spec.md §4.4's "legacy datasets get explicit
// mount" rule.
func MountDataset(ctx context.Context, ds ZfsDataset, dir string) error {
	if ds.MountPoint != "legacy" {
		return nil
	}
	if _, err := process.RunChecked(ctx, []string{"mount", "-t", "zfs", ds.Path, dir}); err != nil {
		return fmt.Errorf("mount zfs %s at %s: %w", ds.Path, dir, err)
	}
	return nil
}

// UnmountDataset unmounts ds, tolerating the case where zfs already
// manages the mount itself.
func UnmountDataset(ctx context.Context, ds ZfsDataset) error {
	if _, err := process.Run(ctx, []string{"zfs", "unmount", ds.Path}); err != nil {
		return fmt.Errorf("zfs unmount %s: %w", ds.Path, err)
	}
	return nil
}

// FinalizeCache sets the pool's cachefile and copies /etc/zfs/zpool.cache
// into the target root, and enables the services the target needs to
// import the pool automatically on boot — the post-install step spec.md
// §4.4 calls out explicitly since zfs pools otherwise need manual
// `zpool import` after every boot.
func FinalizeCache(ctx context.Context, poolName, targetRoot string) error {
	if err := SetProperty(ctx, poolName, "cachefile", "/etc/zfs/zpool.cache"); err != nil {
		return err
	}
	dst := filepath.Join(targetRoot, "etc", "zfs", "zpool.cache")
	if _, err := process.RunChecked(ctx, []string{"mkdir", "-p", filepath.Dir(dst)}); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(dst), err)
	}
	if _, err := process.RunChecked(ctx, []string{"cp", "/etc/zfs/zpool.cache", dst}); err != nil {
		return fmt.Errorf("copy zpool.cache into target: %w", err)
	}
	if err := process.ChrootExec(ctx, targetRoot, []string{"systemctl", "enable",
		"zfs.target", "zfs-import-cache", "zfs-mount", "zfs-import.target"}); err != nil {
		return fmt.Errorf("enable zfs services: %w", err)
	}
	return nil
}
