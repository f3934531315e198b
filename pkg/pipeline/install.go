package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cachyos/instcore/pkg/blockdev"
	"github.com/cachyos/instcore/pkg/bootloader"
	"github.com/cachyos/instcore/pkg/errs"
	"github.com/cachyos/instcore/pkg/partition"
	"github.com/cachyos/instcore/pkg/process"
	"github.com/cachyos/instcore/pkg/reporter"
	"github.com/cachyos/instcore/pkg/session"
	"github.com/cachyos/instcore/pkg/storage"
	"github.com/cachyos/instcore/pkg/sysconfig"
)

// InstallOptions carries the per-run choices BuildInstallWorkflow needs
// beyond what's already in config.Settings: the firmware mode probed
// for this machine and the LUKS passphrase, which settings.json never
// stores in the clear for longer than decode time.
type InstallOptions struct {
	Firmware       partition.FirmwareMode
	LuksPassphrase string
	TargetDir      string // default "/mnt"
	MinDiskBytes   uint64 // default 8 GiB, passed to blockdev.ValidateTarget
	IsLVM          bool   // root sits on an LVM logical volume, provisioned before Create
}

// BuildInstallWorkflow wires the six components into the sequential
// Workflow spec.md §5 describes: validate the target disk, plan and
// create the partition scheme, compose the storage stack (LUKS/LVM/ZFS/
// Btrfs) and mount it, write every target-root configuration file, and
// finally install the chosen bootloader.
func BuildInstallWorkflow(opts InstallOptions) *Workflow {
	target := opts.TargetDir
	if target == "" {
		target = "/mnt"
	}
	minSize := opts.MinDiskBytes
	if minSize == 0 {
		minSize = 8 << 30
	}

	return New(
		Step{Name: "Validate target disk", Run: func(ctx context.Context, st *session.State, rep reporter.Reporter) error {
			if err := blockdev.ValidateTarget(ctx, st.Settings.Device, minSize); err != nil {
				return &errs.ProbeError{Device: st.Settings.Device, Err: err}
			}
			return nil
		}},

		Step{Name: "Plan partitions", Run: func(ctx context.Context, st *session.State, rep reporter.Reporter) error {
			scheme, err := partition.FromSettings(st.Settings, opts.Firmware)
			if err != nil {
				return &errs.ConfigError{Field: "partitions", Err: err}
			}
			if warnings, err := scheme.Validate(); err != nil {
				return err
			} else {
				for _, w := range warnings {
					rep.Warning("%s", w)
				}
			}
			st.Scheme = scheme
			return nil
		}},

		Step{Name: "Create partitions", Run: func(ctx context.Context, st *session.State, rep reporter.Reporter) error {
			if st.DryRun {
				rep.Message("Dry run: skipping partition creation on %s", st.Scheme.Device)
				return nil
			}
			created, err := partition.Create(ctx, st.Scheme, rep)
			if err != nil {
				return &errs.PartitioningError{Device: st.Scheme.Device, Err: err}
			}
			st.Scheme = created
			return nil
		}},

		Step{Name: "Compose storage", Run: func(ctx context.Context, st *session.State, rep reporter.Reporter) error {
			return composeStorage(ctx, st, rep, opts, target)
		}},

		Step{Name: "Configure system", Run: func(ctx context.Context, st *session.State, rep reporter.Reporter) error {
			return configureSystem(ctx, st, rep, opts, target)
		}},

		Step{Name: "Install bootloader", Run: func(ctx context.Context, st *session.State, rep reporter.Reporter) error {
			return installBootloader(ctx, st, rep, opts, target)
		}},
	)
}

// defaultLVMVolumeGroup and defaultZFSPoolName are used when
// settings.json leaves the corresponding naming field empty.
const (
	defaultLVMVolumeGroup = "vgcachyos"
	defaultZFSPoolName    = "zpcachyos"
)

// composeStorage opens every LUKS container the scheme names, provisions
// LVM and ZFS over the result when requested, formats the remaining
// physical (or now-mapped) partitions, mounts everything, and activates
// swap — the Storage Layer Composer's dependency-ordered setup, per
// spec.md §4.4. Device-level layers always run before the filesystem
// level: LUKS opens before LVM activates before ZFS imports before
// mkfs/mount.
func composeStorage(ctx context.Context, st *session.State, rep reporter.Reporter, opts InstallOptions, target string) error {
	for i, p := range st.Scheme.Partitions {
		if p.LuksMapperName == "" {
			continue
		}
		if err := storage.CreateContainer(ctx, p.Device, storage.LuksConfig{
			Version:    storage.Luks2,
			Passphrase: opts.LuksPassphrase,
		}, rep); err != nil {
			return &errs.ComposerError{Layer: "luks", Err: err}
		}
		dev, err := storage.Open(ctx, p.Device, p.LuksMapperName, opts.LuksPassphrase, rep)
		if err != nil {
			return &errs.ComposerError{Layer: "luks", Err: err}
		}
		st.RecordLuksDevice(*dev)
		st.Scheme.Partitions[i].LuksUUID = dev.UUID
		st.Scheme.Partitions[i].Device = dev.MapperPath
	}

	if opts.IsLVM {
		if err := provisionLVM(ctx, st, rep); err != nil {
			return &errs.ComposerError{Layer: "lvm", Err: err}
		}
	}

	rootIdx, hasRoot := rootIndex(st.Scheme)
	if hasRoot && st.Scheme.Partitions[rootIdx].FSType == partition.FSZFS {
		if err := provisionZFSRoot(ctx, st, rep, rootIdx, target); err != nil {
			return &errs.ComposerError{Layer: "zfs", Err: err}
		}
	}

	if err := storage.FormatPartitions(ctx, st.Scheme, rep); err != nil {
		return &errs.ComposerError{Layer: "format", Err: err}
	}

	if err := createBtrfsSubvolumes(ctx, st.Scheme, rep); err != nil {
		return &errs.ComposerError{Layer: "btrfs", Err: err}
	}

	if err := storage.Mount(ctx, st.Scheme, target); err != nil {
		return &errs.ComposerError{Layer: "mount", Err: err}
	}

	if err := storage.ActivateSwap(ctx, st.Scheme, rep); err != nil {
		return &errs.ComposerError{Layer: "swap", Err: err}
	}

	if st.ZFSPool != "" {
		if err := storage.FinalizeCache(ctx, st.ZFSPool, target); err != nil {
			return &errs.ComposerError{Layer: "zfs", Err: err}
		}
	}

	st.TargetDir = target
	return nil
}

// provisionLVM creates a physical volume on the root partition's
// current device (already rewritten to a LUKS mapper path above, if
// root sits on an encrypted container), collects it into a single
// volume group, and creates a logical volume filling the group, then
// rewrites the root partition's Device to that logical volume so
// FormatPartitions and Mount treat it exactly like any other block
// device — mirroring how the LUKS loop above transparently swaps in a
// mapper path. ActivateLVM is run afterward so the volume group is
// visible to later scans the same way a pre-existing VG discovered on
// reboot would be, not just the one this run just created.
func provisionLVM(ctx context.Context, st *session.State, rep reporter.Reporter) error {
	rootIdx, ok := rootIndex(st.Scheme)
	if !ok {
		return fmt.Errorf("lvm: scheme has no root partition")
	}
	root := st.Scheme.Partitions[rootIdx]

	vgName := st.Settings.LVMVolumeGroup
	if vgName == "" {
		vgName = defaultLVMVolumeGroup
	}
	lvName := "root"

	if err := storage.CreatePhysicalVolume(ctx, root.Device, rep); err != nil {
		return err
	}
	if err := storage.CreateVolumeGroup(ctx, vgName, []string{root.Device}, rep); err != nil {
		return err
	}
	if err := storage.CreateLogicalVolume(ctx, vgName, lvName, "", true, rep); err != nil {
		return err
	}
	if err := storage.ActivateLVM(ctx); err != nil {
		return err
	}

	st.Scheme.Partitions[rootIdx].Device = storage.LogicalVolumePath(vgName, lvName)
	return nil
}

// provisionZFSRoot turns the root partition's raw device into a zpool
// vdev, creates a single root dataset on it with mountpoint=legacy,
// and mounts that dataset directly at target — before FormatPartitions
// and the generic Mount run, since every other mountpoint (the ESP,
// say) nests underneath the mounted root. The root partition's Device
// is rewritten to the dataset path so the rest of the pipeline treats
// it as already provisioned: FormatPartitions and the generic Mount
// both already skip FSZFS partitions by FSType.
func provisionZFSRoot(ctx context.Context, st *session.State, rep reporter.Reporter, rootIdx int, target string) error {
	root := st.Scheme.Partitions[rootIdx]

	poolName := st.Settings.ZFSPoolName
	if poolName == "" {
		poolName = defaultZFSPoolName
	}
	dataset := poolName + "/ROOT"

	if err := storage.CreatePool(ctx, storage.ZfsSetupConfig{PoolName: poolName}, root.Device, rep); err != nil {
		return err
	}
	ds := storage.ZfsDataset{Path: dataset, MountPoint: "legacy"}
	if err := storage.CreateDataset(ctx, ds); err != nil {
		return err
	}
	if err := storage.MountDataset(ctx, ds, target); err != nil {
		return err
	}

	st.Scheme.Partitions[rootIdx].Device = dataset
	st.ZFSPool = poolName
	st.ZFSDataset = dataset
	return nil
}

// createBtrfsSubvolumes groups scheme's subvolume-bearing partitions by
// their shared device, temp-mounts each device once, creates every
// subvolume it carries with btrfs subvolume create, and unmounts —
// leaving the filesystem ready for the depth-ordered subvol= mounts
// storage.Mount issues right after this runs. Mkfs already ran against
// the first occurrence of each device (partition.PartitionScheme
// collapses subvolume rows sharing a device down to one for Create and
// FormatPartitions), so by now every such device is freshly formatted
// btrfs with no subvolumes on it yet.
func createBtrfsSubvolumes(ctx context.Context, scheme partition.PartitionScheme, rep reporter.Reporter) error {
	byDevice := map[string][]partition.Partition{}
	var order []string
	for _, p := range scheme.Partitions {
		if p.Subvolume == "" {
			continue
		}
		if _, ok := byDevice[p.Device]; !ok {
			order = append(order, p.Device)
		}
		byDevice[p.Device] = append(byDevice[p.Device], p)
	}

	for _, device := range order {
		stage, err := os.MkdirTemp("", "instcore-subvol-")
		if err != nil {
			return fmt.Errorf("create subvolume staging dir: %w", err)
		}
		if _, err := process.RunChecked(ctx, []string{"mount", device, stage}); err != nil {
			os.Remove(stage)
			return fmt.Errorf("mount %s at %s: %w", device, stage, err)
		}
		for _, p := range byDevice[device] {
			if err := storage.CreateSubvolume(ctx, p.Subvolume, stage); err != nil {
				_, _ = process.Run(ctx, []string{"umount", stage})
				os.Remove(stage)
				return err
			}
			rep.Message("Created btrfs subvolume %s on %s", p.Subvolume, device)
		}
		if _, err := process.RunChecked(ctx, []string{"umount", stage}); err != nil {
			os.Remove(stage)
			return fmt.Errorf("unmount %s: %w", stage, err)
		}
		os.Remove(stage)
	}
	return nil
}

func rootIndex(scheme partition.PartitionScheme) (int, bool) {
	for i, p := range scheme.Partitions {
		if p.MountPoint == "/" {
			return i, true
		}
	}
	return 0, false
}

// configureSystem writes every in-target configuration file spec.md
// §6's "Boot files" list names and runs the in-chroot provisioning
// commands: locale, hostname, timezone, hardware clock, keymap,
// accounts, and the mkinitcpio regeneration that picks up every hook
// the storage layer requires.
func configureSystem(ctx context.Context, st *session.State, rep reporter.Reporter, opts InstallOptions, target string) error {
	s := st.Settings

	fstab := sysconfig.GenerateFstab(st.Scheme)
	if err := writeTargetFile(target, "etc/fstab", fstab); err != nil {
		return &errs.ConfigWriteError{Path: "/etc/fstab", Err: err}
	}

	rootEnc := false
	bootEnc := false
	for _, p := range st.Scheme.Partitions {
		if p.MountPoint == "/" && p.LuksMapperName != "" {
			rootEnc = true
		}
		if p.MountPoint == "/boot" && p.LuksMapperName != "" {
			bootEnc = true
		}
	}
	if len(st.LuksDevices) > 0 {
		crypttab := sysconfig.GenerateCrypttab(st.Scheme, rootEnc, bootEnc)
		if err := writeTargetFile(target, "etc/crypttab", crypttab); err != nil {
			return &errs.ConfigWriteError{Path: "/etc/crypttab", Err: err}
		}
	}

	if err := sysconfig.SetLocale(ctx, target, s.Locale); err != nil {
		return &errs.ConfigWriteError{Path: "/etc/locale.conf", Err: err}
	}
	if err := sysconfig.SetHostname(target, s.Hostname); err != nil {
		return &errs.ConfigWriteError{Path: "/etc/hostname", Err: err}
	}
	if err := sysconfig.SetTimezone(target, s.Timezone); err != nil {
		return &errs.ConfigWriteError{Path: "/etc/localtime", Err: err}
	}
	if err := sysconfig.SetHardwareClock(ctx, target, true); err != nil {
		rep.Warning("set hardware clock: %v", err)
	}
	if err := sysconfig.SetXkbLayout(target, s.XkbMap); err != nil {
		return &errs.ConfigWriteError{Path: "/etc/X11/xorg.conf.d/00-keyboard.conf", Err: err}
	}

	if err := sysconfig.CreateNewUser(ctx, target, sysconfig.UserInfo{
		Username:      s.UserName,
		Password:      s.UserPass,
		Shell:         s.UserShell,
		SudoersGroup:  "wheel",
		DefaultGroups: []string{"wheel"},
	}, rep); err != nil {
		return &errs.ConfigWriteError{Path: "/etc/passwd", Err: err}
	}
	if err := sysconfig.SetRootPassword(ctx, target, s.RootPass); err != nil {
		return &errs.ConfigWriteError{Path: "/etc/shadow", Err: err}
	}

	initcpioPath := filepath.Join(target, "etc/mkinitcpio.conf")
	content, err := os.ReadFile(initcpioPath)
	if err != nil {
		return &errs.ConfigWriteError{Path: "/etc/mkinitcpio.conf", Err: err}
	}
	initcpioCfg := sysconfig.ParseInitcpioConfig(string(content))
	initcpioCfg.NormalizeHookOrder(sysconfig.HookPolicy{
		Btrfs: hasFSType(st.Scheme, partition.FSBtrfs),
		LVM:   opts.IsLVM,
		LUKS:  rootEnc,
		ZFS:   hasFSType(st.Scheme, partition.FSZFS),
	})
	if err := writeTargetFile(target, "etc/mkinitcpio.conf", initcpioCfg.String()); err != nil {
		return &errs.ConfigWriteError{Path: "/etc/mkinitcpio.conf", Err: err}
	}
	if err := sysconfig.Regenerate(ctx, target); err != nil {
		return &errs.ConfigWriteError{Path: "/boot/initramfs-linux.img", Err: err}
	}

	if s.PostInstall != "" {
		if err := process.ChrootExec(ctx, target, []string{s.PostInstall}); err != nil {
			rep.Warning("post_install script failed: %v", err)
		}
	}

	return nil
}

func installBootloader(ctx context.Context, st *session.State, rep reporter.Reporter, opts InstallOptions, target string) error {
	espDevice := ""
	for _, p := range st.Scheme.Partitions {
		if p.MountPoint == "/boot" && p.FSType == partition.FSVFAT {
			espDevice = p.Device
		}
	}

	cfg := bootloader.Config{
		Type:       bootloader.Type(st.Settings.Bootloader),
		TargetDir:  target,
		ESP:        filepath.Join(target, "boot"),
		Device:     st.Scheme.Device,
		OSName:     "CachyOS",
		BootID:     "cachyos",
		Firmware:   opts.Firmware,
		IsLVM:      opts.IsLVM,
		ZFSDataset: st.ZFSDataset,
	}

	installErr := bootloader.Install(ctx, cfg, bootloader.Options{
		Scheme:    st.Scheme,
		ESPDevice: espDevice,
	}, rep)
	if installErr != nil {
		return &errs.BootloaderError{Type: st.Settings.Bootloader, Err: installErr}
	}
	return nil
}

func writeTargetFile(target, relPath, content string) error {
	full := filepath.Join(target, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, []byte(content), 0o644)
}

func hasFSType(scheme partition.PartitionScheme, fstype partition.FSType) bool {
	for _, p := range scheme.Partitions {
		if p.FSType == fstype {
			return true
		}
	}
	return false
}

