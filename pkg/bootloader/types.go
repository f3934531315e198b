// Package bootloader synthesizes per-bootloader configuration from the
// final partition scheme and invokes that bootloader's installer — the
// Bootloader Generator component. Grounded on the teacher's
// BootloaderInstaller (EFI directory case-folding, shim/Secure Boot
// chain-loading, efibootmgr registration), generalized from the
// teacher's fixed GRUB2/systemd-boot pair to the full grub/systemd-boot/
// refind/limine set and from hand-formatted config text to template
// substitution over a known default file.
package bootloader

import "github.com/cachyos/instcore/pkg/partition"

// Type identifies which bootloader to install.
type Type string

const (
	GRUB        Type = "grub"
	SystemdBoot Type = "systemd-boot"
	Refind      Type = "refind"
	Limine      Type = "limine"
)

// Config is everything the generator needs about the target system to
// produce bootloader-specific configuration: the final scheme, where
// it's mounted, and how the firmware should see the install.
type Config struct {
	Type       Type
	TargetDir  string // chroot root, e.g. /mnt
	ESP        string // absolute path to the mounted ESP within TargetDir, e.g. /mnt/boot
	Device     string // whole-disk device the scheme was laid out on
	OSName     string
	BootID     string // --bootloader-id / EFI subdirectory name
	Firmware   partition.FirmwareMode
	Removable  bool // install to the removable-media fallback path too
	AsDefault  bool // copy this bootloader's EFI binary over EFI/boot/bootx64.efi
	IsLVM      bool
	ZFSDataset string // "<pool>/<dataset>" when root is ZFS, else ""
}

// rootEncrypted/bootEncrypted report whether the scheme's root or /boot
// partitions are LUKS containers — GRUB's ENABLE_CRYPTODISK and the
// cryptdevice= cmdline prefix both key off this.
func rootEncrypted(scheme partition.PartitionScheme) bool {
	for _, p := range scheme.Partitions {
		if p.MountPoint == "/" {
			return p.LuksMapperName != ""
		}
	}
	return false
}

func bootEncrypted(scheme partition.PartitionScheme) bool {
	for _, p := range scheme.Partitions {
		if p.MountPoint == "/boot" {
			return p.LuksMapperName != ""
		}
	}
	return false
}

func rootIsBtrfsOrZFS(scheme partition.PartitionScheme) bool {
	for _, p := range scheme.Partitions {
		if p.MountPoint == "/" {
			return p.FSType == partition.FSBtrfs || p.FSType == partition.FSZFS
		}
	}
	return false
}
