package process

import (
	"fmt"
	"os/exec"
)

// RequiredTools is every external binary some SPEC_FULL.md component may
// shell out to over the course of a run. Not every tool is needed for
// every scheme (mkfs.f2fs only matters if a partition asks for f2fs,
// zpool only for a ZFS root), but checking the whole set up front lets
// Preflight fail before any partition is touched rather than partway
// through.
var RequiredTools = []string{
	"sgdisk", "sfdisk", "wipefs", "partprobe", "blkid",
	"mkfs.vfat", "mkfs.ext4", "mkfs.btrfs", "mkfs.xfs", "mkfs.f2fs", "mkswap",
	"mount", "umount", "swapon",
	"cryptsetup",
	"pvcreate", "vgcreate", "lvcreate", "vgscan", "vgchange",
	"zpool", "zfs",
	"btrfs",
	"useradd", "usermod", "chpasswd", "passwd",
	"mkinitcpio", "hwclock",
}

// Preflight reports the first tool in RequiredTools missing from $PATH.
// Grounded on the teacher's CheckRequiredTools, generalized from its
// fixed eight-tool list to the full set every storage and bootloader
// backend here can invoke.
func Preflight() error {
	for _, tool := range RequiredTools {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%s not found in PATH: %w", tool, err)
		}
	}
	return nil
}
