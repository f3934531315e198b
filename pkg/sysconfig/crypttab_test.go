package sysconfig

import (
	"strings"
	"testing"

	"github.com/cachyos/instcore/pkg/partition"
)

func TestGenerateCrypttab_EncryptedRootGetsKeyfile(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{Device: "/dev/sda2", MountPoint: "/", FSType: partition.FSExt4, LuksMapperName: "root", LuksUUID: "root-uuid"},
	}}
	out := GenerateCrypttab(scheme, true, false)
	if !strings.Contains(out, "root UUID=root-uuid /crypto_keyfile.bin luks") {
		t.Errorf("GenerateCrypttab() = %q, want a keyfile-backed root entry", out)
	}
}

func TestGenerateCrypttab_UnencryptedRootGetsNone(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{Device: "/dev/sda3", MountPoint: "/home", FSType: partition.FSExt4, LuksMapperName: "home", LuksUUID: "home-uuid"},
	}}
	out := GenerateCrypttab(scheme, false, false)
	if !strings.Contains(out, "home UUID=home-uuid none") {
		t.Errorf("GenerateCrypttab() = %q, want an unlocked-by-root none entry", out)
	}
}

func TestGenerateCrypttab_EncryptedRootUnencryptedBootGetsNone(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{Device: "/dev/sda2", MountPoint: "/", FSType: partition.FSExt4, LuksMapperName: "root", LuksUUID: "root-uuid"},
	}}
	out := GenerateCrypttab(scheme, true, false)
	if !strings.Contains(out, "none") {
		t.Errorf("GenerateCrypttab() = %q, want none when /boot can't supply a keyfile at unlock time", out)
	}
}

func TestGenerateCrypttab_OnlyLuksPartitionsEmitted(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{Device: "/dev/sda1", MountPoint: "/boot", FSType: partition.FSVFAT},
		{Device: "/dev/sda2", MountPoint: "/", FSType: partition.FSExt4, LuksMapperName: "root", LuksUUID: "root-uuid"},
	}}
	out := GenerateCrypttab(scheme, true, true)
	if strings.Count(out, "\n") != 4 {
		t.Errorf("GenerateCrypttab() = %q, want two header lines, one blank line, and one entry line", out)
	}
}

func TestGenerateCrypttab_DedupesByDevice(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{Device: "/dev/sda2", MountPoint: "/", FSType: partition.FSBtrfs, Subvolume: "@", LuksMapperName: "root", LuksUUID: "root-uuid"},
		{Device: "/dev/sda2", MountPoint: "/home", FSType: partition.FSBtrfs, Subvolume: "@home", LuksMapperName: "root", LuksUUID: "root-uuid"},
	}}
	out := GenerateCrypttab(scheme, true, true)
	if strings.Count(out, "root-uuid") != 1 {
		t.Errorf("GenerateCrypttab() = %q, want a single entry for one LUKS container shared by two subvolumes", out)
	}
}
