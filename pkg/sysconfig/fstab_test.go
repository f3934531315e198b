package sysconfig

import (
	"strings"
	"testing"

	"github.com/cachyos/instcore/pkg/partition"
)

func TestGenerateFstab_BasicLayout(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{Device: "/dev/sda1", MountPoint: "/boot", FSType: partition.FSVFAT, UUID: "esp-uuid"},
		{Device: "/dev/sda2", MountPoint: "/", FSType: partition.FSExt4, UUID: "root-uuid"},
		{Device: "/dev/sda3", FSType: partition.FSSwap, UUID: "swap-uuid"},
	}}
	out := GenerateFstab(scheme)

	for _, want := range []string{"UUID=esp-uuid", "UUID=root-uuid", "/boot", "\t/\t"} {
		if !strings.Contains(out, want) {
			t.Errorf("GenerateFstab() = %q, want to contain %q", out, want)
		}
	}
	if strings.Contains(out, "swap-uuid") {
		t.Errorf("GenerateFstab() should not emit a row for swap, got %q", out)
	}
}

func TestGenerateFstab_BtrfsSubvolumesGetSubvolOpt(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{Device: "/dev/sda2", MountPoint: "/", FSType: partition.FSBtrfs, Subvolume: "@", UUID: "root-uuid"},
		{Device: "/dev/sda2", MountPoint: "/home", FSType: partition.FSBtrfs, Subvolume: "@home", UUID: "root-uuid"},
	}}
	out := GenerateFstab(scheme)

	if !strings.Contains(out, "subvol=@,") {
		t.Errorf("GenerateFstab() = %q, want subvol=@ for root", out)
	}
	if !strings.Contains(out, "subvol=@home,") {
		t.Errorf("GenerateFstab() = %q, want subvol=@home for /home", out)
	}
}

func TestGenerateFstab_ZFSSkipped(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{Device: "zroot/ROOT/default", MountPoint: "/", FSType: partition.FSZFS},
	}}
	out := GenerateFstab(scheme)
	if strings.Contains(out, "zroot") {
		t.Errorf("GenerateFstab() = %q, zfs datasets should not appear in fstab", out)
	}
}

func TestGenerateFstab_LuksUsesMapperDevice(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{Device: "/dev/sda2", MountPoint: "/", FSType: partition.FSExt4, UUID: "root-uuid", LuksMapperName: "root"},
	}}
	out := GenerateFstab(scheme)
	if !strings.Contains(out, "/dev/mapper/root") {
		t.Errorf("GenerateFstab() = %q, want /dev/mapper/root as source", out)
	}
	if strings.Contains(out, "UUID=root-uuid\t") {
		t.Errorf("GenerateFstab() = %q, mapper device should take priority over UUID", out)
	}
}

func TestGenerateFstab_DedupesSameDeviceAndMountpoint(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{Device: "/dev/sda2", MountPoint: "/", FSType: partition.FSExt4, UUID: "root-uuid"},
		{Device: "/dev/sda2", MountPoint: "/", FSType: partition.FSExt4, UUID: "root-uuid"},
	}}
	out := GenerateFstab(scheme)
	if strings.Count(out, "root-uuid") != 1 {
		t.Errorf("GenerateFstab() = %q, want exactly one row for the duplicate (device, mountpoint) pair", out)
	}
}

func TestGenerateFstab_DefaultsMountOpts(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{Device: "/dev/sda2", MountPoint: "/", FSType: partition.FSExt4, UUID: "root-uuid"},
	}}
	out := GenerateFstab(scheme)
	if !strings.Contains(out, "defaults") {
		t.Errorf("GenerateFstab() = %q, want default mount options when none given", out)
	}
}
