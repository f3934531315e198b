package bootloader

import (
	"testing"

	"github.com/cachyos/instcore/pkg/partition"
)

func TestRootEncrypted(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{MountPoint: "/boot", FSType: partition.FSVFAT},
		{MountPoint: "/", FSType: partition.FSExt4, LuksMapperName: "cryptroot"},
	}}
	if !rootEncrypted(scheme) {
		t.Error("expected root to be reported encrypted")
	}
	if bootEncrypted(scheme) {
		t.Error("expected /boot to be reported unencrypted")
	}
}

func TestRootIsBtrfsOrZFS(t *testing.T) {
	btrfs := partition.PartitionScheme{Partitions: []partition.Partition{{MountPoint: "/", FSType: partition.FSBtrfs}}}
	if !rootIsBtrfsOrZFS(btrfs) {
		t.Error("expected btrfs root to report true")
	}

	ext4 := partition.PartitionScheme{Partitions: []partition.Partition{{MountPoint: "/", FSType: partition.FSExt4}}}
	if rootIsBtrfsOrZFS(ext4) {
		t.Error("expected ext4 root to report false")
	}

	zfs := partition.PartitionScheme{Partitions: []partition.Partition{{MountPoint: "/", FSType: partition.FSZFS}}}
	if !rootIsBtrfsOrZFS(zfs) {
		t.Error("expected zfs root to report true")
	}
}

func TestRootEncrypted_NoRootPartition(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{{MountPoint: "/boot", FSType: partition.FSVFAT}}}
	if rootEncrypted(scheme) {
		t.Error("expected false when no root partition is present")
	}
}
