package partition

import (
	"testing"

	"github.com/cachyos/instcore/pkg/config"
)

func TestFromSettings_RootInheritsGlobalFSName(t *testing.T) {
	cfg := &config.Settings{
		Device: "/dev/sda",
		FSName: "btrfs",
		Partitions: []config.PartitionEntry{
			{Name: "esp", MountPoint: "/boot", FSName: "vfat", Type: config.PartitionBoot, Size: "1GiB"},
			{Name: "root", MountPoint: "/", Type: config.PartitionRoot},
		},
	}

	s, err := FromSettings(cfg, UEFI)
	if err != nil {
		t.Fatalf("FromSettings() error = %v", err)
	}
	// boot + root(@) + @home + @cache: a btrfs root gets the default
	// subvolume layout synthesized onto it unless DisableBtrfsSubvolumes
	// is set.
	if len(s.Partitions) != 4 {
		t.Fatalf("len(Partitions) = %d, want 4", len(s.Partitions))
	}
	if s.Partitions[1].FSType != FSBtrfs {
		t.Errorf("root FSType = %q, want inherited btrfs", s.Partitions[1].FSType)
	}
	if s.Partitions[1].Subvolume != "/@" {
		t.Errorf("root Subvolume = %q, want /@", s.Partitions[1].Subvolume)
	}
	if s.Partitions[0].FSType != FSVFAT {
		t.Errorf("boot FSType = %q, want vfat", s.Partitions[0].FSType)
	}
}

func TestFromSettings_DisableBtrfsSubvolumesKeepsFlatRoot(t *testing.T) {
	cfg := &config.Settings{
		Device:                 "/dev/sda",
		FSName:                 "btrfs",
		DisableBtrfsSubvolumes: true,
		Partitions: []config.PartitionEntry{
			{Name: "root", MountPoint: "/", Type: config.PartitionRoot},
		},
	}

	s, err := FromSettings(cfg, BIOS)
	if err != nil {
		t.Fatalf("FromSettings() error = %v", err)
	}
	if len(s.Partitions) != 1 {
		t.Fatalf("len(Partitions) = %d, want 1 (no subvolumes synthesized)", len(s.Partitions))
	}
	if s.Partitions[0].Subvolume != "" {
		t.Errorf("root Subvolume = %q, want empty", s.Partitions[0].Subvolume)
	}
}

func TestFromSettings_NonBtrfsRootUnaffected(t *testing.T) {
	cfg := &config.Settings{
		Device: "/dev/sda",
		FSName: "ext4",
		Partitions: []config.PartitionEntry{
			{Name: "root", MountPoint: "/", Type: config.PartitionRoot},
		},
	}

	s, err := FromSettings(cfg, BIOS)
	if err != nil {
		t.Fatalf("FromSettings() error = %v", err)
	}
	if len(s.Partitions) != 1 {
		t.Fatalf("len(Partitions) = %d, want 1", len(s.Partitions))
	}
}
