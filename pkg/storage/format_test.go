package storage

import (
	"testing"

	"github.com/cachyos/instcore/pkg/partition"
)

func TestMkfsArgv(t *testing.T) {
	cases := []struct {
		fstype partition.FSType
		want   string
	}{
		{partition.FSVFAT, "mkfs.vfat"},
		{partition.FSExt4, "mkfs.ext4"},
		{partition.FSBtrfs, "mkfs.btrfs"},
		{partition.FSXFS, "mkfs.xfs"},
		{partition.FSSwap, "mkswap"},
	}
	for _, c := range cases {
		argv, err := mkfsArgv(partition.Partition{Device: "/dev/sda1", FSType: c.fstype})
		if err != nil {
			t.Fatalf("mkfsArgv(%s) error = %v", c.fstype, err)
		}
		if argv[0] != c.want {
			t.Errorf("mkfsArgv(%s)[0] = %q, want %q", c.fstype, argv[0], c.want)
		}
	}
}

func TestMkfsArgv_UnknownFSTypeErrors(t *testing.T) {
	if _, err := mkfsArgv(partition.Partition{Device: "/dev/sda1", FSType: partition.FSUnknown}); err == nil {
		t.Fatal("expected error for unknown filesystem type")
	}
}
