package sysconfig

import (
	"strings"
	"testing"

	"github.com/cachyos/instcore/pkg/partition"
)

func TestKernelParams_LUKSRoot(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{Device: "/dev/mapper/root", MountPoint: "/", FSType: partition.FSBtrfs, Subvolume: "@", UUID: "uuid-root", LuksMapperName: "root"},
	}}
	out, err := KernelParams(scheme, KernelParamsConfig{Extra: "quiet splash"})
	if err != nil {
		t.Fatalf("KernelParams() error = %v", err)
	}
	for _, want := range []string{"rw", "quiet", "splash", "cryptdevice=UUID=uuid-root:root", "root=/dev/mapper/root", "rootflags=subvol=@"} {
		if !strings.Contains(out, want) {
			t.Errorf("KernelParams() = %q, want to contain %q", out, want)
		}
	}
}

func TestKernelParams_ZFSRootRequiresDataset(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{Device: "zroot/ROOT/default", MountPoint: "/", FSType: partition.FSZFS},
	}}
	if _, err := KernelParams(scheme, KernelParamsConfig{}); err == nil {
		t.Fatal("expected error for ZFS root without dataset")
	}
	out, err := KernelParams(scheme, KernelParamsConfig{ZFSDataset: "zroot/ROOT/default"})
	if err != nil {
		t.Fatalf("KernelParams() error = %v", err)
	}
	if !strings.Contains(out, "root=ZFS=zroot/ROOT/default") {
		t.Errorf("KernelParams() = %q, want root=ZFS= token", out)
	}
}

func TestKernelParams_MissingRootUUIDFails(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{Device: "/dev/sda2", MountPoint: "/", FSType: partition.FSExt4},
	}}
	if _, err := KernelParams(scheme, KernelParamsConfig{}); err == nil {
		t.Fatal("expected error for missing root UUID")
	}
}

func TestKernelParams_SwapResume(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{Device: "/dev/sda2", MountPoint: "/", FSType: partition.FSExt4, UUID: "root-uuid"},
		{Device: "/dev/sda3", FSType: partition.FSSwap, UUID: "swap-uuid"},
	}}
	out, err := KernelParams(scheme, KernelParamsConfig{})
	if err != nil {
		t.Fatalf("KernelParams() error = %v", err)
	}
	if !strings.Contains(out, "resume=UUID=swap-uuid") {
		t.Errorf("KernelParams() = %q, want resume= token", out)
	}
}
