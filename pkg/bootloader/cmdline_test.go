package bootloader

import (
	"strings"
	"testing"

	"github.com/cachyos/instcore/pkg/partition"
)

func TestComposeCmdline_UUIDRoot(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{MountPoint: "/", FSType: partition.FSExt4, UUID: "1111-2222"},
	}}
	out, err := ComposeCmdline(scheme, "", "quiet splash")
	if err != nil {
		t.Fatalf("ComposeCmdline: %v", err)
	}
	if !strings.Contains(out, "root=UUID=1111-2222") {
		t.Errorf("expected root=UUID=..., got %q", out)
	}
	if !strings.Contains(out, "quiet splash") {
		t.Errorf("expected extra tokens preserved, got %q", out)
	}
}

func TestComposeCmdline_MissingUUIDFails(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{MountPoint: "/", FSType: partition.FSExt4},
	}}
	if _, err := ComposeCmdline(scheme, "", ""); err == nil {
		t.Fatal("expected error when root partition has no UUID")
	}
}

func TestComposeCmdline_ZFSRoot(t *testing.T) {
	scheme := partition.PartitionScheme{Partitions: []partition.Partition{
		{MountPoint: "/", FSType: partition.FSZFS},
	}}
	out, err := ComposeCmdline(scheme, "zroot/ROOT/default", "")
	if err != nil {
		t.Fatalf("ComposeCmdline: %v", err)
	}
	if !strings.Contains(out, "root=ZFS=zroot/ROOT/default") {
		t.Errorf("expected ZFS root param, got %q", out)
	}
}
