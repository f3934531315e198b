package partition

import (
	"strings"
	"testing"
)

func TestDefaultScheme_UEFI(t *testing.T) {
	s, err := DefaultScheme("/dev/nvme0n1", UEFI, DefaultSchemeOptions{
		RootFSType: FSExt4,
		IsSSD:      true,
	})
	if err != nil {
		t.Fatalf("DefaultScheme() error = %v", err)
	}
	if !s.IsEFI {
		t.Error("IsEFI = false, want true")
	}
	if len(s.Partitions) != 2 {
		t.Fatalf("len(Partitions) = %d, want 2 (ESP + root)", len(s.Partitions))
	}
	if s.Partitions[0].FSType != FSVFAT || s.Partitions[0].MountPoint != "/boot" {
		t.Errorf("Partitions[0] = %+v, want ESP at /boot", s.Partitions[0])
	}
	if s.Partitions[1].MountPoint != "/" || s.Partitions[1].Size != "" {
		t.Errorf("Partitions[1] = %+v, want root with empty (grow) size", s.Partitions[1])
	}
}

func TestDefaultScheme_BtrfsSubvolumes(t *testing.T) {
	s, err := DefaultScheme("/dev/sda", UEFI, DefaultSchemeOptions{
		RootFSType:            FSBtrfs,
		CreateBtrfsSubvolumes: true,
	})
	if err != nil {
		t.Fatalf("DefaultScheme() error = %v", err)
	}
	var sawHome bool
	for _, p := range s.Partitions {
		if p.Subvolume == "/@home" && p.MountPoint == "/home" {
			sawHome = true
		}
	}
	if !sawHome {
		t.Errorf("expected a /@home subvolume, got %+v", s.Partitions)
	}
}

func TestValidate_RequiresRoot(t *testing.T) {
	s := PartitionScheme{Device: "/dev/sda", Partitions: []Partition{{FSType: FSVFAT, MountPoint: "/boot"}}}
	_, err := s.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for scheme with no root")
	}
}

func TestValidate_UEFIRequiresESP(t *testing.T) {
	s := PartitionScheme{Device: "/dev/sda", IsEFI: true, Partitions: []Partition{{FSType: FSExt4, MountPoint: "/"}}}
	_, err := s.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for UEFI scheme with no ESP")
	}
}

func TestValidate_MultipleGrowPartitionsWarns(t *testing.T) {
	s := PartitionScheme{Device: "/dev/sda", Partitions: []Partition{
		{FSType: FSExt4, MountPoint: "/"},
		{FSType: FSExt4, MountPoint: "/home"},
	}}
	warnings, err := s.Validate()
	if err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
}

func TestScript_UEFILayout(t *testing.T) {
	s, err := DefaultScheme("/dev/sda", UEFI, DefaultSchemeOptions{RootFSType: FSExt4, SwapPartitionSize: "4GiB"})
	if err != nil {
		t.Fatalf("DefaultScheme() error = %v", err)
	}
	script := s.Script()
	if !strings.HasPrefix(script, "label: gpt\n") {
		t.Errorf("Script() = %q, want gpt label header", script)
	}
	lines := strings.Split(strings.TrimSpace(script), "\n")
	if len(lines) != 4 {
		t.Fatalf("Script() lines = %v, want 4 (label + ESP + swap + root)", lines)
	}
	if !strings.Contains(lines[1], "type=U") || !strings.Contains(lines[1], "bootable") {
		t.Errorf("line 1 = %q, want ESP with bootable flag", lines[1])
	}
	if !strings.Contains(lines[2], "type=S") {
		t.Errorf("line 2 = %q, want swap", lines[2])
	}
	if !strings.Contains(lines[3], "type=L") {
		t.Errorf("line 3 = %q, want Linux root", lines[3])
	}
}

func TestScript_BIOSLayout(t *testing.T) {
	s, err := DefaultScheme("/dev/sda", BIOS, DefaultSchemeOptions{RootFSType: FSExt4})
	if err != nil {
		t.Fatalf("DefaultScheme() error = %v", err)
	}
	script := s.Script()
	if !strings.HasPrefix(script, "label: dos\n") {
		t.Errorf("Script() = %q, want dos label header", script)
	}
}

func TestFromConfig(t *testing.T) {
	raw := []map[string]any{
		{"fstype": "fat32", "mountpoint": "/boot", "size": "1GiB"},
		{"fstype": "ext4", "mountpoint": "/"},
	}
	s, err := FromConfig("/dev/sda", true, raw)
	if err != nil {
		t.Fatalf("FromConfig() error = %v", err)
	}
	if len(s.Partitions) != 2 {
		t.Fatalf("len(Partitions) = %d, want 2", len(s.Partitions))
	}
	if s.Partitions[0].FSType != FSVFAT {
		t.Errorf("Partitions[0].FSType = %q, want vfat (normalized from fat32)", s.Partitions[0].FSType)
	}
}

func TestPreview_IncludesScript(t *testing.T) {
	s, err := DefaultScheme("/dev/sda", UEFI, DefaultSchemeOptions{RootFSType: FSExt4})
	if err != nil {
		t.Fatalf("DefaultScheme() error = %v", err)
	}
	preview := s.Preview()
	if !strings.Contains(preview, "Partitioning script:") {
		t.Error("Preview() missing script section")
	}
	if !strings.Contains(preview, "/dev/sda") {
		t.Error("Preview() missing device name")
	}
}
