package storage

import (
	"strings"
	"testing"
)

func TestGenerateCrypttab_NoKeyfile(t *testing.T) {
	devices := []LuksDevice{{MapperName: "root", UUID: "abc-123"}}
	out := GenerateCrypttab(devices, false, "")
	want := "root UUID=abc-123 none luks"
	if !strings.Contains(out, want) {
		t.Errorf("GenerateCrypttab() = %q, want line containing %q", out, want)
	}
}

func TestGenerateCrypttab_WithKeyfileAndTPM2(t *testing.T) {
	devices := []LuksDevice{{MapperName: "root", UUID: "abc-123"}}
	out := GenerateCrypttab(devices, true, "/crypto_keyfile.bin")
	want := "root UUID=abc-123 /crypto_keyfile.bin luks,tpm2-device=auto"
	if !strings.Contains(out, want) {
		t.Errorf("GenerateCrypttab() = %q, want line containing %q", out, want)
	}
}

func TestLvmStatus_IsActive(t *testing.T) {
	cases := []struct {
		status LvmStatus
		want   bool
	}{
		{LvmStatus{}, false},
		{LvmStatus{PhysicalVolumes: []string{"/dev/sda2"}}, false},
		{LvmStatus{PhysicalVolumes: []string{"/dev/sda2"}, VolumeGroups: []string{"vg0"}, LogicalVolumes: []string{"root"}}, true},
	}
	for _, c := range cases {
		if got := c.status.IsActive(); got != c.want {
			t.Errorf("IsActive(%+v) = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestLogicalVolumePath(t *testing.T) {
	if got := LogicalVolumePath("vg0", "root"); got != "/dev/mapper/vg0-root" {
		t.Errorf("LogicalVolumePath() = %q, want /dev/mapper/vg0-root", got)
	}
}
