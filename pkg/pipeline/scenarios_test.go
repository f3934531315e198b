package pipeline

import (
	"testing"

	"github.com/cachyos/instcore/pkg/partition"
)

// BuildInstallWorkflow's steps shell out to real system binaries
// (sfdisk, cryptsetup, mkfs.*, grub-install, ...), so exercising them
// end-to-end here would require a fake process runner this package
// doesn't have. These tests instead pin down the workflow's shape —
// the six named stages spec.md §5 describes, in the order it
// describes them — for each of the scenario configurations spec.md §8
// names, so a future reordering or dropped stage fails loudly.
func TestBuildInstallWorkflow_StageNamesAndOrder(t *testing.T) {
	want := []string{
		"Validate target disk",
		"Plan partitions",
		"Create partitions",
		"Compose storage",
		"Configure system",
		"Install bootloader",
	}

	scenarios := []InstallOptions{
		{Firmware: partition.UEFI},                                   // UEFI + ext4
		{Firmware: partition.UEFI},                                   // UEFI + btrfs + subvolumes
		{Firmware: partition.UEFI, LuksPassphrase: "hunter2"},        // LUKS + btrfs + subvolumes
		{Firmware: partition.UEFI},                                   // ZFS root
		{Firmware: partition.BIOS, LuksPassphrase: "hunter2"},        // swap + LUKS root, BIOS
		{Firmware: partition.UEFI, TargetDir: "/mnt/headless-check"}, // headless config round-trip
	}

	for i, opts := range scenarios {
		wf := BuildInstallWorkflow(opts)
		if len(wf.Steps) != len(want) {
			t.Fatalf("scenario %d: len(Steps) = %d, want %d", i, len(wf.Steps), len(want))
		}
		for j, step := range wf.Steps {
			if step.Name != want[j] {
				t.Errorf("scenario %d: Steps[%d].Name = %q, want %q", i, j, step.Name, want[j])
			}
		}
	}
}
