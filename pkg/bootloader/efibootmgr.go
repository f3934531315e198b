package bootloader

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/cachyos/instcore/pkg/blockdev"
	"github.com/cachyos/instcore/pkg/process"
	"github.com/cachyos/instcore/pkg/reporter"
)

// RegisterEFIBootEntry creates a UEFI boot entry pointing at the
// installed bootloader via efibootmgr, a belt-and-suspenders step for
// firmware that won't auto-detect a freshly written ESP. Missing
// efibootmgr or a non-EFI host are reported, not failed: the
// removable-media fallback path still boots either way.
func RegisterEFIBootEntry(ctx context.Context, cfg Config, espDevice string, rep reporter.Reporter) error {
	if _, err := os.Stat("/sys/firmware/efi/efivars"); os.IsNotExist(err) {
		rep.Message("not running on an EFI host, skipping boot entry registration")
		return nil
	}

	disk, partNum, err := blockdev.ParsePartitionNumber(espDevice)
	if err != nil {
		return fmt.Errorf("parse ESP device %s: %w", espDevice, err)
	}

	label := cfg.OSName
	if label == "" {
		label = "Linux"
	}

	argv := []string{
		"efibootmgr", "--create",
		"--disk", disk,
		"--part", strconv.Itoa(partNum),
		"--loader", `\EFI\BOOT\BOOTX64.EFI`,
		"--label", label,
	}
	if _, err := process.RunChecked(ctx, argv); err != nil {
		return fmt.Errorf("efibootmgr: %w", err)
	}
	rep.Message("Registered EFI boot entry %q", label)
	return nil
}
