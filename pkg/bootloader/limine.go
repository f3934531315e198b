package bootloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cachyos/instcore/pkg/partition"
	"github.com/cachyos/instcore/pkg/process"
	"github.com/cachyos/instcore/pkg/reporter"
)

// InstallLimine copies limine's EFI binary into the ESP and writes
// limine.conf with one KERNEL_CMDLINE[default] entry, optionally
// wiring in a splash image and, when root is btrfs, the
// snapper-sync integration the teacher's BootloaderGenerator pairs
// with every other btrfs-aware bootloader path.
func InstallLimine(ctx context.Context, cfg Config, scheme partition.PartitionScheme, cmdline, splashPath string, rep reporter.Reporter) error {
	src := filepath.Join(cfg.TargetDir, "usr/share/limine/BOOTX64.EFI")
	dst := filepath.Join(cfg.TargetDir, "boot/EFI/BOOT/BOOTX64.EFI")
	if err := CopyEFIFile(src, dst); err != nil {
		return fmt.Errorf("copy limine EFI binary: %w", err)
	}

	var sb []byte
	sb = append(sb, []byte("TIMEOUT=5\n\n")...)
	sb = append(sb, []byte(fmt.Sprintf(":%s\n", cfg.OSName))...)
	sb = append(sb, []byte("    PROTOCOL=linux\n")...)
	sb = append(sb, []byte("    KERNEL_PATH=boot:///vmlinuz-linux\n")...)
	sb = append(sb, []byte("    MODULE_PATH=boot:///initramfs-linux.img\n")...)
	sb = append(sb, []byte(fmt.Sprintf("    KERNEL_CMDLINE[default]=\"%s\"\n", cmdline))...)
	if splashPath != "" {
		sb = append(sb, []byte(fmt.Sprintf("    MODULE_PATH=boot://%s\n", splashPath))...)
	}

	if err := os.WriteFile(filepath.Join(cfg.TargetDir, "boot/limine.conf"), sb, 0o644); err != nil {
		return fmt.Errorf("write limine.conf: %w", err)
	}

	if rootIsBtrfsOrZFS(scheme) {
		if err := enableSnapperSync(ctx, cfg.TargetDir); err != nil {
			rep.Warning("enable limine-snapper-sync: %v", err)
		}
	}

	rep.Message("Limine installed")
	return nil
}

func enableSnapperSync(ctx context.Context, target string) error {
	if err := process.ChrootExec(ctx, target, []string{"systemctl", "enable", "limine-snapper-sync.service"}); err != nil {
		return fmt.Errorf("enable limine-snapper-sync.service: %w", err)
	}
	return nil
}
