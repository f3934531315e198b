package bootloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cachyos/instcore/pkg/partition"
	"github.com/cachyos/instcore/pkg/process"
	"github.com/cachyos/instcore/pkg/reporter"
	"github.com/cachyos/instcore/pkg/sysconfig"
)

// InstallSystemdBoot runs bootctl install against the ESP and writes
// one loader entry per installed kernel. On a removable target disk,
// it also strips the "autodetect" initcpio hook so the initrd built
// for this machine still boots once moved to different hardware.
func InstallSystemdBoot(ctx context.Context, cfg Config, scheme partition.PartitionScheme, kernels []string, cmdline string, rep reporter.Reporter) error {
	argv := []string{"bootctl", "--path=/boot", "install"}
	if err := process.ChrootExec(ctx, cfg.TargetDir, argv); err != nil {
		return fmt.Errorf("bootctl install: %w", err)
	}

	loaderDir := filepath.Join(cfg.TargetDir, "boot/loader")
	if err := os.WriteFile(filepath.Join(loaderDir, "loader.conf"),
		[]byte("default @saved\ntimeout 5\nconsole-mode max\neditor yes\n"), 0o644); err != nil {
		return fmt.Errorf("write loader.conf: %w", err)
	}

	entriesDir := filepath.Join(loaderDir, "entries")
	if err := os.MkdirAll(entriesDir, 0o755); err != nil {
		return fmt.Errorf("create loader entries dir: %w", err)
	}

	for _, kernelVersion := range kernels {
		entry := fmt.Sprintf("title   %s\nlinux   /vmlinuz-%s\ninitramfs /initramfs-%s.img\noptions %s\n",
			cfg.OSName, kernelVersion, kernelVersion, cmdline)
		name := strings.ReplaceAll(kernelVersion, "/", "-") + ".conf"
		if err := os.WriteFile(filepath.Join(entriesDir, name), []byte(entry), 0o644); err != nil {
			return fmt.Errorf("write loader entry %s: %w", name, err)
		}
	}

	if cfg.Removable {
		if err := stripAutodetectHook(ctx, cfg.TargetDir); err != nil {
			return err
		}
	}

	rep.Message("systemd-boot installed with %d entries", len(kernels))
	return nil
}

func stripAutodetectHook(ctx context.Context, target string) error {
	path := filepath.Join(target, "etc/mkinitcpio.conf")
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read mkinitcpio.conf: %w", err)
	}
	initcpioCfg := sysconfig.ParseInitcpioConfig(string(content))
	initcpioCfg.RemoveHook("autodetect")
	if err := os.WriteFile(path, []byte(initcpioCfg.String()), 0o644); err != nil {
		return fmt.Errorf("write mkinitcpio.conf: %w", err)
	}
	return sysconfig.Regenerate(ctx, target)
}
