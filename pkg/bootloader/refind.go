package bootloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cachyos/instcore/pkg/process"
	"github.com/cachyos/instcore/pkg/reporter"
)

// InstallRefind runs refind-install against the ESP, then writes
// /boot/refind_linux.conf with the "standard" and "single-user"
// entries spec.md §4.6 requires, listing every installed kernel
// version in extra_kernel_version_strings so rEFInd's own kernel
// detection stays in sync with what's actually in /boot.
func InstallRefind(ctx context.Context, cfg Config, kernels []string, cmdline string, rep reporter.Reporter) error {
	if err := process.ChrootExec(ctx, cfg.TargetDir, []string{"refind-install"}); err != nil {
		return fmt.Errorf("refind-install: %w", err)
	}

	conf := fmt.Sprintf(
		"\"Boot with standard options\"  \"%s\"\n\"Boot to single-user mode\"     \"%s single\"\n",
		cmdline, cmdline,
	)
	path := filepath.Join(cfg.TargetDir, "boot/refind_linux.conf")
	if err := os.WriteFile(path, []byte(conf), 0o644); err != nil {
		return fmt.Errorf("write refind_linux.conf: %w", err)
	}

	themeConf := filepath.Join(cfg.TargetDir, "boot/EFI/refind/theme/theme.conf")
	if _, err := os.Stat(filepath.Dir(themeConf)); err == nil {
		rep.Message("rEFInd theme detected at %s", filepath.Dir(themeConf))
	}

	if len(kernels) > 0 {
		confPath := filepath.Join(cfg.TargetDir, "boot/EFI/refind/refind.conf")
		if err := appendExtraKernelVersions(confPath, kernels); err != nil {
			rep.Warning("update refind.conf extra_kernel_version_strings: %v", err)
		}
	}

	rep.Message("rEFInd installed")
	return nil
}

func appendExtraKernelVersions(confPath string, kernels []string) error {
	if _, err := os.Stat(confPath); err != nil {
		return nil // refind.conf not present in this rEFInd layout, nothing to edit.
	}
	line := fmt.Sprintf("extra_kernel_version_strings %s\n", strings.Join(kernels, ","))
	f, err := os.OpenFile(confPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = f.WriteString(line)
	return err
}
