package bootloader

import (
	"fmt"

	"github.com/cachyos/instcore/pkg/partition"
	"github.com/cachyos/instcore/pkg/sysconfig"
)

// ComposeCmdline builds the kernel command line every per-bootloader
// generator embeds in its entries, delegating the root=/cryptdevice=/
// rootflags=/resume= synthesis to sysconfig.KernelParams so every
// bootloader agrees on how the system actually unlocks and mounts
// root, and layering on extra (bootloader- or config-specific tokens
// such as "quiet splash" or "console=tty0") after it.
func ComposeCmdline(scheme partition.PartitionScheme, zfsDataset, extra string) (string, error) {
	base, err := sysconfig.KernelParams(scheme, sysconfig.KernelParamsConfig{
		Extra:      extra,
		ZFSDataset: zfsDataset,
	})
	if err != nil {
		return "", fmt.Errorf("compose kernel cmdline: %w", err)
	}
	return base, nil
}
