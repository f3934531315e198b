package bootloader

import (
	"context"
	"fmt"

	"github.com/cachyos/instcore/pkg/partition"
	"github.com/cachyos/instcore/pkg/reporter"
)

// Options bundles the install-time inputs that vary per bootloader
// call but aren't part of Config's static description of the target.
type Options struct {
	Scheme     partition.PartitionScheme
	ESPDevice  string // only needed for RegisterEFIBootEntry
	Kernels    []string
	ExtraBoot  string // user-supplied extra cmdline tokens, e.g. "quiet splash"
	Grub       GrubConfig
	SplashPath string // Limine only
}

// Install dispatches to the configured bootloader's installer, having
// first normalized the ESP's directory casing and composed the shared
// kernel command line every generator embeds.
func Install(ctx context.Context, cfg Config, opts Options, rep reporter.Reporter) error {
	if cfg.Firmware == partition.UEFI {
		if err := EnsureUppercaseEFIDirectory(cfg.ESP, rep); err != nil {
			rep.Warning("normalize ESP directory casing: %v", err)
		}
	}

	cmdline, err := ComposeCmdline(opts.Scheme, cfg.ZFSDataset, opts.ExtraBoot)
	if err != nil {
		return err
	}

	switch cfg.Type {
	case GRUB:
		if err := InstallGRUB(ctx, cfg, opts.Scheme, opts.Grub, rep); err != nil {
			return err
		}
	case SystemdBoot:
		if err := InstallSystemdBoot(ctx, cfg, opts.Scheme, opts.Kernels, cmdline, rep); err != nil {
			return err
		}
	case Refind:
		if err := InstallRefind(ctx, cfg, opts.Kernels, cmdline, rep); err != nil {
			return err
		}
	case Limine:
		if err := InstallLimine(ctx, cfg, opts.Scheme, cmdline, opts.SplashPath, rep); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported bootloader type %q", cfg.Type)
	}

	if cfg.Firmware == partition.UEFI && opts.ESPDevice != "" {
		if err := RegisterEFIBootEntry(ctx, cfg, opts.ESPDevice, rep); err != nil {
			rep.Warning("register EFI boot entry: %v", err)
		}
	}
	return nil
}
