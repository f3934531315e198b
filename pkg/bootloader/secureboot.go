package bootloader

import (
	"path/filepath"

	"github.com/cachyos/instcore/pkg/reporter"
)

// findShimEFI looks for a distro-provided shim in the target image,
// the entry point Secure Boot firmware will actually execute.
func findShimEFI(target string) string {
	return firstExisting([]string{
		filepath.Join(target, "usr/share/shim-signed/shimx64.efi.signed"),
		filepath.Join(target, "usr/lib/shim/shimx64.efi.signed"),
		filepath.Join(target, "usr/lib64/shim/shimx64.efi.signed"),
		filepath.Join(target, "usr/lib/shim/shimx64.efi"),
		filepath.Join(target, "usr/lib64/shim/shimx64.efi"),
	})
}

func findMokManager(target string) string {
	return firstExisting([]string{
		filepath.Join(target, "usr/lib/shim/mmx64.efi.signed"),
		filepath.Join(target, "usr/lib64/shim/mmx64.efi.signed"),
		filepath.Join(target, "usr/lib/shim/mmx64.efi"),
		filepath.Join(target, "usr/lib64/shim/mmx64.efi"),
	})
}

func findSignedGrubEFI(target string) string {
	return firstExisting([]string{
		filepath.Join(target, "usr/lib/grub/x86_64-efi-signed/grubx64.efi.signed"),
		filepath.Join(target, "usr/lib64/grub/x86_64-efi-signed/grubx64.efi.signed"),
		filepath.Join(target, "usr/lib/grub/x86_64-efi-signed/grubx64.efi"),
	})
}

func findSignedSystemdBootEFI(target string) string {
	return firstExisting([]string{
		filepath.Join(target, "usr/lib/systemd/boot/efi/systemd-bootx64.efi.signed"),
		filepath.Join(target, "usr/lib64/systemd/boot/efi/systemd-bootx64.efi.signed"),
	})
}

// setupSecureBootChain copies shim into efiBootDir as BOOTX64.EFI and
// the signed bootloader binary next to it as grubx64.efi — the name
// shim is compiled to chain-load regardless of which bootloader is
// actually behind it. Returns false (not an error) when no shim is
// present in the image, which just means Secure Boot isn't available.
func setupSecureBootChain(cfg Config, efiBootDir string, rep reporter.Reporter) (bool, error) {
	shimPath := findShimEFI(cfg.TargetDir)
	if shimPath == "" {
		return false, nil
	}

	var signed string
	switch cfg.Type {
	case SystemdBoot:
		signed = findSignedSystemdBootEFI(cfg.TargetDir)
	default:
		signed = findSignedGrubEFI(cfg.TargetDir)
	}
	if signed == "" {
		rep.Warning("no signed bootloader binary found in target image, Secure Boot chain skipped")
		return false, nil
	}

	if err := CopyEFIFile(shimPath, filepath.Join(efiBootDir, "BOOTX64.EFI")); err != nil {
		return false, err
	}
	if err := CopyEFIFile(signed, filepath.Join(efiBootDir, "grubx64.efi")); err != nil {
		return false, err
	}
	rep.Message("Installed Secure Boot chain (shim -> %s)", filepath.Base(signed))

	if mok := findMokManager(cfg.TargetDir); mok != "" {
		_ = CopyEFIFile(mok, filepath.Join(efiBootDir, "mmx64.efi"))
	}
	return true, nil
}
