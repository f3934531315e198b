package bootloader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cachyos/instcore/pkg/reporter"
)

// EnsureUppercaseEFIDirectory renames a lowercase "efi" directory (and
// any lowercase "boot" beneath it) to the uppercase form the UEFI spec
// expects, via a two-step rename since FAT32 is case-insensitive but
// case-preserving and a direct rename to a different case is a no-op.
func EnsureUppercaseEFIDirectory(espPath string, rep reporter.Reporter) error {
	entries, err := os.ReadDir(espPath)
	if err != nil {
		return nil // ESP may not exist yet.
	}

	var efiDirName string
	for _, entry := range entries {
		if entry.IsDir() && strings.EqualFold(entry.Name(), "efi") {
			efiDirName = entry.Name()
			break
		}
	}
	if efiDirName == "" {
		return nil
	}
	if efiDirName == "EFI" {
		return ensureUppercaseBootDir(filepath.Join(espPath, "EFI"), rep)
	}

	lower := filepath.Join(espPath, efiDirName)
	tmp := filepath.Join(espPath, "efi_rename_tmp")
	upper := filepath.Join(espPath, "EFI")

	if err := os.Rename(lower, tmp); err != nil {
		return fmt.Errorf("rename %s to temp: %w", efiDirName, err)
	}
	if err := os.Rename(tmp, upper); err != nil {
		_ = os.Rename(tmp, lower)
		return fmt.Errorf("rename temp to EFI: %w", err)
	}
	rep.Message("Renamed %s/ to EFI/ for UEFI compatibility", efiDirName)
	return ensureUppercaseBootDir(upper, rep)
}

func ensureUppercaseBootDir(efiPath string, rep reporter.Reporter) error {
	entries, err := os.ReadDir(efiPath)
	if err != nil {
		return nil
	}

	var bootDirName string
	for _, entry := range entries {
		if entry.IsDir() && strings.EqualFold(entry.Name(), "boot") {
			bootDirName = entry.Name()
			break
		}
	}
	if bootDirName == "" || bootDirName == "BOOT" {
		return nil
	}

	lower := filepath.Join(efiPath, bootDirName)
	tmp := filepath.Join(efiPath, "boot_rename_tmp")
	upper := filepath.Join(efiPath, "BOOT")

	if err := os.Rename(lower, tmp); err != nil {
		return fmt.Errorf("rename %s to temp: %w", bootDirName, err)
	}
	if err := os.Rename(tmp, upper); err != nil {
		_ = os.Rename(tmp, lower)
		return fmt.Errorf("rename temp to BOOT: %w", err)
	}
	rep.Message("Renamed EFI/%s/ to EFI/BOOT/ for UEFI compatibility", bootDirName)
	return nil
}

// CopyEFIFile copies src to dst, verifying the byte count and fsyncing
// before close — firmware reading a partially-written EFI binary off
// disk is a bricked boot, not a retryable error.
func CopyEFIFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	info, err := source.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create %s parent dir: %w", dst, err)
	}
	dest, err := os.Create(dst)
	if err != nil {
		return err
	}

	written, err := io.Copy(dest, source)
	if err != nil {
		_ = dest.Close()
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if written != info.Size() {
		_ = dest.Close()
		return fmt.Errorf("incomplete copy %s to %s: wrote %d, expected %d", src, dst, written, info.Size())
	}
	if err := dest.Sync(); err != nil {
		_ = dest.Close()
		return fmt.Errorf("sync %s: %w", dst, err)
	}
	return dest.Close()
}

// firstExisting returns the first path in candidates that exists, or
// "" if none do.
func firstExisting(candidates []string) string {
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
