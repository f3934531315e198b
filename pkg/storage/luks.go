// Package storage composes LUKS, LVM, ZFS, and Btrfs-subvolume layering
// on top of a partition.PartitionScheme and mounts the result in
// dependency order — the Storage Layer Composer component.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cachyos/instcore/pkg/process"
	"github.com/cachyos/instcore/pkg/reporter"
)

// LuksVersion selects the container format cryptsetup uses.
type LuksVersion string

const (
	Luks1 LuksVersion = "luks1"
	Luks2 LuksVersion = "luks2"
)

// defaultTPM2PCRs binds the TPM2-sealed key to the platform firmware,
// bootloader, and boot-entry PCRs. The teacher's original enrollment
// call passed an empty PCR list, which enrolls a key that unseals
// unconditionally and provides no tamper detection; instcore always
// binds to a concrete PCR set instead.
const defaultTPM2PCRs = "0,2,4,7"

// Tpm2Config requests TPM2-backed automatic unlock in addition to the
// passphrase.
type Tpm2Config struct {
	PCRs   string // default defaultTPM2PCRs when empty
	Device string // default "auto"
}

// LuksConfig describes how to encrypt one or more partitions.
type LuksConfig struct {
	Version    LuksVersion
	Passphrase string
	ExtraFlags []string
	TPM2       *Tpm2Config
}

// LuksDevice is an opened LUKS container.
type LuksDevice struct {
	Partition  string
	MapperName string
	MapperPath string
	UUID       string
}

// CreateContainer formats partition as a LUKS container, feeding the
// passphrase over stdin rather than argv so it never appears in the
// process table.
func CreateContainer(ctx context.Context, partition string, cfg LuksConfig, rep reporter.Reporter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rep.Message("Creating LUKS container on %s...", partition)

	version := "luks2"
	if cfg.Version == Luks1 {
		version = "luks1"
	}
	argv := []string{"cryptsetup", "luksFormat", "--type", version, "--batch-mode", "--key-file", "-"}
	argv = append(argv, cfg.ExtraFlags...)
	argv = append(argv, partition)

	if _, err := process.RunChecked(ctx, argv, process.WithStdin(cfg.Passphrase)); err != nil {
		return fmt.Errorf("luksFormat %s: %w", partition, err)
	}
	return nil
}

// Open opens partition as mapperName, closing any stale mapper device
// of the same name first (grounded on the teacher's reopen guard).
func Open(ctx context.Context, partition, mapperName, passphrase string, rep reporter.Reporter) (*LuksDevice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rep.Message("Opening LUKS container %s as %s...", partition, mapperName)

	mapperPath := filepath.Join("/dev/mapper", mapperName)
	if _, err := os.Stat(mapperPath); err == nil {
		rep.Message("Closing existing %s before reopening...", mapperName)
		if err := Close(ctx, mapperName, rep); err != nil {
			return nil, fmt.Errorf("close existing %s: %w", mapperName, err)
		}
	}

	if _, err := process.RunChecked(ctx, []string{"cryptsetup", "luksOpen", "--key-file", "-", partition, mapperName}, process.WithStdin(passphrase)); err != nil {
		return nil, fmt.Errorf("luksOpen %s: %w", partition, err)
	}

	uuid, err := UUID(ctx, partition)
	if err != nil {
		_ = Close(ctx, mapperName, rep)
		return nil, err
	}

	return &LuksDevice{Partition: partition, MapperName: mapperName, MapperPath: mapperPath, UUID: uuid}, nil
}

// Close closes mapperName.
func Close(ctx context.Context, mapperName string, rep reporter.Reporter) error {
	if rep != nil {
		rep.Message("Closing LUKS container %s...", mapperName)
	}
	if _, err := process.RunChecked(ctx, []string{"cryptsetup", "luksClose", mapperName}); err != nil {
		return fmt.Errorf("luksClose %s: %w", mapperName, err)
	}
	return nil
}

// UUID returns the LUKS container UUID (not the filesystem UUID inside
// it) for partition.
func UUID(ctx context.Context, partition string) (string, error) {
	out, err := process.Capture(ctx, []string{"cryptsetup", "luksUUID", partition})
	if err != nil {
		return "", fmt.Errorf("luksUUID %s: %w", partition, err)
	}
	if out == "" {
		return "", fmt.Errorf("empty LUKS UUID for %s", partition)
	}
	return out, nil
}

// EnrollTPM2 enrolls a TPM2-sealed key for automatic unlock, bound to
// cfg.PCRs (defaultTPM2PCRs when unset).
func EnrollTPM2(ctx context.Context, partition, passphrase string, cfg Tpm2Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pcrs := cfg.PCRs
	if pcrs == "" {
		pcrs = defaultTPM2PCRs
	}
	device := cfg.Device
	if device == "" {
		device = "auto"
	}

	keyFile, err := os.CreateTemp("", "luks-key-*")
	if err != nil {
		return fmt.Errorf("create temporary key file: %w", err)
	}
	keyPath := keyFile.Name()
	defer os.Remove(keyPath)

	if _, err := keyFile.WriteString(passphrase); err != nil {
		_ = keyFile.Close()
		return fmt.Errorf("write temporary key file: %w", err)
	}
	if err := keyFile.Close(); err != nil {
		return fmt.Errorf("close temporary key file: %w", err)
	}

	argv := []string{
		"systemd-cryptenroll",
		"--unlock-key-file=" + keyPath,
		"--tpm2-device=" + device,
		"--tpm2-pcrs=" + pcrs,
		partition,
	}
	if _, err := process.RunChecked(ctx, argv); err != nil {
		return fmt.Errorf("enroll TPM2 on %s: %w", partition, err)
	}
	return nil
}

// IsTPMAvailable reports whether a TPM2 device node is present.
func IsTPMAvailable() bool {
	for _, dev := range []string{"/dev/tpm0", "/dev/tpmrm0"} {
		if _, err := os.Stat(dev); err == nil {
			return true
		}
	}
	return false
}

// maxUsedKeySlots is the threshold spec.md §4.4 sets for refusing to
// add another key: a LUKS header has 8 slots total, and the composer
// leaves headroom rather than filling it.
const maxUsedKeySlots = 4

// AddKey adds a new passphrase/keyfile to device's LUKS header, unlocked
// by the existing passphrase. Refuses once maxUsedKeySlots are already
// occupied, so the header always keeps headroom for recovery.
func AddKey(ctx context.Context, device, existingPassphrase, newKeyPath string, extraFlags []string) error {
	used, err := usedKeySlots(ctx, device)
	if err != nil {
		return fmt.Errorf("inspect key slots on %s: %w", device, err)
	}
	if used >= maxUsedKeySlots {
		return fmt.Errorf("refusing to add key to %s: %d slots already in use (max %d)", device, used, maxUsedKeySlots)
	}

	argv := []string{"cryptsetup", "luksAddKey", "--key-file", "-"}
	argv = append(argv, extraFlags...)
	argv = append(argv, device, newKeyPath)
	if _, err := process.RunChecked(ctx, argv, process.WithStdin(existingPassphrase)); err != nil {
		return fmt.Errorf("luksAddKey %s: %w", device, err)
	}
	return nil
}

// SetupKeyfile generates a random 512-byte keyfile inside the mounted
// target root, chmods it 0600, and adds it as a LUKS key for device.
// Returns the keyfile's path inside the target root.
func SetupKeyfile(ctx context.Context, rootMountpoint, device, existingPassphrase string, extraFlags []string) (string, error) {
	keyPath := filepath.Join(rootMountpoint, "crypto_keyfile.bin")

	if _, err := process.RunChecked(ctx, []string{"dd", "if=/dev/urandom", "of=" + keyPath, "bs=512", "count=1"}); err != nil {
		return "", fmt.Errorf("generate keyfile: %w", err)
	}
	if err := os.Chmod(keyPath, 0o600); err != nil {
		return "", fmt.Errorf("chmod keyfile: %w", err)
	}
	if err := AddKey(ctx, device, existingPassphrase, keyPath, extraFlags); err != nil {
		return "", err
	}
	return "/crypto_keyfile.bin", nil
}

func usedKeySlots(ctx context.Context, device string) (int, error) {
	out, err := process.Capture(ctx, []string{"cryptsetup", "luksDump", device})
	if err != nil {
		return 0, err
	}
	count := 0
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Key Slot") && strings.HasSuffix(line, "ENABLED") {
			count++
			continue
		}
		// LUKS2 dump format: "  0: luks2" under a "Keyslots:" section.
		if len(line) > 2 && line[1] == ':' && (line[0] >= '0' && line[0] <= '9') {
			count++
		}
	}
	return count, nil
}

// GenerateCrypttab renders /etc/crypttab entries. A device unlocked
// purely through the TPM2 initrd chain (no separate on-disk keyfile
// deployed) gets "none"; one with a keyfile dropped into the initramfs
// references it directly so boot does not fall back to an interactive
// prompt the installer never configured a console for.
func GenerateCrypttab(devices []LuksDevice, tpm2Enabled bool, keyfilePath string) string {
	var lines []string
	lines = append(lines, "# /etc/crypttab: mappings for encrypted partitions.", "#")

	keySource := "none"
	if keyfilePath != "" {
		keySource = keyfilePath
	}

	options := "luks"
	if tpm2Enabled {
		options = "luks,tpm2-device=auto"
	}

	for _, dev := range devices {
		lines = append(lines, fmt.Sprintf("%s UUID=%s %s %s", dev.MapperName, dev.UUID, keySource, options))
	}
	return strings.Join(lines, "\n") + "\n"
}
