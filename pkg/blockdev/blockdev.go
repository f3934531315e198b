// Package blockdev answers "what disks exist and what is on them" —
// the Block-Device Query component. Probe prefers lsblk -J -O -b,
// parsing the same JSON shape udisks2 and most distro installers already
// rely on, and falls back to the sysfs walk the teacher used when lsblk
// is missing from the install medium.
package blockdev

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/cachyos/instcore/pkg/process"
)

// Partition describes one partition of a Disk.
type Partition struct {
	Device     string
	Size       uint64
	FSType     string
	Label      string
	UUID       string
	PartUUID   string
	MountPoint string
}

// Disk describes one physical block device and its partitions.
type Disk struct {
	Device      string
	Size        uint64
	Model       string
	Transport   string
	Rotational  bool
	IsRemovable bool
	Partitions  []Partition
}

// lsblk -J -O -b output shape. Only the fields instcore consumes are
// declared; lsblk emits many more we don't need.
type lsblkOutput struct {
	BlockDevices []lsblkDevice `json:"blockdevices"`
}

type lsblkDevice struct {
	Name       string        `json:"name"`
	Size       json.Number   `json:"size"`
	Model      string        `json:"model"`
	Tran       string        `json:"tran"`
	Rota       bool          `json:"rota"`
	RM         bool          `json:"rm"`
	Type       string        `json:"type"`
	FSType     string        `json:"fstype"`
	Label      string        `json:"label"`
	UUID       string        `json:"uuid"`
	PartUUID   string        `json:"partuuid"`
	MountPoint string        `json:"mountpoint"`
	Children   []lsblkDevice `json:"children"`
}

// Probe enumerates every disk (type "disk" in lsblk terms) on the
// system, preferring lsblk -J -O -b and falling back to a /sys/block
// walk if lsblk is unavailable or fails to parse. ghw.Block() is then
// consulted to backfill Transport/Rotational for any disk lsblk left
// blank — cheap USB/virtio controllers often omit "tran" and "rota".
func Probe(ctx context.Context) ([]Disk, error) {
	disks, err := probeLsblkOrSysfs(ctx)
	if err != nil {
		return nil, err
	}
	enrichWithGHW(disks)
	return disks, nil
}

func probeLsblkOrSysfs(ctx context.Context) ([]Disk, error) {
	out, err := process.Capture(ctx, []string{"lsblk", "-J", "-O", "-b"})
	if err == nil {
		disks, parseErr := parseLsblk(out)
		if parseErr == nil {
			return disks, nil
		}
	}
	return probeSysfs()
}

func parseLsblk(out string) ([]Disk, error) {
	var parsed lsblkOutput
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return nil, fmt.Errorf("parse lsblk output: %w", err)
	}

	var disks []Disk
	for _, dev := range parsed.BlockDevices {
		if dev.Type != "disk" {
			continue
		}
		size, _ := dev.Size.Int64()
		disk := Disk{
			Device:      "/dev/" + dev.Name,
			Size:        uint64(size),
			Model:       dev.Model,
			Transport:   dev.Tran,
			Rotational:  dev.Rota,
			IsRemovable: dev.RM,
		}
		for _, child := range dev.Children {
			if child.Type != "part" {
				continue
			}
			psize, _ := child.Size.Int64()
			disk.Partitions = append(disk.Partitions, Partition{
				Device:     "/dev/" + child.Name,
				Size:       uint64(psize),
				FSType:     child.FSType,
				Label:      child.Label,
				UUID:       child.UUID,
				PartUUID:   child.PartUUID,
				MountPoint: child.MountPoint,
			})
		}
		disks = append(disks, disk)
	}
	return disks, nil
}

// probeSysfs is the lsblk-less fallback: walk /sys/block directly. This
// is the teacher's original disk-discovery strategy, kept verbatim for
// the install-medium-without-lsblk case.
func probeSysfs() ([]Disk, error) {
	var devices []string
	for _, pattern := range []string{"/sys/block/sd*", "/sys/block/nvme*n*", "/sys/block/vd*", "/sys/block/mmcblk*"} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		devices = append(devices, matches...)
	}

	var disks []Disk
	for _, path := range devices {
		name := filepath.Base(path)
		disk, err := sysfsDiskInfo(name)
		if err != nil {
			continue
		}
		disks = append(disks, disk)
	}
	return disks, nil
}

func sysfsDiskInfo(name string) (Disk, error) {
	disk := Disk{Device: "/dev/" + name}

	sizeData, err := os.ReadFile(filepath.Join("/sys/block", name, "size"))
	if err != nil {
		return disk, fmt.Errorf("read size: %w", err)
	}
	blocks, err := strconv.ParseUint(strings.TrimSpace(string(sizeData)), 10, 64)
	if err != nil {
		return disk, fmt.Errorf("parse size: %w", err)
	}
	disk.Size = blocks * 512

	if data, err := os.ReadFile(filepath.Join("/sys/block", name, "removable")); err == nil {
		disk.IsRemovable = strings.TrimSpace(string(data)) == "1"
	}
	if data, err := os.ReadFile(filepath.Join("/sys/block", name, "queue", "rotational")); err == nil {
		disk.Rotational = strings.TrimSpace(string(data)) == "1"
	}
	if data, err := os.ReadFile(filepath.Join("/sys/block", name, "device", "model")); err == nil {
		disk.Model = strings.TrimSpace(string(data))
	}

	partDirs, err := filepath.Glob(filepath.Join("/sys/block", name, name+"*"))
	if err == nil {
		for _, partDir := range partDirs {
			partName := filepath.Base(partDir)
			if partName == name {
				continue
			}
			part := Partition{Device: "/dev/" + partName}
			if data, err := os.ReadFile(filepath.Join(partDir, "size")); err == nil {
				blocks, _ := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
				part.Size = blocks * 512
			}
			disk.Partitions = append(disk.Partitions, part)
		}
	}

	return disk, nil
}

var partitionSuffixRE = regexp.MustCompile(`^(.*?)(?:p)?(\d+)$`)

// ParsePartitionNumber splits a partition device path into its parent
// disk and 1-based partition number. Handles both the "sda3" style
// (bare trailing digits) and the "nvme0n1p3"/"mmcblk0p3"/"loop0p3"
// style (digits after a literal 'p' that is not part of the device's
// own name, e.g. the 'p' in "loop").
func ParsePartitionNumber(device string) (disk string, num int, err error) {
	device = strings.TrimPrefix(device, "/dev/")

	if strings.Contains(device, "nvme") || strings.Contains(device, "mmcblk") || strings.HasPrefix(device, "loop") {
		for i := len(device) - 1; i >= 0; i-- {
			if device[i] != 'p' || i == len(device)-1 {
				continue
			}
			suffix := device[i+1:]
			if !allDigits(suffix) {
				continue
			}
			if i > 0 && device[i-1] >= '0' && device[i-1] <= '9' {
				n, convErr := strconv.Atoi(suffix)
				if convErr != nil {
					return "", 0, fmt.Errorf("parse partition number from %s: %w", device, convErr)
				}
				return "/dev/" + device[:i], n, nil
			}
		}
		return "", 0, fmt.Errorf("unrecognized nvme/mmcblk/loop partition: %s", device)
	}

	var splitAt = -1
	for i := len(device) - 1; i >= 0; i-- {
		if device[i] < '0' || device[i] > '9' {
			splitAt = i + 1
			break
		}
	}
	if splitAt <= 0 || splitAt == len(device) {
		return "", 0, fmt.Errorf("unrecognized partition device: %s", device)
	}
	n, convErr := strconv.Atoi(device[splitAt:])
	if convErr != nil {
		return "", 0, fmt.Errorf("parse partition number from %s: %w", device, convErr)
	}
	return "/dev/" + device[:splitAt], n, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// DiskNameFromPartition returns just the parent disk, discarding the
// partition number.
func DiskNameFromPartition(device string) (string, error) {
	disk, _, err := ParsePartitionNumber(device)
	return disk, err
}

// PartitionDeviceName builds the device path for partition n of disk,
// inserting the 'p' separator nvme/mmcblk/loop devices require.
func PartitionDeviceName(disk string, n int) string {
	base := strings.TrimPrefix(disk, "/dev/")
	if strings.Contains(base, "nvme") || strings.Contains(base, "mmcblk") || strings.HasPrefix(base, "loop") {
		return fmt.Sprintf("/dev/%sp%d", base, n)
	}
	return fmt.Sprintf("/dev/%s%d", base, n)
}

// ValidateTarget checks that device exists, is a block device, meets
// minSize, and has no mounted partitions. It does not check disk ID;
// callers that care about disk-replacement detection should follow up
// with VerifyDiskID.
func ValidateTarget(ctx context.Context, device string, minSize uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !IsBlockDevice(device) {
		return fmt.Errorf("%s is not a block device", device)
	}

	disks, err := Probe(ctx)
	if err != nil {
		return fmt.Errorf("probe disks: %w", err)
	}
	var found *Disk
	for i := range disks {
		if disks[i].Device == device {
			found = &disks[i]
			break
		}
	}
	if found == nil {
		return fmt.Errorf("%s not found among probed disks", device)
	}
	if found.Size < minSize {
		return fmt.Errorf("disk is too small: %s (minimum %s)", FormatSize(found.Size), FormatSize(minSize))
	}
	for _, part := range found.Partitions {
		if part.MountPoint != "" {
			return fmt.Errorf("partition %s is mounted at %s, unmount first", part.Device, part.MountPoint)
		}
	}
	return nil
}

// FormatSize renders a byte count as a human-readable string, e.g.
// "476.9 GB".
func FormatSize(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// IsBlockDevice reports whether path names a block device node.
func IsBlockDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeDevice != 0 && info.Mode()&os.ModeCharDevice == 0
}

// GetDiskID returns the stable /dev/disk/by-id name for device,
// preferring nvme-/ata-/scsi-prefixed ids over wwn-only ones. Used to
// detect disk replacement between a settings.json write and later
// re-runs against the same target.
func GetDiskID(device string) (string, error) {
	name := strings.TrimPrefix(device, "/dev/")

	const byIDDir = "/dev/disk/by-id"
	entries, err := os.ReadDir(byIDDir)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", byIDDir, err)
	}

	var candidates []string
	for _, entry := range entries {
		if strings.Contains(entry.Name(), "-part") {
			continue
		}
		target, err := filepath.EvalSymlinks(filepath.Join(byIDDir, entry.Name()))
		if err != nil {
			continue
		}
		if filepath.Base(target) == name {
			candidates = append(candidates, entry.Name())
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no disk id found for %s", device)
	}

	for _, prefix := range []string{"nvme-", "ata-", "scsi-"} {
		for _, c := range candidates {
			if strings.HasPrefix(c, prefix) && !strings.HasPrefix(c, prefix+"eui.") {
				return c, nil
			}
		}
	}
	return candidates[0], nil
}

// VerifyDiskID reports whether device's current disk ID matches
// expected. An empty expected always verifies true (nothing recorded
// yet to compare against).
func VerifyDiskID(device, expected string) (bool, error) {
	if expected == "" {
		return true, nil
	}
	actual, err := GetDiskID(device)
	if err != nil {
		return false, fmt.Errorf("get disk id for %s: %w", device, err)
	}
	return actual == expected, nil
}
