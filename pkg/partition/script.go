package partition

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cachyos/instcore/pkg/blockdev"
	"github.com/cachyos/instcore/pkg/process"
	"github.com/cachyos/instcore/pkg/reporter"
)

// orderedPhysical returns the physical (subvolume-deduped) partitions
// sorted size-descending with the empty ("grow") size sorting last —
// the same order both numbering and script emission use.
func orderedPhysical(s PartitionScheme) []Partition {
	parts := s.physicalPartitions()
	sort.SliceStable(parts, func(i, j int) bool {
		bi, hi := sizeSortKey(parts[i])
		bj, hj := sizeSortKey(parts[j])
		if hi != hj {
			return hi // has-a-size sorts before grow
		}
		if !hi {
			return false
		}
		return bi > bj
	})
	return parts
}

func partitionAlias(p Partition) string {
	switch p.FSType {
	case FSVFAT:
		return "U"
	case FSSwap:
		return "S"
	default:
		return "L"
	}
}

// Script renders the sfdisk-style input script for s: a "label:"
// header followed by one "type=..." line per physical partition,
// replacing the teacher's per-partition sgdisk argv invocations with a
// single script fed to the partitioner over stdin.
func (s PartitionScheme) Script() string {
	var sb strings.Builder
	label := "dos"
	if s.IsEFI {
		label = "gpt"
	}
	sb.WriteString("label: " + label + "\n")

	for _, p := range orderedPhysical(s) {
		sb.WriteString("type=" + partitionAlias(p))
		if p.Size != "" {
			sb.WriteString(",size=" + p.Size)
		}
		if p.FSType == FSVFAT {
			sb.WriteString(",bootable")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Preview renders a human-readable multi-line table: a header naming
// the target device and firmware mode, one row per partition, a
// subvolume table if any row has one, then validation messages, then
// the script text for traceability — the same shape the teacher's
// text-mode reporting uses for other multi-line summaries.
func (s PartitionScheme) Preview() string {
	var sb strings.Builder
	mode := "BIOS"
	if s.IsEFI {
		mode = "UEFI"
	}
	fmt.Fprintf(&sb, "Partition plan for %s (%s)\n", s.Device, mode)
	fmt.Fprintf(&sb, "%-20s %-10s %-10s %-14s %s\n", "DEVICE", "SIZE", "FSTYPE", "MOUNTPOINT", "OPTS")

	var subvolRows []Partition
	for i, p := range orderedPhysical(s) {
		device := blockdev.PartitionDeviceName(s.Device, i+1)
		size := p.Size
		if size == "" {
			size = "grow"
		}
		mountpoint := p.MountPoint
		if mountpoint == "" {
			mountpoint = "-"
		}
		fmt.Fprintf(&sb, "%-20s %-10s %-10s %-14s %s\n", device, size, p.FSType, mountpoint, truncate(p.MountOpts, 40))
	}
	for _, p := range s.Partitions {
		if p.Subvolume != "" {
			subvolRows = append(subvolRows, p)
		}
	}
	if len(subvolRows) > 0 {
		sb.WriteString("\nSubvolumes:\n")
		for _, p := range subvolRows {
			fmt.Fprintf(&sb, "  %-20s -> %s\n", p.Subvolume, p.MountPoint)
		}
	}

	warnings, err := s.Validate()
	if err != nil || len(warnings) > 0 {
		sb.WriteString("\n")
	}
	if err != nil {
		fmt.Fprintf(&sb, "Errors:\n  %v\n", err)
	}
	for _, w := range warnings {
		fmt.Fprintf(&sb, "Warning: %s\n", w)
	}

	sb.WriteString("\nPartitioning script:\n")
	sb.WriteString(s.Script())
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// Create zeroes the first 512 bytes of the disk, wipefs's it, zaps any
// existing GPT, then feeds Script() to sfdisk over stdin, runs
// partprobe and udevadm settle (kept from the teacher's post-sgdisk
// settle dance), and resolves each partition's device node.
// Any step's failure aborts the operation, per spec.md §4.3's
// make_clean_partschema contract.
func Create(ctx context.Context, s PartitionScheme, rep reporter.Reporter) (PartitionScheme, error) {
	if err := ctx.Err(); err != nil {
		return s, err
	}

	rep.MessagePlain("Wiping existing signatures on %s...", s.Device)
	if _, err := process.RunChecked(ctx, []string{"dd", "if=/dev/zero", "of=" + s.Device, "bs=512", "count=1"}); err != nil {
		return s, fmt.Errorf("zero first sector of %s: %w", s.Device, err)
	}
	if _, err := process.RunChecked(ctx, []string{"wipefs", "--all", s.Device}); err != nil {
		return s, fmt.Errorf("wipefs %s: %w", s.Device, err)
	}
	if _, err := process.RunChecked(ctx, []string{"sgdisk", "--zap-all", s.Device}); err != nil {
		return s, fmt.Errorf("zap GPT on %s: %w", s.Device, err)
	}

	rep.MessagePlain("Writing partition table to %s...", s.Device)
	script := s.Script()
	if _, err := process.RunChecked(ctx, []string{"sfdisk", s.Device}, process.WithStdin(script)); err != nil {
		return s, fmt.Errorf("sfdisk %s: %w", s.Device, err)
	}

	_, _ = process.Run(ctx, []string{"partprobe", s.Device})
	_, _ = process.Run(ctx, []string{"udevadm", "settle"})

	ordered := orderedPhysical(s)
	resolved := make(map[string]string, len(ordered))
	for i, p := range ordered {
		resolved[p.MountPoint+"|"+p.Subvolume] = blockdev.PartitionDeviceName(s.Device, i+1)
	}

	out := s
	out.Partitions = append([]Partition(nil), s.Partitions...)
	for i := range out.Partitions {
		p := &out.Partitions[i]
		if dev, ok := resolved[p.MountPoint+"|"+p.Subvolume]; ok {
			p.Device = dev
		} else if dev, ok := resolved[p.MountPoint+"|"]; ok {
			p.Device = dev
		}
	}

	rep.Message("Created %d partition(s) on %s", len(ordered), s.Device)
	return out, nil
}
