package storage

import (
	"context"
	"fmt"

	"github.com/cachyos/instcore/pkg/partition"
	"github.com/cachyos/instcore/pkg/process"
	"github.com/cachyos/instcore/pkg/reporter"
)

// FormatPartitions runs the right mkfs.* against every physical
// partition in scheme that isn't a LUKS container, LVM physical
// volume, or ZFS vdev — those are formatted by their own layer instead
// (CreateContainer, CreatePhysicalVolume, CreatePool). Grounded on the
// teacher's formatPartition in its since-generalized pkg/partition.go,
// which switched on filesystem type the same way.
func FormatPartitions(ctx context.Context, scheme partition.PartitionScheme, rep reporter.Reporter) error {
	for _, p := range scheme.Partitions {
		if p.Device == "" || p.Subvolume != "" {
			continue // btrfs subvolumes share their parent's formatted device
		}
		if p.LuksMapperName != "" || p.FSType == partition.FSZFS {
			continue
		}
		argv, err := mkfsArgv(p)
		if err != nil {
			return err
		}
		if argv == nil {
			continue
		}
		rep.Message("Formatting %s as %s", p.Device, p.FSType)
		if _, err := process.RunChecked(ctx, argv); err != nil {
			return fmt.Errorf("format %s as %s: %w", p.Device, p.FSType, err)
		}
	}
	return nil
}

func mkfsArgv(p partition.Partition) ([]string, error) {
	switch p.FSType {
	case partition.FSVFAT:
		return []string{"mkfs.vfat", "-F32", "-n", "ESP", p.Device}, nil
	case partition.FSExt4:
		return []string{"mkfs.ext4", "-F", "-q", p.Device}, nil
	case partition.FSBtrfs:
		return []string{"mkfs.btrfs", "-f", "-q", p.Device}, nil
	case partition.FSXFS:
		return []string{"mkfs.xfs", "-f", "-q", p.Device}, nil
	case partition.FSF2FS:
		return []string{"mkfs.f2fs", "-f", p.Device}, nil
	case partition.FSSwap:
		return []string{"mkswap", p.Device}, nil
	case "", partition.FSUnknown:
		return nil, fmt.Errorf("partition %s has no filesystem type set", p.Device)
	default:
		return nil, fmt.Errorf("unsupported filesystem type %q for %s", p.FSType, p.Device)
	}
}
