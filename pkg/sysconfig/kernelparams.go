package sysconfig

import (
	"fmt"
	"strings"

	"github.com/cachyos/instcore/pkg/partition"
)

// KernelParamsConfig carries everything KernelParams needs that isn't
// already on the root Partition itself: the user-supplied extra
// cmdline string and, for a ZFS root, the dataset to boot from.
type KernelParamsConfig struct {
	Extra      string
	ZFSDataset string
}

// KernelParams synthesizes the kernel command line for scheme's root
// partition per spec.md §4.5: rw plus tokenized extras, a root=
// selector matched to the root's storage layer, rootflags for a btrfs
// subvolume, and a resume= hint when swap is present.
func KernelParams(scheme partition.PartitionScheme, cfg KernelParamsConfig) (string, error) {
	root, ok := findMountpoint(scheme, "/")
	if !ok {
		return "", fmt.Errorf("kernel params: scheme has no root partition")
	}

	tokens := []string{"rw"}
	tokens = append(tokens, strings.Fields(cfg.Extra)...)

	switch {
	case root.LuksMapperName != "":
		if root.UUID == "" {
			return "", fmt.Errorf("kernel params: root is LUKS but has no UUID")
		}
		tokens = append(tokens,
			fmt.Sprintf("cryptdevice=UUID=%s:%s", root.UUID, root.LuksMapperName),
			"root=/dev/mapper/"+root.LuksMapperName,
		)
	case root.FSType == partition.FSZFS:
		if cfg.ZFSDataset == "" {
			return "", fmt.Errorf("kernel params: ZFS root requires a dataset")
		}
		tokens = append(tokens, "root=ZFS="+cfg.ZFSDataset)
	default:
		if root.UUID == "" {
			return "", fmt.Errorf("kernel params: root partition has no UUID")
		}
		tokens = append(tokens, "root=UUID="+root.UUID)
	}

	if root.FSType == partition.FSBtrfs && root.Subvolume != "" {
		tokens = append(tokens, "rootflags=subvol="+root.Subvolume)
	}

	if swap, ok := findFSType(scheme, partition.FSSwap); ok {
		if swap.LuksMapperName != "" {
			tokens = append(tokens, "resume=/dev/mapper/"+swap.LuksMapperName)
		} else if swap.UUID != "" {
			tokens = append(tokens, "resume=UUID="+swap.UUID)
		}
	}

	return strings.Join(tokens, " "), nil
}

func findMountpoint(scheme partition.PartitionScheme, mountpoint string) (partition.Partition, bool) {
	for _, p := range scheme.Partitions {
		if p.MountPoint == mountpoint {
			return p, true
		}
	}
	return partition.Partition{}, false
}

func findFSType(scheme partition.PartitionScheme, fstype partition.FSType) (partition.Partition, bool) {
	for _, p := range scheme.Partitions {
		if p.FSType == fstype {
			return p, true
		}
	}
	return partition.Partition{}, false
}
