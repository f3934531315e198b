// Package partition builds, validates, previews, and realizes a
// PartitionScheme — the Partition Planner component. The teacher's
// fixed four-partition A/B scheme (sgdisk argv-per-partition) is
// generalized here into an arbitrary, ordered scheme expressed as an
// sfdisk-style script fed to the partitioning tool over stdin.
package partition

// FSType is a normalized filesystem-type tag. fat16/fat32 collapse to
// vfat and linuxswap becomes "swap" only at fstab-emission time.
type FSType string

const (
	FSBtrfs   FSType = "btrfs"
	FSExt4    FSType = "ext4"
	FSXFS     FSType = "xfs"
	FSF2FS    FSType = "f2fs"
	FSVFAT    FSType = "vfat"
	FSSwap    FSType = "linuxswap"
	FSZFS     FSType = "zfs"
	FSUnknown FSType = "unknown"
)

// NormalizeFSType maps the raw strings probes and config files use onto
// the canonical FSType set.
func NormalizeFSType(raw string) FSType {
	switch raw {
	case "fat16", "fat32", "vfat":
		return FSVFAT
	case "btrfs":
		return FSBtrfs
	case "ext4":
		return FSExt4
	case "xfs":
		return FSXFS
	case "f2fs":
		return FSF2FS
	case "swap", "linuxswap":
		return FSSwap
	case "zfs":
		return FSZFS
	case "":
		return FSUnknown
	default:
		return FSUnknown
	}
}

// Partition is the central entity of the planner: one row in a
// PartitionScheme, or one btrfs subvolume sharing a root partition's
// device when Subvolume is set.
type Partition struct {
	Device     string
	FSType     FSType
	MountPoint string
	MountOpts  string
	UUID       string
	// Size is a human string like "512MiB" or "8GiB"; empty means
	// "grow to fill remaining space". At most one partition per scheme
	// may have an empty Size.
	Size      string
	Subvolume string

	LuksMapperName string
	LuksUUID       string
	LuksPassphrase string
}

// FirmwareMode selects GPT+ESP vs MBR+boot-flag layout.
type FirmwareMode string

const (
	BIOS FirmwareMode = "bios"
	UEFI FirmwareMode = "uefi"
)

// PartitionScheme is an ordered sequence of Partition plus the target
// disk and firmware mode.
type PartitionScheme struct {
	Device string
	IsEFI  bool

	Partitions []Partition
}

// BtrfsSubvolume is one entry of a btrfs subvolume layout.
type BtrfsSubvolume struct {
	Subvolume  string
	MountPoint string
}

// DefaultBtrfsSubvolumes is the conventional @/@home/@cache layout
// synthesized when a root partition is btrfs and subvolume creation is
// requested.
var DefaultBtrfsSubvolumes = []BtrfsSubvolume{
	{Subvolume: "/@", MountPoint: "/"},
	{Subvolume: "/@home", MountPoint: "/home"},
	{Subvolume: "/@cache", MountPoint: "/var/cache"},
}

// physicalPartitions collapses btrfs-subvolume rows that share a Device
// back down to one entry per actual partition-table slot, keeping the
// first occurrence (the root mount for that device). Script, Create,
// and numbering all operate on this view; fstab generation does not.
func (s PartitionScheme) physicalPartitions() []Partition {
	seen := make(map[string]bool, len(s.Partitions))
	out := make([]Partition, 0, len(s.Partitions))
	for _, p := range s.Partitions {
		if p.Device != "" && seen[p.Device] {
			continue
		}
		if p.Device != "" {
			seen[p.Device] = true
		}
		out = append(out, p)
	}
	return out
}

// AppendBtrfsSubvolumes synthesizes one Partition per subvolume, sharing
// the root btrfs partition's device/uuid/fstype/LUKS metadata. For a
// subvolume whose mountpoint already has a Partition, that row is
// overwritten in place rather than duplicated. Fails if the scheme has
// no btrfs partition mounted at "/".
func (s PartitionScheme) AppendBtrfsSubvolumes(subvols []BtrfsSubvolume) (PartitionScheme, error) {
	var root *Partition
	for i := range s.Partitions {
		if s.Partitions[i].MountPoint == "/" && s.Partitions[i].FSType == FSBtrfs {
			root = &s.Partitions[i]
			break
		}
	}
	if root == nil {
		return s, errNoRootBtrfs
	}

	byMount := make(map[string]int, len(s.Partitions))
	for i, p := range s.Partitions {
		byMount[p.MountPoint] = i
	}

	out := s
	out.Partitions = append([]Partition(nil), s.Partitions...)
	for _, sv := range subvols {
		clone := *root
		clone.Subvolume = sv.Subvolume
		clone.MountPoint = sv.MountPoint
		if idx, ok := byMount[sv.MountPoint]; ok {
			out.Partitions[idx] = clone
		} else {
			out.Partitions = append(out.Partitions, clone)
		}
	}
	return out, nil
}

type schemeError string

func (e schemeError) Error() string { return string(e) }

const errNoRootBtrfs = schemeError("no btrfs partition mounted at / to append subvolumes onto")
