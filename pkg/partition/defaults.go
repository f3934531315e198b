package partition

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DefaultSchemeOptions configures the non-interactive clean-install
// layout, mirroring the declarative fields a DefaultPartitionSchemaConfig
// would carry in settings.json.
type DefaultSchemeOptions struct {
	RootFSType            FSType
	EFIPartitionSize      string // default "2GiB", used only when firmware is UEFI
	SwapPartitionSize     string // empty: no swap partition
	BootPartitionSize     string // BIOS only: optional separate /boot
	IsSSD                 bool
	RootMountOpts         string // overrides the fstype/SSD default when set
	BootMountpoint        string // default "/boot"
	CreateBtrfsSubvolumes bool   // default true when RootFSType is btrfs
}

func (o DefaultSchemeOptions) bootMountpoint() string {
	if o.BootMountpoint == "" {
		return "/boot"
	}
	return o.BootMountpoint
}

// defaultMountOpts returns the SSD/rotational-aware default mount
// option string for an fstype, per spec.md §3's example-defaults table.
func defaultMountOpts(fstype FSType, isSSD bool) string {
	switch fstype {
	case FSBtrfs:
		if isSSD {
			return "defaults,noatime,compress=zstd:1"
		}
		return "defaults,noatime"
	case FSExt4:
		return "defaults,noatime"
	case FSXFS:
		return "defaults,lazytime,noatime,inode64,logbsize=256k,noquota"
	case FSVFAT:
		return "defaults,umask=0077"
	default:
		return "defaults"
	}
}

// DefaultScheme builds the conventional ESP+(boot)+(swap)+root layout:
// UEFI gets an ESP first; BIOS gets an optional separate /boot if
// BootPartitionSize is set; swap (if requested) comes next; root always
// comes last with an empty Size so it grows to fill the disk.
func DefaultScheme(device string, firmware FirmwareMode, opts DefaultSchemeOptions) (PartitionScheme, error) {
	scheme := PartitionScheme{Device: device, IsEFI: firmware == UEFI}

	if firmware == UEFI {
		efiSize := opts.EFIPartitionSize
		if efiSize == "" {
			efiSize = "2GiB"
		}
		scheme.Partitions = append(scheme.Partitions, Partition{
			FSType:     FSVFAT,
			MountPoint: opts.bootMountpoint(),
			MountOpts:  defaultMountOpts(FSVFAT, opts.IsSSD),
			Size:       efiSize,
		})
	} else if opts.BootPartitionSize != "" {
		scheme.Partitions = append(scheme.Partitions, Partition{
			FSType:     FSExt4,
			MountPoint: opts.bootMountpoint(),
			MountOpts:  defaultMountOpts(FSExt4, opts.IsSSD),
			Size:       opts.BootPartitionSize,
		})
	}

	if opts.SwapPartitionSize != "" {
		scheme.Partitions = append(scheme.Partitions, Partition{
			FSType: FSSwap,
			Size:   opts.SwapPartitionSize,
		})
	}

	rootOpts := opts.RootMountOpts
	if rootOpts == "" {
		rootOpts = defaultMountOpts(opts.RootFSType, opts.IsSSD)
	}
	scheme.Partitions = append(scheme.Partitions, Partition{
		FSType:     opts.RootFSType,
		MountPoint: "/",
		MountOpts:  rootOpts,
		Size:       "",
	})

	if opts.RootFSType == FSBtrfs && opts.CreateBtrfsSubvolumes {
		withSubvols, err := scheme.AppendBtrfsSubvolumes(DefaultBtrfsSubvolumes)
		if err != nil {
			return scheme, err
		}
		scheme = withSubvols
	}

	return scheme, nil
}

// ConfigPartition is the declarative shape one entry of settings.json's
// "partitions" array decodes into via mapstructure, matching the
// teacher's buildInstallConfig decode-then-validate style.
type ConfigPartition struct {
	Device         string `mapstructure:"device"`
	FSType         string `mapstructure:"fstype"`
	MountPoint     string `mapstructure:"mountpoint"`
	MountOpts      string `mapstructure:"mount_opts"`
	Size           string `mapstructure:"size"`
	Subvolume      string `mapstructure:"subvolume"`
	LuksMapperName string `mapstructure:"luks_mapper_name"`
}

// FromConfig decodes settings.json's raw "partitions" array (already
// unmarshaled into []map[string]any by the config package) into a
// PartitionScheme. Kept free of any dependency on the config package
// itself so partition and config can each be imported independently.
func FromConfig(device string, isEFI bool, raw []map[string]any) (PartitionScheme, error) {
	scheme := PartitionScheme{Device: device, IsEFI: isEFI}
	for i, entry := range raw {
		var cp ConfigPartition
		if err := mapstructure.Decode(entry, &cp); err != nil {
			return scheme, &decodeError{index: i, err: err}
		}
		scheme.Partitions = append(scheme.Partitions, Partition{
			Device:         cp.Device,
			FSType:         NormalizeFSType(cp.FSType),
			MountPoint:     cp.MountPoint,
			MountOpts:      cp.MountOpts,
			Size:           cp.Size,
			Subvolume:      cp.Subvolume,
			LuksMapperName: cp.LuksMapperName,
		})
	}
	return scheme, nil
}

type decodeError struct {
	index int
	err   error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("decode partitions[%d]: %v", e.index, e.err)
}
func (e *decodeError) Unwrap() error { return e.err }
