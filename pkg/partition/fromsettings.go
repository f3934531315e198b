package partition

import "github.com/cachyos/instcore/pkg/config"

// FromSettings bridges a decoded settings.json into a PartitionScheme,
// translating its public `name`/`mountpoint`/`fs_name`/`type` schema
// into the raw-map shape FromConfig already decodes via mapstructure.
// `root` entries missing their own fs_name inherit cfg.FSName, per
// spec.md §6.1 ("fs_name is required unless the entry is root and
// global fs_name is set"). A btrfs root additionally gets the
// conventional @/@home/@cache subvolume layout synthesized onto it,
// per spec.md §4.3's create_btrfs_subvolumes default-true rule, unless
// cfg.DisableBtrfsSubvolumes opts out.
func FromSettings(cfg *config.Settings, firmware FirmwareMode) (PartitionScheme, error) {
	raw := make([]map[string]any, 0, len(cfg.Partitions))
	for _, p := range cfg.Partitions {
		fsName := p.FSName
		if fsName == "" && p.Type == config.PartitionRoot {
			fsName = cfg.FSName
		}
		mountOpts := cfg.MountOpts

		entry := map[string]any{
			"fstype":     fsName,
			"mountpoint": p.MountPoint,
			"mount_opts": mountOpts,
			"size":       p.Size,
		}
		raw = append(raw, entry)
	}
	scheme, err := FromConfig(cfg.Device, firmware == UEFI, raw)
	if err != nil {
		return scheme, err
	}

	if cfg.DisableBtrfsSubvolumes {
		return scheme, nil
	}
	root, ok := findMountpoint(scheme, "/")
	if !ok || root.FSType != FSBtrfs {
		return scheme, nil
	}
	return scheme.AppendBtrfsSubvolumes(DefaultBtrfsSubvolumes)
}

func findMountpoint(scheme PartitionScheme, mountpoint string) (Partition, bool) {
	for _, p := range scheme.Partitions {
		if p.MountPoint == mountpoint {
			return p, true
		}
	}
	return Partition{}, false
}
