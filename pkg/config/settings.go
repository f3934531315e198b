// Package config decodes and validates settings.json, the declarative
// installer config spec.md §6 describes: loaded at startup from the
// working directory, it can drive a fully headless run or pre-fill an
// interactive one. Grounded on the teacher's pkg/install.go
// (InstallConfig.Validate()'s "collect every missing field, not just
// the first" shape); the `partitions` array's further decode into
// partition.Partition values happens in pkg/partition.FromConfig via
// mapstructure, matching rancher/yip's loosely-typed declarative stage
// decode.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cachyos/instcore/pkg/errs"
)

// PartitionType mirrors spec.md §6.1's `type ∈ {root, boot, additional}`.
type PartitionType string

const (
	PartitionRoot       PartitionType = "root"
	PartitionBoot       PartitionType = "boot"
	PartitionAdditional PartitionType = "additional"
)

// PartitionEntry is one element of settings.json's `partitions` array.
type PartitionEntry struct {
	Name       string        `json:"name" mapstructure:"name"`
	MountPoint string        `json:"mountpoint" mapstructure:"mountpoint"`
	Size       string        `json:"size" mapstructure:"size"`
	FSName     string        `json:"fs_name,omitempty" mapstructure:"fs_name"`
	Type       PartitionType `json:"type" mapstructure:"type"`
}

// Settings is the decoded form of settings.json, spec.md §6.1's exact
// schema. Every field is optional at the JSON level; Validate enforces
// the headless-required subset.
type Settings struct {
	Menus        int              `json:"menus"`
	HeadlessMode bool             `json:"headless_mode"`
	ServerMode   bool             `json:"server_mode"`
	Device       string           `json:"device"`
	FSName       string           `json:"fs_name"`
	Partitions   []PartitionEntry `json:"partitions"`
	MountOpts    string           `json:"mount_opts"`

	Hostname string `json:"hostname"`
	Locale   string `json:"locale"`
	XkbMap   string `json:"xkbmap"`
	Timezone string `json:"timezone"`

	UserName  string `json:"user_name"`
	UserPass  string `json:"user_pass"`
	UserShell string `json:"user_shell"`
	RootPass  string `json:"root_pass"`

	Kernel     string `json:"kernel"`
	Desktop    string `json:"desktop"`
	Bootloader string `json:"bootloader"`

	PostInstall string `json:"post_install"`

	// LVMVolumeGroup names the volume group created for an LVM root
	// when a partition entry has type "root" and fs_name selects a
	// filesystem to sit on a logical volume. Empty uses the
	// conventional "vgcachyos" default.
	LVMVolumeGroup string `json:"lvm_vg_name,omitempty"`

	// ZFSPoolName names the pool created for a `zfs` root partition.
	// Empty uses the conventional "zpcachyos" default, matching the
	// pool name spec.md's own ZFS-root scenario example uses.
	ZFSPoolName string `json:"zfs_pool_name,omitempty"`

	// DisableBtrfsSubvolumes turns off the create_btrfs_subvolumes
	// default (spec.md §4.3: "default true when root is btrfs") for a
	// settings.json-driven install that wants a single flat btrfs root
	// instead of the @/@home/@cache layout.
	DisableBtrfsSubvolumes bool `json:"disable_btrfs_subvolumes,omitempty"`
}

// Load reads and parses settings.json at path. A missing file is not
// an error — callers fall through to interactive prompts — but a
// present, malformed file is always a *errs.ConfigError, per spec.md
// §6.1's "discriminated parser result" contract.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &errs.ConfigError{Err: fmt.Errorf("read %s: %w", path, err)}
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &errs.ConfigError{Err: fmt.Errorf("parse %s: %w", path, err)}
	}

	return &s, nil
}

// Validate aggregates every missing or invalid headless-required field
// into a single *errs.ValidationError, rather than stopping at the
// first, per spec.md §7's ValidationError contract and the teacher's
// InstallConfig.Validate().
func (s *Settings) Validate() error {
	verr := errs.NewValidationError()

	if s.Menus == 0 {
		s.Menus = 2 // documented default
	}

	if !s.HeadlessMode {
		return verr.AsError()
	}

	require := func(field, value string) {
		if value == "" {
			verr.Add(fmt.Errorf("%s is required in headless mode", field))
		}
	}
	require("device", s.Device)
	require("hostname", s.Hostname)
	require("locale", s.Locale)
	require("xkbmap", s.XkbMap)
	require("timezone", s.Timezone)
	require("user_name", s.UserName)
	require("user_pass", s.UserPass)
	require("user_shell", s.UserShell)
	require("root_pass", s.RootPass)
	require("kernel", s.Kernel)
	require("desktop", s.Desktop)
	require("bootloader", s.Bootloader)

	if len(s.Partitions) == 0 {
		verr.Add(fmt.Errorf("partitions is required in headless mode"))
	}
	for i, p := range s.Partitions {
		if p.Name == "" {
			verr.Add(fmt.Errorf("partitions[%d]: name is required", i))
		}
		if p.MountPoint == "" {
			verr.Add(fmt.Errorf("partitions[%d]: mountpoint is required", i))
		}
		switch p.Type {
		case PartitionRoot, PartitionBoot, PartitionAdditional:
		default:
			verr.Add(fmt.Errorf("partitions[%d]: type must be root, boot, or additional, got %q", i, p.Type))
		}
		if p.FSName == "" && !(p.Type == PartitionRoot && s.FSName != "") {
			verr.Add(fmt.Errorf("partitions[%d]: fs_name is required unless root inherits the global default", i))
		}
	}

	return verr.AsError()
}
