package sysconfig

import (
	"context"
	"fmt"

	"github.com/cachyos/instcore/pkg/process"
)

// EnableSystemdService runs systemctl enable in-chroot.
func EnableSystemdService(ctx context.Context, target, name string) error {
	if err := process.ChrootExec(ctx, target, []string{"systemctl", "enable", name}); err != nil {
		return fmt.Errorf("enable service %s: %w", name, err)
	}
	return nil
}

// displayManagerUnits maps a detected display manager package to the
// systemd unit that starts it.
var displayManagerUnits = map[string]string{
	"lightdm": "lightdm.service",
	"sddm":    "sddm.service",
	"gdm":     "gdm.service",
	"lxdm":    "lxdm.service",
	"ly":      "ly.service",
}

// PostInstallServices decides the final service-enablement list from
// the installed package set: fstrim.timer when fstrim is present, the
// first detected display manager, and ZFS services when zfsEnabled.
func PostInstallServices(installedPackages []string, zfsEnabled bool) []string {
	set := make(map[string]bool, len(installedPackages))
	for _, p := range installedPackages {
		set[p] = true
	}

	var services []string
	if set["util-linux"] || set["fstrim"] {
		services = append(services, "fstrim.timer")
	}

	for _, dm := range []string{"lightdm", "sddm", "gdm", "lxdm", "ly"} {
		if set[dm] {
			services = append(services, displayManagerUnits[dm])
			break
		}
	}

	if zfsEnabled {
		services = append(services, "zfs.target", "zfs-import-cache", "zfs-mount", "zfs-import.target")
	}
	return services
}

// DetectDisplayManager returns the first installed display manager
// package among the supported set, or "" if none were installed.
func DetectDisplayManager(installedPackages []string) string {
	set := make(map[string]bool, len(installedPackages))
	for _, p := range installedPackages {
		set[p] = true
	}
	for _, dm := range []string{"lightdm", "sddm", "gdm", "lxdm", "ly"} {
		if set[dm] {
			return dm
		}
	}
	return ""
}
