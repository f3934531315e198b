package blockdev

import (
	"strings"

	"github.com/jaypipes/ghw"
)

// enrichWithGHW backfills Transport and Rotational on any disk Probe's
// primary source left blank, using ghw's sysfs/udev-backed storage
// controller and drive-type detection. Grounded on the pack's
// rancher-sandbox/cOS-toolkit usage of ghw for block-device enrichment;
// any ghw failure is swallowed since it only ever adds detail lsblk or
// the sysfs fallback didn't already provide.
func enrichWithGHW(disks []Disk) {
	block, err := ghw.Block()
	if err != nil {
		return
	}
	byName := make(map[string]*ghw.Disk, len(block.Disks))
	for _, d := range block.Disks {
		byName[d.Name] = d
	}

	for i := range disks {
		name := strings.TrimPrefix(disks[i].Device, "/dev/")
		d, ok := byName[name]
		if !ok {
			continue
		}
		if disks[i].Transport == "" {
			disks[i].Transport = strings.ToLower(d.StorageController.String())
		}
		if !disks[i].Rotational && d.DriveType.String() == "HDD" {
			disks[i].Rotational = true
		}
		if disks[i].Model == "" {
			disks[i].Model = strings.TrimSpace(d.Model)
		}
	}
}
