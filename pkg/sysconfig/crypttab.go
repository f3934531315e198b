package sysconfig

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cachyos/instcore/pkg/partition"
)

// GenerateCrypttab renders /etc/crypttab from scheme's LUKS metadata.
// rootEncrypted and bootEncrypted describe whether the root and /boot
// partitions are themselves LUKS containers, which decides whether an
// entry needs a keyfile at all: if root isn't encrypted, or this entry
// is root and /boot (which unlocks it from the initrd) isn't encrypted
// either, the device is already unlocked by the time crypttab runs and
// gets "none" with no options rather than a keyfile reference.
func GenerateCrypttab(scheme partition.PartitionScheme, rootEncrypted, bootEncrypted bool) string {
	rows := cryptRows(scheme)

	var sb strings.Builder
	sb.WriteString("# /etc/crypttab: mappings for encrypted partitions.\n")
	sb.WriteString("# <name> <device> <password> <options>\n\n")

	for _, p := range rows {
		password := "/crypto_keyfile.bin"
		options := "luks"
		if !rootEncrypted || (p.MountPoint == "/" && !bootEncrypted) {
			password = "none"
			options = ""
		}
		fmt.Fprintf(&sb, "%s UUID=%s %s %s\n", p.LuksMapperName, p.LuksUUID, password, strings.TrimSpace(options))
	}
	return sb.String()
}

func cryptRows(scheme partition.PartitionScheme) []partition.Partition {
	var candidates []partition.Partition
	for _, p := range scheme.Partitions {
		if p.LuksMapperName != "" && p.LuksUUID != "" {
			candidates = append(candidates, p)
		}
	}

	seen := make(map[string]bool, len(candidates))
	var deduped []partition.Partition
	for _, p := range candidates {
		if seen[p.Device] {
			continue
		}
		seen[p.Device] = true
		deduped = append(deduped, p)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].MountPoint != deduped[j].MountPoint {
			return deduped[i].MountPoint < deduped[j].MountPoint
		}
		return deduped[i].Device < deduped[j].Device
	})
	return deduped
}
