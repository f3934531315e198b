package partition

import (
	"fmt"

	"github.com/cachyos/instcore/pkg/errs"
)

// Validate checks every invariant spec.md §3/§4.3 lists against s,
// aggregating every violation (not just the first) via multierror so a
// caller can report the whole set at once. Soft issues (more than one
// grow partition) come back as warnings rather than errors.
func (s PartitionScheme) Validate() (warnings []string, err error) {
	if len(s.Partitions) == 0 {
		return nil, fmt.Errorf("partition schema is empty")
	}

	agg := errs.NewValidationError()

	hasRoot := false
	hasESP := false
	growCount := 0
	for _, p := range s.Partitions {
		if p.MountPoint == "/" {
			hasRoot = true
		}
		if p.FSType == FSVFAT {
			hasESP = true
		}
		if p.Size == "" {
			growCount++
		}
	}

	if !hasRoot {
		agg.Add(fmt.Errorf("no partition mounted at /"))
	}
	if s.IsEFI && !hasESP {
		agg.Add(fmt.Errorf("UEFI requires ESP (a vfat partition)"))
	}
	if growCount > 1 {
		warnings = append(warnings, "more than one partition has an empty size; only the last will grow")
	}

	return warnings, agg.AsError()
}
