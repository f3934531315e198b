package partition

import (
	"fmt"
	"strconv"
	"strings"
)

var sizeUnits = map[string]uint64{
	"B":   1,
	"KiB": 1 << 10,
	"MiB": 1 << 20,
	"GiB": 1 << 30,
	"TiB": 1 << 40,
}

// parseSize converts a human size string ("512MiB", "8GiB") to bytes.
// An empty string is not a valid input for parseSize; callers checking
// for the "grow" sentinel should test Size == "" first.
func parseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	for _, suffix := range []string{"TiB", "GiB", "MiB", "KiB", "B"} {
		if strings.HasSuffix(s, suffix) {
			numPart := strings.TrimSpace(strings.TrimSuffix(s, suffix))
			f, err := strconv.ParseFloat(numPart, 64)
			if err != nil {
				return 0, fmt.Errorf("parse size %q: %w", s, err)
			}
			return uint64(f * float64(sizeUnits[suffix])), nil
		}
	}
	return 0, fmt.Errorf("parse size %q: unrecognized unit (want B/KiB/MiB/GiB/TiB)", s)
}

// sizeSortKey returns bytes and whether the partition has a concrete
// size at all, for the "size descending, empty last" sort spec.md §3/§4.3
// both describe.
func sizeSortKey(p Partition) (bytes uint64, hasSize bool) {
	if p.Size == "" {
		return 0, false
	}
	b, err := parseSize(p.Size)
	if err != nil {
		return 0, false
	}
	return b, true
}
