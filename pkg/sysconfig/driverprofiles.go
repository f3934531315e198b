package sysconfig

import (
	"context"
	"fmt"
	"strings"

	"github.com/cachyos/instcore/pkg/process"
)

// AllDriverProfiles returns every hardware driver profile chwd knows
// about (chwd --list-all), regardless of whether this machine needs
// it.
func AllDriverProfiles(ctx context.Context) ([]string, error) {
	out, err := process.Capture(ctx, []string{"chwd", "--list-all"})
	if err != nil {
		return nil, fmt.Errorf("chwd --list-all: %w", err)
	}
	return parseChwdNames(out), nil
}

// AvailableDriverProfiles returns the subset of AllDriverProfiles that
// chwd considers relevant to this machine's detected hardware
// (chwd --list).
func AvailableDriverProfiles(ctx context.Context) ([]string, error) {
	all, err := AllDriverProfiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}

	out, err := process.Capture(ctx, []string{"chwd", "--list", "-d"})
	if err != nil {
		return nil, fmt.Errorf("chwd --list -d: %w", err)
	}
	detected := parseChwdDetectedNames(out)

	detectedSet := make(map[string]bool, len(detected))
	for _, n := range detected {
		detectedSet[n] = true
	}

	var available []string
	for _, name := range all {
		if detectedSet[name] {
			available = append(available, name)
		}
	}
	return available, nil
}

// InstallAvailableDriverProfiles runs chwd -a -f in-chroot, which
// installs whichever driver profiles chwd determines this hardware
// needs.
func InstallAvailableDriverProfiles(ctx context.Context, target string) error {
	if err := process.ChrootExec(ctx, target, []string{"chwd", "-a", "-f"}); err != nil {
		return fmt.Errorf("chwd -a -f: %w", err)
	}
	return nil
}

// parseChwdNames extracts the "Name" column from chwd --list-all's
// box-drawing table output, equivalent to the original's
// `grep -v Name | grep '│' | awk '{print $2}'` pipeline.
func parseChwdNames(output string) []string {
	var names []string
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "│") || strings.Contains(line, "Name") {
			continue
		}
		fields := strings.Fields(strings.ReplaceAll(line, "│", " "))
		if len(fields) >= 1 {
			names = append(names, fields[0])
		}
	}
	return names
}

// parseChwdDetectedNames extracts "Name" values from chwd --list -d's
// key: value block output, equivalent to
// `grep Name | awk '{print $4}'`.
func parseChwdDetectedNames(output string) []string {
	var names []string
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "Name") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 4 {
			names = append(names, fields[3])
		}
	}
	return names
}
