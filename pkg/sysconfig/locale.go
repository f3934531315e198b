package sysconfig

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cachyos/instcore/pkg/process"
)

// localeVars are the twelve LC_* categories written to locale.conf,
// all pinned to the chosen locale rather than left to inherit from
// LANG piecemeal.
var localeVars = []string{
	"LANG",
	"LC_ADDRESS", "LC_IDENTIFICATION", "LC_MEASUREMENT", "LC_MONETARY",
	"LC_NAME", "LC_NUMERIC", "LC_PAPER", "LC_TELEPHONE", "LC_TIME",
	"LC_COLLATE", "LC_CTYPE",
}

// SetLocale writes /etc/locale.conf, uncomments the matching line in
// /etc/locale.gen, and runs locale-gen in-chroot.
func SetLocale(ctx context.Context, target, locale string) error {
	var sb strings.Builder
	for _, v := range localeVars {
		if v == "LANG" {
			fmt.Fprintf(&sb, "LANG=%s\n", locale)
			continue
		}
		fmt.Fprintf(&sb, "%s=%s\n", v, locale)
	}
	if err := os.WriteFile(filepath.Join(target, "etc/locale.conf"), []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write locale.conf: %w", err)
	}

	if err := uncommentLocaleGen(filepath.Join(target, "etc/locale.gen"), locale); err != nil {
		return err
	}

	if err := process.ChrootExec(ctx, target, []string{"locale-gen"}); err != nil {
		return fmt.Errorf("locale-gen: %w", err)
	}
	return nil
}

func uncommentLocaleGen(path, locale string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open locale.gen: %w", err)
	}
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimPrefix(strings.TrimSpace(line), "#")
		if strings.HasPrefix(strings.TrimSpace(trimmed), locale) {
			line = strings.TrimPrefix(line, "#")
		}
		lines = append(lines, line)
	}
	scanErr := scanner.Err()
	_ = f.Close()
	if scanErr != nil {
		return fmt.Errorf("read locale.gen: %w", scanErr)
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}

// SetHostname writes /etc/hostname and populates /etc/hosts with the
// standard loopback aliases.
func SetHostname(target, hostname string) error {
	if err := os.WriteFile(filepath.Join(target, "etc/hostname"), []byte(hostname+"\n"), 0o644); err != nil {
		return fmt.Errorf("write hostname: %w", err)
	}

	hosts := fmt.Sprintf(
		"127.0.0.1\tlocalhost\n::1\t\tlocalhost\n127.0.1.1\t%s.localdomain %s\n",
		hostname, hostname,
	)
	if err := os.WriteFile(filepath.Join(target, "etc/hosts"), []byte(hosts), 0o644); err != nil {
		return fmt.Errorf("write hosts: %w", err)
	}
	return nil
}

// SetTimezone symlinks /etc/localtime to the requested zoneinfo entry,
// failing if that zoneinfo file doesn't exist in the target.
func SetTimezone(target, tz string) error {
	zonefile := filepath.Join(target, "usr/share/zoneinfo", tz)
	if _, err := os.Stat(zonefile); err != nil {
		return fmt.Errorf("timezone %s: zoneinfo entry not found: %w", tz, err)
	}

	localtime := filepath.Join(target, "etc/localtime")
	_ = os.Remove(localtime)
	if err := os.Symlink(filepath.Join("/usr/share/zoneinfo", tz), localtime); err != nil {
		return fmt.Errorf("symlink localtime: %w", err)
	}
	return nil
}

// SetHardwareClock invokes hwclock --systohc in-chroot with the
// requested mode, retrying once with --directisa if the first attempt
// fails (some VM firmware RTCs reject the default ioctl path).
func SetHardwareClock(ctx context.Context, target string, utc bool) error {
	modeFlag := "--utc"
	if !utc {
		modeFlag = "--localtime"
	}

	argv := []string{"hwclock", "--systohc", modeFlag}
	if err := process.ChrootExec(ctx, target, argv); err != nil {
		if !utc {
			return fmt.Errorf("hwclock: %w", err)
		}
		retry := []string{"hwclock", "--systohc", modeFlag, "--directisa"}
		if retryErr := process.ChrootExec(ctx, target, retry); retryErr != nil {
			return fmt.Errorf("hwclock (retried with --directisa): %w", retryErr)
		}
	}
	return nil
}

// SetKeymap writes /etc/vconsole.conf.
func SetKeymap(target, keymap string) error {
	content := fmt.Sprintf("KEYMAP=%s\n", keymap)
	if err := os.WriteFile(filepath.Join(target, "etc/vconsole.conf"), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write vconsole.conf: %w", err)
	}
	return nil
}

// SetXkbLayout writes the X11 keyboard layout config that display
// managers and Xorg itself read before any desktop session starts.
func SetXkbLayout(target, layout string) error {
	dir := filepath.Join(target, "etc/X11/xorg.conf.d")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create xorg.conf.d: %w", err)
	}

	content := fmt.Sprintf(`Section "InputClass"
	Identifier "system-keyboard"
	MatchIsKeyboard "on"
	Option "XkbLayout" "%s"
EndSection
`, layout)
	if err := os.WriteFile(filepath.Join(dir, "00-keyboard.conf"), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write 00-keyboard.conf: %w", err)
	}
	return nil
}
