package sysconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cachyos/instcore/pkg/process"
	"github.com/cachyos/instcore/pkg/reporter"
)

// UserInfo is the minimal account description create_new_user needs:
// the original's user_info struct, without the C++ struct's separate
// shell/uid fields this installer doesn't expose yet.
type UserInfo struct {
	Username      string
	Password      string
	Shell         string
	SudoersGroup  string
	DefaultGroups []string
}

// CreateGroup runs groupadd in-chroot, passing -r for a system group.
func CreateGroup(ctx context.Context, target, name string, isSystem bool) error {
	argv := []string{"groupadd"}
	if isSystem {
		argv = append(argv, "-r")
	}
	argv = append(argv, name)
	if err := process.ChrootExec(ctx, target, argv); err != nil {
		return fmt.Errorf("create group %s: %w", name, err)
	}
	return nil
}

// CreateNewUser creates info's account in target: useradd with a home
// directory and a matching group, secondary group membership via
// usermod -aG, a chown of the new home, a hashed password via
// usermod -p, and (when info.SudoersGroup is set) a 10-installer
// sudoers.d rule. Grounded on gucc's create_new_user: an openssl-hashed
// password handed to usermod rather than a plaintext chpasswd, because
// this path (unlike set_root_password) must also land the user in
// their default groups and sudoers in the same operation.
func CreateNewUser(ctx context.Context, target string, info UserInfo, rep reporter.Reporter) error {
	shell := info.Shell
	if shell == "" {
		shell = "/bin/bash"
	}

	rep.Message("Creating user %s", info.Username)
	useradd := []string{"useradd", "-m", "-U", "-s", shell, info.Username}
	if err := process.ChrootExec(ctx, target, useradd); err != nil {
		return fmt.Errorf("useradd %s: %w", info.Username, err)
	}

	if len(info.DefaultGroups) > 0 {
		groups := strings.Join(info.DefaultGroups, ",")
		if err := process.ChrootExec(ctx, target, []string{"usermod", "-aG", groups, info.Username}); err != nil {
			return fmt.Errorf("usermod -aG %s %s: %w", groups, info.Username, err)
		}
	}

	home := filepath.Join(target, "home", info.Username)
	chown := fmt.Sprintf("%s:%s", info.Username, info.Username)
	if _, err := process.RunChecked(ctx, []string{"chown", "-R", chown, home}); err != nil {
		return fmt.Errorf("chown %s: %w", home, err)
	}

	if err := SetUserPassword(ctx, target, info.Username, info.Password); err != nil {
		return err
	}

	if info.SudoersGroup != "" {
		if err := writeSudoers(target, info.SudoersGroup); err != nil {
			return err
		}
	}
	return nil
}

// SetRootPassword sets the root password via chpasswd -R, fed the
// plaintext over stdin so it never appears in argv or the process
// table.
func SetRootPassword(ctx context.Context, target, password string) error {
	return chpasswdInTarget(ctx, target, "root", password)
}

// SetUserPassword hashes password and applies it with usermod -p,
// matching create_new_user's path so both entry points produce the
// same /etc/shadow encoding.
func SetUserPassword(ctx context.Context, target, username, password string) error {
	hashed, err := process.Capture(ctx, []string{"openssl", "passwd", "-6", password})
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", username, err)
	}
	if err := process.ChrootExec(ctx, target, []string{"usermod", "-p", hashed, username}); err != nil {
		return fmt.Errorf("set password for %s: %w", username, err)
	}
	return nil
}

func chpasswdInTarget(ctx context.Context, target, username, password string) error {
	if password == "" {
		return nil
	}
	argv := []string{"chpasswd", "-R", target}
	if _, err := process.RunChecked(ctx, argv, process.WithStdin(fmt.Sprintf("%s:%s\n", username, password))); err != nil {
		return fmt.Errorf("chpasswd %s: %w", username, err)
	}
	return nil
}

func writeSudoers(target, group string) error {
	path := filepath.Join(target, "etc/sudoers.d/10-installer")
	line := fmt.Sprintf("%%%s ALL=(ALL) ALL\n", group)
	if err := os.WriteFile(path, []byte(line), 0o440); err != nil {
		return fmt.Errorf("write sudoers.d/10-installer: %w", err)
	}
	return nil
}

// DisplayManager identifies a supported autologin-capable DM.
type DisplayManager string

const (
	DMGDM     DisplayManager = "gdm"
	DMLightDM DisplayManager = "lightdm"
	DMSDDM    DisplayManager = "sddm"
	DMLXDM    DisplayManager = "lxdm"
)

// EnableAutologin edits dm's config file in target to log username in
// automatically at boot. For lightdm, it also creates an "autologin"
// group and adds the user to it, since lightdm refuses to autologin a
// user outside that group.
func EnableAutologin(ctx context.Context, target string, dm DisplayManager, username string) error {
	switch dm {
	case DMGDM:
		return editCustomConf(target, "etc/gdm/custom.conf", map[string]string{
			"AutomaticLoginEnable": "True",
			"AutomaticLogin":       username,
		}, "[daemon]")
	case DMLightDM:
		if err := CreateGroup(ctx, target, "autologin", false); err != nil {
			return err
		}
		if err := process.ChrootExec(ctx, target, []string{"usermod", "-aG", "autologin", username}); err != nil {
			return fmt.Errorf("add %s to autologin group: %w", username, err)
		}
		return editCustomConf(target, "etc/lightdm/lightdm.conf", map[string]string{
			"autologin-user":    username,
			"autologin-session": "",
		}, "[Seat:*]")
	case DMSDDM:
		return editCustomConf(target, "etc/sddm.conf.d/autologin.conf", map[string]string{
			"User":    username,
			"Session": "",
		}, "[Autologin]")
	case DMLXDM:
		return editCustomConf(target, "etc/lxdm/lxdm.conf", map[string]string{
			"autologin": username,
		}, "[base]")
	default:
		return fmt.Errorf("autologin: unsupported display manager %q", dm)
	}
}

// editCustomConf idempotently sets key=value pairs under section in an
// ini-style config file, creating the file and section if absent.
func editCustomConf(target, relPath string, kv map[string]string, section string) error {
	path := filepath.Join(target, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s parent dir: %w", relPath, err)
	}

	existing, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read %s: %w", relPath, err)
		}
		existing = nil
	}

	lines := strings.Split(string(existing), "\n")
	lines = setSectionKeys(lines, section, kv)

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", relPath, err)
	}
	return nil
}

// setSectionKeys walks lines looking for section, replacing any
// existing "key = ..." lines within it and appending the rest; it
// appends the section itself (and the keys) if not found at all.
func setSectionKeys(lines []string, section string, kv map[string]string) []string {
	remaining := make(map[string]string, len(kv))
	for k, v := range kv {
		remaining[k] = v
	}

	var out []string
	inSection := false
	sectionSeen := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			if inSection {
				out = appendRemainingKeys(out, remaining)
			}
			inSection = trimmed == section
			if inSection {
				sectionSeen = true
			}
			out = append(out, line)
			continue
		}
		if inSection {
			if key, replaced := matchKey(trimmed, remaining); replaced {
				out = append(out, fmt.Sprintf("%s=%s", key, remaining[key]))
				delete(remaining, key)
				continue
			}
		}
		out = append(out, line)
	}
	if inSection {
		out = appendRemainingKeys(out, remaining)
	}
	if !sectionSeen {
		out = append(out, section)
		out = appendRemainingKeys(out, remaining)
	}
	return out
}

func matchKey(line string, keys map[string]string) (string, bool) {
	for k := range keys {
		if strings.HasPrefix(line, k+"=") || strings.HasPrefix(line, k+" =") {
			return k, true
		}
	}
	return "", false
}

func appendRemainingKeys(lines []string, remaining map[string]string) []string {
	for k, v := range remaining {
		lines = append(lines, fmt.Sprintf("%s=%s", k, v))
		delete(remaining, k)
	}
	return lines
}
