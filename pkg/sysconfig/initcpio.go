package sysconfig

import (
	"context"
	"fmt"
	"strings"

	"github.com/cachyos/instcore/pkg/process"
)

// initcpioScanner walks mkinitcpio.conf byte-by-byte looking for the
// three parenthesized array assignments (MODULES=(...), FILES=(...),
// HOOKS=(...)), honoring #-comments, instead of matching the file with
// a regular expression — mkinitcpio.conf is small and line-oriented
// enough that a hand-rolled scanner stays simpler than a regex that
// has to account for comments and embedded parens.
type initcpioScanner struct {
	src []byte
	pos int
}

func (s *initcpioScanner) eof() bool { return s.pos >= len(s.src) }
func (s *initcpioScanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *initcpioScanner) readLine() string {
	start := s.pos
	for !s.eof() && s.src[s.pos] != '\n' {
		s.pos++
	}
	line := string(s.src[start:s.pos])
	if !s.eof() {
		s.pos++ // consume the newline
	}
	return line
}

// tryArrayAssignment checks whether the scanner sits at the start of
// "NAME=(" for one of the three known names, ignoring intervening
// spaces around "=". On success it consumes through the opening "("
// and returns the matched name; on failure it leaves pos unchanged.
func (s *initcpioScanner) tryArrayAssignment() (string, bool) {
	start := s.pos
	for _, name := range []string{"MODULES", "FILES", "HOOKS"} {
		s.pos = start
		if !s.consumeLiteral(name) {
			continue
		}
		s.skipSpaces()
		if s.peek() != '=' {
			continue
		}
		s.pos++
		s.skipSpaces()
		if s.peek() != '(' {
			continue
		}
		s.pos++
		return name, true
	}
	s.pos = start
	return "", false
}

func (s *initcpioScanner) consumeLiteral(lit string) bool {
	if s.pos+len(lit) > len(s.src) {
		return false
	}
	if string(s.src[s.pos:s.pos+len(lit)]) != lit {
		return false
	}
	s.pos += len(lit)
	return true
}

func (s *initcpioScanner) skipSpaces() {
	for !s.eof() && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
}

// readParenValues reads whitespace-separated tokens up to and
// including the closing ')'.
func (s *initcpioScanner) readParenValues() []string {
	start := s.pos
	for !s.eof() && s.src[s.pos] != ')' {
		s.pos++
	}
	inner := string(s.src[start:s.pos])
	if !s.eof() {
		s.pos++ // consume ')'
	}
	return strings.Fields(inner)
}

// configLine is one line of the reconstructed document: either a raw
// line kept verbatim, or a marker for one of the three live arrays,
// re-rendered from current state on String().
type configLine struct {
	kind string // "raw", "modules", "files", "hooks"
	raw  string
}

// InitcpioConfig is the initrd builder's parsed config: modules, files,
// and hooks, plus enough of the original document to re-serialize
// every comment and unrelated line unchanged.
type InitcpioConfig struct {
	Modules []string
	Files   []string
	Hooks   []string

	lines []configLine
}

// ParseInitcpioConfig parses mkinitcpio.conf content.
func ParseInitcpioConfig(content string) *InitcpioConfig {
	cfg := &InitcpioConfig{}
	sc := &initcpioScanner{src: []byte(content)}

	for !sc.eof() {
		if sc.peek() == '#' {
			cfg.lines = append(cfg.lines, configLine{kind: "raw", raw: sc.readLine()})
			continue
		}
		if name, ok := sc.tryArrayAssignment(); ok {
			values := sc.readParenValues()
			sc.readLine() // discard any trailing characters through newline
			switch name {
			case "MODULES":
				cfg.Modules = values
			case "FILES":
				cfg.Files = values
			case "HOOKS":
				cfg.Hooks = values
			}
			cfg.lines = append(cfg.lines, configLine{kind: strings.ToLower(name)})
			continue
		}
		cfg.lines = append(cfg.lines, configLine{kind: "raw", raw: sc.readLine()})
	}
	return cfg
}

// String re-serializes the document: every raw line verbatim, and the
// three array lines rendered from current Modules/Files/Hooks state.
func (c *InitcpioConfig) String() string {
	var sb strings.Builder
	for _, line := range c.lines {
		switch line.kind {
		case "modules":
			fmt.Fprintf(&sb, "MODULES=(%s)\n", strings.Join(c.Modules, " "))
		case "files":
			fmt.Fprintf(&sb, "FILES=(%s)\n", strings.Join(c.Files, " "))
		case "hooks":
			fmt.Fprintf(&sb, "HOOKS=(%s)\n", strings.Join(c.Hooks, " "))
		default:
			sb.WriteString(line.raw)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func appendUnique(list []string, item string) ([]string, bool) {
	for _, v := range list {
		if v == item {
			return list, false
		}
	}
	return append(list, item), true
}

func removeItem(list []string, item string) []string {
	out := list[:0:0]
	for _, v := range list {
		if v != item {
			out = append(out, v)
		}
	}
	return out
}

// AppendModule adds name to MODULES if not already present, returning
// false (a no-op) on a duplicate.
func (c *InitcpioConfig) AppendModule(name string) bool {
	updated, added := appendUnique(c.Modules, name)
	c.Modules = updated
	return added
}

// AppendFile adds path to FILES if not already present.
func (c *InitcpioConfig) AppendFile(path string) bool {
	updated, added := appendUnique(c.Files, path)
	c.Files = updated
	return added
}

// RemoveModule drops name from MODULES.
func (c *InitcpioConfig) RemoveModule(name string) { c.Modules = removeItem(c.Modules, name) }

// RemoveHook drops name from HOOKS.
func (c *InitcpioConfig) RemoveHook(name string) { c.Hooks = removeItem(c.Hooks, name) }

// AppendHook adds hook to the end of HOOKS if not already present.
func (c *InitcpioConfig) AppendHook(hook string) bool {
	updated, added := appendUnique(c.Hooks, hook)
	c.Hooks = updated
	return added
}

// InsertHookBefore inserts hooks immediately before needle, a no-op for
// any hook already present. If needle isn't found, the hooks are
// appended to the end instead of being silently dropped.
func (c *InitcpioConfig) InsertHookBefore(needle string, hooks ...string) {
	idx := -1
	for i, h := range c.Hooks {
		if h == needle {
			idx = i
			break
		}
	}
	var fresh []string
	for _, h := range hooks {
		if _, already := indexOf(c.Hooks, h); !already {
			fresh = append(fresh, h)
		}
	}
	if len(fresh) == 0 {
		return
	}
	if idx < 0 {
		c.Hooks = append(c.Hooks, fresh...)
		return
	}
	out := make([]string, 0, len(c.Hooks)+len(fresh))
	out = append(out, c.Hooks[:idx]...)
	out = append(out, fresh...)
	out = append(out, c.Hooks[idx:]...)
	c.Hooks = out
}

// ReplaceHook swaps every occurrence of old for replacement, used by
// the ZFS policy ("zfs replaces filesystems").
func (c *InitcpioConfig) ReplaceHook(old, replacement string) {
	for i, h := range c.Hooks {
		if h == old {
			c.Hooks[i] = replacement
		}
	}
}

func indexOf(list []string, item string) (int, bool) {
	for i, v := range list {
		if v == item {
			return i, true
		}
	}
	return -1, false
}

func (c *InitcpioConfig) hasHook(name string) bool {
	_, ok := indexOf(c.Hooks, name)
	return ok
}

// HookPolicy captures which storage layers are in play, driving
// NormalizeHookOrder's hook ordering decisions.
type HookPolicy struct {
	Btrfs bool
	LVM   bool
	LUKS  bool
	ZFS   bool
}

// NormalizeHookOrder applies spec.md §4.5's hook-composition policy:
// btrfs needs the crc32c-intel module and btrfs hook; lvm2 and
// encrypt/sd-encrypt must precede filesystems; zfs replaces
// filesystems outright.
func (c *InitcpioConfig) NormalizeHookOrder(policy HookPolicy) {
	if policy.Btrfs {
		c.AppendModule("crc32c-intel")
		c.AppendHook("btrfs")
	}
	if policy.LVM {
		c.InsertHookBefore("filesystems", "lvm2")
	}
	if policy.LUKS {
		encryptHook := "encrypt"
		if c.hasHook("systemd") {
			encryptHook = "sd-encrypt"
		}
		c.InsertHookBefore("filesystems", encryptHook)
	}
	if policy.ZFS {
		c.ReplaceHook("filesystems", "zfs")
	}
}

// Regenerate runs mkinitcpio -P inside the target root to rebuild every
// configured initrd image.
func Regenerate(ctx context.Context, target string) error {
	if err := process.ChrootExec(ctx, target, []string{"mkinitcpio", "-P"}); err != nil {
		return fmt.Errorf("regenerate initramfs: %w", err)
	}
	return nil
}
