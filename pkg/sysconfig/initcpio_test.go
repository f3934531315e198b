package sysconfig

import (
	"strings"
	"testing"
)

const sampleInitcpio = `# vim:set ft=sh
# MODULES
MODULES=(ext4)

# FILES
FILES=()

# HOOKS
HOOKS=(base udev autodetect modconf block filesystems keyboard fsck)
`

func TestParseInitcpioConfig_RoundTrip(t *testing.T) {
	cfg := ParseInitcpioConfig(sampleInitcpio)
	if len(cfg.Modules) != 1 || cfg.Modules[0] != "ext4" {
		t.Fatalf("Modules = %v, want [ext4]", cfg.Modules)
	}
	if len(cfg.Files) != 0 {
		t.Fatalf("Files = %v, want empty", cfg.Files)
	}
	want := []string{"base", "udev", "autodetect", "modconf", "block", "filesystems", "keyboard", "fsck"}
	if len(cfg.Hooks) != len(want) {
		t.Fatalf("Hooks = %v, want %v", cfg.Hooks, want)
	}
	for i, h := range want {
		if cfg.Hooks[i] != h {
			t.Fatalf("Hooks[%d] = %q, want %q", i, cfg.Hooks[i], h)
		}
	}

	out := cfg.String()
	reparsed := ParseInitcpioConfig(out)
	if len(reparsed.Hooks) != len(want) {
		t.Fatalf("round-trip Hooks = %v, want %v", reparsed.Hooks, want)
	}
}

func TestInitcpioConfig_AppendModuleDedup(t *testing.T) {
	cfg := ParseInitcpioConfig(sampleInitcpio)
	if !cfg.AppendModule("btrfs") {
		t.Fatalf("AppendModule(btrfs) = false, want true on first add")
	}
	if cfg.AppendModule("btrfs") {
		t.Fatalf("AppendModule(btrfs) = true, want false on duplicate")
	}
	if len(cfg.Modules) != 2 {
		t.Fatalf("Modules = %v, want len 2", cfg.Modules)
	}
}

func TestInitcpioConfig_NormalizeHookOrder_LUKS(t *testing.T) {
	cfg := ParseInitcpioConfig(sampleInitcpio)
	cfg.NormalizeHookOrder(HookPolicy{LUKS: true})

	encIdx, fsIdx := -1, -1
	for i, h := range cfg.Hooks {
		if h == "encrypt" {
			encIdx = i
		}
		if h == "filesystems" {
			fsIdx = i
		}
	}
	if encIdx < 0 || fsIdx < 0 || encIdx > fsIdx {
		t.Fatalf("expected encrypt before filesystems, got %v", cfg.Hooks)
	}
}

func TestInitcpioConfig_NormalizeHookOrder_ZFS(t *testing.T) {
	cfg := ParseInitcpioConfig(sampleInitcpio)
	cfg.NormalizeHookOrder(HookPolicy{ZFS: true})

	for _, h := range cfg.Hooks {
		if h == "filesystems" {
			t.Fatalf("expected filesystems hook replaced, got %v", cfg.Hooks)
		}
	}
	found := false
	for _, h := range cfg.Hooks {
		if h == "zfs" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected zfs hook present, got %v", cfg.Hooks)
	}
}

func TestInitcpioConfig_NormalizeHookOrder_Btrfs(t *testing.T) {
	cfg := ParseInitcpioConfig(sampleInitcpio)
	cfg.NormalizeHookOrder(HookPolicy{Btrfs: true})

	hasModule := false
	for _, m := range cfg.Modules {
		if m == "crc32c-intel" {
			hasModule = true
		}
	}
	if !hasModule {
		t.Fatalf("expected crc32c-intel module, got %v", cfg.Modules)
	}
	hasHook := false
	for _, h := range cfg.Hooks {
		if h == "btrfs" {
			hasHook = true
		}
	}
	if !hasHook {
		t.Fatalf("expected btrfs hook, got %v", cfg.Hooks)
	}
}

func TestInitcpioConfig_PreservesComments(t *testing.T) {
	cfg := ParseInitcpioConfig(sampleInitcpio)
	out := cfg.String()
	if !strings.Contains(out, "# vim:set ft=sh") {
		t.Fatalf("expected leading comment preserved, got %q", out)
	}
}
