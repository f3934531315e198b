package bootloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cachyos/instcore/pkg/partition"
	"github.com/cachyos/instcore/pkg/process"
	"github.com/cachyos/instcore/pkg/reporter"
)

// GrubConfig holds every tunable field that appears in
// /etc/default/grub. Boolean fields render as "y"/"n" for the two
// crypto/submenu toggles and "true"/"false" for the rest, matching
// grub-mkconfig's own parsing of the file.
type GrubConfig struct {
	Default             string
	Timeout             int
	Distributor         string
	CmdlineLinuxDefault string
	CmdlineLinux        string
	PreloadModules      string
	TerminalInput       string
	TerminalOutput      string
	GfxMode             string
	GfxPayload          string
	Theme               string
	Background          string
	InitTune            string

	EnableCryptodisk bool
	DisableLinuxUUID bool
	DisableRecovery  bool
	SaveDefault      bool
	DisableSubmenu   bool
	DisableOSProber  bool
}

// DefaultGrubConfig matches Arch's stock /etc/default/grub values.
func DefaultGrubConfig() GrubConfig {
	return GrubConfig{
		Default:         "0",
		Timeout:         5,
		Distributor:     "CachyOS",
		TerminalOutput:  "console",
		GfxMode:         "auto",
		GfxPayload:      "keep",
		DisableRecovery: true,
	}
}

// grubDefaultTemplate is the stock commented /etc/default/grub shape:
// every recognized key appears once, commented or not, and everything
// else (comments, blank lines, unrecognized keys) passes through
// render untouched.
const grubDefaultTemplate = `# GRUB boot loader configuration

GRUB_DEFAULT=0
GRUB_TIMEOUT=5
GRUB_DISTRIBUTOR="Arch"
GRUB_CMDLINE_LINUX_DEFAULT=""
GRUB_CMDLINE_LINUX=""
#GRUB_PRELOAD_MODULES=""
#GRUB_TERMINAL_INPUT=console
GRUB_TERMINAL_OUTPUT=console
#GRUB_GFXMODE=auto
#GRUB_GFXPAYLOAD_LINUX=keep
#GRUB_THEME=""
#GRUB_BACKGROUND=""
#GRUB_INIT_TUNE=""
#GRUB_ENABLE_CRYPTODISK=y
GRUB_DISABLE_LINUX_UUID=false
GRUB_DISABLE_RECOVERY=false
#GRUB_SAVEDEFAULT=true
#GRUB_DISABLE_SUBMENU=y
GRUB_DISABLE_OS_PROBER=false
`

func grubBool(v bool, yn bool) string {
	if yn {
		if v {
			return "y"
		}
		return "n"
	}
	if v {
		return "true"
	}
	return "false"
}

// grubFieldValues maps each recognized key to its rendered value from
// cfg, computed once per Render call.
func grubFieldValues(cfg GrubConfig) map[string]string {
	return map[string]string{
		"GRUB_DEFAULT":                cfg.Default,
		"GRUB_TIMEOUT":                strconv.Itoa(cfg.Timeout),
		"GRUB_DISTRIBUTOR":            strconv.Quote(cfg.Distributor),
		"GRUB_CMDLINE_LINUX_DEFAULT":  strconv.Quote(cfg.CmdlineLinuxDefault),
		"GRUB_CMDLINE_LINUX":          strconv.Quote(cfg.CmdlineLinux),
		"GRUB_PRELOAD_MODULES":        strconv.Quote(cfg.PreloadModules),
		"GRUB_TERMINAL_INPUT":         cfg.TerminalInput,
		"GRUB_TERMINAL_OUTPUT":        cfg.TerminalOutput,
		"GRUB_GFXMODE":                cfg.GfxMode,
		"GRUB_GFXPAYLOAD_LINUX":       cfg.GfxPayload,
		"GRUB_THEME":                  strconv.Quote(cfg.Theme),
		"GRUB_BACKGROUND":             strconv.Quote(cfg.Background),
		"GRUB_INIT_TUNE":              strconv.Quote(cfg.InitTune),
		"GRUB_ENABLE_CRYPTODISK":      grubBool(cfg.EnableCryptodisk, true),
		"GRUB_DISABLE_LINUX_UUID":     grubBool(cfg.DisableLinuxUUID, false),
		"GRUB_DISABLE_RECOVERY":       grubBool(cfg.DisableRecovery, false),
		"GRUB_SAVEDEFAULT":            grubBool(cfg.SaveDefault, false),
		"GRUB_DISABLE_SUBMENU":        grubBool(cfg.DisableSubmenu, true),
		"GRUB_DISABLE_OS_PROBER":      grubBool(cfg.DisableOSProber, false),
	}
}

// RenderGrubDefaults walks template line by line, uncommenting and
// substituting the value for each recognized key; lines that don't
// match a recognized key (including unknown keys and blank/comment
// lines) are copied through verbatim.
func RenderGrubDefaults(template string, cfg GrubConfig) string {
	values := grubFieldValues(cfg)

	var out strings.Builder
	for _, line := range strings.Split(template, "\n") {
		uncommented := strings.TrimPrefix(line, "#")
		key, hasKey := grubLineKey(uncommented)
		if hasKey {
			if val, ok := values[key]; ok {
				fmt.Fprintf(&out, "%s=%s\n", key, val)
				continue
			}
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return strings.TrimSuffix(out.String(), "\n") + "\n"
}

func grubLineKey(line string) (string, bool) {
	idx := strings.Index(line, "=")
	if idx <= 0 {
		return "", false
	}
	key := line[:idx]
	if !strings.HasPrefix(key, "GRUB_") {
		return "", false
	}
	return key, true
}

// InstallGRUB renders /etc/default/grub from cfg (applying the
// cryptodisk/savedefault/zfs policy in spec.md §4.6), runs grub-install
// for the target firmware mode, and regenerates grub.cfg.
func InstallGRUB(ctx context.Context, bcfg Config, scheme partition.PartitionScheme, cfg GrubConfig, rep reporter.Reporter) error {
	if rootEncrypted(scheme) || bootEncrypted(scheme) {
		cfg.EnableCryptodisk = true
	}
	if rootIsBtrfsOrZFS(scheme) || bcfg.IsLVM {
		cfg.SaveDefault = false
	}

	var cmdlinePrefix string
	if rootEncrypted(scheme) {
		if root, ok := findRoot(scheme); ok && root.LuksMapperName != "" {
			cmdlinePrefix = fmt.Sprintf("cryptdevice=UUID=%s:%s ", root.UUID, root.LuksMapperName)
		}
	}
	if bcfg.ZFSDataset != "" {
		cfg.CmdlineLinuxDefault = strings.TrimSpace(cmdlinePrefix + cfg.CmdlineLinuxDefault + fmt.Sprintf(" zfs=%s rw", bcfg.ZFSDataset))
		cfg.CmdlineLinux = strings.TrimSpace(cmdlinePrefix + cfg.CmdlineLinux + fmt.Sprintf(" zfs=%s rw", bcfg.ZFSDataset))
		if err := appendEtcEnvironment(bcfg.TargetDir, "ZPOOL_VDEV_NAME_PATH=YES"); err != nil {
			return err
		}
	} else {
		cfg.CmdlineLinuxDefault = strings.TrimSpace(cmdlinePrefix + cfg.CmdlineLinuxDefault)
		cfg.CmdlineLinux = strings.TrimSpace(cmdlinePrefix + cfg.CmdlineLinux)
	}

	rendered := RenderGrubDefaults(grubDefaultTemplate, cfg)
	defaultGrubPath := filepath.Join(bcfg.TargetDir, "etc/default/grub")
	if err := os.WriteFile(defaultGrubPath, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("write /etc/default/grub: %w", err)
	}

	var installArgv []string
	if bcfg.Firmware == partition.UEFI {
		installArgv = []string{"grub-install", "--target=x86_64-efi", "--efi-directory=/boot", "--bootloader-id=" + bcfg.BootID}
		if bcfg.Removable {
			installArgv = append(installArgv, "--removable")
		}
	} else {
		installArgv = []string{"grub-install", "--target=i386-pc", bcfg.Device}
	}
	if err := process.ChrootExec(ctx, bcfg.TargetDir, installArgv); err != nil {
		return fmt.Errorf("grub-install: %w", err)
	}

	if err := process.ChrootExec(ctx, bcfg.TargetDir, []string{"grub-mkconfig", "-o", "/boot/grub/grub.cfg"}); err != nil {
		return fmt.Errorf("grub-mkconfig: %w", err)
	}

	if bcfg.AsDefault && bcfg.Firmware == partition.UEFI {
		src := filepath.Join(bcfg.TargetDir, "boot/EFI", bcfg.BootID, "grubx64.efi")
		dst := filepath.Join(bcfg.TargetDir, "boot/EFI/boot/bootx64.efi")
		if err := CopyEFIFile(src, dst); err != nil {
			rep.Warning("copy grub as default bootloader: %v", err)
		}
	}

	rep.Message("GRUB installed")
	return nil
}

func findRoot(scheme partition.PartitionScheme) (partition.Partition, bool) {
	for _, p := range scheme.Partitions {
		if p.MountPoint == "/" {
			return p, true
		}
	}
	return partition.Partition{}, false
}

func appendEtcEnvironment(target, line string) error {
	path := filepath.Join(target, "etc/environment")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open /etc/environment: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := fmt.Fprintln(f, line); err != nil {
		return fmt.Errorf("append /etc/environment: %w", err)
	}
	return nil
}
