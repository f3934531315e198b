package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cachyos/instcore/pkg/config"
	"github.com/cachyos/instcore/pkg/partition"
	"github.com/cachyos/instcore/pkg/pipeline"
	"github.com/cachyos/instcore/pkg/process"
	"github.com/cachyos/instcore/pkg/session"
	"github.com/cachyos/instcore/pkg/types"
)

type installFlags struct {
	settingsPath   string
	device         string
	firmware       string
	luksPassphrase string
	luksKeyfile    string
	lvm            bool
	targetDir      string
	skipPreflight  bool
}

var instFlags installFlags

var installCmd = &cobra.Command{
	Use:     "install",
	Aliases: []string{"inst"},
	Short:   "Partition a disk, compose its storage stack, and install the system",
	Long: `Install runs the full pipeline against settings.json:

  1. Validate the target disk
  2. Plan the partition scheme
  3. Create the partitions
  4. Compose storage (open LUKS containers, format, mount, activate swap)
  5. Write target-system configuration (fstab, crypttab, locale, accounts, initramfs)
  6. Install the chosen bootloader

With --json, progress streams as JSON Lines instead of human-readable text.

Example:
  instcore install --settings ./settings.json --device /dev/nvme0n1
  instcore install --settings ./settings.json --device /dev/sda --luks-passphrase hunter2
  instcore install --settings ./settings.json --device /dev/sda --dry-run`,
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)

	installCmd.Flags().StringVarP(&instFlags.settingsPath, "settings", "s", "settings.json", "Path to settings.json")
	installCmd.Flags().StringVarP(&instFlags.device, "device", "d", "", "Target disk device, overrides settings.json's device field")
	installCmd.Flags().StringVar(&instFlags.firmware, "firmware", "uefi", "Firmware mode (uefi, bios)")
	installCmd.Flags().StringVar(&instFlags.luksPassphrase, "luks-passphrase", "", "LUKS passphrase, required if any partition names a luks mapper")
	installCmd.Flags().StringVar(&instFlags.luksKeyfile, "luks-keyfile", "", "Path to a file containing the LUKS passphrase, alternative to --luks-passphrase")
	installCmd.Flags().BoolVar(&instFlags.lvm, "lvm", false, "Root sits on an LVM logical volume")
	installCmd.Flags().StringVar(&instFlags.targetDir, "target", "/mnt", "Mountpoint to assemble the installed system under")
	installCmd.Flags().BoolVar(&instFlags.skipPreflight, "skip-preflight", false, "Skip the required-tool PATH check")
}

func runInstall(cmd *cobra.Command, _ []string) error {
	verbose := viper.GetBool("verbose")
	jsonOutput := viper.GetBool("json")
	dryRun := viper.GetBool("dry-run")
	rep := newReporter(jsonOutput)

	if !instFlags.skipPreflight {
		if err := process.Preflight(); err != nil {
			rep.Error(err, "missing required tool")
			return err
		}
	}

	cfg, err := config.Load(instFlags.settingsPath)
	if err != nil {
		rep.Error(err, "failed to load settings")
		return err
	}
	if cfg == nil {
		err := fmt.Errorf("%s does not exist", instFlags.settingsPath)
		rep.Error(err, "missing settings file")
		return err
	}
	if instFlags.device != "" {
		cfg.Device = instFlags.device
	}
	if err := cfg.Validate(); err != nil {
		rep.Error(err, "settings.json failed validation")
		return err
	}

	passphrase, err := resolveLuksPassphrase()
	if err != nil {
		rep.Error(err, "failed to resolve LUKS passphrase")
		return err
	}

	firmware := partition.BIOS
	if instFlags.firmware == "uefi" {
		firmware = partition.UEFI
	}

	st := session.New(cfg, dryRun)
	if verbose && !jsonOutput {
		fmt.Printf("Starting install %s for %s\n", st.ID, cfg.Device)
	}

	wf := pipeline.BuildInstallWorkflow(pipeline.InstallOptions{
		Firmware:       firmware,
		LuksPassphrase: passphrase,
		TargetDir:      instFlags.targetDir,
		IsLVM:          instFlags.lvm,
	})

	start := time.Now()
	runErr := wf.Run(cmd.Context(), st, rep)

	result := types.InstallResult{
		Device:         cfg.Device,
		FilesystemType: cfg.FSName,
		BootloaderType: cfg.Bootloader,
		Encrypted:      len(st.LuksDevices) > 0,
		MountPoint:     st.TargetDir,
		Warnings:       st.Warnings,
		DurationSecs:   time.Since(start).Seconds(),
	}
	if st.Scheme.IsEFI {
		result.TableType = "gpt"
	} else {
		result.TableType = "dos"
	}

	if runErr != nil {
		rep.Error(runErr, "install failed")
		return runErr
	}

	rep.Complete("install complete", result)
	if !jsonOutput {
		fmt.Printf("Installed to %s, mounted at %s\n", cfg.Device, st.TargetDir)
		for _, w := range st.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
	}
	return nil
}

func resolveLuksPassphrase() (string, error) {
	if instFlags.luksPassphrase != "" && instFlags.luksKeyfile != "" {
		return "", fmt.Errorf("--luks-passphrase and --luks-keyfile are mutually exclusive")
	}
	if instFlags.luksKeyfile == "" {
		return instFlags.luksPassphrase, nil
	}
	data, err := os.ReadFile(instFlags.luksKeyfile)
	if err != nil {
		return "", fmt.Errorf("read luks keyfile: %w", err)
	}
	return strings.TrimRight(string(data), "\n\r"), nil
}
