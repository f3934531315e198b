package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cachyos/instcore/pkg/blockdev"
	"github.com/cachyos/instcore/pkg/config"
	"github.com/cachyos/instcore/pkg/partition"
	"github.com/cachyos/instcore/pkg/pipeline"
	"github.com/cachyos/instcore/pkg/session"
	"github.com/cachyos/instcore/pkg/types"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Interactively configure and run an install",
	Long: `Interactive walks through the same choices settings.json encodes —
target disk, root filesystem, locale, accounts, and bootloader — and
then runs the same pipeline "instcore install" does.

Example:
  instcore interactive`,
	RunE: runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	dryRun := viper.GetBool("dry-run")

	disks, err := blockdev.Probe(cmd.Context())
	if err != nil {
		return fmt.Errorf("list disks: %w", err)
	}
	if len(disks) == 0 {
		return fmt.Errorf("no disks found")
	}

	diskOptions := make([]huh.Option[string], len(disks))
	for i, d := range disks {
		label := fmt.Sprintf("%s (%s)", d.Device, blockdev.FormatSize(d.Size))
		if d.Model != "" {
			label = fmt.Sprintf("%s - %s (%s)", d.Device, d.Model, blockdev.FormatSize(d.Size))
		}
		if d.IsRemovable {
			label += " [removable]"
		}
		diskOptions[i] = huh.NewOption(label, d.Device)
	}

	cfg := &config.Settings{
		FSName:     "ext4",
		Locale:     "en_US.UTF-8",
		XkbMap:     "us",
		Timezone:   "UTC",
		UserShell:  "/bin/bash",
		Kernel:     "linux-cachyos",
		Desktop:    "none",
		Bootloader: "grub",
	}
	var firmwareChoice string
	var rootSize string
	var encrypt bool
	var passphrase, passphraseConfirm string
	var confirm bool

	diskForm := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("instcore install wizard").
				Description("This wizard configures and runs an install.\n\n⚠️  This will DESTROY all data on the selected disk!"),

			huh.NewSelect[string]().
				Title("Target Disk").
				Description("Select the disk to install to").
				Options(diskOptions...).
				Value(&cfg.Device),

			huh.NewSelect[string]().
				Title("Firmware").
				Options(
					huh.NewOption("UEFI", "uefi"),
					huh.NewOption("BIOS", "bios"),
				).
				Value(&firmwareChoice),

			huh.NewSelect[string]().
				Title("Root Filesystem").
				Options(
					huh.NewOption("ext4", "ext4"),
					huh.NewOption("btrfs", "btrfs"),
					huh.NewOption("xfs", "xfs"),
					huh.NewOption("f2fs", "f2fs"),
				).
				Value(&cfg.FSName),

			huh.NewInput().
				Title("Root Partition Size").
				Description("e.g. 32GiB, leave empty to grow and fill the disk").
				Value(&rootSize),
		),
	)
	if err := diskForm.Run(); err != nil {
		return err
	}

	systemForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Hostname").Value(&cfg.Hostname).
				Validate(requiredField("hostname")),
			huh.NewInput().Title("Locale").Value(&cfg.Locale),
			huh.NewInput().Title("Keyboard layout (xkbmap)").Value(&cfg.XkbMap),
			huh.NewInput().Title("Timezone").Value(&cfg.Timezone),
			huh.NewSelect[string]().Title("Bootloader").
				Options(
					huh.NewOption("GRUB", "grub"),
					huh.NewOption("systemd-boot", "systemd-boot"),
					huh.NewOption("limine", "limine"),
					huh.NewOption("rEFInd", "refind"),
				).
				Value(&cfg.Bootloader),
		),
	)
	if err := systemForm.Run(); err != nil {
		return err
	}

	accountForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Username").Value(&cfg.UserName).
				Validate(requiredField("username")),
			huh.NewInput().Title("User password").EchoMode(huh.EchoModePassword).Value(&cfg.UserPass),
			huh.NewInput().Title("Root password").EchoMode(huh.EchoModePassword).Value(&cfg.RootPass),

			huh.NewConfirm().
				Title("Enable LUKS encryption for root?").
				Value(&encrypt),
		),
	)
	if err := accountForm.Run(); err != nil {
		return err
	}

	if encrypt {
		passForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("LUKS passphrase").EchoMode(huh.EchoModePassword).Value(&passphrase).
					Validate(func(s string) error {
						if len(s) < 8 {
							return fmt.Errorf("passphrase must be at least 8 characters")
						}
						return nil
					}),
				huh.NewInput().Title("Confirm passphrase").EchoMode(huh.EchoModePassword).Value(&passphraseConfirm).
					Validate(func(s string) error {
						if s != passphrase {
							return fmt.Errorf("passphrases do not match")
						}
						return nil
					}),
			),
		)
		if err := passForm.Run(); err != nil {
			return err
		}
	}

	rootEntry := config.PartitionEntry{Name: "root", MountPoint: "/", Size: rootSize, Type: config.PartitionRoot}
	cfg.Partitions = []config.PartitionEntry{rootEntry}
	if firmwareChoice == "uefi" {
		cfg.Partitions = append([]config.PartitionEntry{
			{Name: "esp", MountPoint: "/boot", Size: "512MiB", FSName: "vfat", Type: config.PartitionBoot},
		}, cfg.Partitions...)
	}

	summary := strings.Join([]string{
		fmt.Sprintf("Device: %s", cfg.Device),
		fmt.Sprintf("Firmware: %s", firmwareChoice),
		fmt.Sprintf("Filesystem: %s", cfg.FSName),
		fmt.Sprintf("Hostname: %s", cfg.Hostname),
		fmt.Sprintf("Bootloader: %s", cfg.Bootloader),
		fmt.Sprintf("Encrypted: %v", encrypt),
		"",
		"⚠️  This will DESTROY all data on the selected disk!",
	}, "\n")

	confirmForm := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title("Confirm Installation").Description(summary),
			huh.NewConfirm().
				Title("Proceed with installation?").
				Affirmative("Yes, install").
				Negative("Cancel").
				Value(&confirm),
		),
	)
	if err := confirmForm.Run(); err != nil {
		return err
	}
	if !confirm {
		fmt.Println("Installation cancelled.")
		return nil
	}

	firmware := partition.BIOS
	if firmwareChoice == "uefi" {
		firmware = partition.UEFI
	}

	st := session.New(cfg, dryRun)
	rep := newReporter(false)
	wf := pipeline.BuildInstallWorkflow(pipeline.InstallOptions{
		Firmware:       firmware,
		LuksPassphrase: passphrase,
	})

	start := time.Now()
	fmt.Println()
	runErr := wf.Run(cmd.Context(), st, rep)

	result := types.InstallResult{
		Device:         cfg.Device,
		FilesystemType: cfg.FSName,
		BootloaderType: cfg.Bootloader,
		Encrypted:      encrypt,
		MountPoint:     st.TargetDir,
		Warnings:       st.Warnings,
		DurationSecs:   time.Since(start).Seconds(),
	}
	if runErr != nil {
		rep.Error(runErr, "install failed")
		return runErr
	}
	rep.Complete("install complete", result)
	return nil
}

func requiredField(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}
