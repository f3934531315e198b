package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cachyos/instcore/pkg/config"
	"github.com/cachyos/instcore/pkg/partition"
	"github.com/cachyos/instcore/pkg/types"
)

type planFlags struct {
	settingsPath string
	firmware     string
}

var planFlagsVal planFlags

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview the partition scheme settings.json describes",
	Long: `Plan derives the partition scheme from settings.json and prints a
human-readable preview — device, size, filesystem, mountpoint, and the
sfdisk script that would realize it — without creating anything.`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVarP(&planFlagsVal.settingsPath, "settings", "s", "settings.json", "Path to settings.json")
	planCmd.Flags().StringVar(&planFlagsVal.firmware, "firmware", "uefi", "Firmware mode (uefi, bios)")
}

func runPlan(cmd *cobra.Command, _ []string) error {
	jsonOutput := viper.GetBool("json")

	cfg, err := config.Load(planFlagsVal.settingsPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if cfg == nil {
		return fmt.Errorf("%s does not exist", planFlagsVal.settingsPath)
	}

	firmware := partition.BIOS
	if planFlagsVal.firmware == "uefi" {
		firmware = partition.UEFI
	}

	scheme, err := partition.FromSettings(cfg, firmware)
	if err != nil {
		return fmt.Errorf("plan partitions: %w", err)
	}

	if jsonOutput {
		lines := make([]string, 0, len(scheme.Partitions))
		for _, p := range scheme.Partitions {
			lines = append(lines, fmt.Sprintf("%s -> %s (%s)", p.MountPoint, p.FSType, p.Size))
		}
		tableType := "dos"
		if scheme.IsEFI {
			tableType = "gpt"
		}
		return outputJSON(types.PlanOutput{
			Device:     scheme.Device,
			TableType:  tableType,
			Script:     scheme.Script(),
			Partitions: lines,
		})
	}

	fmt.Print(scheme.Preview())
	return nil
}
