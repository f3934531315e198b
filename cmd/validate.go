package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cachyos/instcore/pkg/blockdev"
	"github.com/cachyos/instcore/pkg/config"
	"github.com/cachyos/instcore/pkg/partition"
	"github.com/cachyos/instcore/pkg/types"
)

type validateFlags struct {
	settingsPath string
	firmware     string
}

var valFlags validateFlags

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a settings.json and the partition scheme it describes",
	Long: `Validate loads settings.json, checks it for missing required fields
in headless mode, derives the partition scheme it describes, and runs
every scheme invariant (one root, UEFI needs an ESP, at most one grow
partition, ...) without touching the target disk.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&valFlags.settingsPath, "settings", "s", "settings.json", "Path to settings.json")
	validateCmd.Flags().StringVar(&valFlags.firmware, "firmware", "uefi", "Firmware mode to validate against (uefi, bios)")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	jsonOutput := viper.GetBool("json")

	out := types.ValidateOutput{Device: valFlags.settingsPath}

	cfg, err := config.Load(valFlags.settingsPath)
	if err != nil {
		out.Errors = append(out.Errors, err.Error())
		return reportValidate(out, jsonOutput)
	}
	if cfg == nil {
		out.Errors = append(out.Errors, fmt.Sprintf("%s does not exist", valFlags.settingsPath))
		return reportValidate(out, jsonOutput)
	}

	if err := cfg.Validate(); err != nil {
		out.Errors = append(out.Errors, err.Error())
	}
	out.Device = cfg.Device

	firmware := partition.BIOS
	if valFlags.firmware == "uefi" {
		firmware = partition.UEFI
	}

	scheme, err := partition.FromSettings(cfg, firmware)
	if err != nil {
		out.Errors = append(out.Errors, fmt.Sprintf("partition plan: %v", err))
		return reportValidate(out, jsonOutput)
	}
	if warnings, err := scheme.Validate(); err != nil {
		out.Errors = append(out.Errors, err.Error())
	} else {
		out.Warnings = append(out.Warnings, warnings...)
	}

	if cfg.Device != "" && !blockdev.IsBlockDevice(cfg.Device) {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%s is not a block device on this host", cfg.Device))
	}

	out.Valid = len(out.Errors) == 0
	return reportValidate(out, jsonOutput)
}

func reportValidate(out types.ValidateOutput, jsonOutput bool) error {
	if jsonOutput {
		if err := outputJSON(out); err != nil {
			return err
		}
	} else {
		if out.Valid {
			fmt.Printf("settings valid for %s\n", out.Device)
		} else {
			fmt.Printf("settings invalid for %s\n", out.Device)
		}
		for _, w := range out.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		for _, e := range out.Errors {
			fmt.Printf("  error: %s\n", e)
		}
	}
	if !out.Valid {
		return fmt.Errorf("validation failed")
	}
	return nil
}
