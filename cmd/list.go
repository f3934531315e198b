package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cachyos/instcore/pkg/blockdev"
	"github.com/cachyos/instcore/pkg/types"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "disks"},
	Short:   "List available disks",
	Long:    `List every physical disk the block-device query can see, with its partitions.`,
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	verbose := viper.GetBool("verbose")
	jsonOutput := viper.GetBool("json")

	disks, err := blockdev.Probe(cmd.Context())
	if err != nil {
		if jsonOutput {
			return outputJSONError("failed to list disks", err)
		}
		return fmt.Errorf("failed to list disks: %w", err)
	}

	if jsonOutput {
		output := types.ProbeOutput{Disks: make([]types.DiskOutput, 0, len(disks))}
		for _, disk := range disks {
			diskOut := types.DiskOutput{
				Device:      disk.Device,
				Size:        disk.Size,
				SizeHuman:   blockdev.FormatSize(disk.Size),
				Model:       disk.Model,
				Transport:   disk.Transport,
				Rotational:  disk.Rotational,
				IsRemovable: disk.IsRemovable,
				Partitions:  make([]types.PartitionOutput, 0, len(disk.Partitions)),
			}
			for _, part := range disk.Partitions {
				diskOut.Partitions = append(diskOut.Partitions, types.PartitionOutput{
					Device:     part.Device,
					Size:       part.Size,
					SizeHuman:  blockdev.FormatSize(part.Size),
					FSType:     part.FSType,
					Label:      part.Label,
					UUID:       part.UUID,
					PartUUID:   part.PartUUID,
					MountPoint: part.MountPoint,
					IsMounted:  part.MountPoint != "",
				})
			}
			output.Disks = append(output.Disks, diskOut)
		}
		return outputJSON(output)
	}

	if len(disks) == 0 {
		fmt.Println("No disks found.")
		return nil
	}

	fmt.Println("Available disks:")
	fmt.Println()

	for _, disk := range disks {
		fmt.Printf("Device: %s\n", disk.Device)
		fmt.Printf("  Size:      %s (%d bytes)\n", blockdev.FormatSize(disk.Size), disk.Size)
		if disk.Model != "" {
			fmt.Printf("  Model:     %s\n", disk.Model)
		}
		if disk.Transport != "" {
			fmt.Printf("  Transport: %s\n", disk.Transport)
		}
		fmt.Printf("  Removable: %v\n", disk.IsRemovable)

		if len(disk.Partitions) > 0 {
			fmt.Printf("  Partitions:\n")
			for _, part := range disk.Partitions {
				fmt.Printf("    - %s (%s)", part.Device, blockdev.FormatSize(part.Size))
				if part.MountPoint != "" {
					fmt.Printf(" mounted at %s", part.MountPoint)
				}
				if part.FSType != "" && verbose {
					fmt.Printf(" [%s]", part.FSType)
				}
				fmt.Println()
			}
		} else {
			fmt.Printf("  Partitions: none\n")
		}
		fmt.Println()
	}

	return nil
}
