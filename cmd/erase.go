package cmd

import (
	"fmt"

	"sdimage/config"

	"github.com/spf13/cobra"
)

var eraseCmd = &cobra.Command{
	Use:   "erase [NRCYLS]",
	Short: "Bulk-erase a disk in the attached Greaseweazle drive",
	Long:  "Erase writes a DC erase pattern to every track on the inserted disk. NRCYLS defaults to 82.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		nrCyls := 82
		if len(args) == 1 {
			if _, err := fmt.Sscanf(args[0], "%d", &nrCyls); err != nil {
				cobra.CheckErr(fmt.Errorf("invalid cylinder count %q: %w", args[0], err))
			}
		}
		if err := drive.Erase(nrCyls, config.Heads); err != nil {
			cobra.CheckErr(fmt.Errorf("erase failed: %w", err))
		}
	},
}

func init() {
	rootCmd.AddCommand(eraseCmd)
}
