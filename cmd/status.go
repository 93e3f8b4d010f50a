package cmd

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print firmware, drive, and rotation-speed status for the attached Greaseweazle",
	Run: func(cmd *cobra.Command, args []string) {
		drive.PrintStatus()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
