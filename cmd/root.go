// Package cmd implements the sdimage command line tool.
package cmd

import (
	"fmt"
	"strconv"

	"sdimage/config"
	"sdimage/frontend"
	"sdimage/greaseweazle"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

var drive *frontend.Drive

var rootCmd = &cobra.Command{
	Use:   "sdimage",
	Short: "A CLI program that reads, writes, and converts IBM System-34 floppy images",
	Long:  "The sdimage tool reads and writes IBM System-34 (MFM/FM) floppy disk images, either to file or via a Greaseweazle USB adapter.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := config.Initialize(); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to load config: %w", err))
		}
		client, err := findGreaseweazle()
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to find USB adapter: %w", err))
		}
		drive = frontend.NewDrive(client)
	},
}

// findGreaseweazle scans serial ports for a device matching
// greaseweazle's VID/PID and opens it.
func findGreaseweazle() (*greaseweazle.Client, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	for _, port := range ports {
		portVID, err := strconv.ParseUint(port.VID, 16, 16)
		if err != nil {
			continue
		}
		portPID, err := strconv.ParseUint(port.PID, 16, 16)
		if err != nil {
			continue
		}
		if uint16(portVID) == greaseweazle.VendorID && uint16(portPID) == greaseweazle.ProductID {
			client, err := greaseweazle.NewClient(port)
			if err != nil {
				continue // Try next port
			}
			return client, nil
		}
	}

	return nil, fmt.Errorf("no Greaseweazle found (VID=0x%04X PID=0x%04X)",
		greaseweazle.VendorID, greaseweazle.ProductID)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
