package cmd

import (
	"fmt"

	"sdimage/imagefmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info FILE",
	Short: "Print the geometry of a floppy image",
	Args:  cobra.ExactArgs(1),
	// Override PersistentPreRun: info never touches real hardware.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		img, err := imagefmt.OpenPath(path, ext(path))
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to open %s: %w", path, err))
		}
		defer img.File.Close()

		fmt.Printf("%s: %d cylinders, %d sides, step %d\n",
			path, img.Arena.NrCyls(), img.Arena.NrSides(), img.Env.Step)

		for cyl := 0; cyl < img.Arena.NrCyls(); cyl++ {
			for side := 0; side < img.Arena.NrSides(); side++ {
				trk, secs, err := img.Arena.TrackAt(cyl, side)
				if err != nil {
					cobra.CheckErr(err)
				}
				encoding := "MFM"
				if trk.IsFM {
					encoding = "FM"
				}
				fmt.Printf("  cyl %2d side %d: %2d sectors, %s, %d rpm\n",
					cyl, side, len(secs), encoding, trk.EffectiveRPM())
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
