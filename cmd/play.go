package cmd

import (
	"fmt"

	"sdimage/imagefmt"
	"sdimage/trackio"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play FILE",
	Short: "Play a floppy image back onto a real disk via a Greaseweazle USB adapter",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		img, err := imagefmt.OpenPath(path, ext(path))
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to open %s: %w", path, err))
		}
		defer img.File.Close()

		for cyl := 0; cyl < img.Arena.NrCyls(); cyl++ {
			for side := 0; side < img.Arena.NrSides(); side++ {
				pos, err := trackio.SeekTrack(img, cyl*img.Env.Step, side, img.Env.Step)
				if err != nil {
					cobra.CheckErr(fmt.Errorf("seek cyl %d side %d: %w", cyl, side, err))
				}

				fmt.Printf("Writing cylinder %d, side %d...\n", cyl, side)

				if err := drive.PlayTrack(img, pos, cyl, side); err != nil {
					cobra.CheckErr(fmt.Errorf("play cyl %d side %d: %w", cyl, side, err))
				}
			}
		}

		fmt.Printf("Successfully played %s to disk\n", path)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
}
