package cmd

import (
	"fmt"
	"os"

	"sdimage/catalog"
	"sdimage/config"
	"sdimage/imagefmt"
	"sdimage/trackio"

	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture DEST",
	Short: "Capture a real floppy disk into DEST, using the configured drive profile",
	Long: `Capture a real floppy disk into DEST via a Greaseweazle USB adapter.
DEST is created fresh, sized for the drive profile selected in the
sdimage config file (see "sdimage info" on an existing image of the
same format for the expected geometry).`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		destPath := args[0]

		entry, err := catalog.Lookup(config.PreferredHost, config.DriveName)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("no catalog entry for drive %q: %w", config.DriveName, err))
		}
		nrCyls := 40
		if lo, _ := entry.CylClass.Range(); lo > 60 {
			nrCyls = 80
		}
		size := int64(nrCyls) * int64(entry.NrSecs) * int64(entry.SectorSize()) * int64(entry.NrSides)

		if err := os.Truncate(destPath, 0); err != nil && !os.IsNotExist(err) {
			cobra.CheckErr(fmt.Errorf("failed to reset %s: %w", destPath, err))
		}
		f, err := os.OpenFile(destPath, os.O_CREATE|os.O_RDWR, 0644)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to create %s: %w", destPath, err))
		}
		if err := f.Truncate(size); err != nil {
			cobra.CheckErr(fmt.Errorf("failed to size %s: %w", destPath, err))
		}
		f.Close()

		img, err := imagefmt.OpenPath(destPath, ext(destPath))
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to open %s: %w", destPath, err))
		}
		defer img.File.Close()

		for cyl := 0; cyl < img.Arena.NrCyls(); cyl++ {
			for side := 0; side < img.Arena.NrSides(); side++ {
				pos, err := trackio.SeekTrack(img, cyl*img.Env.Step, side, img.Env.Step)
				if err != nil {
					cobra.CheckErr(fmt.Errorf("seek cyl %d side %d: %w", cyl, side, err))
				}

				fmt.Printf("Capturing cylinder %d, side %d...\n", cyl, side)

				onSector := func(secIdx int, data []byte) {
					if err := trackio.WriteSector(img, pos, secIdx, data); err != nil {
						fmt.Fprintf(os.Stderr, "cyl %d side %d sector %d: %v\n", cyl, side, secIdx, err)
					}
				}
				onError := func(err error) {
					fmt.Fprintf(os.Stderr, "cyl %d side %d: %v\n", cyl, side, err)
				}

				if err := drive.CaptureTrack(pos, cyl, side, onSector, onError); err != nil {
					cobra.CheckErr(fmt.Errorf("capture cyl %d side %d: %w", cyl, side, err))
				}
			}
		}

		fmt.Printf("Successfully captured disk to %s\n", destPath)
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)
}
