package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"sdimage/imagefmt"
	"sdimage/trackio"

	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert SRC DEST",
	Short: "Convert between floppy image formats",
	Long: `Convert between floppy image formats.
Reads the contents of SRC and writes them to DEST, track by track and
sector by sector. The image format is inferred from each file's
extension. No USB adapter is used.`,
	Args: cobra.ExactArgs(2),
	// Override PersistentPreRun: convert never touches real hardware.
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		srcPath, destPath := args[0], args[1]

		srcImg, err := imagefmt.OpenPath(srcPath, ext(srcPath))
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to open %s: %w", srcPath, err))
		}
		defer srcImg.File.Close()

		destImg, err := imagefmt.OpenPath(destPath, ext(destPath))
		if err != nil {
			cobra.CheckErr(fmt.Errorf("failed to open %s: %w", destPath, err))
		}
		defer destImg.File.Close()

		if srcImg.Arena.NrCyls() != destImg.Arena.NrCyls() || srcImg.Arena.NrSides() != destImg.Arena.NrSides() {
			cobra.CheckErr(fmt.Errorf("geometry mismatch: %s is %d cyls x %d sides, %s is %d cyls x %d sides",
				srcPath, srcImg.Arena.NrCyls(), srcImg.Arena.NrSides(),
				destPath, destImg.Arena.NrCyls(), destImg.Arena.NrSides()))
		}

		for cyl := 0; cyl < srcImg.Arena.NrCyls(); cyl++ {
			for side := 0; side < srcImg.Arena.NrSides(); side++ {
				srcPos, err := trackio.SeekTrack(srcImg, cyl*srcImg.Env.Step, side, srcImg.Env.Step)
				if err != nil {
					cobra.CheckErr(fmt.Errorf("seek %s cyl %d side %d: %w", srcPath, cyl, side, err))
				}
				destPos, err := trackio.SeekTrack(destImg, cyl*destImg.Env.Step, side, destImg.Env.Step)
				if err != nil {
					cobra.CheckErr(fmt.Errorf("seek %s cyl %d side %d: %w", destPath, cyl, side, err))
				}
				if len(srcPos.Secs) != len(destPos.Secs) {
					cobra.CheckErr(fmt.Errorf("cyl %d side %d: sector count mismatch (%d vs %d)",
						cyl, side, len(srcPos.Secs), len(destPos.Secs)))
				}
				for i := range srcPos.Secs {
					data, err := trackio.ReadSector(srcImg, srcPos, i)
					if err != nil {
						cobra.CheckErr(fmt.Errorf("read cyl %d side %d sector %d: %w", cyl, side, i, err))
					}
					if err := trackio.WriteSector(destImg, destPos, i, data); err != nil {
						cobra.CheckErr(fmt.Errorf("write cyl %d side %d sector %d: %w", cyl, side, i, err))
					}
				}
			}
		}

		fmt.Printf("Successfully converted %s to %s\n", srcPath, destPath)
	},
}

// ext returns a filename's extension, stripped of its leading dot.
func ext(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
