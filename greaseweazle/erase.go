package greaseweazle

import (
	"encoding/binary"
	"fmt"
	"io"
)

// eraseDurationMs is how long, in milliseconds, CMD_ERASE_FLUX writes a
// DC erase pattern for, per track side: one full revolution at 300 rpm.
const eraseDurationMs = 200

// Erase bulk-erases nrCyls cylinders across nrSides heads of the
// inserted disk, writing a DC erase pattern to every track.
func (c *Client) Erase(nrCyls, nrSides int) error {
	if err := c.SelectDrive(0); err != nil {
		return fmt.Errorf("failed to select drive: %w", err)
	}
	if err := c.SetMotor(0, true); err != nil {
		return fmt.Errorf("failed to turn on motor: %w", err)
	}
	defer c.SetMotor(0, false)

	clockPeriodNs := 1e9 / float64(c.firmwareInfo.SampleFreqHz)
	ticks := uint32(eraseDurationMs * 1e6 / clockPeriodNs)

	cmd := make([]byte, 6)
	cmd[0] = CMD_ERASE_FLUX
	cmd[1] = 6
	binary.LittleEndian.PutUint32(cmd[2:6], ticks)

	for cyl := 0; cyl < nrCyls; cyl++ {
		for side := 0; side < nrSides; side++ {
			if cyl == 0 && side == 0 {
				fmt.Printf("Erasing track %d, side %d...", cyl, side)
			} else {
				fmt.Printf("\rErasing track %d, side %d...", cyl, side)
			}

			if err := c.Seek(byte(cyl)); err != nil {
				return fmt.Errorf("failed to seek to cylinder %d: %w", cyl, err)
			}
			if err := c.SetHead(byte(side)); err != nil {
				return fmt.Errorf("failed to set head %d: %w", side, err)
			}
			if err := c.doCommand(cmd); err != nil {
				return fmt.Errorf("failed to send ERASE_FLUX command for cylinder %d, head %d: %w", cyl, side, err)
			}

			// Sync byte returned once the erase completes; 0 means success.
			sync := make([]byte, 1)
			if _, err := io.ReadFull(c.port, sync); err != nil {
				return fmt.Errorf("failed to read erase sync byte for cylinder %d, head %d: %w", cyl, side, err)
			}
			if sync[0] != 0 {
				return fmt.Errorf("erase failed for cylinder %d, head %d with status byte 0x%02x", cyl, side, sync[0])
			}

			if err := c.GetFluxStatus(); err != nil {
				return fmt.Errorf("erase status check failed for cylinder %d, head %d: %w", cyl, side, err)
			}
		}
	}
	fmt.Printf(" Done\n")

	return nil
}
