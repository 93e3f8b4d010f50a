// Package frontend is the reference drive-emulation front end (C8): it
// bridges trackio's Ring-based encoder/decoder to a real Greaseweazle
// USB floppy controller, closing the loop described for real-time
// playback with an actual playable path. Other front ends (a GUI
// emulator, a different USB adapter) would implement the same shape
// against trackio directly; this package exists so the engine has at
// least one concrete, runnable collaborator.
package frontend

import (
	"fmt"

	"sdimage/greaseweazle"
	"sdimage/imagefmt"
	"sdimage/trackio"
)

// ringWords is the working ring size for capture/playback: generous
// enough to hold a full high-density track (~12500 bytes at 16 bit-cells
// each) without ever blocking the drain loop below.
const ringWords = 1 << 15

// Drive wraps a Greaseweazle client with the head/motor bookkeeping
// CaptureTrack and PlayTrack both need.
type Drive struct {
	client *greaseweazle.Client
}

// NewDrive adopts an already-initialised Greaseweazle client.
func NewDrive(client *greaseweazle.Client) *Drive {
	return &Drive{client: client}
}

// Close releases the underlying serial connection.
func (d *Drive) Close() error { return d.client.Close() }

// PrintStatus reports firmware, drive, and rotation-speed diagnostics
// for the attached Greaseweazle.
func (d *Drive) PrintStatus() { d.client.PrintStatus() }

// Erase bulk-erases nrCyls cylinders across nrSides heads on the
// attached disk.
func (d *Drive) Erase(nrCyls, nrSides int) error { return d.client.Erase(nrCyls, nrSides) }

// packBitcellsToWords packs a bit-cell stream 16-at-a-time, MSB-first,
// into trackio.Ring words. A short final group is padded with zero bits.
func packBitcellsToWords(bitcells []bool) []uint16 {
	var words []uint16
	var word uint16
	var nbits int
	for _, bit := range bitcells {
		word <<= 1
		if bit {
			word |= 1
		}
		nbits++
		if nbits == 16 {
			words = append(words, word)
			word, nbits = 0, 0
		}
	}
	if nbits > 0 {
		words = append(words, word<<uint(16-nbits))
	}
	return words
}

// unpackWordToBitcells expands one trackio.Ring word into its 16
// individual bit-cells, MSB-first, the inverse of packBitcellsToWords.
func unpackWordToBitcells(word uint16) [16]bool {
	var bits [16]bool
	for i := 0; i < 16; i++ {
		bits[i] = (word>>uint(15-i))&1 != 0
	}
	return bits
}

// packBitsToMSBBytes packs a bool bit-cell stream into bytes, MSB-first,
// the byte shape greaseweazle.MfmToFluxTransitions expects. A short
// final byte is padded with zero bits.
func packBitsToMSBBytes(bits []bool) []byte {
	out := make([]byte, 0, (len(bits)+7)/8)
	var cur byte
	var nbits int
	for _, b := range bits {
		cur <<= 1
		if b {
			cur |= 1
		}
		nbits++
		if nbits == 8 {
			out = append(out, cur)
			cur, nbits = 0, 0
		}
	}
	if nbits > 0 {
		out = append(out, cur<<uint(8-nbits))
	}
	return out
}

func (d *Drive) seek(cyl, side int) error {
	if err := d.client.SelectDrive(0); err != nil {
		return fmt.Errorf("frontend: select drive: %w", err)
	}
	if err := d.client.SetMotor(0, true); err != nil {
		return fmt.Errorf("frontend: motor on: %w", err)
	}
	if err := d.client.Seek(byte(cyl)); err != nil {
		return fmt.Errorf("frontend: seek cyl %d: %w", cyl, err)
	}
	if err := d.client.SetHead(byte(side)); err != nil {
		return fmt.Errorf("frontend: set head %d: %w", side, err)
	}
	return nil
}

// CaptureTrack reads one physical revolution of flux off the drive at
// (cyl, side), recovers bit-cells through the Greaseweazle client's PLL,
// feeds them into a trackio.Decoder seeded by pos, and persists every
// sector the decoder resolves into img's backing file via onSector
// (normally trackio's own OnSector-to-file writer, supplied by the
// caller so this package stays free of image-format knowledge).
func (d *Drive) CaptureTrack(pos *trackio.Position, cyl, side int, onSector func(secIdx int, data []byte), onError func(err error)) error {
	if err := d.seek(cyl, side); err != nil {
		return err
	}
	defer d.client.SetMotor(0, false)

	fluxData, err := d.client.ReadFlux(0, 2)
	if err != nil {
		return fmt.Errorf("frontend: read flux: %w", err)
	}
	if err := d.client.GetFluxStatus(); err != nil {
		return fmt.Errorf("frontend: flux status: %w", err)
	}

	bitcells, err := d.client.DecodeFluxToBitcells(fluxData, uint16(pos.Params.DataRate))
	if err != nil {
		return fmt.Errorf("frontend: decode flux: %w", err)
	}

	ring, err := trackio.NewRing(ringWords)
	if err != nil {
		return err
	}
	dec := trackio.NewDecoder(pos)
	dec.OnSector = onSector
	dec.OnError = onError

	for _, word := range packBitcellsToWords(bitcells) {
		for !ring.Push(word) {
			dec.Tick(ring)
		}
	}
	for dec.Tick(ring) {
	}
	return nil
}

// PlayTrack runs a trackio.Encoder for pos against img, converts its
// emitted bit-cell words back into flux transition times, and writes
// them to the drive at (cyl, side) via WriteFlux.
func (d *Drive) PlayTrack(img *imagefmt.Image, pos *trackio.Position, cyl, side int) error {
	if err := d.seek(cyl, side); err != nil {
		return err
	}
	defer d.client.SetMotor(0, false)

	enc, err := trackio.NewEncoder(img, pos)
	if err != nil {
		return fmt.Errorf("frontend: build encoder: %w", err)
	}
	ring, err := trackio.NewRing(ringWords)
	if err != nil {
		return err
	}

	var bitcells []bool
	drain := func() {
		for {
			word, ok := ring.Pop()
			if !ok {
				return
			}
			cells := unpackWordToBitcells(word)
			bitcells = append(bitcells, cells[:]...)
		}
	}
	for !enc.Done() {
		enc.Tick(ring)
		drain()
	}
	drain()

	mfmBits := packBitsToMSBBytes(bitcells)

	transitions, err := greaseweazle.MfmToFluxTransitions(mfmBits, uint16(pos.Params.DataRate))
	if err != nil {
		return fmt.Errorf("frontend: convert bit-cells to flux: %w", err)
	}
	transitions = greaseweazle.CoverFullRotation(transitions, uint16(pos.Params.DataRate), uint16(pos.Params.RPM))
	fluxData := greaseweazle.EncodeFluxStream(transitions, d.client.SampleFreqHz())

	if err := d.client.WriteFlux(fluxData); err != nil {
		return fmt.Errorf("frontend: write flux: %w", err)
	}
	return nil
}
