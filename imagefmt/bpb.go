package imagefmt

import "encoding/binary"

// bpb is the handful of DOS BIOS Parameter Block fields spec.md §4.3
// step 3 needs to disambiguate sizes with more than one plausible
// geometry (MSX 320 KiB being the documented example).
type bpb struct {
	BytesPerSec   uint16
	SecsPerClus   uint8
	NumHeads      uint16
	SecsPerTrack  uint16
	TotSec16      uint16
	TotSec32      uint32
	Media         uint8
}

// readBPB reads the first 512 bytes of f and parses the BPB fields at
// their standard DOS offsets, verifying the 0xaa55 boot signature at
// offset 0x1fe first. Returns ok=false (not an error) if the signature
// is absent, since BPB absence is not fatal — detection degrades to
// size-based guessing per spec.md §7.
func readBPB(f File) (bpb, bool, error) {
	buf := make([]byte, 512)
	if err := f.Seek(0); err != nil {
		return bpb{}, false, err
	}
	n, err := f.Read(buf)
	if err != nil {
		return bpb{}, false, err
	}
	if n < 512 {
		return bpb{}, false, nil
	}
	if binary.LittleEndian.Uint16(buf[0x1fe:]) != 0xaa55 {
		return bpb{}, false, nil
	}
	b := bpb{
		BytesPerSec:  binary.LittleEndian.Uint16(buf[0x0b:]),
		SecsPerClus:  buf[0x0d],
		Media:        buf[0x15],
		SecsPerTrack: binary.LittleEndian.Uint16(buf[0x18:]),
		NumHeads:     binary.LittleEndian.Uint16(buf[0x1a:]),
		TotSec16:     binary.LittleEndian.Uint16(buf[0x13:]),
		TotSec32:     binary.LittleEndian.Uint32(buf[0x20:]),
	}
	return b, true, nil
}

// TotalSectors returns the BPB's declared total sector count, preferring
// the 32-bit field when the 16-bit one is zero.
func (b bpb) TotalSectors() uint32 {
	if b.TotSec16 != 0 {
		return uint32(b.TotSec16)
	}
	return b.TotSec32
}
