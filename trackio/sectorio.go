package trackio

import (
	"fmt"

	"sdimage/imagefmt"
)

// sectorOffset computes secIdx's byte offset into the backing file,
// honouring trk.FileSecOffsets when present (XDF's non-contiguous
// layout) and the plain sum-of-prior-sizes offset otherwise, per
// spec.md §4.8 / §6.
func sectorOffset(pos *Position, secIdx int) int64 {
	if pos.Trk.FileSecOffsets != nil {
		return pos.TrackOffset + pos.Trk.FileSecOffsets[secIdx]
	}
	off := pos.TrackOffset
	for _, s := range pos.Secs[:secIdx] {
		off += int64(s.Size())
	}
	return off
}

// ReadSector reads secIdx's payload (an index into pos.Secs, not
// rotational order) from img's backing file. Exported for callers
// outside this package, such as a format-conversion tool, that need
// sector-granular access without going through the bit-cell encoder.
func ReadSector(img *imagefmt.Image, pos *Position, secIdx int) ([]byte, error) {
	sec := pos.Secs[secIdx]
	size := sec.Size()
	off := sectorOffset(pos, secIdx)

	if err := img.File.Seek(off); err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	n, err := img.File.Read(buf)
	if err != nil {
		return nil, err
	}
	if n < size {
		return nil, fmt.Errorf("trackio: short read fetching sector %d: got %d of %d bytes", sec.R, n, size)
	}
	return buf, nil
}

// WriteSector writes data as secIdx's payload into img's backing file,
// the write-side counterpart to ReadSector.
func WriteSector(img *imagefmt.Image, pos *Position, secIdx int, data []byte) error {
	sec := pos.Secs[secIdx]
	if len(data) != sec.Size() {
		return fmt.Errorf("trackio: sector %d expects %d bytes, got %d", sec.R, sec.Size(), len(data))
	}
	off := sectorOffset(pos, secIdx)
	if err := img.File.Seek(off); err != nil {
		return err
	}
	n, err := img.File.Write(data)
	if err != nil {
		return err
	}
	if n < len(data) {
		return fmt.Errorf("trackio: short write storing sector %d: wrote %d of %d bytes", sec.R, n, len(data))
	}
	return nil
}
