package imagefmt

import (
	"encoding/binary"
	"fmt"

	"sdimage/catalog"
	"sdimage/layout"
)

const atrBaseOff = 16
const atrSignature = 0x0296

// atrHandler recognises Atari 8-bit ATR disk images: a 16-byte header
// (signature 0x0296 at offset 0) precedes the raw sector data at
// base_off=16. 128-byte sectors imply FM at 125 kbps with the "+4%"
// host-clock correction; track 0's first three sectors are always
// 128 bytes even on a double-density disk; invert_data is always set.
// See spec.md §4.3.
type atrHandler struct{}

func (atrHandler) Tag() string { return "atr" }

func (atrHandler) Open(f File, size int64, zones []zoneParams) (*Image, error) {
	if size <= atrBaseOff {
		return nil, fmt.Errorf("%w: file too small for an ATR header", ErrNotThisFormat)
	}
	hdr := make([]byte, atrBaseOff)
	if err := f.Seek(0); err != nil {
		return nil, err
	}
	n, err := f.Read(hdr)
	if err != nil {
		return nil, err
	}
	if n < atrBaseOff || binary.LittleEndian.Uint16(hdr[0:2]) != atrSignature {
		return nil, fmt.Errorf("%w: missing ATR signature", ErrNotThisFormat)
	}
	secSize := int(binary.LittleEndian.Uint16(hdr[4:6]))
	if secSize == 0 {
		secSize = 128
	}

	entry, ok := findATREntry(secSize)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported ATR sector size %d", ErrBadImage, secSize)
	}

	payload := size - atrBaseOff
	track0Bytes := 3*128 + (entry.NrSecs-3)*secSize
	rest := payload - int64(track0Bytes)
	trackBytes := int64(entry.NrSecs * secSize)
	if rest <= 0 || rest%trackBytes != 0 {
		return nil, fmt.Errorf("%w: ATR payload size %d does not fit an 18-sector track layout", ErrBadImage, payload)
	}
	nrCyls := int(rest/trackBytes) + 1
	lo, hi := entry.CylClass.Range()
	if nrCyls < lo || nrCyls > hi {
		return nil, fmt.Errorf("%w: ATR cylinder count %d out of range %d..%d", ErrBadImage, nrCyls, lo, hi)
	}

	dataRate := 0
	if entry.IsFM {
		dataRate = 125 + 125/25
	}

	a, err := layout.NewArena(nrCyls, 1)
	if err != nil {
		return nil, err
	}

	trkParams := layout.Trk{
		IsFM:       entry.IsFM,
		HasIAM:     entry.HasIAM,
		InvertData: true,
		DataRate:   dataRate,
		RPM:        entry.RPM(),
		Interleave: entry.Interleave,
		Gap2:       -1,
		Gap4A:      -1,
		Gap3:       entry.Gap3,
	}

	secs0 := make([]layout.Sec, entry.NrSecs)
	for j := range secs0 {
		n := byte(entry.N)
		if secSize != 128 && j < 3 {
			n = 0 // track 0's first three sectors are always 128 bytes
		}
		secs0[j] = layout.Sec{R: byte(entry.BaseID + j), N: n}
	}
	idx0, err := a.AddTrackLayout(secs0, trkParams)
	if err != nil {
		return nil, err
	}

	secsN := make([]layout.Sec, entry.NrSecs)
	for j := range secsN {
		secsN[j] = layout.Sec{R: byte(entry.BaseID + j), N: byte(entry.N)}
	}
	idxN, err := a.AddTrackLayout(secsN, trkParams)
	if err != nil {
		return nil, err
	}

	for cyl := 0; cyl < nrCyls; cyl++ {
		idx := idxN
		if cyl == 0 {
			idx = idx0
		}
		if err := a.SetTrackMapEntry(cyl, 0, idx); err != nil {
			return nil, err
		}
	}
	if err := a.FinaliseTrackMap(); err != nil {
		return nil, err
	}

	return &Image{
		File: f,
		Arena: a,
		Env:  layout.Envelope{NrCyls: nrCyls, NrSides: 1, Step: 1, BaseOff: atrBaseOff},
	}, nil
}

func findATREntry(secSize int) (catalog.Entry, bool) {
	for _, e := range catalog.Tables[catalog.HostATR] {
		if e.SectorSize() == secSize {
			return e, true
		}
	}
	return catalog.Entry{}, false
}

var atrHandlerInst = atrHandler{}

func init() {
	Register("atr", atrHandlerInst)
}
