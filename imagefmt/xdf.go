package imagefmt

import (
	"fmt"

	"sdimage/layout"
)

// xdfSize is the fixed file size of an extended-density XDF image:
// 80 cylinders, 2 sides, each track packing four sectors of 8, 2, 1
// and 0.5 KiB (11,776 bytes/track), per spec.md §4.8.
const xdfSize = 1_884_160

// xdfTrackBytes is one track's total payload: 8192+2048+1024+512.
const xdfTrackBytes = 11776

// xdfHeadSkewBC is the head-1 bit-cell track shift emulating head skew
// on non-zero cylinders, per spec.md §4.8.
const xdfHeadSkewBC = 10000

// xdfSizes are the four sector size codes packed into every XDF track,
// largest first, matching the 8/2/1/0.5 KiB shape spec.md §4.8 names.
var xdfSizes = [4]byte{6, 4, 3, 2} // 128<<n: 8192, 2048, 1024, 512

// xdfHandler recognises extended-density XDF images: varying sector
// sizes packed per cylinder, with a head-1 bit-cell shift and a
// precomputed per-track file_sec_offsets table replacing the usual
// contiguous layout. spec.md §4.8's cylinder-0 AUX/MAIN FAT remapping
// is a filesystem-content concern layered on top of this geometry, not
// a different physical sector shape, so it is not modelled here — the
// four (cyl-class, side) layouts this handler builds share one sector
// shape and differ only in TrackDelayBC.
type xdfHandler struct{}

func (xdfHandler) Tag() string { return "xdf" }

func (xdfHandler) Open(f File, size int64, zones []zoneParams) (*Image, error) {
	if size != xdfSize {
		return nil, fmt.Errorf("%w: size %d is not the fixed XDF size %d", ErrNotThisFormat, size, xdfSize)
	}

	a, err := layout.NewArena(80, 2)
	if err != nil {
		return nil, err
	}

	offsets := make([]int64, 4)
	var running int64
	secs := make([]layout.Sec, 4)
	for j, n := range xdfSizes {
		secs[j] = layout.Sec{R: byte(1 + j), N: n}
		offsets[j] = running
		running += int64(128) << uint(n)
	}

	newTrk := func(delay int) layout.Trk {
		off := make([]int64, len(offsets))
		copy(off, offsets)
		return layout.Trk{
			HasIAM:         false,
			Interleave:     1,
			RPM:            300,
			Gap2:           -1,
			Gap3:           -1,
			Gap4A:          -1,
			TrackDelayBC:   delay,
			FileSecOffsets: off,
		}
	}

	c0h0, err := a.AddTrackLayout(secs, newTrk(0))
	if err != nil {
		return nil, err
	}
	c0h1, err := a.AddTrackLayout(secs, newTrk(0))
	if err != nil {
		return nil, err
	}
	cnh0, err := a.AddTrackLayout(secs, newTrk(0))
	if err != nil {
		return nil, err
	}
	cnh1, err := a.AddTrackLayout(secs, newTrk(xdfHeadSkewBC))
	if err != nil {
		return nil, err
	}

	for cyl := 0; cyl < 80; cyl++ {
		h0, h1 := cnh0, cnh1
		if cyl == 0 {
			h0, h1 = c0h0, c0h1
		}
		if err := a.SetTrackMapEntry(cyl, 0, h0); err != nil {
			return nil, err
		}
		if err := a.SetTrackMapEntry(cyl, 1, h1); err != nil {
			return nil, err
		}
	}
	if err := a.FinaliseTrackMap(); err != nil {
		return nil, err
	}

	return &Image{File: f, Arena: a, Env: layout.Envelope{NrCyls: 80, NrSides: 2, Step: 1}}, nil
}

var xdfHandlerInst = xdfHandler{}

func init() {
	Register("xdf", xdfHandlerInst)
}
