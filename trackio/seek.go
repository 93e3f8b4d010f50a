package trackio

import (
	"fmt"

	"sdimage/imagefmt"
	"sdimage/layout"
)

// Position is the result of SeekTrack (C5): everything the encoder and
// decoder need to run a tick loop against one physical track, per
// spec.md §4.5.
type Position struct {
	Cyl, Side int

	Trk  *layout.Trk
	Secs []layout.Sec

	// SecMap is the sector rotational-order map: SecMap[pos] is the
	// index into Secs that occupies rotational slot pos.
	SecMap []int

	Params TrackParams

	// TrackOffset is this track's byte offset into the backing file.
	// When Trk.FileSecOffsets is set (XDF), a sector's file offset is
	// TrackOffset plus its within-track FileSecOffsets entry (see
	// sectorOffset).
	TrackOffset int64
}

// SeekTrack implements spec.md §4.5's raw_seek_track: resolve a
// physical (track, side) under the drive's current step rate to a
// (cyl, side) pair, fetch its Trk/Sec descriptors, build the
// rotational sector map, and locate the track's data in the backing
// file.
func SeekTrack(img *imagefmt.Image, track, side, step int) (*Position, error) {
	if step != 1 && step != 2 {
		return nil, fmt.Errorf("trackio: step=%d must be 1 or 2", step)
	}
	cyl := track / step

	trk, secs, err := img.Arena.TrackAt(cyl, side)
	if err != nil {
		return nil, err
	}

	pos := &Position{
		Cyl:    cyl,
		Side:   side,
		Trk:    trk,
		Secs:   secs,
		SecMap: buildSectorMap(trk, len(secs), cyl, side),
		Params: prepTrack(trk, secs),
	}

	off, err := trackByteOffset(img.Arena, &img.Env, cyl, side)
	if err != nil {
		return nil, err
	}
	pos.TrackOffset = off
	pos.Params.PostCRCSyncs = img.Env.PostCRCSyncs

	return pos, nil
}

// buildSectorMap implements spec.md §4.5 point 3's classic interleave
// fill: starting from pos0 = (cyl*cskew + side*hskew) mod n, assign
// sec_map[pos] = i for i in 0..n, advancing by interleave and skipping
// already-filled slots.
func buildSectorMap(trk *layout.Trk, n, cyl, side int) []int {
	if n == 0 {
		return nil
	}
	secMap := make([]int, n)
	for i := range secMap {
		secMap[i] = -1
	}
	interleave := trk.Interleave
	if interleave <= 0 {
		interleave = 1
	}
	pos := (cyl*trk.CSkew + side*trk.HSkew) % n
	if pos < 0 {
		pos += n
	}
	for i := 0; i < n; i++ {
		for secMap[pos] != -1 {
			pos = (pos + 1) % n
		}
		secMap[pos] = i
		pos = (pos + interleave) % n
	}
	return secMap
}

// fileOrderIndex computes the outer ordering index spec.md §6's
// persisted-image-layout rules assign to physical track (cyl, side),
// after applying the REVERSE_SIDE and SIDES_SWAPPED layout bits.
func fileOrderIndex(env *layout.Envelope, cyl, side int) int {
	c, s := cyl, side
	if env.Layout.ReverseSide(side) {
		c = env.NrCyls - 1 - cyl
	}
	if env.Layout&layout.SidesSwapped != 0 && env.NrSides > 1 {
		s = s ^ (env.NrSides - 1)
	}
	if env.Layout&layout.Sequential != 0 {
		return s*env.NrCyls + c
	}
	return c*env.NrSides + s
}

// trackByteOffset sums the encoded byte size of every physical track
// that orders before (cyl, side) in the persisted file, per spec.md
// §4.5 point 5. O(nrCyls*nrSides) per call; the arena is read-only
// post-open so this is not cached.
func trackByteOffset(a *layout.Arena, env *layout.Envelope, cyl, side int) (int64, error) {
	target := fileOrderIndex(env, cyl, side)
	offset := env.BaseOff
	for c := 0; c < a.NrCyls(); c++ {
		for s := 0; s < a.NrSides(); s++ {
			if c == cyl && s == side {
				continue
			}
			if fileOrderIndex(env, c, s) >= target {
				continue
			}
			_, secs, err := a.TrackAt(c, s)
			if err != nil {
				return 0, err
			}
			for _, sec := range secs {
				offset += int64(sec.Size())
			}
		}
	}
	return offset, nil
}
