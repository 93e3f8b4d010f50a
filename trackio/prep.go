package trackio

import "sdimage/layout"

// Every encoded byte occupies 16 bit-cells regardless of density: both
// FM and MFM spend one clock cell and one data cell per data bit.
const cellsPerByte = 16

// gap3CeilingMFM / gap3CeilingFM are the auto-gap_3 ceilings indexed by
// sector size code n, per spec.md §4.6's table (`{32,54,84,116,…}` /
// `{27,42,58,138,…}`), extended past n=3 with the classic floppy-
// controller convention of capping the ceiling at 255 for larger
// sectors rather than projecting the early geometric growth forward.
var gap3CeilingMFM = [7]int{32, 54, 84, 116, 255, 255, 255}
var gap3CeilingFM = [7]int{27, 42, 58, 138, 255, 255, 255}

// TrackParams is the precomputed, density-resolved set of values both
// the encoder and the decoder need for one physical track — the result
// of spec.md §4.6's "common pre-compute" (`mfm_prep_track`/`fm_prep_track`).
type TrackParams struct {
	IsFM       bool
	HasIAM     bool
	InvertData bool
	DataRate   int // kbps
	RPM        int

	GapSyncLen int  // bytes of 0x00 before each sync
	Gap4A      int  // post-index gap
	Gap2       int  // IDAM->DAM gap
	Gap3       int  // resolved (never negative)
	PostCRCSyncs int

	TrackLenBC int // total bit-cells, multiple of 32
}

// prepTrack serves both densities (the mfm_prep_track/fm_prep_track
// pair); MFM and FM differ only in the gap-default/ceiling table and the
// minimum gap_4a rule. PostCRCSyncs is left 0 here: it is an envelope
// setting, which SeekTrack copies in afterwards.
func prepTrack(trk *layout.Trk, secs []layout.Sec) TrackParams {
	p := TrackParams{
		IsFM:         trk.IsFM,
		HasIAM:       trk.HasIAM,
		InvertData:   trk.InvertData,
		RPM:          trk.EffectiveRPM(),
		PostCRCSyncs: 0,
	}
	if p.IsFM {
		p.GapSyncLen = 6
	} else {
		p.GapSyncLen = 12
	}

	p.Gap4A = trk.Gap4A
	if p.Gap4A < 0 {
		if p.IsFM {
			if trk.HasIAM {
				p.Gap4A = 40
			} else {
				p.Gap4A = 16
			}
		} else {
			p.Gap4A = 80
		}
	}

	p.DataRate = trk.DataRate
	if p.DataRate == 0 {
		p.DataRate = inferDataRate(p.IsFM, p.RPM, minTrackBytes(trk, secs, 0))
	}

	p.Gap2 = trk.Gap2
	if p.Gap2 < 0 {
		switch {
		case p.IsFM:
			p.Gap2 = 11
		case p.DataRate >= 1000:
			p.Gap2 = 41
		default:
			p.Gap2 = 22
		}
	}

	ceiling := gap3Ceiling(p.IsFM)
	standardLen := p.DataRate * 400 * 300 / p.RPM
	minLen := minTrackBytes(trk, secs, 0) * cellsPerByte

	p.Gap3 = trk.Gap3
	if p.Gap3 < 0 {
		// spec.md §8 property 5: gap_3 = min(space/(16*nr_sectors), ceiling[n]).
		space := standardLen - minLen
		if len(secs) > 0 && space > 0 {
			p.Gap3 = space / (cellsPerByte * len(secs))
		} else {
			p.Gap3 = 0
		}
		if n := maxSectorN(secs); p.Gap3 > ceiling[n] {
			p.Gap3 = ceiling[n]
		}
		if p.Gap3 < 0 {
			p.Gap3 = 0
		}
	}

	actualMin := minTrackBytes(trk, secs, p.Gap3) * cellsPerByte
	trackLen := standardLen
	if actualMin > trackLen {
		trackLen = actualMin
	}
	p.TrackLenBC = roundUp32(trackLen)

	return p
}

func gap3Ceiling(isFM bool) [7]int {
	if isFM {
		return gap3CeilingFM
	}
	return gap3CeilingMFM
}

func maxSectorN(secs []layout.Sec) byte {
	var n byte
	for _, s := range secs {
		if s.N > n {
			n = s.N
		}
	}
	return n
}

func roundUp32(n int) int {
	return (n + 31) &^ 31
}

// minTrackBytes sums the encoded byte length of every field in the
// track at the given gap_3, the basis for both the data-rate inference
// (at gap3=0, the floor every density tier must accommodate) and the
// final track-length floor (at the resolved gap_3). Post-CRC resync
// words, an envelope setting, are not counted.
func minTrackBytes(trk *layout.Trk, secs []layout.Sec, gap3 int) int {
	gapSync := 12
	gap2 := 22
	mark, gap1 := 4, 50 // MFM: three raw sync words plus the mark byte
	if trk.IsFM {
		gapSync = 6
		gap2 = 11
		mark, gap1 = 1, 26 // FM: one sync word carries the mark
	}
	if trk.Gap2 >= 0 {
		gap2 = trk.Gap2
	}
	gap4a := 80
	if trk.Gap4A >= 0 {
		gap4a = trk.Gap4A
	} else if trk.IsFM {
		if trk.HasIAM {
			gap4a = 40
		} else {
			gap4a = 16
		}
	}

	total := gap4a + trk.TrackDelayBC/cellsPerByte
	if trk.HasIAM {
		total += gapSync + mark + gap1 // sync + IAM + gap_1
	}
	for _, s := range secs {
		total += gapSync + mark + 4 // IDAM preamble + C,H,R,N
		total += 2                // IDAM CRC
		total += gap2
		total += gapSync + mark // DAM preamble + mark
		total += s.Size()
		total += 2 // DAM CRC
		total += gap3
	}
	return total
}

// inferDataRate picks the smallest density tier whose standard capacity
// accommodates minBytes, per spec.md §4.6's data-rate inference rule.
func inferDataRate(isFM bool, rpm, minBytes int) int {
	base := 50000 * 300 / rpm
	start, end := 1, 3
	if isFM {
		start, end = 0, 1
	}
	for i := start; i <= end; i++ {
		capacity := (base << uint(i)) + 5000
		if minBytes*cellsPerByte <= capacity {
			return 125 << uint(i)
		}
	}
	return 125 << uint(end)
}
