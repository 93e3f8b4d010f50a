package layout

import "fmt"

// SideParams describes one side's uniform per-track layout for
// SimpleLayout, per spec.md §4.4.
type SideParams struct {
	BaseID int // sector id base for this side; ids are BaseID+j
}

// SimpleLayoutParams is the input to SimpleLayout: a single repeated
// track layout per side, optionally followed by one empty placeholder
// track (used by formats with a trailing short cylinder).
type SimpleLayoutParams struct {
	NrSectors  int
	N          int
	IsFM       bool
	HasIAM     bool
	InvertData bool
	DataRate   int
	RPM        int
	Interleave int
	CSkew      int
	HSkew      int
	Head       int
	Gap2       int
	Gap3       int
	Gap4A      int
	Sides      []SideParams // len must equal the arena's NrSides
	HasEmpty   bool
}

// SimpleLayout creates one Trk per side (optionally plus one empty
// track) and fills every cylinder's track-map cell with that side's
// track, per spec.md §4.4. Returns the empty track's index (or -1 if
// HasEmpty is false) so callers can later override specific trailing
// cylinders (e.g. TRD's last half-cylinder) with SetTrackMapEntry.
func SimpleLayout(a *Arena, p SimpleLayoutParams) (emptyIdx int, err error) {
	emptyIdx = -1
	if len(p.Sides) != a.NrSides() {
		return emptyIdx, fmt.Errorf("%w: simple_layout: len(Sides)=%d must equal arena NrSides=%d", ErrBadImage, len(p.Sides), a.NrSides())
	}

	for side, sp := range p.Sides {
		secs := make([]Sec, p.NrSectors)
		for j := range secs {
			secs[j] = Sec{R: byte(sp.BaseID + j), N: byte(p.N)}
		}
		trk := Trk{
			IsFM:       p.IsFM,
			HasIAM:     p.HasIAM,
			InvertData: p.InvertData,
			DataRate:   p.DataRate,
			RPM:        p.RPM,
			Interleave: p.Interleave,
			CSkew:      p.CSkew,
			HSkew:      p.HSkew,
			Head:       p.Head,
			Gap2:       p.Gap2,
			Gap3:       p.Gap3,
			Gap4A:      p.Gap4A,
		}
		idx, err := a.AddTrackLayout(secs, trk)
		if err != nil {
			return emptyIdx, err
		}
		for cyl := 0; cyl < a.NrCyls(); cyl++ {
			if err := a.SetTrackMapEntry(cyl, side, idx); err != nil {
				return emptyIdx, err
			}
		}
	}

	if p.HasEmpty {
		idx, err := a.AddEmptyTrackLayout()
		if err != nil {
			return emptyIdx, err
		}
		emptyIdx = idx
	}
	return emptyIdx, nil
}
