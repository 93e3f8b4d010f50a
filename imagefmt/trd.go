package imagefmt

import (
	"fmt"

	"sdimage/catalog"
	"sdimage/layout"
)

// trdHandler recognises ZX Spectrum TR-DOS disk images (.trd). When the
// inferred total track count is odd, the last physical track (the
// trailing half-cylinder) is marked empty instead of carrying a
// partial layout, per spec.md §4.4.
type trdHandler struct{}

func (trdHandler) Tag() string { return "trd" }

func (trdHandler) Open(f File, size int64, zones []zoneParams) (*Image, error) {
	if zones != nil {
		return genericHandler{host: catalog.HostTRD, tag: "trd"}.openFromSidecar(f, size, zones)
	}

	entry, nrCyls, ok := catalog.Match(size, catalog.HostTRD)
	if !ok {
		return nil, fmt.Errorf("%w: size %d does not match the TRD geometry", ErrNotThisFormat, size)
	}

	a, err := layout.NewArena(nrCyls, entry.NrSides)
	if err != nil {
		return nil, err
	}
	sides := make([]layout.SideParams, entry.NrSides)
	for side := range sides {
		sides[side] = layout.SideParams{BaseID: entry.BaseID}
	}
	emptyIdx, err := layout.SimpleLayout(a, layout.SimpleLayoutParams{
		NrSectors:  entry.NrSecs,
		N:          entry.N,
		IsFM:       entry.IsFM,
		HasIAM:     entry.HasIAM,
		Interleave: entry.Interleave,
		CSkew:      entry.CSkew,
		HSkew:      entry.HSkew,
		RPM:        entry.RPM(),
		Gap2:       -1,
		Gap3:       entry.Gap3,
		Gap4A:      -1,
		Sides:      sides,
		HasEmpty:   nrCyls*entry.NrSides%2 != 0,
	})
	if err != nil {
		return nil, err
	}
	if emptyIdx >= 0 {
		lastSide := entry.NrSides - 1
		if err := a.SetTrackMapEntry(nrCyls-1, lastSide, emptyIdx); err != nil {
			return nil, err
		}
	}
	if err := a.FinaliseTrackMap(); err != nil {
		return nil, err
	}

	return &Image{File: f, Arena: a, Env: layout.Envelope{NrCyls: nrCyls, NrSides: entry.NrSides, Step: 1}}, nil
}

var trdHandlerInst = trdHandler{}

func init() {
	Register("trd", trdHandlerInst)
}
