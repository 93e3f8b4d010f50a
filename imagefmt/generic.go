package imagefmt

import (
	"fmt"

	"sdimage/catalog"
	"sdimage/layout"
)

// genericHandler recognises a host purely from the geometry catalogue
// (plus an optional sidecar override) and fills it with a single
// simple_layout() call per side — the common case for every host in
// spec.md §4.3 that has no container header and no multi-zone track
// layout (PC, Atari ST, Amstrad, MSX's non-ambiguous sizes, TI-99,
// UKNC, Acorn, D81).
type genericHandler struct {
	host Host
	tag  string

	// adjustEntry lets a host tweak the matched catalog.Entry before it
	// is turned into a layout.
	adjustEntry func(e catalog.Entry, nrCyls int) catalog.Entry

	// adjustEnv lets a host set envelope-level layout bits (e.g. D81's
	// SIDES_SWAPPED, TI-99's SEQUENTIAL|REVERSE_SIDE(1)).
	adjustEnv func(env *layout.Envelope)

	// secBaseForSide computes the per-side sector id base; defaults to
	// entry.BaseID for every side (the common case).
	secBaseForSide func(entry catalog.Entry, side int) int

	// postBuild tweaks per-track fields the geometry catalogue does not
	// carry (e.g. UKNC's fixed gap_2/gap_4a/post_crc_syncs) after the
	// simple layout is built but before finalisation.
	postBuild func(a *layout.Arena)
}

type Host = catalog.Host

func (g genericHandler) Tag() string { return g.tag }

func (g genericHandler) Open(f File, size int64, zones []zoneParams) (*Image, error) {
	if zones != nil {
		return g.openFromSidecar(f, size, zones)
	}

	entry, nrCyls, ok := catalog.Match(size, g.host)
	if !ok {
		return nil, fmt.Errorf("%w: size %d does not match any %s geometry", ErrNotThisFormat, size, g.host)
	}
	return buildCatalogImage(f, entry, nrCyls, g.adjustEntry, g.adjustEnv, g.secBaseForSide, g.postBuild)
}

// buildCatalogImage turns a matched catalog.Entry into a finalised
// Image, applying the handler-specific hooks a host's simple, single-
// zone layout may need. Shared by genericHandler and msxHandler, whose
// geometry disambiguation differs but whose arena construction does not.
func buildCatalogImage(
	f File,
	entry catalog.Entry,
	nrCyls int,
	adjustEntry func(e catalog.Entry, nrCyls int) catalog.Entry,
	adjustEnv func(env *layout.Envelope),
	secBaseForSide func(entry catalog.Entry, side int) int,
	postBuild func(a *layout.Arena),
) (*Image, error) {
	if adjustEntry != nil {
		entry = adjustEntry(entry, nrCyls)
	}

	a, err := layout.NewArena(nrCyls, entry.NrSides)
	if err != nil {
		return nil, err
	}
	sides := make([]layout.SideParams, entry.NrSides)
	for side := range sides {
		base := entry.BaseID
		if secBaseForSide != nil {
			base = secBaseForSide(entry, side)
		}
		sides[side] = layout.SideParams{BaseID: base}
	}
	if _, err := layout.SimpleLayout(a, layout.SimpleLayoutParams{
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
	}); err != nil {
		return nil, err
	}
	if postBuild != nil {
		postBuild(a)
	}
	if err := a.FinaliseTrackMap(); err != nil {
		return nil, err
	}

	env := layout.Envelope{NrCyls: nrCyls, NrSides: entry.NrSides, Step: 1}
	if adjustEnv != nil {
		adjustEnv(&env)
	}
	return &Image{File: f, Arena: a, Env: env}, nil
}

// openFromSidecar builds an image entirely from a selected sidecar
// section's zones, bypassing the catalogue, per spec.md §4.3 step 1.
// Every zone is laid over all cylinders and heads; a zone's TrackSpec is
// not applied, so with several zones the last one's layout covers the
// whole disk.
func (g genericHandler) openFromSidecar(f File, size int64, zones []zoneParams) (*Image, error) {
	if len(zones) == 0 {
		return nil, fmt.Errorf("%w: sidecar section for %q has no usable options", ErrBadImage, g.tag)
	}
	nrSides := 1
	nrCyls := 0
	for _, z := range zones {
		if z.Heads > nrSides {
			nrSides = z.Heads
		}
		if z.Cyls > nrCyls {
			nrCyls = z.Cyls
		}
	}
	if nrCyls == 0 {
		return nil, fmt.Errorf("%w: sidecar section for %q does not declare cyls=", ErrBadImage, g.tag)
	}

	a, err := layout.NewArena(nrCyls, nrSides)
	if err != nil {
		return nil, err
	}

	var env layout.Envelope
	env.NrCyls = nrCyls
	env.NrSides = nrSides
	env.Step = 1
	if zones[0].Step == 2 {
		env.Step = 2
	}
	env.Layout = zones[0].Layout

	for _, z := range zones {
		sides := make([]layout.SideParams, nrSides)
		for side := range sides {
			sides[side] = layout.SideParams{BaseID: z.BaseID}
		}
		if _, err := layout.SimpleLayout(a, layout.SimpleLayoutParams{
			NrSectors:  z.Secs,
			N:          z.N,
			IsFM:       z.IsFM,
			HasIAM:     z.HasIAM,
			Interleave: z.Interleave,
			CSkew:      z.CSkew,
			HSkew:      z.HSkew,
			RPM:        z.RPM,
			DataRate:   z.DataRate,
			Gap2:       z.Gap2,
			Gap3:       z.Gap3,
			Gap4A:      z.Gap4A,
			Head:       z.Head,
			Sides:      sides,
		}); err != nil {
			return nil, err
		}
	}
	if err := a.FinaliseTrackMap(); err != nil {
		return nil, err
	}
	return &Image{File: f, Arena: a, Env: env}, nil
}
