package imagefmt

import (
	"fmt"

	"sdimage/catalog"
)

// msxHandler recognises MSX disk images (.msx). 320 KiB is genuinely
// ambiguous between an 80-cylinder single-sided and a 40-cylinder
// double-sided geometry; spec.md §4.3 step 3 resolves this by reading
// the BPB at sector 0 and preferring it over the catalogue's first
// match, unless it contradicts the file size.
type msxHandler struct{}

func (msxHandler) Tag() string { return "msx" }

func (msxHandler) Open(f File, size int64, zones []zoneParams) (*Image, error) {
	if zones != nil {
		return genericHandler{host: catalog.HostMSX, tag: "msx"}.openFromSidecar(f, size, zones)
	}

	var candidates []catalog.Entry
	var cylsFor []int
	for _, e := range catalog.Tables[catalog.HostMSX] {
		if cyls, ok := e.Matches(size); ok {
			candidates = append(candidates, e)
			cylsFor = append(cylsFor, cyls)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: size %d does not match any MSX geometry", ErrNotThisFormat, size)
	}

	entry, nrCyls := candidates[0], cylsFor[0]
	if len(candidates) > 1 {
		if b, ok, err := readBPB(f); err != nil {
			return nil, err
		} else if ok {
			for i, c := range candidates {
				if int(b.NumHeads) == c.NrSides &&
					int(b.SecsPerTrack) == c.NrSecs &&
					int(b.BytesPerSec) == c.SectorSize() {
					entry, nrCyls = c, cylsFor[i]
					break
				}
			}
		}
	}

	return buildCatalogImage(f, entry, nrCyls, nil, nil, nil, nil)
}

var msxHandlerInst = msxHandler{}

func init() {
	Register("msx", msxHandlerInst)
}
