package imagefmt

import (
	"fmt"

	"sdimage/catalog"
	"sdimage/layout"
)

// ibm3174Size is the exact file size of an IBM 3174 2.4MB diskette
// image: cylinder 0 at 15 sectors/track/360 rpm plus cylinders 1..79
// at 30 sectors/track/180 rpm, both sides, 512-byte sectors — the two
// zones spec.md §8's scenario S3 sums to 2,442,240 bytes.
const ibm3174Size = 2_442_240

// ibm3174Handler recognises IBM 3174 2.4MB terminal-controller disk
// images: two layouts in one image, per spec.md §4.3.
type ibm3174Handler struct{}

func (ibm3174Handler) Tag() string { return "ibm3174" }

func (ibm3174Handler) Open(f File, size int64, zones []zoneParams) (*Image, error) {
	if zones != nil {
		return genericHandler{host: catalog.HostIBM3174, tag: "ibm3174"}.openFromSidecar(f, size, zones)
	}
	if size != ibm3174Size {
		return nil, fmt.Errorf("%w: size %d is not the IBM 3174 2.4MB size", ErrNotThisFormat, size)
	}

	zone1, err := catalog.Lookup(catalog.HostIBM3174, "ibm3174_zone1")
	if err != nil {
		return nil, err
	}

	a, err := layout.NewArena(80, 2)
	if err != nil {
		return nil, err
	}

	zone0Secs := make([]layout.Sec, 15)
	for j := range zone0Secs {
		zone0Secs[j] = layout.Sec{R: byte(1 + j), N: 2}
	}
	idx0, err := a.AddTrackLayout(zone0Secs, layout.Trk{
		HasIAM: true, RPM: 360, Interleave: 1, Gap2: -1, Gap3: 84, Gap4A: -1,
	})
	if err != nil {
		return nil, err
	}

	zone1Secs := make([]layout.Sec, zone1.NrSecs)
	for j := range zone1Secs {
		zone1Secs[j] = layout.Sec{R: byte(zone1.BaseID + j), N: byte(zone1.N)}
	}
	idx1, err := a.AddTrackLayout(zone1Secs, layout.Trk{
		HasIAM: zone1.HasIAM, RPM: zone1.RPM(), Interleave: zone1.Interleave,
		Gap2: -1, Gap3: zone1.Gap3, Gap4A: -1,
	})
	if err != nil {
		return nil, err
	}

	for cyl := 0; cyl < 80; cyl++ {
		for side := 0; side < 2; side++ {
			idx := idx1
			if cyl == 0 {
				idx = idx0
			}
			if err := a.SetTrackMapEntry(cyl, side, idx); err != nil {
				return nil, err
			}
		}
	}
	if err := a.FinaliseTrackMap(); err != nil {
		return nil, err
	}

	return &Image{File: f, Arena: a, Env: layout.Envelope{NrCyls: 80, NrSides: 2, Step: 1}}, nil
}

var ibm3174HandlerInst = ibm3174Handler{}

func init() {
	Register("ibm3174", ibm3174HandlerInst)
}
