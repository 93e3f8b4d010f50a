package imagefmt

import (
	"fmt"

	"sdimage/catalog"
	"sdimage/layout"
)

// ti99Handler recognises TI-99/4A disk images (the ti99 and v9t9
// tags): SEQUENTIAL|REVERSE_SIDE(1) layout, an optional trailing
// 3-sector bad-block map that Open leaves out of the size match (and so
// out of the layout), and an optional VIB ("DSK" id at sector 0) that
// would disambiguate SSDD/DSDD/DSDD80 if their sizes ever collided —
// they do not, per the catalog table, so the probe is advisory only,
// per spec.md §4.3 and §7.
type ti99Handler struct {
	genericHandler
}

func (h ti99Handler) Open(f File, size int64, zones []zoneParams) (*Image, error) {
	if _, _, err := readVIBTag(f); err != nil {
		return nil, fmt.Errorf("imagefmt: ti99 VIB probe: %w", err)
	}
	const footer = 3 * 256 // bad-block map: three 256-byte sectors
	if zones == nil {
		if _, _, ok := catalog.Match(size, catalog.HostTI99); !ok {
			if _, _, ok := catalog.Match(size-footer, catalog.HostTI99); ok {
				size -= footer
			}
		}
	}
	return h.genericHandler.Open(f, size, zones)
}

var ti99HandlerInst = ti99Handler{genericHandler{
	host: catalog.HostTI99,
	tag:  "ti99",
	adjustEnv: func(env *layout.Envelope) {
		env.Layout |= layout.Sequential | layout.ReverseSide1
	},
}}

func init() {
	Register("ti99", ti99HandlerInst)
	Register("v9t9", ti99HandlerInst)
}
