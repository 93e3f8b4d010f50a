package imagefmt

import "sdimage/catalog"

// amstradHandler recognises Amstrad CPC system-format disk images: a
// single-zone, single-sided layout straight from the catalogue, per
// SPEC_FULL.md §4.9 (supplements spec.md's host list; no dedicated
// quirks beyond the catalog entry's id-base of 0x41).
var amstradHandler = genericHandler{host: catalog.HostAmstrad, tag: "dsk"}

func init() {
	Register("dsk", amstradHandler)
}
