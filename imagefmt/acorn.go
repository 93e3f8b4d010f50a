package imagefmt

import "sdimage/catalog"

// acornHandler recognises Acorn ADFS/DFS disk images (tag "acn", to
// avoid colliding with Amiga's .adf): three distinct, non-overlapping
// file sizes (adfs_s, adfs_m, acorn_dfs) resolve unambiguously through
// the catalogue alone, per SPEC_FULL.md §4.9.
var acornHandler = genericHandler{host: catalog.HostAcorn, tag: "acn"}

func init() {
	Register("acn", acornHandler)
}
