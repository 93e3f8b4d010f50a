package imagefmt

import "sdimage/catalog"

// stHandler recognises Atari ST images (.st), derived from the PC-DOS
// 80-cylinder table with has_iam=false and the skew already baked into
// the st9_2s/st9_1s/st10_2s catalog entries, per spec.md §4.3.
var stHandler = genericHandler{host: catalog.HostAtariST, tag: "st"}

func init() {
	Register("st", stHandler)
}
