package imagefmt

import (
	"sdimage/catalog"
	"sdimage/layout"
)

// ukncHandler recognises UKNC (Elektronika MS 0511) disk images: one
// post-CRC resync, and fixed gap_2/gap_4a, per spec.md §4.3.
var ukncHandler = genericHandler{
	host: catalog.HostUKNC,
	tag:  "uknc",
	adjustEnv: func(env *layout.Envelope) {
		env.PostCRCSyncs = 1
	},
	postBuild: func(a *layout.Arena) {
		for i := range a.TrkInfo {
			a.TrkInfo[i].Gap2 = 24
			a.TrkInfo[i].Gap4A = 27
		}
	},
}

func init() {
	Register("uknc", ukncHandler)
}
