package imagefmt

import (
	"sdimage/catalog"
	"sdimage/layout"
)

// d81Handler recognises Commodore 1581 disk images (.d81): the
// SIDES_SWAPPED layout bit is set, per spec.md §4.3.
var d81Handler = genericHandler{
	host: catalog.HostD81,
	tag:  "d81",
	adjustEnv: func(env *layout.Envelope) {
		env.Layout |= layout.SidesSwapped
	},
}

func init() {
	Register("d81", d81Handler)
}
