package imagefmt

import "sdimage/catalog"

// pcHandler recognises plain IBM PC-DOS images (.img/.ima) from the
// geometry catalogue alone.
var pcHandler = genericHandler{host: catalog.HostPC, tag: "img"}

func init() {
	Register("img", pcHandler)
	Register("ima", pcHandler)
}
