package catalog

// Tables holds, per host, the candidate geometries tried in order until
// one matches the file size (spec.md §4.2, §4.9). Hosts whose layout is
// genuinely non-uniform across the disk (IBM 3174, XDF) still get an
// entry here for their baseline gap/rpm constants, but the per-cylinder
// zone logic lives in the matching imagefmt handler, not in Entry.Matches.
var Tables = map[Host][]Entry{
	HostPC: {
		{Host: HostPC, Name: "pc144", NrSecs: 18, NrSides: 2, HasIAM: true, Gap3: 84, Interleave: 1, N: 2, BaseID: 1, CylClass: Cyl80, RPMClass: RPM300},
		{Host: HostPC, Name: "pc288", NrSecs: 36, NrSides: 2, HasIAM: true, Gap3: 53, Interleave: 1, N: 2, BaseID: 1, CylClass: Cyl80, RPMClass: RPM300},
		{Host: HostPC, Name: "pc12m", NrSecs: 15, NrSides: 2, HasIAM: true, Gap3: 84, Interleave: 1, N: 2, BaseID: 1, CylClass: Cyl80, RPMClass: RPM360},
		{Host: HostPC, Name: "pc720", NrSecs: 9, NrSides: 2, HasIAM: true, Gap3: 84, Interleave: 1, N: 2, BaseID: 1, CylClass: Cyl80, RPMClass: RPM300},
		{Host: HostPC, Name: "pc360", NrSecs: 9, NrSides: 2, HasIAM: true, Gap3: 84, Interleave: 1, N: 2, BaseID: 1, CylClass: Cyl40, RPMClass: RPM300},
		{Host: HostPC, Name: "pc320", NrSecs: 8, NrSides: 2, HasIAM: true, Gap3: 84, Interleave: 1, N: 2, BaseID: 1, CylClass: Cyl40, RPMClass: RPM300},
		{Host: HostPC, Name: "pc180", NrSecs: 9, NrSides: 1, HasIAM: true, Gap3: 84, Interleave: 1, N: 2, BaseID: 1, CylClass: Cyl40, RPMClass: RPM300},
		{Host: HostPC, Name: "pc160", NrSecs: 8, NrSides: 1, HasIAM: true, Gap3: 84, Interleave: 1, N: 2, BaseID: 1, CylClass: Cyl40, RPMClass: RPM300},
	},
	HostAtariST: {
		{Host: HostAtariST, Name: "st9_2s", NrSecs: 9, NrSides: 2, HasIAM: false, Gap3: 84, Interleave: 1, N: 2, BaseID: 1, CSkew: 4, HSkew: 2, CylClass: Cyl80, RPMClass: RPM300},
		{Host: HostAtariST, Name: "st9_1s", NrSecs: 9, NrSides: 1, HasIAM: false, Gap3: 84, Interleave: 1, N: 2, BaseID: 1, CSkew: 2, CylClass: Cyl80, RPMClass: RPM300},
		{Host: HostAtariST, Name: "st10_2s", NrSecs: 10, NrSides: 2, HasIAM: false, Gap3: 30, Interleave: 1, N: 2, BaseID: 1, CSkew: 4, HSkew: 2, CylClass: Cyl80, RPMClass: RPM300},
	},
	HostAmstrad: {
		{Host: HostAmstrad, Name: "amstrad_system", NrSecs: 9, NrSides: 1, HasIAM: true, Gap3: 82, Interleave: 1, N: 2, BaseID: 0x41, CylClass: Cyl40, RPMClass: RPM300},
	},
	HostMSX: {
		// Both entries match the same 320 KiB file size; imagefmt/msx.go
		// disambiguates via BPB per spec.md §4.3 step 3.
		{Host: HostMSX, Name: "msx_320_80_1", NrSecs: 8, NrSides: 1, HasIAM: true, Gap3: 84, Interleave: 1, N: 2, BaseID: 1, CylClass: Cyl80, RPMClass: RPM300},
		{Host: HostMSX, Name: "msx_320_40_2", NrSecs: 8, NrSides: 2, HasIAM: true, Gap3: 84, Interleave: 1, N: 2, BaseID: 1, CylClass: Cyl40, RPMClass: RPM300},
		{Host: HostMSX, Name: "msx_360", NrSecs: 9, NrSides: 2, HasIAM: true, Gap3: 84, Interleave: 1, N: 2, BaseID: 1, CylClass: Cyl40, RPMClass: RPM300},
		{Host: HostMSX, Name: "msx_720", NrSecs: 9, NrSides: 2, HasIAM: true, Gap3: 84, Interleave: 1, N: 2, BaseID: 1, CylClass: Cyl80, RPMClass: RPM300},
	},
	HostTI99: {
		{Host: HostTI99, Name: "ti99ssdd", NrSecs: 9, NrSides: 1, HasIAM: true, Gap3: 44, Interleave: 1, N: 1, BaseID: 1, CylClass: Cyl40, RPMClass: RPM300},
		{Host: HostTI99, Name: "ti99dsdd", NrSecs: 9, NrSides: 2, HasIAM: true, Gap3: 44, Interleave: 1, N: 1, BaseID: 1, CylClass: Cyl40, RPMClass: RPM300},
		{Host: HostTI99, Name: "ti99dsdd80", NrSecs: 9, NrSides: 2, HasIAM: true, Gap3: 44, Interleave: 1, N: 1, BaseID: 1, CylClass: Cyl80, RPMClass: RPM300},
	},
	HostUKNC: {
		{Host: HostUKNC, Name: "uknc", NrSecs: 10, NrSides: 2, HasIAM: false, Gap3: 40, Interleave: 1, N: 2, BaseID: 1, CylClass: Cyl80, RPMClass: RPM300},
	},
	HostAcorn: {
		{Host: HostAcorn, Name: "acorn_adfs_s", NrSecs: 16, NrSides: 1, HasIAM: true, Gap3: 42, Interleave: 1, N: 1, BaseID: 0, CylClass: Cyl40, RPMClass: RPM300},
		{Host: HostAcorn, Name: "acorn_adfs_m", NrSecs: 16, NrSides: 1, HasIAM: true, Gap3: 42, Interleave: 1, N: 1, BaseID: 0, CylClass: Cyl80, RPMClass: RPM300},
		{Host: HostAcorn, Name: "acorn_dfs", NrSecs: 10, NrSides: 1, HasIAM: true, Gap3: 84, Interleave: 1, N: 2, BaseID: 0, CylClass: Cyl80, RPMClass: RPM300},
	},
	HostD81: {
		{Host: HostD81, Name: "d81", NrSecs: 10, NrSides: 2, HasIAM: true, Gap3: 84, Interleave: 1, N: 2, BaseID: 1, CylClass: Cyl80, RPMClass: RPM300},
	},
	HostTRD: {
		{Host: HostTRD, Name: "trd", NrSecs: 16, NrSides: 2, HasIAM: true, Gap3: 52, Interleave: 1, N: 1, BaseID: 1, CylClass: Cyl80, RPMClass: RPM300},
	},
	HostIBM3174: {
		// Non-uniform: cylinder 0 has 15 sectors at 360 rpm, cylinders
		// 1..79 have 30 sectors at 180 rpm. This entry records the
		// zone-1 (steady-state) parameters; imagefmt/ibm3174.go builds
		// both zones directly from the literal file size.
		{Host: HostIBM3174, Name: "ibm3174_zone1", NrSecs: 30, NrSides: 2, HasIAM: true, Gap3: 104, Interleave: 1, N: 2, BaseID: 1, CylClass: Cyl80, RPMClass: RPM180},
	},
	HostXDF: {
		// XDF sectors vary in size per spec.md §4.8; there is no single
		// (nr_secs, n) pair to match against, so NrSecs is left 0 and
		// Matches always fails here. imagefmt/xdf.go recognises the
		// format by its exact, fixed 1,884,160-byte file size instead.
		{Host: HostXDF, Name: "xdf", NrSecs: 0, NrSides: 2, HasIAM: false, Gap3: -1, Interleave: 1, N: 3, BaseID: 1, CylClass: Cyl80, RPMClass: RPM300},
	},
	HostATR: {
		{Host: HostATR, Name: "atr_sd", NrSecs: 18, NrSides: 1, HasIAM: false, Gap3: 40, Interleave: 9, N: 0, BaseID: 1, CylClass: Cyl40, RPMClass: RPM300, IsFM: true},
		{Host: HostATR, Name: "atr_dd", NrSecs: 18, NrSides: 1, HasIAM: false, Gap3: 24, Interleave: 9, N: 1, BaseID: 1, CylClass: Cyl40, RPMClass: RPM300},
	},
}

// hostOrder fixes the scan order used by Match when no host hint is
// supplied, so "first match wins" is deterministic.
var hostOrder = []Host{
	HostPC, HostAtariST, HostD81, HostAmstrad, HostMSX, HostTI99,
	HostUKNC, HostAcorn, HostTRD, HostIBM3174, HostXDF, HostATR,
}
