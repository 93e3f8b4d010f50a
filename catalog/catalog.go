// Package catalog holds the compile-time geometry tables used to infer
// floppy-disk layout from nothing but a file size (and, where ambiguous,
// a host hint or an on-disk BPB/VIB). See spec.md §4.2.
package catalog

import "fmt"

// Host identifies the retro-computer platform a catalog entry targets.
type Host int

const (
	HostUnknown Host = iota
	HostPC
	HostAtariST
	HostAmstrad
	HostMSX
	HostTI99
	HostUKNC
	HostAcorn
	HostD81
	HostTRD
	HostIBM3174
	HostXDF
	HostATR
)

func (h Host) String() string {
	switch h {
	case HostPC:
		return "PC"
	case HostAtariST:
		return "AtariST"
	case HostAmstrad:
		return "Amstrad"
	case HostMSX:
		return "MSX"
	case HostTI99:
		return "TI99"
	case HostUKNC:
		return "UKNC"
	case HostAcorn:
		return "Acorn"
	case HostD81:
		return "D81"
	case HostTRD:
		return "TRD"
	case HostIBM3174:
		return "IBM3174"
	case HostXDF:
		return "XDF"
	case HostATR:
		return "ATR"
	default:
		return "Unknown"
	}
}

// CylClass maps to an allowed cylinder-count range, per spec.md §4.2.
type CylClass int

const (
	// Cyl40 covers 40-track drives: 38..=42.
	Cyl40 CylClass = iota
	// Cyl80 covers 80-track drives: 77..=85.
	Cyl80
)

// Range returns the inclusive [lo, hi] cylinder count this class allows.
func (c CylClass) Range() (lo, hi int) {
	switch c {
	case Cyl40:
		return 38, 42
	case Cyl80:
		return 77, 85
	default:
		return 0, 0
	}
}

// RPMClass encodes rotation speed as (class+5)*60 rpm, per spec.md §4.2.
type RPMClass int

const (
	RPM180 RPMClass = -2 // (-2+5)*60 = 180
	RPM300 RPMClass = 0 // (0+5)*60 = 300
	RPM360 RPMClass = 1 // (1+5)*60 = 360
)

// RPM returns the rotation speed in revolutions per minute.
func (r RPMClass) RPM() int {
	return (int(r) + 5) * 60
}

// Entry is one candidate geometry: the tuple from spec.md §4.2, expanded
// into named fields.
type Entry struct {
	Host       Host
	Name       string
	NrSecs     int // sectors per track
	NrSides    int // 1 or 2
	HasIAM     bool
	Gap3       int // -1 means auto
	Interleave int
	N          int // sector size code: bytes = 128<<N
	BaseID     int // IDAM R base
	CSkew      int
	HSkew      int
	CylClass   CylClass
	RPMClass   RPMClass
	IsFM       bool
}

// SectorSize returns the sector payload size in bytes (128<<N).
func (e Entry) SectorSize() int {
	return 128 << uint(e.N)
}

// RPM returns the entry's rotation speed.
func (e Entry) RPM() int {
	return e.RPMClass.RPM()
}

// Matches reports whether fileSize is an exact match for this entry at
// some cylinder count within the entry's class, per spec.md §4.2's rule:
// "file size equals nr_cyls × nr_secs × (128<<n) × nr_sides for some
// nr_cyls in the range". Returns the inferred cylinder count on match.
func (e Entry) Matches(fileSize int64) (nrCyls int, ok bool) {
	perCyl := int64(e.NrSecs) * int64(e.SectorSize()) * int64(e.NrSides)
	if perCyl <= 0 || fileSize%perCyl != 0 {
		return 0, false
	}
	cyls := fileSize / perCyl
	lo, hi := e.CylClass.Range()
	if cyls < int64(lo) || cyls > int64(hi) {
		return 0, false
	}
	return int(cyls), true
}

// Match scans a host's table (or, if host is HostUnknown, every table in
// catalog order) and returns the first entry whose Matches succeeds, per
// spec.md §4.2's "first match wins" rule.
func Match(fileSize int64, host Host) (Entry, int, bool) {
	if host != HostUnknown {
		for _, e := range Tables[host] {
			if cyls, ok := e.Matches(fileSize); ok {
				return e, cyls, true
			}
		}
		return Entry{}, 0, false
	}
	for _, h := range hostOrder {
		for _, e := range Tables[h] {
			if cyls, ok := e.Matches(fileSize); ok {
				return e, cyls, true
			}
		}
	}
	return Entry{}, 0, false
}

// Lookup returns the named entry from a host's table.
func Lookup(host Host, name string) (Entry, error) {
	for _, e := range Tables[host] {
		if e.Name == name {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("catalog: no entry %q for host %s", name, host)
}
