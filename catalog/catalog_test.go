package catalog

import "testing"

// TestMatchKnownSizes checks the literal scenarios from spec.md §8 (S1, S4)
// plus a handful of other common sizes resolve to the expected geometry.
func TestMatchKnownSizes(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		host     Host
		wantName string
		wantCyls int
	}{
		{"S1 PC 1.44M", 1_474_560, HostPC, "pc144", 80},
		{"PC 720K", 737_280, HostPC, "pc720", 80},
		{"PC 360K", 368_640, HostPC, "pc360", 40},
		{"S4 D81 800K", 819_200, HostD81, "d81", 80},
		{"S6 TRD 640K", 655_360, HostTRD, "trd", 80},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entry, cyls, ok := Match(tc.size, tc.host)
			if !ok {
				t.Fatalf("Match(%d, %s) = not found, want %s", tc.size, tc.host, tc.wantName)
			}
			if entry.Name != tc.wantName {
				t.Errorf("entry = %s, want %s", entry.Name, tc.wantName)
			}
			if cyls != tc.wantCyls {
				t.Errorf("cyls = %d, want %d", cyls, tc.wantCyls)
			}
		})
	}
}

// TestMatchRejectsOffByOne verifies property 2 from spec.md §8: files
// one byte off in either direction must not match the same entry.
func TestMatchRejectsOffByOne(t *testing.T) {
	entry, err := Lookup(HostPC, "pc144")
	if err != nil {
		t.Fatal(err)
	}
	base := int64(80) * int64(entry.NrSecs) * int64(entry.SectorSize()) * int64(entry.NrSides)

	for _, size := range []int64{base - 1, base + 1} {
		if _, ok := entry.Matches(size); ok {
			t.Errorf("Matches(%d) = true, want false (off-by-one of %d)", size, base)
		}
	}
}

// TestCylClassRange and TestRPMClass exercise every class used by the
// tables, per spec.md §4.2.
func TestCylClassRange(t *testing.T) {
	if lo, hi := Cyl40.Range(); lo != 38 || hi != 42 {
		t.Errorf("Cyl40.Range() = %d..%d, want 38..42", lo, hi)
	}
	if lo, hi := Cyl80.Range(); lo != 77 || hi != 85 {
		t.Errorf("Cyl80.Range() = %d..%d, want 77..85", lo, hi)
	}
}

func TestRPMClass(t *testing.T) {
	if RPM180.RPM() != 180 {
		t.Errorf("RPM180.RPM() = %d, want 180", RPM180.RPM())
	}
	if RPM300.RPM() != 300 {
		t.Errorf("RPM300.RPM() = %d, want 300", RPM300.RPM())
	}
	if RPM360.RPM() != 360 {
		t.Errorf("RPM360.RPM() = %d, want 360", RPM360.RPM())
	}
}

// TestMSXAmbiguity checks that both 320K MSX candidates match the same
// file size, reflecting the genuine ambiguity spec.md §4.3 resolves via BPB.
func TestMSXAmbiguity(t *testing.T) {
	e80, err := Lookup(HostMSX, "msx_320_80_1")
	if err != nil {
		t.Fatal(err)
	}
	e40, err := Lookup(HostMSX, "msx_320_40_2")
	if err != nil {
		t.Fatal(err)
	}
	const size320K = 327_680
	if _, ok := e80.Matches(size320K); !ok {
		t.Errorf("msx_320_80_1 should match %d", size320K)
	}
	if _, ok := e40.Matches(size320K); !ok {
		t.Errorf("msx_320_40_2 should match %d", size320K)
	}
}
