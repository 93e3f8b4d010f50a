package layout

import "testing"

func TestSimpleLayoutPC144(t *testing.T) {
	a, err := NewArena(80, 2)
	if err != nil {
		t.Fatal(err)
	}
	_, err = SimpleLayout(a, SimpleLayoutParams{
		NrSectors: 18, N: 2, IsFM: false, HasIAM: true, Interleave: 1,
		RPM: 300, Gap3: 84,
		Sides: []SideParams{{BaseID: 1}, {BaseID: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.FinaliseTrackMap(); err != nil {
		t.Fatal(err)
	}

	trk, secs, err := a.TrackAt(5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if trk.NrSectors != 18 {
		t.Errorf("NrSectors = %d, want 18", trk.NrSectors)
	}
	if len(secs) != 18 {
		t.Fatalf("len(secs) = %d, want 18", len(secs))
	}
	if secs[0].R != 1 || secs[17].R != 18 {
		t.Errorf("sector ids = %d..%d, want 1..18", secs[0].R, secs[17].R)
	}
	if secs[0].Size() != 512 {
		t.Errorf("sector size = %d, want 512", secs[0].Size())
	}
}

// TestTRDTrailingEmptyCylinder exercises the "specific trk_map cell set
// to an empty-track index" case from spec.md §4.4.
func TestTRDTrailingEmptyCylinder(t *testing.T) {
	a, err := NewArena(80, 2)
	if err != nil {
		t.Fatal(err)
	}
	emptyIdx, err := SimpleLayout(a, SimpleLayoutParams{
		NrSectors: 16, N: 1, HasIAM: true, Interleave: 1, RPM: 300, Gap3: 52,
		Sides:    []SideParams{{BaseID: 1}, {BaseID: 1}},
		HasEmpty: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if emptyIdx < 0 {
		t.Fatal("expected a valid empty-track index")
	}
	if err := a.SetTrackMapEntry(79, 1, emptyIdx); err != nil {
		t.Fatal(err)
	}
	if err := a.FinaliseTrackMap(); err != nil {
		t.Fatal(err)
	}
	trk, secs, err := a.TrackAt(79, 1)
	if err != nil {
		t.Fatal(err)
	}
	if trk.NrSectors != 0 || len(secs) != 0 {
		t.Errorf("expected empty trailing track, got NrSectors=%d", trk.NrSectors)
	}
}

func TestFinaliseTrackMapRejectsUnassignedCell(t *testing.T) {
	a, err := NewArena(2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.AddTrackLayout([]Sec{{R: 1, N: 2}}, Trk{}); err != nil {
		t.Fatal(err)
	}
	// Deliberately leave trk_map[1] unassigned (-1 sentinel).
	if err := a.SetTrackMapEntry(0, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := a.FinaliseTrackMap(); err == nil {
		t.Error("FinaliseTrackMap should fail with an unassigned track-map cell")
	}
}

func TestAddTrackLayoutRejectsOversizeSector(t *testing.T) {
	a, err := NewArena(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.AddTrackLayout([]Sec{{R: 1, N: 7}}, Trk{}); err == nil {
		t.Error("expected BadImage for n=7")
	}
}

func TestAddTrackLayoutRejectsTooManySectors(t *testing.T) {
	a, err := NewArena(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	secs := make([]Sec, 257)
	if _, err := a.AddTrackLayout(secs, Trk{}); err == nil {
		t.Error("expected BadImage for nr_sectors > 256")
	}
}

// TestAddTrackLayoutShiftsSecOff verifies spec.md §4.1's "shifts sec_off
// of earlier tracks by nr_sectors" rule.
func TestAddTrackLayoutShiftsSecOff(t *testing.T) {
	a, err := NewArena(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	idx0, err := a.AddTrackLayout([]Sec{{R: 1, N: 2}, {R: 2, N: 2}}, Trk{})
	if err != nil {
		t.Fatal(err)
	}
	if a.TrkInfo[idx0].SecOff != 0 {
		t.Fatalf("first track SecOff = %d, want 0", a.TrkInfo[idx0].SecOff)
	}
	idx1, err := a.AddTrackLayout([]Sec{{R: 9, N: 1}, {R: 10, N: 1}, {R: 11, N: 1}}, Trk{})
	if err != nil {
		t.Fatal(err)
	}
	if a.TrkInfo[idx1].SecOff != 0 {
		t.Errorf("second (newest) track SecOff = %d, want 0", a.TrkInfo[idx1].SecOff)
	}
	if a.TrkInfo[idx0].SecOff != 3 {
		t.Errorf("first track SecOff after shift = %d, want 3", a.TrkInfo[idx0].SecOff)
	}
	if a.SecInfo[3].R != 1 || a.SecInfo[4].R != 2 {
		t.Errorf("first track's sectors not found at shifted offset: %+v", a.SecInfo)
	}
}

func TestArenaBudgetExceeded(t *testing.T) {
	// A budget too small to hold even the track map plus reserve.
	if _, err := NewArenaWithBudget(255, 2, 100); err == nil {
		t.Error("expected BadImage for an undersized arena budget")
	}
}

func TestInitTrackMapRejectsBadDimensions(t *testing.T) {
	if _, err := NewArena(0, 1); err == nil {
		t.Error("expected BadImage for nr_cyls=0")
	}
	if _, err := NewArena(1, 3); err == nil {
		t.Error("expected BadImage for nr_sides=3")
	}
	if _, err := NewArena(256, 1); err == nil {
		t.Error("expected BadImage for nr_cyls=256")
	}
}
