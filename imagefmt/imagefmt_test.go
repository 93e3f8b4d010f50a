package imagefmt

import (
	"bytes"
	"errors"
	"testing"

	"sdimage/layout"
)

const layoutSidesSwapped = layout.SidesSwapped

// memFile is an in-memory File collaborator for tests, grounded on the
// same File contract real disk images are opened through.
type memFile struct {
	data []byte
	pos  int64
}

func newMemFile(data []byte) *memFile { return &memFile{data: data} }

func (m *memFile) Size() (int64, error) { return int64(len(m.data)), nil }
func (m *memFile) Seek(off int64) error { m.pos = off; return nil }
func (m *memFile) Read(buf []byte) (int, error) {
	n := copy(buf, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}
func (m *memFile) Write(buf []byte) (int, error) {
	n := copy(m.data[m.pos:], buf)
	m.pos += int64(n)
	return n, nil
}
func (m *memFile) Close() error { return nil }

// TestS1PC144Open exercises spec.md §8 scenario S1 through the public
// Registry API.
func TestS1PC144Open(t *testing.T) {
	f := newMemFile(make([]byte, 1_474_560))
	img, err := Default.Open(f, "img")
	if err != nil {
		t.Fatal(err)
	}
	if img.Arena.NrCyls() != 80 || img.Arena.NrSides() != 2 {
		t.Errorf("got %dx%d, want 80x2", img.Arena.NrCyls(), img.Arena.NrSides())
	}
	trk, secs, err := img.Arena.TrackAt(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if trk.NrSectors != 18 || len(secs) != 18 {
		t.Errorf("NrSectors = %d, want 18", trk.NrSectors)
	}
	if secs[0].Size() != 512 {
		t.Errorf("sector size = %d, want 512", secs[0].Size())
	}
}

func TestOpenUnknownSizeIsNotThisFormat(t *testing.T) {
	f := newMemFile(make([]byte, 12345))
	_, err := Default.Open(f, "img")
	if !errors.Is(err, ErrNotThisFormat) {
		t.Errorf("err = %v, want ErrNotThisFormat", err)
	}
}

func TestOpenUnregisteredExtension(t *testing.T) {
	f := newMemFile(make([]byte, 1024))
	_, err := Default.Open(f, "nope")
	if !errors.Is(err, ErrNotThisFormat) {
		t.Errorf("err = %v, want ErrNotThisFormat", err)
	}
}

// TestS4D81SidesSwapped exercises scenario S4.
func TestS4D81SidesSwapped(t *testing.T) {
	f := newMemFile(make([]byte, 819_200))
	img, err := Default.Open(f, "d81")
	if err != nil {
		t.Fatal(err)
	}
	if img.Env.Layout&layoutSidesSwapped == 0 {
		t.Errorf("D81 image Layout = %v, want SidesSwapped bit set", img.Env.Layout)
	}
}

// TestS3IBM3174TwoZones exercises scenario S3's two-layout-in-one-image
// structure.
func TestS3IBM3174TwoZones(t *testing.T) {
	f := newMemFile(make([]byte, ibm3174Size))
	img, err := Default.Open(f, "ibm3174")
	if err != nil {
		t.Fatal(err)
	}
	trk0, secs0, err := img.Arena.TrackAt(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(secs0) != 15 || trk0.EffectiveRPM() != 360 {
		t.Errorf("cyl0: NrSectors=%d RPM=%d, want 15/360", len(secs0), trk0.EffectiveRPM())
	}
	trk1, secs1, err := img.Arena.TrackAt(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(secs1) != 30 || trk1.EffectiveRPM() != 180 {
		t.Errorf("cyl1: NrSectors=%d RPM=%d, want 30/180", len(secs1), trk1.EffectiveRPM())
	}
}

func TestXDFFixedSize(t *testing.T) {
	f := newMemFile(make([]byte, xdfSize))
	img, err := Default.Open(f, "xdf")
	if err != nil {
		t.Fatal(err)
	}
	trk, secs, err := img.Arena.TrackAt(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(secs) != 4 {
		t.Fatalf("len(secs) = %d, want 4", len(secs))
	}
	total := 0
	for _, s := range secs {
		total += s.Size()
	}
	if total != xdfTrackBytes {
		t.Errorf("track payload = %d, want %d", total, xdfTrackBytes)
	}
	if trk.FileSecOffsets == nil || len(trk.FileSecOffsets) != 4 {
		t.Errorf("FileSecOffsets not populated")
	}

	trkCn, _, err := img.Arena.TrackAt(40, 1)
	if err != nil {
		t.Fatal(err)
	}
	if trkCn.TrackDelayBC != xdfHeadSkewBC {
		t.Errorf("non-zero cylinder head 1 TrackDelayBC = %d, want %d", trkCn.TrackDelayBC, xdfHeadSkewBC)
	}
	trkC0H1, _, err := img.Arena.TrackAt(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if trkC0H1.TrackDelayBC != 0 {
		t.Errorf("cylinder 0 head 1 TrackDelayBC = %d, want 0", trkC0H1.TrackDelayBC)
	}
}

func TestATRScenarioS2(t *testing.T) {
	const nrCyls = 40
	const nrSecs = 18
	payload := int64(3*128+(nrSecs-3)*128) + int64(nrCyls-1)*int64(nrSecs*128)
	buf := make([]byte, atrBaseOff+payload)
	buf[0], buf[1] = 0x96, 0x02 // little-endian 0x0296
	buf[4], buf[5] = 128, 0     // sector size 128

	f := newMemFile(buf)
	img, err := Default.Open(f, "atr")
	if err != nil {
		t.Fatal(err)
	}
	if img.Arena.NrCyls() != nrCyls {
		t.Errorf("NrCyls = %d, want %d", img.Arena.NrCyls(), nrCyls)
	}
	trk, secs, err := img.Arena.TrackAt(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !trk.IsFM || !trk.InvertData {
		t.Errorf("ATR track: IsFM=%v InvertData=%v, want true/true", trk.IsFM, trk.InvertData)
	}
	if trk.DataRate != 130 {
		t.Errorf("DataRate = %d, want 130", trk.DataRate)
	}
	if len(secs) != nrSecs {
		t.Fatalf("len(secs) = %d, want %d", len(secs), nrSecs)
	}
	if secs[0].Size() != 128 {
		t.Errorf("track 0 sector 0 size = %d, want 128", secs[0].Size())
	}
}

func TestMSXAmbiguityResolvedByBPB(t *testing.T) {
	buf := make([]byte, 327_680)
	buf[0x1fe], buf[0x1ff] = 0x55, 0xaa
	// Declare an 80-cylinder, 1-side, 8-sectors/track, 512-byte BPB.
	buf[0x0b], buf[0x0c] = 0x00, 0x02 // bytes_per_sec = 512
	buf[0x18], buf[0x19] = 8, 0       // secs_per_track = 8
	buf[0x1a], buf[0x1b] = 1, 0       // num_heads = 1

	f := newMemFile(buf)
	img, err := Default.Open(f, "msx")
	if err != nil {
		t.Fatal(err)
	}
	if img.Arena.NrSides() != 1 || img.Arena.NrCyls() != 80 {
		t.Errorf("got %dx%d, want 80x1", img.Arena.NrCyls(), img.Arena.NrSides())
	}
}

func TestSidecarScoring(t *testing.T) {
	cfg := `
[default]
cyls=80
heads=2
secs=9
bps=512
[img::737280]
cyls=80
heads=2
secs=9
bps=512
id=1
`
	sections, err := parseSidecar(bytes.NewBufferString(cfg))
	if err != nil {
		t.Fatal(err)
	}
	if len(sections) != 2 {
		t.Fatalf("len(sections) = %d, want 2", len(sections))
	}
	sec, ok := selectSection(sections, "img", 737_280)
	if !ok {
		t.Fatal("expected a section to be selected")
	}
	if sec.Name != "img" {
		t.Errorf("selected section = %q, want %q (tag+size match beats default)", sec.Name, "img")
	}
}

func TestSidecarScoringRejectsSizeMismatch(t *testing.T) {
	cfg := "[img::12345]\ncyls=80\n"
	sections, err := parseSidecar(bytes.NewBufferString(cfg))
	if err != nil {
		t.Fatal(err)
	}
	score := scoreSection(sections[0], "img", 99999)
	if score != 4-100 {
		t.Errorf("score = %d, want %d", score, 4-100)
	}
}
