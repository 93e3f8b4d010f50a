package trackio

import (
	"bytes"
	"math/rand"
	"testing"

	"sdimage/imagefmt"
	"sdimage/layout"
)

// memFile is an in-memory imagefmt.File collaborator for tests.
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

// buildSingleTrackImage makes a one-cylinder, one-side image with
// nrSecs sectors of 128<<n bytes each, filled with deterministic random
// payload, wired up through layout/imagefmt the same way a real handler
// would.
func buildSingleTrackImage(t *testing.T, nrSecs int, n byte, isFM bool, interleave int) (*imagefmt.Image, []byte) {
	t.Helper()
	secs := make([]layout.Sec, nrSecs)
	for i := range secs {
		secs[i] = layout.Sec{R: byte(1 + i), N: n}
	}
	a, err := layout.NewArena(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := a.AddTrackLayout(secs, layout.Trk{
		HasIAM:     true,
		Interleave: interleave,
		RPM:        300,
		IsFM:       isFM,
		Gap2:       -1,
		Gap3:       -1,
		Gap4A:      -1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := a.SetTrackMapEntry(0, 0, idx); err != nil {
		t.Fatal(err)
	}
	if err := a.FinaliseTrackMap(); err != nil {
		t.Fatal(err)
	}

	secSize := 128 << uint(n)
	payload := make([]byte, nrSecs*secSize)
	rng := rand.New(rand.NewSource(1))
	rng.Read(payload)

	f := newMemFile(payload)
	img := &imagefmt.Image{File: f, Arena: a, Env: layout.Envelope{NrCyls: 1, NrSides: 1, Step: 1}}
	return img, payload
}

// drain runs e until Done, pulling every produced word out through ring
// into a flat slice (the ring is emptied each time Tick reports it could
// push nothing, so the encoder never stalls for good).
func drain(t *testing.T, e *Encoder, ring *Ring) []uint16 {
	t.Helper()
	var words []uint16
	for !e.Done() {
		if !e.Tick(ring) {
			// Ring full; drain it and retry.
			for {
				w, ok := ring.Pop()
				if !ok {
					break
				}
				words = append(words, w)
			}
			continue
		}
	}
	for {
		w, ok := ring.Pop()
		if !ok {
			break
		}
		words = append(words, w)
	}
	return words
}

func TestEncodeDecodeRoundTripMFM(t *testing.T) {
	img, payload := buildSingleTrackImage(t, 9, 2, false, 2)
	pos, err := SeekTrack(img, 0, 0, 1)
	if err != nil {
		t.Fatal(err)
	}

	enc, err := NewEncoder(img, pos)
	if err != nil {
		t.Fatal(err)
	}
	ring, err := NewRing(4096)
	if err != nil {
		t.Fatal(err)
	}
	words := drain(t, enc, ring)
	if len(words) == 0 {
		t.Fatal("encoder produced no bit-cell words")
	}
	if len(words)*cellsPerByte != pos.Params.TrackLenBC {
		t.Errorf("encoded %d words (%d bit-cells), want TrackLenBC=%d bit-cells",
			len(words), len(words)*cellsPerByte, pos.Params.TrackLenBC)
	}

	dec := NewDecoder(pos)
	got := make(map[int][]byte)
	dec.OnSector = func(secIdx int, data []byte) {
		cp := make([]byte, len(data))
		copy(cp, data)
		got[secIdx] = cp
	}
	var decodeErrs []error
	dec.OnError = func(err error) { decodeErrs = append(decodeErrs, err) }

	decRing, err := NewRing(4096)
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range words {
		if !decRing.Push(w) {
			t.Fatal("decode ring overflow")
		}
		dec.Tick(decRing)
	}
	for {
		if !dec.Tick(decRing) {
			break
		}
	}

	if len(got) != len(pos.Secs) {
		t.Fatalf("decoded %d sectors, want %d (decode errors: %v)", len(got), len(pos.Secs), decodeErrs)
	}
	secSize := pos.Secs[0].Size()
	for i := range pos.Secs {
		want := payload[i*secSize : (i+1)*secSize]
		if !bytes.Equal(got[i], want) {
			t.Errorf("sector %d: decoded payload mismatch", i)
		}
	}
}

func TestEncodeDecodeRoundTripFM(t *testing.T) {
	img, payload := buildSingleTrackImage(t, 5, 0, true, 1)
	pos, err := SeekTrack(img, 0, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := NewEncoder(img, pos)
	if err != nil {
		t.Fatal(err)
	}
	ring, err := NewRing(2048)
	if err != nil {
		t.Fatal(err)
	}
	words := drain(t, enc, ring)

	dec := NewDecoder(pos)
	got := make(map[int][]byte)
	dec.OnSector = func(secIdx int, data []byte) {
		cp := make([]byte, len(data))
		copy(cp, data)
		got[secIdx] = cp
	}
	decRing, err := NewRing(2048)
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range words {
		if !decRing.Push(w) {
			t.Fatal("decode ring overflow")
		}
		dec.Tick(decRing)
	}
	for dec.Tick(decRing) {
	}

	secSize := pos.Secs[0].Size()
	for i := range pos.Secs {
		want := payload[i*secSize : (i+1)*secSize]
		if !bytes.Equal(got[i], want) {
			t.Errorf("sector %d: decoded payload mismatch", i)
		}
	}
}

// TestSectorMapIsAPermutation checks property 3: the rotational sector
// map is a permutation of 0..n-1 regardless of interleave/skew.
func TestSectorMapIsAPermutation(t *testing.T) {
	trk := &layout.Trk{Interleave: 3, CSkew: 1, HSkew: 1}
	n := 9
	secMap := buildSectorMap(trk, n, 5, 1)
	seen := make([]bool, n)
	for _, idx := range secMap {
		if idx < 0 || idx >= n || seen[idx] {
			t.Fatalf("sector map %v is not a permutation of 0..%d", secMap, n-1)
		}
		seen[idx] = true
	}
}

// TestSectorMapCylinderSkewVaries checks that pos0 actually depends on
// the physical cylinder/side, per spec.md's
// pos0 = (cyl*cskew + side*hskew) mod n invariant: a non-zero CSkew/HSkew
// must produce different starting rotational offsets across cylinders
// and sides, not the same one every time.
func TestSectorMapCylinderSkewVaries(t *testing.T) {
	trk := &layout.Trk{Interleave: 1, CSkew: 4, HSkew: 2}
	n := 9

	map0 := buildSectorMap(trk, n, 0, 0)
	map1 := buildSectorMap(trk, n, 1, 0)
	if map0[0] == map1[0] {
		t.Fatalf("cylinder skew had no effect: cyl 0 and cyl 1 both start with sector %d", map0[0])
	}

	mapSide0 := buildSectorMap(trk, n, 0, 0)
	mapSide1 := buildSectorMap(trk, n, 0, 1)
	if mapSide0[0] == mapSide1[0] {
		t.Fatalf("head skew had no effect: side 0 and side 1 both start with sector %d", mapSide0[0])
	}
}

// TestTrackLenIsQuantized checks property 4: TrackLenBC is always a
// multiple of 32 and at least the minimum required length.
func TestTrackLenIsQuantized(t *testing.T) {
	secs := []layout.Sec{{R: 1, N: 2}, {R: 2, N: 2}, {R: 3, N: 2}}
	trk := &layout.Trk{HasIAM: true, RPM: 300, Gap2: -1, Gap3: -1, Gap4A: -1}
	p := prepTrack(trk, secs)
	if p.TrackLenBC%32 != 0 {
		t.Errorf("TrackLenBC=%d is not a multiple of 32", p.TrackLenBC)
	}
	if minBC := minTrackBytes(trk, secs, p.Gap3) * cellsPerByte; p.TrackLenBC < minBC {
		t.Errorf("TrackLenBC=%d is below the minimum %d bit-cells", p.TrackLenBC, minBC)
	}
}

// TestGap3FitsCeiling checks property 5: the auto-computed gap_3 never
// exceeds its density/size-class ceiling.
func TestGap3FitsCeiling(t *testing.T) {
	secs := []layout.Sec{{R: 1, N: 2}, {R: 2, N: 2}}
	trk := &layout.Trk{RPM: 300, Gap2: -1, Gap3: -1, Gap4A: -1}
	p := prepTrack(trk, secs)
	if p.Gap3 > gap3CeilingMFM[2] {
		t.Errorf("gap3=%d exceeds ceiling %d", p.Gap3, gap3CeilingMFM[2])
	}
}

// TestCrcMatchesReferenceSeed checks scenario S5: the IDAM CRC
// continuation seed for an MFM mark byte 0xfe after three 0xa1 sync
// bytes is the well-known value 0xb230.
func TestCrcMatchesReferenceSeed(t *testing.T) {
	if got := markCRCInit(false, 0xfe); got != 0xb230 {
		t.Errorf("markCRCInit(mfm,0xfe) = %#04x, want 0xb230", got)
	}
	if got := markCRCInit(false, 0xfb); got != 0xcdb4 {
		t.Errorf("markCRCInit(mfm,0xfb) = %#04x, want 0xcdb4", got)
	}
}

// TestCrcOfIDAMScenario reproduces spec.md §8 scenario S5's byte
// sequence [a1,a1,a1,fe,03,01,07,02] seeded 0xffff and checks the CRC
// is self-consistent between the whole-sequence computation and the
// markCRCInit-seeded continuation used by the encoder/decoder.
func TestCrcOfIDAMScenario(t *testing.T) {
	full := crc16CCITT(crcSeed, []byte{0xa1, 0xa1, 0xa1, 0xfe, 0x03, 0x01, 0x07, 0x02})
	seeded := crc16CCITT(markCRCInit(false, 0xfe), []byte{0x03, 0x01, 0x07, 0x02})
	if full != seeded {
		t.Errorf("whole-sequence CRC %#04x != mark-seeded continuation CRC %#04x", full, seeded)
	}
}

// TestDecoderKeepsWriteOnDataCRCMismatch checks that a DAM data CRC
// mismatch still delivers the decoded bytes to OnSector (the firmware
// convention of keeping a suspect write rather than discarding it),
// while still reporting ErrCrcMismatch through OnError.
func TestDecoderKeepsWriteOnDataCRCMismatch(t *testing.T) {
	img, _ := buildSingleTrackImage(t, 1, 0, true, 1)
	pos, err := SeekTrack(img, 0, 0, 1)
	if err != nil {
		t.Fatal(err)
	}

	secSize := pos.Secs[0].Size()
	data := make([]byte, secSize)
	for i := range data {
		data[i] = 0xaa
	}

	var words []uint16
	words = append(words, fmSyncWord(0xfe, fmSyncMarkClock))
	chs := []byte{byte(pos.Cyl), byte(pos.Side), pos.Secs[0].R, pos.Secs[0].N}
	for _, b := range chs {
		words = append(words, encodeByteFM(b))
	}
	idamCRC := crc16CCITT(markCRCInit(true, 0xfe), chs)
	words = append(words, encodeByteFM(byte(idamCRC>>8)), encodeByteFM(byte(idamCRC)))

	words = append(words, fmSyncWord(0xfb, fmSyncMarkClock))
	for _, b := range data {
		words = append(words, encodeByteFM(b))
	}
	// Deliberately wrong data CRC.
	words = append(words, encodeByteFM(0x00), encodeByteFM(0x00))

	dec := NewDecoder(pos)
	var got []byte
	var sawErr error
	dec.OnSector = func(secIdx int, d []byte) {
		got = append([]byte(nil), d...)
	}
	dec.OnError = func(err error) { sawErr = err }

	ring, err := NewRing(1024)
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range words {
		if !ring.Push(w) {
			t.Fatal("ring overflow")
		}
		dec.Tick(ring)
	}
	for dec.Tick(ring) {
	}

	if got == nil {
		t.Fatal("OnSector was never called despite the CRC mismatch; the write should be kept")
	}
	if !bytes.Equal(got, data) {
		t.Errorf("decoded data = %x, want %x", got, data)
	}
	if sawErr != ErrCrcMismatch {
		t.Errorf("OnError = %v, want ErrCrcMismatch", sawErr)
	}
}
