package trackio

import (
	"bytes"
	"testing"
)

func TestReadWriteSectorRoundTrip(t *testing.T) {
	img, payload := buildSingleTrackImage(t, 9, 2, false, 2)
	pos, err := SeekTrack(img, 0, 0, 1)
	if err != nil {
		t.Fatal(err)
	}

	secSize := pos.Secs[0].Size()
	for i := range pos.Secs {
		want := payload[i*secSize : (i+1)*secSize]
		got, err := ReadSector(img, pos, i)
		if err != nil {
			t.Fatalf("ReadSector(%d): %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("ReadSector(%d) = %x, want %x", i, got, want)
		}
	}

	replacement := bytes.Repeat([]byte{0xaa}, secSize)
	if err := WriteSector(img, pos, 0, replacement); err != nil {
		t.Fatal(err)
	}
	got, err := ReadSector(img, pos, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, replacement) {
		t.Errorf("ReadSector(0) after WriteSector = %x, want %x", got, replacement)
	}
}

func TestWriteSectorRejectsWrongSize(t *testing.T) {
	img, _ := buildSingleTrackImage(t, 9, 2, false, 2)
	pos, err := SeekTrack(img, 0, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteSector(img, pos, 0, []byte{1, 2, 3}); err == nil {
		t.Fatal("WriteSector with wrong-sized payload = nil, want error")
	}
}
