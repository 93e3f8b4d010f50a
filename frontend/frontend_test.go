package frontend

import "testing"

func TestPackUnpackBitcellsRoundTrip(t *testing.T) {
	bitcells := make([]bool, 64)
	for i := range bitcells {
		bitcells[i] = i%3 == 0
	}

	words := packBitcellsToWords(bitcells)
	if len(words) != 4 {
		t.Fatalf("got %d words, want 4", len(words))
	}

	var got []bool
	for _, w := range words {
		cells := unpackWordToBitcells(w)
		got = append(got, cells[:]...)
	}
	for i, want := range bitcells {
		if got[i] != want {
			t.Errorf("bit %d: got %v, want %v", i, got[i], want)
		}
	}
}

func TestPackBitcellsToWordsPadsShortTail(t *testing.T) {
	bitcells := []bool{true, false, true, true}
	words := packBitcellsToWords(bitcells)
	if len(words) != 1 {
		t.Fatalf("got %d words, want 1", len(words))
	}
	want := uint16(0b1011) << 12
	if words[0] != want {
		t.Errorf("got word %016b, want %016b", words[0], want)
	}
}

func TestPackBitsToMSBBytes(t *testing.T) {
	bits := []bool{
		false, false, false, false, true, true, true, true, // 0x0f
		false, false, false, false, false, true, true, false, // 0x06
	}
	got := packBitsToMSBBytes(bits)
	want := []byte{0x0f, 0x06}
	if len(got) != len(want) {
		t.Fatalf("got %d bytes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d: got 0x%02x, want 0x%02x", i, got[i], want[i])
		}
	}
}

func TestPackBitsToMSBBytesPadsShortTail(t *testing.T) {
	bits := []bool{true, false, true}
	got := packBitsToMSBBytes(bits)
	if len(got) != 1 {
		t.Fatalf("got %d bytes, want 1", len(got))
	}
	want := byte(0b101) << 5
	if got[0] != want {
		t.Errorf("got 0x%02x, want 0x%02x", got[0], want)
	}
}
