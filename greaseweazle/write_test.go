package greaseweazle

import (
	"testing"
)

// Verify function MfmToFluxTransitions().
// Encode two MFM bytes 0x0f 0x06 with bitRateKhz=500
func TestMfmToFluxTransitions(t *testing.T) {
	mfmBits := []byte{0x0f, 0x06}
	bitRateKhz := uint16(500)
	expectedTransitions := []uint64{5000, 6000, 7000, 8000, 14000, 15000}

	// Call the function
	transitions, err := MfmToFluxTransitions(mfmBits, bitRateKhz)

	// Verify no error
	if err != nil {
		t.Fatalf("MfmToFluxTransitions() returned error: %v", err)
	}

	// Manual comparison: check length
	if len(transitions) != len(expectedTransitions) {
		t.Errorf("MfmToFluxTransitions() returned %d transitions, expected %d", len(transitions), len(expectedTransitions))
		t.Errorf("Got transitions: %v", transitions)
		t.Errorf("Expected transitions: %v", expectedTransitions)
		return
	}

	// Manual comparison: check each element
	for i := 0; i < len(expectedTransitions); i++ {
		if transitions[i] != expectedTransitions[i] {
			t.Errorf("MfmToFluxTransitions() transition[%d] = %d, expected %d", i, transitions[i], expectedTransitions[i])
		}
	}

	// If we get here and there were errors, the test will have failed above
	// This is just to ensure we validate all elements
	if t.Failed() {
		t.Errorf("Full transitions array: %v", transitions)
		t.Errorf("Expected transitions array: %v", expectedTransitions)
	}
}
