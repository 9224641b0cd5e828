package ustimer

import "testing"

func TestElapsedMicrosGrows(t *testing.T) {
	tm := New()
	first := tm.ElapsedMicros()
	for i := 0; i < 1_000_000; i++ {
		// burn a little wall time without sleeping
	}
	second := tm.ElapsedMicros()
	if second < first {
		t.Fatalf("elapsed time went backwards: %d -> %d", first, second)
	}
}

func TestResetZeroesElapsed(t *testing.T) {
	tm := New()
	for i := 0; i < 1_000_000; i++ {
	}
	tm.Reset()
	if tm.ElapsedMicros() > 1000 {
		t.Fatalf("elapsed after reset = %dus, want near 0", tm.ElapsedMicros())
	}
}
