package clock

import "testing"

// Verify elapsed-time arithmetic across the 32-bit counter wrap.
func TestElapsedWraparound(t *testing.T) {
	clk := NewSimulated(1e6)

	tests := []struct {
		then, now uint32
		want      float64
	}{
		{0, 1000000, 1.0},
		{500, 500, 0},
		{0xFFFFFF00, 0x00000100, 512e-6}, // across the wrap
		{0xFFFFFFFF, 0, 1e-6},
	}

	for _, tt := range tests {
		got := Elapsed(clk, tt.then, tt.now)
		if got != tt.want {
			t.Errorf("Elapsed(%#x, %#x) = %g, expected %g", tt.then, tt.now, got, tt.want)
		}
	}
}

// Verify the simulated clock advances and wraps like the hardware counter.
func TestSimulatedAdvance(t *testing.T) {
	clk := NewSimulated(1e6)

	clk.AdvanceSeconds(1.5)
	if ts := clk.Timestamp(); ts != 1500000 {
		t.Errorf("Timestamp() = %d, expected 1500000", ts)
	}

	clk.Advance(0xFFFFFFFF)
	if ts := clk.Timestamp(); ts != 1499999 {
		t.Errorf("Timestamp() after wrap = %d, expected 1499999", ts)
	}
}
