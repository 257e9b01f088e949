package audio

import (
	"math"
	"testing"
)

func expectEqual(t *testing.T, actual, expected interface{}) {
	t.Helper()
	if actual != expected {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func TestBitreverse(t *testing.T) {
	expectEqual(t, bitReverse(0, 8), 0)
	expectEqual(t, bitReverse(1, 8), 4)
	expectEqual(t, bitReverse(2, 8), 2)
	expectEqual(t, bitReverse(3, 8), 6)
	expectEqual(t, bitReverse(4, 8), 1)
	expectEqual(t, bitReverse(5, 8), 5)
	expectEqual(t, bitReverse(6, 8), 3)
	expectEqual(t, bitReverse(7, 8), 7)
}

func TestFFTFindsSinePeak(t *testing.T) {
	n := 1024
	bin := 37
	fft := NewFFT(n, false)
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * float64(bin) * float64(i) / float64(n))
	}
	fft.CalcAbs(x)
	peak := 0
	for i := 1; i < n/2; i++ {
		if x[i] > x[peak] {
			peak = i
		}
	}
	expectEqual(t, peak, bin)
	// a pure tone at an exact bin has magnitude n/2
	if math.Abs(x[bin]-float64(n)/2) > 0.001 {
		t.Errorf("expected magnitude %v, got %v", n/2, x[bin])
	}
}

func TestInverseFFTRoundTrip(t *testing.T) {
	n := 64
	forward := NewFFT(n, false)
	inverse := NewFFT(n, true)
	x := make([]complex128, n)
	for i := range x {
		x[i] = complex(math.Sin(float64(i)*0.3)+0.5*math.Cos(float64(i)*0.7), 0)
	}
	original := make([]complex128, n)
	copy(original, x)
	forward.Calc(x)
	inverse.Calc(x)
	for i := range x {
		if math.Abs(real(x[i])-real(original[i])) > 1e-9 {
			t.Fatalf("round-trip mismatch at %v: %v vs %v", i, x[i], original[i])
		}
	}
}

func TestHanWindowEnds(t *testing.T) {
	data := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	applyWindow(data, han)
	if data[0] != 0 {
		t.Errorf("expected zero at the window start, got %v", data[0])
	}
	if data[4] != 1 {
		t.Errorf("expected unity at the window center, got %v", data[4])
	}
}
