package audio

import (
	"math"
	"testing"
)

// rms of the filter output for a steady sine at freq, after settling
func filterResponse(f *filter, freq float64) float64 {
	n := sampleRate / 2
	sum := 0.0
	for i := 0; i < n; i++ {
		in := math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
		out := f.step(in, 1)
		if i > n/2 {
			sum += out * out
		}
	}
	return math.Sqrt(sum / float64(n/2))
}

func TestFilterNonePassesThrough(t *testing.T) {
	f := newFilter(&filterParams{kind: filterNone, freq: 1000, q: 1})
	if out := f.step(0.5, 1); out != 0.5 {
		t.Errorf("expected passthrough, got %v", out)
	}
}

func TestLowpassAttenuatesHighFrequencies(t *testing.T) {
	low := filterResponse(newFilter(&filterParams{kind: filterLowpass, freq: 1000, q: 0.7}), 100)
	high := filterResponse(newFilter(&filterParams{kind: filterLowpass, freq: 1000, q: 0.7}), 8000)
	if high > low/4 {
		t.Errorf("expected high frequencies attenuated, low=%v high=%v", low, high)
	}
}

func TestHighpassAttenuatesLowFrequencies(t *testing.T) {
	low := filterResponse(newFilter(&filterParams{kind: filterHighpass, freq: 1000, q: 0.7}), 100)
	high := filterResponse(newFilter(&filterParams{kind: filterHighpass, freq: 1000, q: 0.7}), 8000)
	if low > high/4 {
		t.Errorf("expected low frequencies attenuated, low=%v high=%v", low, high)
	}
}

func TestFilterCutoffModulationShiftsResponse(t *testing.T) {
	// with the cutoff pushed two octaves up by the ratio, an 8kHz tone passes
	f := newFilter(&filterParams{kind: filterLowpass, freq: 4000, q: 0.7})
	n := sampleRate / 2
	sum := 0.0
	for i := 0; i < n; i++ {
		in := math.Sin(2 * math.Pi * 8000 * float64(i) / sampleRate)
		out := f.step(in, 4)
		if i > n/2 {
			sum += out * out
		}
	}
	modulated := math.Sqrt(sum / float64(n/2))
	plain := filterResponse(newFilter(&filterParams{kind: filterLowpass, freq: 4000, q: 0.7}), 8000)
	if modulated < plain*2 {
		t.Errorf("expected the raised cutoff to pass more signal, modulated=%v plain=%v", modulated, plain)
	}
}

func TestFilterParamsClamp(t *testing.T) {
	p := &filterParams{}
	expectNoError(t, p.set("freq", "999999"))
	if p.freq != 20000 {
		t.Errorf("expected freq clamped to 20000, got %v", p.freq)
	}
	expectNoError(t, p.set("q", "0"))
	if p.q != 0.1 {
		t.Errorf("expected q clamped to 0.1, got %v", p.q)
	}
}
