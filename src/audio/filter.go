package audio

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
)

// ----- Filter Kind ----- //

const (
	filterNone = iota
	filterLowpass
	filterHighpass
	filterBandpass
)

var filterKindNames = map[int]string{
	filterNone:     "none",
	filterLowpass:  "lowpass",
	filterHighpass: "highpass",
	filterBandpass: "bandpass",
}

func filterKindToString(kind int) string {
	if s, ok := filterKindNames[kind]; ok {
		return s
	}
	return "none"
}
func filterKindFromString(s string) int {
	for kind, name := range filterKindNames {
		if name == s {
			return kind
		}
	}
	return filterNone
}

// ----- Filter Params ----- //

type filterParams struct {
	kind int
	freq float64 // Hz
	q    float64
}
type filterJSON struct {
	Kind string  `json:"kind"`
	Freq float64 `json:"freq"`
	Q    float64 `json:"q"`
}

func (f *filterParams) applyJSON(data json.RawMessage) {
	var j filterJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to filterParams")
		return
	}
	f.kind = filterKindFromString(j.Kind)
	f.freq = clamp(j.Freq, 10, 20000)
	f.q = clamp(j.Q, 0.1, 40)
}
func (f *filterParams) toJSON() json.RawMessage {
	return toRawMessage(&filterJSON{
		Kind: filterKindToString(f.kind),
		Freq: f.freq,
		Q:    f.q,
	})
}
func (f *filterParams) set(key string, value string) error {
	switch key {
	case "kind":
		f.kind = filterKindFromString(value)
	case "freq":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.freq = clamp(v, 10, 20000)
	case "q":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.q = clamp(v, 0.1, 40)
	}
	return nil
}

// ----- Filter ----- //

// filter is a biquad whose coefficients are recomputed in place when the
// effective cutoff or resonance moves, so modulation never rebuilds state.
type filter struct {
	kind     int
	freq     float64
	q        float64
	lastFreq float64
	lastQ    float64
	lastKind int
	a        []float64 // feedforward
	b        []float64 // feedback
	past     [2]float64
}

func newFilter(p *filterParams) *filter {
	f := &filter{}
	f.applyParams(p)
	return f
}

func (f *filter) applyParams(p *filterParams) {
	f.kind = p.kind
	f.freq = p.freq
	f.q = p.q
}

// step runs one sample through the biquad. freqRatio multiplies the cutoff
// (envelope and LFO modulation are both expressed as ratios).
func (f *filter) step(in float64, freqRatio float64) float64 {
	if f.kind == filterNone {
		return in
	}
	freq := clamp(f.freq*freqRatio, 10, sampleRate*0.45)
	if f.a == nil || f.kind != f.lastKind ||
		math.Abs(freq-f.lastFreq) > f.lastFreq*0.001 || f.q != f.lastQ {
		f.updateCoefficients(freq)
	}
	// transposed direct form II
	out := in*f.a[0] + f.past[0]
	f.past[0] = in*f.a[1] - f.b[0]*out + f.past[1]
	f.past[1] = in*f.a[2] - f.b[1]*out
	return out
}

func (f *filter) updateCoefficients(freq float64) {
	fc := freq / sampleRate
	switch f.kind {
	case filterLowpass:
		f.a, f.b = makeBiquadLowpassH(fc, f.q)
	case filterHighpass:
		f.a, f.b = makeBiquadHighpassH(fc, f.q)
	case filterBandpass:
		f.a, f.b = makeBiquadBandpassH(fc, f.q)
	}
	f.lastFreq = freq
	f.lastQ = f.q
	f.lastKind = f.kind
}

// ----- Biquad coefficients (RBJ cookbook) ----- //

func makeBiquadLowpassH(fc float64, q float64) ([]float64, []float64) {
	w0 := 2 * math.Pi * fc
	alpha := math.Sin(w0) / (2 * q)
	b0 := (1 - math.Cos(w0)) / 2
	b1 := 1 - math.Cos(w0)
	b2 := (1 - math.Cos(w0)) / 2
	a0 := 1 + alpha
	a1 := -2 * math.Cos(w0)
	a2 := 1 - alpha
	return []float64{b0 / a0, b1 / a0, b2 / a0}, []float64{a1 / a0, a2 / a0}
}

func makeBiquadHighpassH(fc float64, q float64) ([]float64, []float64) {
	w0 := 2 * math.Pi * fc
	alpha := math.Sin(w0) / (2 * q)
	b0 := (1 + math.Cos(w0)) / 2
	b1 := -(1 + math.Cos(w0))
	b2 := (1 + math.Cos(w0)) / 2
	a0 := 1 + alpha
	a1 := -2 * math.Cos(w0)
	a2 := 1 - alpha
	return []float64{b0 / a0, b1 / a0, b2 / a0}, []float64{a1 / a0, a2 / a0}
}

func makeBiquadBandpassH(fc float64, q float64) ([]float64, []float64) {
	// constant 0 dB peak gain
	w0 := 2 * math.Pi * fc
	alpha := math.Sin(w0) / (2 * q)
	b0 := alpha
	b1 := 0.0
	b2 := -alpha
	a0 := 1 + alpha
	a1 := -2 * math.Cos(w0)
	a2 := 1 - alpha
	return []float64{b0 / a0, b1 / a0, b2 / a0}, []float64{a1 / a0, a2 / a0}
}
