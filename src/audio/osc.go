package audio

import (
	"math"
	"math/rand"
)

// ----- Wave Kind ----- //

const (
	waveNone = iota
	waveSine
	waveTriangle
	waveSquare
	wavePulse
	waveSaw
	waveSawRev
	waveNoise
)

var waveKindNames = map[int]string{
	waveNone:     "none",
	waveSine:     "sine",
	waveTriangle: "triangle",
	waveSquare:   "square",
	wavePulse:    "pulse",
	waveSaw:      "saw",
	waveSawRev:   "saw-rev",
	waveNoise:    "noise",
}

func waveKindToString(kind int) string {
	if s, ok := waveKindNames[kind]; ok {
		return s
	}
	return "none"
}
func waveKindFromString(s string) int {
	for kind, name := range waveKindNames {
		if name == s {
			return kind
		}
	}
	return waveNone
}

// ----- OSC ----- //

type osc struct {
	kind  int
	freq  float64
	phase float64
}

func newOsc(kind int, freq float64) *osc {
	return &osc{
		kind:  kind,
		freq:  freq,
		phase: rand.Float64() * 2.0 * math.Pi,
	}
}

// step advances the phase by one sample and returns the waveform value.
// freqRatio scales the base frequency (pitch modulation); phaseShift is
// added to the phase without being accumulated.
func (o *osc) step(freqRatio float64, phaseShift float64) float64 {
	freq := o.freq * freqRatio
	phase := o.phase + phaseShift
	value := 0.0
	switch o.kind {
	case waveSine:
		value = math.Sin(phase)
	case waveTriangle:
		p := positiveMod(phase/(2.0*math.Pi), 1)
		if p < 0.5 {
			value = p*4 - 1
		} else {
			value = p*(-4) + 3
		}
	case waveSquare:
		p := positiveMod(phase/(2.0*math.Pi), 1)
		if p < 0.5 {
			value = 1
		} else {
			value = -1
		}
	case wavePulse:
		p := positiveMod(phase/(2.0*math.Pi), 1)
		if p < 0.25 {
			value = 1
		} else {
			value = -1
		}
	case waveSaw:
		p := positiveMod(phase/(2.0*math.Pi), 1)
		value = p*2 - 1
	case waveSawRev:
		p := positiveMod(phase/(2.0*math.Pi), 1)
		value = p*(-2) + 1
	case waveNoise:
		value = rand.Float64()*2 - 1
	}
	o.phase += 2.0 * math.Pi * freq / float64(sampleRate)
	if o.phase > 16.0*math.Pi {
		o.phase = math.Mod(o.phase, 2.0*math.Pi)
	}
	return value
}
