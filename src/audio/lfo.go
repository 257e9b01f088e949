package audio

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
)

// ----- LFO Target ----- //

const (
	lfoTargetNone = iota
	lfoTargetCutoff
	lfoTargetAmp
	lfoTargetPitch
)

var lfoTargetNames = map[int]string{
	lfoTargetNone:   "none",
	lfoTargetCutoff: "cutoff",
	lfoTargetAmp:    "amp",
	lfoTargetPitch:  "pitch",
}

func lfoTargetToString(target int) string {
	if s, ok := lfoTargetNames[target]; ok {
		return s
	}
	return "none"
}
func lfoTargetFromString(s string) int {
	for target, name := range lfoTargetNames {
		if name == s {
			return target
		}
	}
	return lfoTargetNone
}

// ----- LFO Params ----- //

type lfoParams struct {
	target int
	wave   int
	freq   float64 // Hz
	amount float64 // 0-1
}
type lfoJSON struct {
	Target string  `json:"target"`
	Wave   string  `json:"wave"`
	Freq   float64 `json:"freq"`
	Amount float64 `json:"amount"`
}

func newLfoParams() *lfoParams {
	return &lfoParams{
		target: lfoTargetNone,
		wave:   waveSine,
		freq:   5,
		amount: 0,
	}
}

func (l *lfoParams) applyJSON(data json.RawMessage) {
	var j lfoJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to lfoParams")
		return
	}
	l.target = lfoTargetFromString(j.Target)
	l.wave = waveKindFromString(j.Wave)
	l.freq = clamp(j.Freq, 0.01, 40)
	l.amount = clamp(j.Amount, 0, 1)
}
func (l *lfoParams) toJSON() json.RawMessage {
	return toRawMessage(&lfoJSON{
		Target: lfoTargetToString(l.target),
		Wave:   waveKindToString(l.wave),
		Freq:   l.freq,
		Amount: l.amount,
	})
}
func (l *lfoParams) set(key string, value string) error {
	switch key {
	case "target":
		l.target = lfoTargetFromString(value)
	case "wave":
		l.wave = waveKindFromString(value)
	case "freq":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		l.freq = clamp(v, 0.01, 40)
	case "amount":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		l.amount = clamp(v, 0, 1)
	}
	return nil
}

// ----- LFO ----- //

// lfo is the single modulation source shared by all voices. It runs
// continuously from engine startup; each voice resolves which destination
// it listens on when the voice is constructed, so a target change only
// affects voices triggered after it (see voice.lfoTarget).
type lfo struct {
	osc    *osc
	amount float64
	value  float64
}

func newLfo(p *lfoParams) *lfo {
	return &lfo{
		osc:    newOsc(p.wave, p.freq),
		amount: p.amount,
	}
}

func (l *lfo) applyParams(p *lfoParams) {
	l.osc.kind = p.wave
	l.osc.freq = p.freq
	l.amount = p.amount
}

func (l *lfo) step() {
	l.value = l.osc.step(1, 0)
}

// cutoffRatio, ampRatio and freqRatio translate the raw LFO value for each
// destination. Depth is read live; only the routing is frozen per voice.

func (l *lfo) cutoffRatio() float64 {
	return math.Pow(16.0, l.value*l.amount)
}

func (l *lfo) ampRatio() float64 {
	return 1.0 + (l.value-1.0)/2.0*l.amount
}

func (l *lfo) freqRatio() float64 {
	// up to one semitone of vibrato at full amount
	return math.Pow(2.0, l.value*l.amount/12.0)
}
