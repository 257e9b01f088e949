package audio

import (
	"encoding/json"
	"log"
	"strconv"
)

// ----- Reverb Params ----- //

type reverbParams struct {
	enabled  bool
	roomSize float64 // 0-0.98
	damp     float64 // 0-0.99
	mix      float64 // 0-1
}
type reverbJSON struct {
	Enabled  bool    `json:"enabled"`
	RoomSize float64 `json:"roomSize"`
	Damp     float64 `json:"damp"`
	Mix      float64 `json:"mix"`
}

func newReverbParams() *reverbParams {
	return &reverbParams{roomSize: 0.84, damp: 0.2, mix: 0.3}
}

func (r *reverbParams) applyJSON(data json.RawMessage) {
	var j reverbJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to reverbParams")
		return
	}
	r.enabled = j.Enabled
	r.roomSize = clamp(j.RoomSize, 0, 0.98)
	r.damp = clamp(j.Damp, 0, 0.99)
	r.mix = clamp(j.Mix, 0, 1)
}
func (r *reverbParams) toJSON() json.RawMessage {
	return toRawMessage(&reverbJSON{
		Enabled:  r.enabled,
		RoomSize: r.roomSize,
		Damp:     r.damp,
		Mix:      r.mix,
	})
}
func (r *reverbParams) set(key string, value string) error {
	if key == "enabled" {
		r.enabled = value == "true"
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	switch key {
	case "roomSize":
		r.roomSize = clamp(v, 0, 0.98)
	case "damp":
		r.damp = clamp(v, 0, 0.99)
	case "mix":
		r.mix = clamp(v, 0, 1)
	}
	return nil
}

// ----- Comb / Allpass ----- //

type combFilter struct {
	past     []float64
	cursor   int
	feedback float64
	damp     float64
	store    float64
}

func newCombFilter(length int) *combFilter {
	return &combFilter{past: make([]float64, length)}
}

func (c *combFilter) step(in float64) float64 {
	out := c.past[c.cursor]
	c.store = out*(1-c.damp) + c.store*c.damp
	c.past[c.cursor] = in + c.store*c.feedback
	c.cursor++
	if c.cursor >= len(c.past) {
		c.cursor = 0
	}
	return out
}

type allpassFilter struct {
	past   []float64
	cursor int
}

func newAllpassFilter(length int) *allpassFilter {
	return &allpassFilter{past: make([]float64, length)}
}

func (a *allpassFilter) step(in float64) float64 {
	delayed := a.past[a.cursor]
	a.past[a.cursor] = in + delayed*0.5
	a.cursor++
	if a.cursor >= len(a.past) {
		a.cursor = 0
	}
	return delayed - in
}

// ----- Reverb ----- //

// comb lengths are mutually prime sample counts scaled from the classic
// Freeverb tuning at 44.1kHz.
var combTuning = [4]int{1277, 1356, 1491, 1617}
var allpassTuning = [2]int{556, 441}

type reverb struct {
	bypass    bypass
	combs     [4]*combFilter
	allpasses [2]*allpassFilter
	mix       float64
}

func newReverb() *reverb {
	r := &reverb{}
	scale := float64(sampleRate) / 44100.0
	for i, n := range combTuning {
		r.combs[i] = newCombFilter(int(float64(n) * scale))
	}
	for i, n := range allpassTuning {
		r.allpasses[i] = newAllpassFilter(int(float64(n) * scale))
	}
	return r
}

func (r *reverb) applyParams(p *reverbParams) {
	r.bypass.set(p.enabled)
	for _, c := range r.combs {
		c.feedback = 0.7 + p.roomSize*0.28
		c.damp = p.damp
	}
	r.mix = p.mix
}

func (r *reverb) step(in float64) float64 {
	if !r.bypass.enabled() {
		return in * r.bypass.dry
	}
	diffuse := 0.0
	for _, c := range r.combs {
		diffuse += c.step(in)
	}
	diffuse /= float64(len(r.combs))
	for _, a := range r.allpasses {
		diffuse = a.step(diffuse)
	}
	wet := in*(1-r.mix) + diffuse*r.mix
	return in*r.bypass.dry + wet*r.bypass.wet
}
