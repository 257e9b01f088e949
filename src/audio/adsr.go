package audio

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
)

// ----- ADSR Params ----- //

type adsrParams struct {
	attack  float64 // ms
	decay   float64 // ms
	sustain float64 // 0-1
	release float64 // ms
}
type adsrJSON struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
}

func (a *adsrParams) applyJSON(data json.RawMessage) {
	var j adsrJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to adsrParams")
		return
	}
	a.attack = clamp(j.Attack, 0, 10000)
	a.decay = clamp(j.Decay, 0, 10000)
	a.sustain = clamp(j.Sustain, 0, 1)
	a.release = clamp(j.Release, 0, 10000)
}
func (a *adsrParams) toJSON() json.RawMessage {
	return toRawMessage(&adsrJSON{
		Attack:  a.attack,
		Decay:   a.decay,
		Sustain: a.sustain,
		Release: a.release,
	})
}
func (a *adsrParams) set(key string, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	switch key {
	case "attack":
		a.attack = clamp(v, 0, 10000)
	case "decay":
		a.decay = clamp(v, 0, 10000)
	case "sustain":
		a.sustain = clamp(v, 0, 1)
	case "release":
		a.release = clamp(v, 0, 10000)
	}
	return nil
}

// ----- ADSR ----- //

const (
	phaseNone = iota
	phaseAttack
	phaseDecay
	phaseSustain
	phaseRelease
)

/*
  1 +     x
    |    / \
    |   /   \
  s +  /     x------x
    | /              \
    |/                \
  0 +-----+--+------+---
    |a    |d |      |r |
*/
// adsr captures its in-flight value at noteOn and noteOff, so an attack
// retriggered mid-release continues from where the value is, and a release
// begun mid-attack ramps down from the in-progress value, not from sustain.
type adsr struct {
	attack         float64 // ms
	decay          float64 // ms
	sustain        float64 // 0-1
	release        float64 // ms
	forced         bool    // a forced release keeps its time until the envelope ends
	value          float64
	phase          int
	phasePos       int
	valueAtNoteOn  float64
	valueAtNoteOff float64
}

func (a *adsr) setParams(p *adsrParams) {
	a.attack = p.attack
	a.decay = p.decay
	a.sustain = p.sustain
	if !a.forced {
		a.release = p.release
	}
}

func (a *adsr) noteOn() {
	a.forced = false
	a.phase = phaseAttack
	a.phasePos = 0
	a.valueAtNoteOn = a.value
}

func (a *adsr) noteOff() {
	a.phase = phaseRelease
	a.phasePos = 0
	a.valueAtNoteOff = a.value
}

// forceRelease begins a release with the given time, overriding the
// configured release. Used by stopAll and voice stealing. The override
// is sticky: setParams cannot stretch it back out mid-release.
func (a *adsr) forceRelease(releaseMs float64) {
	a.release = releaseMs
	a.noteOff()
	a.forced = true
}

func (a *adsr) idle() bool {
	return a.phase == phaseNone
}

func (a *adsr) step() {
	phaseTime := float64(a.phasePos) * secPerSample * 1000 // ms
	switch a.phase {
	case phaseAttack:
		if phaseTime >= a.attack {
			a.phase = phaseDecay
			a.phasePos = 0
			a.value = 1
		} else {
			t := phaseTime / a.attack
			a.value = t + (1-t)*a.valueAtNoteOn
			a.phasePos++
		}
	case phaseDecay:
		ended := false
		if a.decay == 0 {
			ended = true
		} else {
			t := phaseTime / a.decay
			a.value = setTargetAtTime(1, a.sustain, t)
			if math.Abs(a.value-a.sustain) < 0.001 {
				ended = true
			}
		}
		if ended {
			a.phase = phaseSustain
			a.phasePos = 0
			a.value = a.sustain
		} else {
			a.phasePos++
		}
	case phaseSustain:
		a.value = a.sustain
	case phaseRelease:
		ended := false
		if a.release == 0 {
			ended = true
		} else {
			t := phaseTime / a.release
			a.value = setTargetAtTime(a.valueAtNoteOff, 0, t)
			if math.Abs(a.value) < 0.001 {
				ended = true
			}
		}
		if ended {
			a.phase = phaseNone
			a.phasePos = 0
			a.value = 0
			a.forced = false
		} else {
			a.phasePos++
		}
	default:
		a.value = 0
	}
}
