package audio

import (
	"encoding/json"
	"log"
	"strconv"
)

// ----- Params ----- //

// params is the full set of UI-controllable values. Individual groups keep
// the applyJSON/toJSON/set triple so presets, state sync and single-knob
// commands all go through the same code.
type params struct {
	osc        *oscParams
	noise      *noiseParams
	adsr       *adsrParams
	filter     *filterParams
	filterEnv  *filterEnvParams
	drive      *driveParams
	lfo        *lfoParams
	saturator  *saturatorParams
	compressor *compressorParams
	chorus     *chorusParams
	echo       *echoParams
	reverb     *reverbParams
	masterGain float64
	velSense   float64 // 0-1
	retrigger  bool    // retrigger envelopes on duplicate note-on
}

func newParams() *params {
	return &params{
		osc:        newOscParams(),
		noise:      &noiseParams{},
		adsr:       &adsrParams{attack: 10, decay: 100, sustain: 0.7, release: 200},
		filter:     &filterParams{kind: filterNone, freq: 1000, q: 1},
		filterEnv:  newFilterEnvParams(),
		drive:      &driveParams{},
		lfo:        newLfoParams(),
		saturator:  &saturatorParams{},
		compressor: newCompressorParams(),
		chorus:     newChorusParams(),
		echo:       newEchoParams(),
		reverb:     newReverbParams(),
		masterGain: 1.0,
		velSense:   0,
		retrigger:  false,
	}
}

type paramsJSON struct {
	Osc        json.RawMessage `json:"osc"`
	Noise      json.RawMessage `json:"noise"`
	Adsr       json.RawMessage `json:"adsr"`
	Filter     json.RawMessage `json:"filter"`
	FilterEnv  json.RawMessage `json:"filterEnv"`
	Drive      json.RawMessage `json:"drive"`
	Lfo        json.RawMessage `json:"lfo"`
	Saturator  json.RawMessage `json:"saturator"`
	Compressor json.RawMessage `json:"compressor"`
	Chorus     json.RawMessage `json:"chorus"`
	Echo       json.RawMessage `json:"echo"`
	Reverb     json.RawMessage `json:"reverb"`
	MasterGain float64         `json:"masterGain"`
	VelSense   float64         `json:"velSense"`
	Retrigger  bool            `json:"retrigger"`
}

func (p *params) applyJSON(data json.RawMessage) {
	var j paramsJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to params")
		return
	}
	p.osc.applyJSON(j.Osc)
	p.noise.applyJSON(j.Noise)
	p.adsr.applyJSON(j.Adsr)
	p.filter.applyJSON(j.Filter)
	p.filterEnv.applyJSON(j.FilterEnv)
	p.drive.applyJSON(j.Drive)
	p.lfo.applyJSON(j.Lfo)
	p.saturator.applyJSON(j.Saturator)
	p.compressor.applyJSON(j.Compressor)
	p.chorus.applyJSON(j.Chorus)
	p.echo.applyJSON(j.Echo)
	p.reverb.applyJSON(j.Reverb)
	p.masterGain = clamp(j.MasterGain, 0, 2)
	p.velSense = clamp(j.VelSense, 0, 1)
	p.retrigger = j.Retrigger
}

func (p *params) toJSON() json.RawMessage {
	return toRawMessage(&paramsJSON{
		Osc:        p.osc.toJSON(),
		Noise:      p.noise.toJSON(),
		Adsr:       p.adsr.toJSON(),
		Filter:     p.filter.toJSON(),
		FilterEnv:  p.filterEnv.toJSON(),
		Drive:      p.drive.toJSON(),
		Lfo:        p.lfo.toJSON(),
		Saturator:  p.saturator.toJSON(),
		Compressor: p.compressor.toJSON(),
		Chorus:     p.chorus.toJSON(),
		Echo:       p.echo.toJSON(),
		Reverb:     p.reverb.toJSON(),
		MasterGain: p.masterGain,
		VelSense:   p.velSense,
		Retrigger:  p.retrigger,
	})
}

// set routes a "set <group> <key> <value>" command to the right group.
func (p *params) set(group string, key string, value string) error {
	switch group {
	case "osc":
		return p.osc.set(key, value)
	case "noise":
		return p.noise.set(key, value)
	case "adsr":
		return p.adsr.set(key, value)
	case "filter":
		return p.filter.set(key, value)
	case "filter_env":
		return p.filterEnv.set(key, value)
	case "drive":
		return p.drive.set(key, value)
	case "lfo":
		return p.lfo.set(key, value)
	case "saturator":
		return p.saturator.set(key, value)
	case "compressor":
		return p.compressor.set(key, value)
	case "chorus":
		return p.chorus.set(key, value)
	case "echo":
		return p.echo.set(key, value)
	case "reverb":
		return p.reverb.set(key, value)
	case "main":
		switch key {
		case "masterGain":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return err
			}
			p.masterGain = clamp(v, 0, 2)
		case "velSense":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return err
			}
			p.velSense = clamp(v, 0, 1)
		case "retrigger":
			p.retrigger = value == "true"
		}
	}
	return nil
}
