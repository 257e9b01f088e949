package audio

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
)

// ----- OSC Params ----- //

type oscParams struct {
	kind   int
	octave int     // -2 ~ 2
	coarse int     // -12 ~ 12
	fine   int     // -100 ~ 100 cent
	unison int     // 1 ~ 3 oscillators per note
	detune float64 // cent spread between unison partners
}
type oscParamsJSON struct {
	Kind   string  `json:"kind"`
	Octave int     `json:"octave"`
	Coarse int     `json:"coarse"`
	Fine   int     `json:"fine"`
	Unison int     `json:"unison"`
	Detune float64 `json:"detune"`
}

func newOscParams() *oscParams {
	return &oscParams{kind: waveSine, unison: 1, detune: 10}
}

func (o *oscParams) applyJSON(data json.RawMessage) {
	var j oscParamsJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to oscParams")
		return
	}
	o.kind = waveKindFromString(j.Kind)
	o.octave = int(clamp(float64(j.Octave), -2, 2))
	o.coarse = int(clamp(float64(j.Coarse), -12, 12))
	o.fine = int(clamp(float64(j.Fine), -100, 100))
	o.unison = int(clamp(float64(j.Unison), 1, 3))
	o.detune = clamp(j.Detune, 0, 100)
}
func (o *oscParams) toJSON() json.RawMessage {
	return toRawMessage(&oscParamsJSON{
		Kind:   waveKindToString(o.kind),
		Octave: o.octave,
		Coarse: o.coarse,
		Fine:   o.fine,
		Unison: o.unison,
		Detune: o.detune,
	})
}
func (o *oscParams) set(key string, value string) error {
	switch key {
	case "kind":
		o.kind = waveKindFromString(value)
	case "detune":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		o.detune = clamp(v, 0, 100)
	case "octave", "coarse", "fine", "unison":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		switch key {
		case "octave":
			o.octave = int(clamp(float64(v), -2, 2))
		case "coarse":
			o.coarse = int(clamp(float64(v), -12, 12))
		case "fine":
			o.fine = int(clamp(float64(v), -100, 100))
		case "unison":
			o.unison = int(clamp(float64(v), 1, 3))
		}
	}
	return nil
}

func (o *oscParams) detunedFreq(freq float64, index int) float64 {
	freq *= math.Pow(2, float64(o.octave)+float64(o.coarse)/12+float64(o.fine)/100/12)
	if o.unison <= 1 || index == 0 {
		return freq
	}
	// partners sit at +/- detune cents around the primary
	cents := o.detune
	if index == 2 {
		cents = -cents
	}
	return freq * math.Pow(2, cents/1200)
}

// ----- Noise Params ----- //

type noiseParams struct {
	mix float64 // 0-1
}
type noiseJSON struct {
	Mix float64 `json:"mix"`
}

func (n *noiseParams) applyJSON(data json.RawMessage) {
	var j noiseJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to noiseParams")
		return
	}
	n.mix = clamp(j.Mix, 0, 1)
}
func (n *noiseParams) toJSON() json.RawMessage {
	return toRawMessage(&noiseJSON{Mix: n.mix})
}
func (n *noiseParams) set(key string, value string) error {
	switch key {
	case "mix":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		n.mix = clamp(v, 0, 1)
	}
	return nil
}

// ----- Filter Envelope Params ----- //

type filterEnvParams struct {
	adsr   adsrParams
	amount float64 // -4 ~ 4 octaves of cutoff movement
}
type filterEnvJSON struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
	Amount  float64 `json:"amount"`
}

func newFilterEnvParams() *filterEnvParams {
	return &filterEnvParams{
		adsr:   adsrParams{attack: 0, decay: 200, sustain: 1, release: 200},
		amount: 0,
	}
}

func (f *filterEnvParams) applyJSON(data json.RawMessage) {
	var j filterEnvJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to filterEnvParams")
		return
	}
	f.adsr.attack = clamp(j.Attack, 0, 10000)
	f.adsr.decay = clamp(j.Decay, 0, 10000)
	f.adsr.sustain = clamp(j.Sustain, 0, 1)
	f.adsr.release = clamp(j.Release, 0, 10000)
	f.amount = clamp(j.Amount, -4, 4)
}
func (f *filterEnvParams) toJSON() json.RawMessage {
	return toRawMessage(&filterEnvJSON{
		Attack:  f.adsr.attack,
		Decay:   f.adsr.decay,
		Sustain: f.adsr.sustain,
		Release: f.adsr.release,
		Amount:  f.amount,
	})
}
func (f *filterEnvParams) set(key string, value string) error {
	if key == "amount" {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.amount = clamp(v, -4, 4)
		return nil
	}
	return f.adsr.set(key, value)
}

// ----- Drive Params ----- //

type driveParams struct {
	enabled bool
	amount  float64 // 0-1
}
type driveJSON struct {
	Enabled bool    `json:"enabled"`
	Amount  float64 `json:"amount"`
}

func (d *driveParams) applyJSON(data json.RawMessage) {
	var j driveJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to driveParams")
		return
	}
	d.enabled = j.Enabled
	d.amount = clamp(j.Amount, 0, 1)
}
func (d *driveParams) toJSON() json.RawMessage {
	return toRawMessage(&driveJSON{Enabled: d.enabled, Amount: d.amount})
}
func (d *driveParams) set(key string, value string) error {
	switch key {
	case "enabled":
		d.enabled = value == "true"
	case "amount":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		d.amount = clamp(v, 0, 1)
	}
	return nil
}

// ----- Voice ----- //

// voice is one sounding note: oscillators (primary plus up to two unison
// partners), optional noise, optional drive, a filter gated by its own
// envelope, and an amplitude envelope. The LFO routing is resolved here at
// construction; later target changes do not touch a running voice.
type voice struct {
	key             string
	freq            float64
	gain            float64
	oscs            []*osc
	noise           *osc
	noiseMix        float64
	driveOn         bool
	driveAmount     float64
	filter          *filter
	filterEnv       *adsr
	filterEnvAmount float64
	ampEnv          *adsr
	lfoTarget       int
	startSample     int64
	sounding        bool
}

func newVoice() *voice {
	return &voice{
		oscs:      make([]*osc, 0, 3),
		filter:    &filter{},
		filterEnv: &adsr{},
		ampEnv:    &adsr{},
	}
}

// init builds a fresh signal chain for a note-on. Global parameters are
// read once here; continuous values keep following the params via
// applyParams without a rebuild.
func (v *voice) init(p *params, lfoTarget int, freq float64, key string, velocity float64, at int64) {
	v.key = key
	v.freq = freq
	v.gain = velocityToGain(velocity, p.velSense)
	v.oscs = v.oscs[:0]
	for i := 0; i < p.osc.unison; i++ {
		v.oscs = append(v.oscs, newOsc(p.osc.kind, p.osc.detunedFreq(freq, i)))
	}
	if p.noise.mix > 0 {
		v.noise = newOsc(waveNoise, 0)
	} else {
		v.noise = nil
	}
	v.noiseMix = p.noise.mix
	v.driveOn = p.drive.enabled
	v.driveAmount = p.drive.amount
	v.filter.applyParams(p.filter)
	v.filter.past[0] = 0
	v.filter.past[1] = 0
	// noteOn before setParams so a slot stolen mid-forced-release drops
	// the forced time and picks up the configured one
	v.ampEnv.noteOn()
	v.filterEnv.noteOn()
	v.filterEnv.setParams(&p.filterEnv.adsr)
	v.filterEnvAmount = p.filterEnv.amount
	v.ampEnv.setParams(p.adsr)
	v.lfoTarget = lfoTarget
	v.startSample = at
	v.sounding = true
}

// applyParams pushes live continuous values (wave kind, cutoff, resonance,
// envelope times) into the running chain without rebuilding it.
func (v *voice) applyParams(p *params) {
	for i, o := range v.oscs {
		o.kind = p.osc.kind
		o.freq = p.osc.detunedFreq(v.freq, i)
	}
	v.noiseMix = p.noise.mix
	v.driveOn = p.drive.enabled
	v.driveAmount = p.drive.amount
	v.filter.applyParams(p.filter)
	v.filterEnvAmount = p.filterEnv.amount
	v.filterEnv.setParams(&p.filterEnv.adsr)
	v.ampEnv.setParams(p.adsr)
}

func (v *voice) noteOff() {
	v.ampEnv.noteOff()
	v.filterEnv.noteOff()
}

func (v *voice) retrigger(at int64) {
	v.startSample = at
	v.ampEnv.noteOn()
	v.filterEnv.noteOn()
}

func (v *voice) idle() bool {
	return v.ampEnv.idle() && v.filterEnv.idle()
}

func (v *voice) step(l *lfo) float64 {
	v.ampEnv.step()
	v.filterEnv.step()
	freqRatio := 1.0
	ampRatio := 1.0
	cutoffRatio := 1.0
	switch v.lfoTarget {
	case lfoTargetPitch:
		freqRatio = l.freqRatio()
	case lfoTargetAmp:
		ampRatio = l.ampRatio()
	case lfoTargetCutoff:
		cutoffRatio = l.cutoffRatio()
	}
	value := 0.0
	for _, o := range v.oscs {
		value += o.step(freqRatio, 0)
	}
	value /= float64(len(v.oscs))
	if v.noise != nil {
		value = value*(1-v.noiseMix) + v.noise.step(1, 0)*v.noiseMix
	}
	if v.driveOn {
		drive := 1 + v.driveAmount*9
		value = math.Tanh(value*drive) / math.Tanh(drive)
	}
	cutoffRatio *= math.Pow(2.0, v.filterEnv.value*v.filterEnvAmount)
	value = v.filter.step(value, cutoffRatio)
	return value * oscGain * v.gain * ampRatio * v.ampEnv.value
}

func velocityToGain(velocity float64, sense float64) float64 {
	velocity = clamp(velocity, 0, 1)
	return 1 - sense*(1-velocity)
}
