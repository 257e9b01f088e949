package audio

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
)

// ----- True Bypass ----- //

// bypass is a dry/wet gain pair switched hard: disabling an effect sets the
// processing-path gain to zero and the bypass-path gain to one, which fully
// excludes the unit from the signal path. The switch is glitch-free for
// silence but not click-free mid-signal.
type bypass struct {
	wet float64
	dry float64
}

func (b *bypass) set(enabled bool) {
	if enabled {
		b.wet = 1
		b.dry = 0
	} else {
		b.wet = 0
		b.dry = 1
	}
}

func (b *bypass) enabled() bool {
	return b.wet != 0
}

// ----- Saturator ----- //

type saturatorParams struct {
	enabled bool
	amount  float64 // 0-1
}
type saturatorJSON struct {
	Enabled bool    `json:"enabled"`
	Amount  float64 `json:"amount"`
}

func (s *saturatorParams) applyJSON(data json.RawMessage) {
	var j saturatorJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to saturatorParams")
		return
	}
	s.enabled = j.Enabled
	s.amount = clamp(j.Amount, 0, 1)
}
func (s *saturatorParams) toJSON() json.RawMessage {
	return toRawMessage(&saturatorJSON{Enabled: s.enabled, Amount: s.amount})
}
func (s *saturatorParams) set(key string, value string) error {
	switch key {
	case "enabled":
		s.enabled = value == "true"
	case "amount":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		s.amount = clamp(v, 0, 1)
	}
	return nil
}

type saturator struct {
	bypass bypass
	amount float64
}

func (s *saturator) applyParams(p *saturatorParams) {
	s.bypass.set(p.enabled)
	s.amount = p.amount
}

func (s *saturator) step(in float64) float64 {
	if !s.bypass.enabled() {
		return in * s.bypass.dry
	}
	drive := 1 + s.amount*19
	wet := math.Tanh(in*drive) / math.Tanh(drive)
	return in*s.bypass.dry + wet*s.bypass.wet
}

// ----- Compressor ----- //

type compressorParams struct {
	enabled     bool
	thresholdDB float64 // -60 ~ 0
	ratio       float64 // 1 ~ 20
	attack      float64 // ms
	release     float64 // ms
	makeupDB    float64 // 0 ~ 24
}
type compressorJSON struct {
	Enabled     bool    `json:"enabled"`
	ThresholdDB float64 `json:"thresholdDB"`
	Ratio       float64 `json:"ratio"`
	Attack      float64 `json:"attack"`
	Release     float64 `json:"release"`
	MakeupDB    float64 `json:"makeupDB"`
}

func newCompressorParams() *compressorParams {
	return &compressorParams{
		thresholdDB: -18,
		ratio:       4,
		attack:      5,
		release:     100,
	}
}

func (c *compressorParams) applyJSON(data json.RawMessage) {
	var j compressorJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to compressorParams")
		return
	}
	c.enabled = j.Enabled
	c.thresholdDB = clamp(j.ThresholdDB, -60, 0)
	c.ratio = clamp(j.Ratio, 1, 20)
	c.attack = clamp(j.Attack, 0.1, 500)
	c.release = clamp(j.Release, 1, 5000)
	c.makeupDB = clamp(j.MakeupDB, 0, 24)
}
func (c *compressorParams) toJSON() json.RawMessage {
	return toRawMessage(&compressorJSON{
		Enabled:     c.enabled,
		ThresholdDB: c.thresholdDB,
		Ratio:       c.ratio,
		Attack:      c.attack,
		Release:     c.release,
		MakeupDB:    c.makeupDB,
	})
}
func (c *compressorParams) set(key string, value string) error {
	if key == "enabled" {
		c.enabled = value == "true"
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	switch key {
	case "thresholdDB":
		c.thresholdDB = clamp(v, -60, 0)
	case "ratio":
		c.ratio = clamp(v, 1, 20)
	case "attack":
		c.attack = clamp(v, 0.1, 500)
	case "release":
		c.release = clamp(v, 1, 5000)
	case "makeupDB":
		c.makeupDB = clamp(v, 0, 24)
	}
	return nil
}

type compressor struct {
	bypass      bypass
	thresholdDB float64
	ratio       float64
	attackCoef  float64
	releaseCoef float64
	makeup      float64
	envDB       float64 // smoothed level detector, dB
}

func (c *compressor) applyParams(p *compressorParams) {
	c.bypass.set(p.enabled)
	c.thresholdDB = p.thresholdDB
	c.ratio = p.ratio
	c.attackCoef = math.Exp(-1.0 / (p.attack / 1000 * sampleRate))
	c.releaseCoef = math.Exp(-1.0 / (p.release / 1000 * sampleRate))
	c.makeup = math.Pow(10, p.makeupDB/20)
}

func (c *compressor) step(in float64) float64 {
	if !c.bypass.enabled() {
		return in * c.bypass.dry
	}
	levelDB := -96.0
	if abs := math.Abs(in); abs > 0.0000158 { // -96 dBFS
		levelDB = 20 * math.Log10(abs)
	}
	coef := c.attackCoef
	if levelDB < c.envDB {
		coef = c.releaseCoef
	}
	c.envDB = levelDB + coef*(c.envDB-levelDB)
	gainDB := 0.0
	if over := c.envDB - c.thresholdDB; over > 0 {
		gainDB = -over * (1 - 1/c.ratio)
	}
	wet := in * math.Pow(10, gainDB/20) * c.makeup
	return in*c.bypass.dry + wet*c.bypass.wet
}

// ----- Effect Chain ----- //

// effectChain is the master bus: drive, dynamics, modulation delay, echo
// and reverb in fixed order, each behind its own true-bypass pair, then a
// smoothed master gain.
type effectChain struct {
	saturator  *saturator
	compressor *compressor
	chorus     *chorus
	echo       *echo
	reverb     *reverb
	master     *transitiveValue
}

func newEffectChain() *effectChain {
	return &effectChain{
		saturator:  &saturator{},
		compressor: &compressor{},
		chorus:     newChorus(),
		echo:       newEcho(),
		reverb:     newReverb(),
		master:     newTransitiveValue(1.0),
	}
}

func (c *effectChain) applyParams(p *params) {
	c.saturator.applyParams(p.saturator)
	c.compressor.applyParams(p.compressor)
	c.chorus.applyParams(p.chorus)
	c.echo.applyParams(p.echo)
	c.reverb.applyParams(p.reverb)
	if c.master.targetValue != p.masterGain && c.master.value != p.masterGain {
		c.master.exponential(20, p.masterGain, 0.0001)
	}
}

func (c *effectChain) step(in float64) float64 {
	value := c.saturator.step(in)
	value = c.compressor.step(value)
	value = c.chorus.step(value)
	value = c.echo.step(value)
	value = c.reverb.step(value)
	c.master.step()
	return value * c.master.value
}
