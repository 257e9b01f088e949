package audio

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
)

// ----- Chorus Params ----- //

type chorusParams struct {
	enabled bool
	rate    float64 // Hz
	depth   float64 // ms of delay sweep
	mix     float64 // 0-1
}
type chorusJSON struct {
	Enabled bool    `json:"enabled"`
	Rate    float64 `json:"rate"`
	Depth   float64 `json:"depth"`
	Mix     float64 `json:"mix"`
}

func newChorusParams() *chorusParams {
	return &chorusParams{rate: 0.8, depth: 4, mix: 0.5}
}

func (c *chorusParams) applyJSON(data json.RawMessage) {
	var j chorusJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to chorusParams")
		return
	}
	c.enabled = j.Enabled
	c.rate = clamp(j.Rate, 0.05, 10)
	c.depth = clamp(j.Depth, 0, 10)
	c.mix = clamp(j.Mix, 0, 1)
}
func (c *chorusParams) toJSON() json.RawMessage {
	return toRawMessage(&chorusJSON{
		Enabled: c.enabled,
		Rate:    c.rate,
		Depth:   c.depth,
		Mix:     c.mix,
	})
}
func (c *chorusParams) set(key string, value string) error {
	if key == "enabled" {
		c.enabled = value == "true"
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	switch key {
	case "rate":
		c.rate = clamp(v, 0.05, 10)
	case "depth":
		c.depth = clamp(v, 0, 10)
	case "mix":
		c.mix = clamp(v, 0, 1)
	}
	return nil
}

// ----- Chorus ----- //

const chorusBaseDelayMs = 20.0
const chorusMaxDelayMs = 35.0

// chorus is a delay line whose read position sweeps around a base delay,
// driven by its own internal low-frequency phase.
type chorus struct {
	bypass bypass
	rate   float64
	depth  float64
	mix    float64
	past   []float64
	cursor int
	phase  float64
}

func newChorus() *chorus {
	return &chorus{
		past: make([]float64, int(sampleRate*chorusMaxDelayMs/1000)+1),
	}
}

func (c *chorus) applyParams(p *chorusParams) {
	c.bypass.set(p.enabled)
	c.rate = p.rate
	c.depth = p.depth
	c.mix = p.mix
}

func (c *chorus) step(in float64) float64 {
	if !c.bypass.enabled() {
		return in * c.bypass.dry
	}
	c.past[c.cursor] = in
	delayMs := chorusBaseDelayMs + math.Sin(c.phase)*c.depth
	c.phase += 2.0 * math.Pi * c.rate / sampleRate
	if c.phase > 2.0*math.Pi {
		c.phase -= 2.0 * math.Pi
	}
	delaySamples := delayMs / 1000 * sampleRate
	readPos := float64(c.cursor) - delaySamples
	for readPos < 0 {
		readPos += float64(len(c.past))
	}
	i := int(readPos)
	frac := readPos - float64(i)
	next := i + 1
	if next >= len(c.past) {
		next = 0
	}
	delayed := c.past[i]*(1-frac) + c.past[next]*frac
	c.cursor++
	if c.cursor >= len(c.past) {
		c.cursor = 0
	}
	wet := in + delayed*c.mix
	return in*c.bypass.dry + wet*c.bypass.wet
}
