package audio

import (
	"encoding/json"
	"log"
	"strconv"
)

// ----- Delay ----- //

type delay struct {
	cursor int
	past   []float64
}

func (d *delay) applyParams(millis float64) {
	if millis < 10 {
		millis = 10
	}
	length := int(sampleRate * millis / 1000)
	if cap(d.past) >= length {
		d.past = d.past[0:length]
	} else {
		d.past = make([]float64, length)
	}
	if d.cursor >= len(d.past) {
		d.cursor = 0
	}
}

func (d *delay) step(in float64) {
	d.past[d.cursor] = in
	d.cursor++
	if d.cursor >= len(d.past) {
		d.cursor = 0
	}
}
func (d *delay) getDelayed() float64 {
	return d.past[d.cursor]
}

// ----- Echo Params ----- //

type echoParams struct {
	enabled      bool
	delay        float64 // ms
	feedbackGain float64 // [0,1)
	mix          float64 // [0,1]
}

type echoJSON struct {
	Enabled      bool    `json:"enabled"`
	Delay        float64 `json:"delay"`
	FeedbackGain float64 `json:"feedbackGain"`
	Mix          float64 `json:"mix"`
}

func newEchoParams() *echoParams {
	return &echoParams{delay: 300, feedbackGain: 0.3, mix: 0.3}
}

func (l *echoParams) applyJSON(data json.RawMessage) {
	var j echoJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to echoParams")
		return
	}
	l.enabled = j.Enabled
	l.delay = clamp(j.Delay, 10, 2000)
	l.feedbackGain = clamp(j.FeedbackGain, 0, 0.99)
	l.mix = clamp(j.Mix, 0, 1)
}
func (l *echoParams) toJSON() json.RawMessage {
	return toRawMessage(&echoJSON{
		Enabled:      l.enabled,
		Delay:        l.delay,
		FeedbackGain: l.feedbackGain,
		Mix:          l.mix,
	})
}
func (l *echoParams) set(key string, value string) error {
	if key == "enabled" {
		l.enabled = value == "true"
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	switch key {
	case "delay":
		l.delay = clamp(v, 10, 2000)
	case "feedbackGain":
		l.feedbackGain = clamp(v, 0, 0.99)
	case "mix":
		l.mix = clamp(v, 0, 1)
	}
	return nil
}

// ----- Echo ----- //

type echo struct {
	bypass       bypass
	delay        *delay
	feedbackGain float64
	mix          float64
}

func newEcho() *echo {
	e := &echo{delay: &delay{}}
	e.delay.applyParams(300)
	return e
}

func (e *echo) applyParams(p *echoParams) {
	e.bypass.set(p.enabled)
	e.delay.applyParams(p.delay)
	e.feedbackGain = p.feedbackGain
	e.mix = p.mix
}

func (e *echo) step(in float64) float64 {
	if !e.bypass.enabled() {
		return in * e.bypass.dry
	}
	delayed := e.delay.getDelayed()
	e.delay.step(in + delayed*e.feedbackGain)
	wet := in + delayed*e.mix
	return in*e.bypass.dry + wet*e.bypass.wet
}
