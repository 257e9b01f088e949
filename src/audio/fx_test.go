package audio

import (
	"math"
	"testing"
)

func TestBypassIsHardSwitch(t *testing.T) {
	b := bypass{}
	b.set(false)
	if b.wet != 0 || b.dry != 1 {
		t.Errorf("expected wet=0 dry=1 when disabled, got wet=%v dry=%v", b.wet, b.dry)
	}
	b.set(true)
	if b.wet != 1 || b.dry != 0 {
		t.Errorf("expected wet=1 dry=0 when enabled, got wet=%v dry=%v", b.wet, b.dry)
	}
}

func TestDisabledEffectsPassInputThrough(t *testing.T) {
	p := newParams()
	p.saturator.amount = 0.9
	p.echo.mix = 1
	p.reverb.mix = 1
	p.chorus.mix = 1
	chain := newEffectChain()
	chain.applyParams(p)
	for i := 0; i < 100; i++ {
		in := math.Sin(float64(i) * 0.1)
		if out := chain.step(in); out != in {
			t.Fatalf("expected bit-exact passthrough with everything bypassed, got %v for %v", out, in)
		}
	}
}

func TestSaturatorBypass(t *testing.T) {
	p := &saturatorParams{enabled: false, amount: 1}
	s := &saturator{}
	s.applyParams(p)
	if out := s.step(0.9); out != 0.9 {
		t.Errorf("expected passthrough, got %v", out)
	}
	p.enabled = true
	s.applyParams(p)
	out := s.step(0.9)
	if out == 0.9 {
		t.Errorf("expected the enabled saturator to shape the signal")
	}
	if math.Abs(out) > 1 {
		t.Errorf("expected bounded output, got %v", out)
	}
}

func TestCompressorReducesLevelAboveThreshold(t *testing.T) {
	p := newCompressorParams()
	p.enabled = true
	p.thresholdDB = -30
	p.ratio = 10
	c := &compressor{}
	c.applyParams(p)
	// steady tone well above threshold
	var peak float64
	for i := 0; i < sampleRate; i++ {
		in := 0.8 * math.Sin(2*math.Pi*440*float64(i)/sampleRate)
		out := c.step(in)
		if i > sampleRate/2 {
			peak = math.Max(peak, math.Abs(out))
		}
	}
	if peak >= 0.8 {
		t.Errorf("expected gain reduction, peak %v", peak)
	}
	if peak < 0.01 {
		t.Errorf("expected the signal to survive, peak %v", peak)
	}
}

func TestEchoRepeats(t *testing.T) {
	p := newEchoParams()
	p.enabled = true
	p.delay = 100
	p.mix = 1
	p.feedbackGain = 0
	e := newEcho()
	e.applyParams(p)
	// an impulse comes back after the delay time
	e.step(1)
	delaySamples := int(sampleRate * 100 / 1000)
	var echoAt int
	for i := 1; i < delaySamples*2; i++ {
		if out := e.step(0); out != 0 && echoAt == 0 {
			echoAt = i
		}
	}
	if echoAt == 0 {
		t.Fatalf("expected an echo")
	}
	if diff := echoAt - (delaySamples - 1); diff < -1 || diff > 1 {
		t.Errorf("expected the echo after %v samples, got %v", delaySamples, echoAt)
	}
}

func TestMasterGainIsSmoothed(t *testing.T) {
	p := newParams()
	chain := newEffectChain()
	chain.applyParams(p)
	p.masterGain = 0.2
	chain.applyParams(p)
	prev := chain.step(1)
	reached := false
	for i := 0; i < sampleRate; i++ {
		out := chain.step(1)
		if math.Abs(out-prev) > 0.01 {
			t.Fatalf("expected a smooth gain ramp, jumped from %v to %v", prev, out)
		}
		prev = out
		if math.Abs(out-0.2) < 0.001 {
			reached = true
			break
		}
	}
	if !reached {
		t.Errorf("expected the gain to settle at 0.2, got %v", prev)
	}
}

func TestReverbTail(t *testing.T) {
	p := newReverbParams()
	p.enabled = true
	p.mix = 1
	r := newReverb()
	r.applyParams(p)
	r.step(1)
	tail := false
	for i := 0; i < sampleRate; i++ {
		if math.Abs(r.step(0)) > 0.001 {
			tail = true
			break
		}
	}
	if !tail {
		t.Errorf("expected a reverb tail after an impulse")
	}
}
