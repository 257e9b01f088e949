package audio

import (
	"math"
	"testing"
)

func stepN(a *adsr, n int) {
	for i := 0; i < n; i++ {
		a.step()
	}
}

func TestAdsrPhases(t *testing.T) {
	a := &adsr{}
	a.setParams(&adsrParams{attack: 1, decay: 1, sustain: 0.5, release: 1})
	if !a.idle() {
		t.Errorf("expected idle before note on")
	}
	a.noteOn()
	if a.phase != phaseAttack {
		t.Errorf("expected attack phase, got %v", a.phase)
	}
	stepN(a, sampleRate/100) // 10ms, far beyond attack+decay
	if a.phase != phaseSustain {
		t.Errorf("expected sustain phase, got %v", a.phase)
	}
	if math.Abs(a.value-0.5) > 0.01 {
		t.Errorf("expected sustain level 0.5, got %v", a.value)
	}
	a.noteOff()
	stepN(a, sampleRate/100)
	if !a.idle() {
		t.Errorf("expected idle after release, phase=%v value=%v", a.phase, a.value)
	}
	if a.value != 0 {
		t.Errorf("expected value 0 after release, got %v", a.value)
	}
}

func TestAdsrEarlyReleaseStartsFromCurrentValue(t *testing.T) {
	a := &adsr{}
	a.setParams(&adsrParams{attack: 1000, decay: 100, sustain: 0.7, release: 100})
	a.noteOn()
	stepN(a, sampleRate/10) // 100ms into a 1000ms attack
	mid := a.value
	if mid <= 0.05 || mid >= 0.2 {
		t.Fatalf("expected value mid-attack around 0.1, got %v", mid)
	}
	a.noteOff()
	a.step()
	// release ramps down from the in-progress value, it does not jump to
	// the sustain level first
	if a.value > mid {
		t.Errorf("expected release to descend from %v, got %v", mid, a.value)
	}
	if mid-a.value > 0.01 {
		t.Errorf("expected no discontinuity at note off, jumped from %v to %v", mid, a.value)
	}
	prev := a.value
	for i := 0; i < sampleRate/10; i++ {
		a.step()
		if a.value > prev+1e-12 {
			t.Fatalf("release is not monotonic at step %v: %v -> %v", i, prev, a.value)
		}
		prev = a.value
	}
}

func TestAdsrRetriggerMidReleaseStartsFromCurrentValue(t *testing.T) {
	a := &adsr{}
	a.setParams(&adsrParams{attack: 100, decay: 10, sustain: 0.8, release: 1000})
	a.noteOn()
	stepN(a, sampleRate/2)
	a.noteOff()
	stepN(a, sampleRate/100) // partway into the release
	mid := a.value
	if mid <= 0 {
		t.Fatalf("expected value mid-release, got %v", mid)
	}
	a.noteOn()
	a.step()
	if a.value < mid-0.01 {
		t.Errorf("expected retriggered attack to continue from %v, got %v", mid, a.value)
	}
}

func TestAdsrForcedReleaseSurvivesSetParams(t *testing.T) {
	p := &adsrParams{attack: 0, decay: 0, sustain: 1, release: 10000}
	a := &adsr{}
	a.setParams(p)
	a.noteOn()
	stepN(a, 100)
	a.forceRelease(10)
	// live parameter pushes keep arriving during the forced release
	a.setParams(p)
	if a.release != 10 {
		t.Fatalf("expected the forced release time to stick, got %v", a.release)
	}
	stepN(a, sampleRate/10)
	if !a.idle() {
		t.Errorf("expected idle after forced release, phase=%v value=%v", a.phase, a.value)
	}
	// a fresh note goes back to the configured release
	a.noteOn()
	a.setParams(p)
	if a.release != 10000 {
		t.Errorf("expected the configured release to return, got %v", a.release)
	}
}

func TestAdsrForceReleaseOverridesReleaseTime(t *testing.T) {
	a := &adsr{}
	a.setParams(&adsrParams{attack: 0, decay: 0, sustain: 1, release: 5000})
	a.noteOn()
	stepN(a, 100)
	a.forceRelease(10)
	stepN(a, sampleRate/10) // 100ms, plenty for a 10ms release
	if !a.idle() {
		t.Errorf("expected idle after forced release, phase=%v value=%v", a.phase, a.value)
	}
}
