package audio

import "math"

// ----- Transport ----- //

// transport is the master clock. The beat position is always recomputed
// from an anchor (beat value plus the sample count at which it was set),
// never advanced incrementally, so long runs cannot accumulate drift.
// It has a single writer (the render loop and the command handler, both
// under the engine lock).
type transport struct {
	bpm         float64
	beatsPerBar int
	loopBars    int
	playing     bool
	recording   bool

	anchorPos    float64 // wrapped loop position at the anchor
	anchorTotal  float64 // monotonic beat count at the anchor
	anchorSample int64
	anchorPass   int

	posBeat   float64 // wrapped position, updated by advance
	totalBeat float64 // monotonic beat count, updated by advance
	prevTotal float64
	pass      int // loop pass counter, increments at each wraparound

	// per-advance flags, valid until the next advance call
	wrapped    bool
	beatTicked bool
}

func newTransport(bpm float64, beatsPerBar int, loopBars int) *transport {
	return &transport{
		bpm:         bpm,
		beatsPerBar: beatsPerBar,
		loopBars:    loopBars,
	}
}

func (t *transport) loopBeats() float64 {
	return float64(t.beatsPerBar * t.loopBars)
}

func (t *transport) secPerBeat() float64 {
	return 60.0 / t.bpm
}

func (t *transport) samplesPerBeat() float64 {
	return sampleRate * t.secPerBeat()
}

func (t *transport) beatsToSeconds(beats float64) float64 {
	return beats * t.secPerBeat()
}

func (t *transport) currentTime() float64 {
	return t.beatsToSeconds(t.posBeat)
}

func (t *transport) currentBar() int {
	return int(t.posBeat) / t.beatsPerBar
}

// advance moves the clock to samplePos. wrapped and beatTicked report
// whether this step crossed the loop boundary or an integer beat.
func (t *transport) advance(samplePos int64) {
	t.wrapped = false
	t.beatTicked = false
	if !t.playing {
		return
	}
	elapsed := float64(samplePos-t.anchorSample) / sampleRate * t.bpm / 60.0
	total := t.anchorTotal + elapsed
	raw := t.anchorPos + elapsed
	loopB := t.loopBeats()
	n := int(raw / loopB)
	t.posBeat = raw - float64(n)*loopB
	if newPass := t.anchorPass + n; newPass != t.pass {
		t.pass = newPass
		t.wrapped = true
	}
	if math.Floor(total) > math.Floor(t.prevTotal) {
		t.beatTicked = true
	}
	t.prevTotal = total
	t.totalBeat = total
}

// anchor re-bases the clock at the current position so that later changes
// (bpm, loop length) never retroactively move it.
func (t *transport) anchor(samplePos int64) {
	t.anchorPos = t.posBeat
	t.anchorTotal = t.totalBeat
	t.anchorSample = samplePos
	t.anchorPass = t.pass
}

func (t *transport) play(samplePos int64) {
	if t.playing {
		return
	}
	t.playing = true
	t.anchor(samplePos)
}

// stop halts advancement and resets the position to loop start.
func (t *transport) stop() {
	t.playing = false
	t.posBeat = 0
	t.anchorPos = 0
	t.anchorPass = t.pass
}

// seek repositions the clock, valid whether playing or stopped.
func (t *transport) seek(sec float64, samplePos int64) {
	beat := positiveMod(sec/t.secPerBeat(), t.loopBeats())
	t.posBeat = beat
	t.anchor(samplePos)
}

func (t *transport) setBpm(bpm float64, samplePos int64) {
	t.anchor(samplePos)
	t.bpm = clamp(bpm, 20, 999)
}

func (t *transport) setLoopBars(bars int, samplePos int64) {
	if bars < 1 {
		bars = 1
	}
	t.loopBars = bars
	t.posBeat = positiveMod(t.posBeat, t.loopBeats())
	t.anchor(samplePos)
}

// ----- Metronome ----- //

const metronomeClickMs = 25.0

type metronome struct {
	enabled   bool
	freq      float64
	phase     float64
	remaining int
}

func (m *metronome) trigger(accent bool) {
	if !m.enabled {
		return
	}
	m.freq = 1000
	if accent {
		m.freq = 1500
	}
	m.phase = 0
	m.remaining = int(sampleRate * metronomeClickMs / 1000)
}

func (m *metronome) step() float64 {
	if m.remaining <= 0 {
		return 0
	}
	total := sampleRate * metronomeClickMs / 1000
	env := float64(m.remaining) / total
	value := math.Sin(m.phase) * env * env * 0.2
	m.phase += 2.0 * math.Pi * m.freq / sampleRate
	m.remaining--
	return value
}
