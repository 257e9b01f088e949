package audio

import "errors"

// ----- Recorder ----- //

const (
	recIdle = iota
	recLeadIn
	recRecording
)

// force-closed notes and zero-length releases get at least a sixteenth
const minNoteDurationBeats = 1.0 / 4.0

var errEmptyCapture = errors.New("recording produced no audio")

// recorder captures note events and live audio, gated by a lead-in count.
// State machine: idle -> lead-in -> recording -> idle. Transitions run on
// the same sample clock the transport advances on, so the lead-in expires
// at an exact beat regardless of host timer jitter. Note events arriving
// before the lead-in expires are dropped.
type recorder struct {
	state       int
	leadInBeats float64
	leadInStart float64 // totalBeat when record() was called
	recordStart float64 // totalBeat when recording actually began
	clipStart   float64 // wrapped loop position at recording start
	notes       []*RecordedNote
	capture     []float64
}

func newRecorder(leadInBeats float64) *recorder {
	return &recorder{
		leadInBeats: leadInBeats,
		capture:     make([]float64, 0, sampleRate*4),
	}
}

func (r *recorder) recording() bool {
	return r.state == recRecording
}

// record starts the lead-in. The caller is responsible for starting the
// transport if it is stopped.
func (r *recorder) record(totalBeat float64) {
	if r.state != recIdle {
		return
	}
	r.state = recLeadIn
	r.leadInStart = totalBeat
}

// advance runs the lead-in timer; it returns true on the call that flips
// the recorder into the recording state.
func (r *recorder) advance(totalBeat float64, posBeat float64) bool {
	if r.state != recLeadIn || totalBeat < r.leadInStart+r.leadInBeats {
		return false
	}
	r.state = recRecording
	r.recordStart = totalBeat
	r.clipStart = posBeat
	r.notes = r.notes[:0]
	r.capture = r.capture[:0]
	return true
}

func (r *recorder) captureSample(v float64) {
	r.capture = append(r.capture, v)
}

// noteOn appends an open note. The duration stays a placeholder until the
// matching noteOff back-patches it.
func (r *recorder) noteOn(freq float64, key string, velocity float64, totalBeat float64) {
	if r.state != recRecording {
		return
	}
	r.notes = append(r.notes, &RecordedNote{
		Frequency: freq,
		NoteKey:   key,
		Start:     totalBeat - r.recordStart,
		Velocity:  velocity,
		open:      true,
	})
}

// noteOff closes the innermost open note for key: scanning from the end
// pairs rapid re-presses of the same key with the right note-on.
func (r *recorder) noteOff(key string, totalBeat float64) {
	if r.state != recRecording {
		return
	}
	for i := len(r.notes) - 1; i >= 0; i-- {
		n := r.notes[i]
		if n.open && n.NoteKey == key {
			d := totalBeat - r.recordStart - n.Start
			if d < minNoteDurationBeats {
				d = minNoteDurationBeats
			}
			n.Duration = d
			n.open = false
			return
		}
	}
}

// stop finalizes the take. Still-open notes are force-closed with a finite
// duration. An empty audio capture is reported as an error alongside the
// clip; live synthesis is unaffected either way.
func (r *recorder) stop(totalBeat float64) (*Clip, []float64, error) {
	if r.state == recLeadIn {
		r.state = recIdle
		return nil, nil, nil
	}
	if r.state != recRecording {
		return nil, nil, nil
	}
	r.state = recIdle
	end := totalBeat - r.recordStart
	for _, n := range r.notes {
		if n.open {
			d := end - n.Start
			if d < minNoteDurationBeats {
				d = minNoteDurationBeats
			}
			n.Duration = d
			n.open = false
		}
	}
	clip := newClip(r.clipStart)
	clip.Length = end
	clip.Notes = append(clip.Notes, r.notes...)
	capture := make([]float64, len(r.capture))
	copy(capture, r.capture)
	if len(capture) == 0 {
		return clip, nil, errEmptyCapture
	}
	return clip, capture, nil
}
