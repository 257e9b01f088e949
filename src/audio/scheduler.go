package audio

// ----- Scheduler ----- //

// timedCommand is a note command pinned to an absolute sample position on
// the render clock.
type timedCommand struct {
	at       int64
	on       bool
	freq     float64
	key      string
	velocity float64
}

// scheduler reads a clip and turns its notes into absolute-timestamped
// note commands with bounded lookahead, so playback timing is independent
// of how often the host polls. Each note carries a per-pass marker; the
// marker comparison against the transport's pass counter is what clears
// the set exactly at loop wraparound, guaranteeing one firing per pass.
type scheduler struct {
	clip          *Clip
	lookaheadSec  float64
	scheduledPass []int
	pending       []timedCommand
}

func newScheduler(lookaheadSec float64) *scheduler {
	return &scheduler{lookaheadSec: lookaheadSec}
}

func (s *scheduler) setClip(c *Clip) {
	s.clip = c
	s.pending = s.pending[:0]
	if c == nil {
		s.scheduledPass = nil
		return
	}
	s.scheduledPass = make([]int, len(c.Notes))
	for i := range s.scheduledPass {
		s.scheduledPass[i] = -1
	}
}

// reset drops everything queued but keeps the clip.
func (s *scheduler) reset() {
	s.pending = s.pending[:0]
	for i := range s.scheduledPass {
		s.scheduledPass[i] = -1
	}
}

// poll scans for notes whose start falls within [now, now+lookahead) and
// have not been scheduled for the pass they belong to. Commands are
// timestamped at the note's absolute start, not at "now". A note whose
// window was missed entirely is left for the next pass rather than fired
// late.
func (s *scheduler) poll(t *transport, samplePos int64) {
	if s.clip == nil || !t.playing {
		return
	}
	loopB := t.loopBeats()
	lookBeats := s.lookaheadSec / t.secPerBeat()
	spb := t.samplesPerBeat()
	for i, n := range s.clip.Notes {
		noteBeat := positiveMod(s.clip.Start+n.Start, loopB)
		delta := noteBeat - t.posBeat
		pass := t.pass
		if delta < 0 {
			// next pass, across the wraparound
			delta += loopB
			pass++
		}
		if delta >= lookBeats {
			continue
		}
		if s.scheduledPass[i] == pass {
			continue
		}
		s.scheduledPass[i] = pass
		at := samplePos + int64(delta*spb)
		s.push(timedCommand{at: at, on: true, freq: n.Frequency, key: "clip:" + n.NoteKey, velocity: n.Velocity})
		s.push(timedCommand{at: at + int64(n.Duration*spb), on: false, key: "clip:" + n.NoteKey})
	}
}

// push keeps pending sorted by time so the render loop only inspects the
// head.
func (s *scheduler) push(c timedCommand) {
	i := len(s.pending)
	s.pending = append(s.pending, c)
	for i > 0 && s.pending[i-1].at > c.at {
		s.pending[i] = s.pending[i-1]
		i--
	}
	s.pending[i] = c
}

// due pops the next command whose time has come, or returns false.
func (s *scheduler) due(samplePos int64) (timedCommand, bool) {
	if len(s.pending) == 0 || s.pending[0].at > samplePos {
		return timedCommand{}, false
	}
	c := s.pending[0]
	s.pending = s.pending[1:]
	return c, true
}
