package audio

import (
	"math"
	"testing"
)

type firedCommand struct {
	at   int64
	on   bool
	key  string
	pass int
}

// runScheduler simulates the render loop's poll-then-advance cadence for
// the given number of samples and collects every fired command.
func runScheduler(tr *transport, s *scheduler, startPos int64, samples int64) []firedCommand {
	var fired []firedCommand
	pos := startPos
	end := startPos + samples
	for pos < end {
		s.poll(tr, pos)
		for i := 0; i < samplesPerCycle && pos < end; i++ {
			pos++
			tr.advance(pos)
			for {
				c, ok := s.due(pos)
				if !ok {
					break
				}
				fired = append(fired, firedCommand{at: c.at, on: c.on, key: c.key, pass: tr.pass})
			}
		}
	}
	return fired
}

func onsOnly(fired []firedCommand) []firedCommand {
	var ons []firedCommand
	for _, f := range fired {
		if f.on {
			ons = append(ons, f)
		}
	}
	return ons
}

func testClip(notes ...*RecordedNote) *Clip {
	return &Clip{ID: "test", Start: 0, Length: 4, Notes: notes}
}

func TestSchedulerFiresAtNotePositions(t *testing.T) {
	tr := newTransport(120, 4, 4)
	tr.play(0)
	s := newScheduler(0.12)
	s.setClip(testClip(&RecordedNote{
		Frequency: 442, NoteKey: "Q", Start: 2.0, Duration: 1.5, Velocity: 1,
	}))
	spb := tr.samplesPerBeat()
	fired := runScheduler(tr, s, 0, int64(tr.loopBeats()*spb))
	if len(fired) != 2 {
		t.Fatalf("expected a noteOn and a noteOff, got %v", len(fired))
	}
	on, off := fired[0], fired[1]
	if !on.on || off.on {
		t.Fatalf("expected noteOn then noteOff, got %+v", fired)
	}
	if on.key != "clip:Q" {
		t.Errorf("expected key clip:Q, got %v", on.key)
	}
	if math.Abs(float64(on.at)-2.0*spb) > 2 {
		t.Errorf("expected noteOn at beat 2 (sample %v), got %v", 2.0*spb, on.at)
	}
	if math.Abs(float64(off.at-on.at)-1.5*spb) > 2 {
		t.Errorf("expected 1.5 beats between on and off, got %v samples", off.at-on.at)
	}
}

func TestSchedulerFiresExactlyOncePerPass(t *testing.T) {
	tr := newTransport(480, 4, 1)
	tr.play(0)
	s := newScheduler(0.12)
	s.setClip(testClip(
		&RecordedNote{Frequency: 442, NoteKey: "Q", Start: 2.0, Duration: 1.5, Velocity: 1},
		&RecordedNote{Frequency: 442, NoteKey: "W", Start: 0.5, Duration: 0.25, Velocity: 1},
	))
	passes := 100
	passSamples := tr.loopBeats() * tr.samplesPerBeat()
	fired := runScheduler(tr, s, 0, int64(passSamples*float64(passes)))
	counts := map[string]int{}
	for _, f := range onsOnly(fired) {
		counts[f.key]++
	}
	if counts["clip:Q"] != passes {
		t.Errorf("expected Q to fire %v times, fired %v", passes, counts["clip:Q"])
	}
	if counts["clip:W"] != passes {
		t.Errorf("expected W to fire %v times, fired %v", passes, counts["clip:W"])
	}
	// spacing between consecutive firings is exactly one pass
	var qOns []firedCommand
	for _, f := range onsOnly(fired) {
		if f.key == "clip:Q" {
			qOns = append(qOns, f)
		}
	}
	for i := 1; i < len(qOns); i++ {
		if d := float64(qOns[i].at - qOns[i-1].at); math.Abs(d-passSamples) > 2 {
			t.Fatalf("expected one pass between firings, got %v samples at index %v", d, i)
		}
	}
}

func TestSchedulerClipOffsetWrapsAroundLoop(t *testing.T) {
	// the clip starts at beat 3 of a 4-beat loop, so a note at +2 beats
	// lands on beat 1 of the following pass
	tr := newTransport(480, 4, 1)
	tr.play(0)
	s := newScheduler(0.12)
	s.setClip(&Clip{ID: "test", Start: 3, Length: 4, Notes: []*RecordedNote{
		{Frequency: 442, NoteKey: "Q", Start: 2.0, Duration: 0.5, Velocity: 1},
	}})
	spb := tr.samplesPerBeat()
	fired := onsOnly(runScheduler(tr, s, 0, int64(tr.loopBeats()*spb)))
	if len(fired) != 1 {
		t.Fatalf("expected 1 firing in the first pass, got %v", len(fired))
	}
	if math.Abs(float64(fired[0].at)-1.0*spb) > 2 {
		t.Errorf("expected firing at beat 1 (sample %v), got %v", spb, fired[0].at)
	}
}

func TestSchedulerMissedWindowWaitsForNextPass(t *testing.T) {
	tr := newTransport(480, 4, 1)
	tr.play(0)
	s := newScheduler(0.12)
	s.setClip(testClip(&RecordedNote{
		Frequency: 442, NoteKey: "Q", Start: 2.0, Duration: 0.5, Velocity: 1,
	}))
	// jump straight past the note's position before the first poll
	spb := tr.samplesPerBeat()
	startPos := int64(3 * spb)
	tr.seek(3*tr.secPerBeat(), startPos)
	tr.advance(startPos)
	fired := onsOnly(runScheduler(tr, s, startPos, int64(2*tr.loopBeats()*spb)))
	if len(fired) != 2 {
		t.Fatalf("expected 2 firings over two passes, got %v", len(fired))
	}
	// never fired late in the current pass: the first firing is the
	// following pass's beat 2
	firstWant := float64(startPos) + 3*spb // 1 beat to wrap plus 2 beats in
	if math.Abs(float64(fired[0].at)-firstWant) > 2 {
		t.Errorf("expected first firing at sample %v, got %v", firstWant, fired[0].at)
	}
}

func TestSchedulerResetDropsPendingKeepsClip(t *testing.T) {
	tr := newTransport(480, 4, 1)
	tr.play(0)
	s := newScheduler(0.5)
	clip := testClip(&RecordedNote{
		Frequency: 442, NoteKey: "Q", Start: 0.1, Duration: 0.5, Velocity: 1,
	})
	s.setClip(clip)
	s.poll(tr, 0)
	if len(s.pending) == 0 {
		t.Fatalf("expected pending commands after poll")
	}
	s.reset()
	if len(s.pending) != 0 {
		t.Errorf("expected pending cleared")
	}
	if s.clip != clip {
		t.Errorf("expected the clip to survive a reset")
	}
	// the note can be scheduled again after the reset
	s.poll(tr, 0)
	if len(s.pending) == 0 {
		t.Errorf("expected the note to be rescheduled")
	}
}

func TestSchedulerNilClipIsSilent(t *testing.T) {
	tr := newTransport(480, 4, 1)
	tr.play(0)
	s := newScheduler(0.12)
	fired := runScheduler(tr, s, 0, int64(tr.loopBeats()*tr.samplesPerBeat()))
	if len(fired) != 0 {
		t.Errorf("expected no commands without a clip, got %v", len(fired))
	}
}
