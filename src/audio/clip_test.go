package audio

import (
	"encoding/json"
	"math"
	"testing"
)

func TestClipJSONShape(t *testing.T) {
	clip := &Clip{
		ID:     "abc",
		Start:  3,
		Length: 4,
		Notes: []*RecordedNote{
			{Frequency: 442, NoteKey: "a", Start: 0.5, Duration: 1, Velocity: 0.8},
		},
	}
	bytes, err := json.Marshal(clip)
	expectNoError(t, err)
	var m map[string]interface{}
	expectNoError(t, json.Unmarshal(bytes, &m))
	if m["id"] != "abc" {
		t.Errorf("expected id field, got %v", m["id"])
	}
	if m["startTime"] != 3.0 {
		t.Errorf("expected startTime field, got %v", m["startTime"])
	}
	events, ok := m["events"].([]interface{})
	if !ok || len(events) != 2 {
		t.Fatalf("expected 2 events, got %v", m["events"])
	}
	first := events[0].(map[string]interface{})
	if first["type"] != "noteOn" {
		t.Errorf("expected the first event to be a noteOn, got %v", first["type"])
	}
	if first["time"] != 0.5 {
		t.Errorf("expected noteOn at 0.5, got %v", first["time"])
	}
	if first["note"] != 69.0 {
		t.Errorf("expected MIDI note 69 for 442Hz, got %v", first["note"])
	}
	second := events[1].(map[string]interface{})
	if second["type"] != "noteOff" || second["time"] != 1.5 {
		t.Errorf("expected noteOff at 1.5, got %+v", second)
	}
}

func TestClipJSONRoundTrip(t *testing.T) {
	clip := &Clip{
		ID:     "abc",
		Start:  3,
		Length: 8,
		Notes: []*RecordedNote{
			{Frequency: 442, NoteKey: "a", Start: 0.5, Duration: 1, Velocity: 0.8},
			{Frequency: noteToFreq(64), NoteKey: "b", Start: 1, Duration: 2, Velocity: 1},
			// overlapping re-press of the same key
			{Frequency: 442, NoteKey: "a", Start: 1.2, Duration: 0.3, Velocity: 0.5},
		},
	}
	bytes, err := json.Marshal(clip)
	expectNoError(t, err)
	restored := &Clip{}
	expectNoError(t, json.Unmarshal(bytes, restored))
	if restored.ID != clip.ID || restored.Start != clip.Start || restored.Length != clip.Length {
		t.Errorf("expected header round-trip, got %+v", restored)
	}
	if len(restored.Notes) != len(clip.Notes) {
		t.Fatalf("expected %v notes, got %v", len(clip.Notes), len(restored.Notes))
	}
	for _, want := range clip.Notes {
		found := false
		for _, got := range restored.Notes {
			if got.NoteKey == want.NoteKey &&
				math.Abs(got.Start-want.Start) < 1e-9 &&
				math.Abs(got.Duration-want.Duration) < 1e-9 &&
				math.Abs(got.Frequency-want.Frequency) < 1e-9 &&
				math.Abs(got.Velocity-want.Velocity) < 1e-9 {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("note %+v lost in round-trip", want)
		}
	}
}

func TestClipUnmarshalForceClosesDanglingNoteOn(t *testing.T) {
	data := []byte(`{"id":"x","startTime":0,"length":4,"events":[
		{"type":"noteOn","time":1,"note":69,"velocity":1,"frequency":442,"noteKey":"a"}
	]}`)
	clip := &Clip{}
	expectNoError(t, json.Unmarshal(data, clip))
	if len(clip.Notes) != 1 {
		t.Fatalf("expected 1 note, got %v", len(clip.Notes))
	}
	n := clip.Notes[0]
	if n.open {
		t.Errorf("expected the dangling note to be closed")
	}
	if n.Duration != minNoteDurationBeats {
		t.Errorf("expected minimum duration, got %v", n.Duration)
	}
}

func TestNoteFreqConversion(t *testing.T) {
	if got := freqToNote(baseFreq); got != 69 {
		t.Errorf("expected note 69 for the base frequency, got %v", got)
	}
	for note := 0; note < 128; note++ {
		if got := freqToNote(noteToFreq(note)); got != note {
			t.Errorf("note %v did not round-trip, got %v", note, got)
		}
	}
}
