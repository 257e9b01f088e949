package audio

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"
)

// ----- Recorded Note ----- //

// RecordedNote is one captured note. Start is in beats relative to the
// clip start. Once closed (open=false) it is immutable except for the
// duration back-patch at note-off.
type RecordedNote struct {
	Frequency float64
	NoteKey   string
	Start     float64 // beats, relative to clip start
	Duration  float64 // beats
	Velocity  float64
	open      bool
}

// ----- Clip ----- //

// Clip is an ordered list of recorded notes. It is owned by the recorder
// and read-only to the scheduler.
type Clip struct {
	ID     string
	Start  float64 // loop position in beats where the clip begins
	Length float64 // beats
	Notes  []*RecordedNote
}

func newClip(start float64) *Clip {
	return &Clip{
		ID:    uuid.NewString(),
		Start: start,
	}
}

// ----- Persisted shape ----- //

// A clip serializes each note as a noteOn/noteOff event pair so the shape
// round-trips losslessly:
// {id, startTime, length, events:[{type,time,note,velocity,frequency,noteKey}]}
// with time relative to the clip start.

type clipEventJSON struct {
	Type      string  `json:"type"`
	Time      float64 `json:"time"`
	Note      int     `json:"note"`
	Velocity  float64 `json:"velocity"`
	Frequency float64 `json:"frequency"`
	NoteKey   string  `json:"noteKey"`
}

type clipJSON struct {
	ID        string          `json:"id"`
	StartTime float64         `json:"startTime"`
	Length    float64         `json:"length"`
	Events    []clipEventJSON `json:"events"`
}

func (c *Clip) MarshalJSON() ([]byte, error) {
	events := make([]clipEventJSON, 0, len(c.Notes)*2)
	for _, n := range c.Notes {
		events = append(events, clipEventJSON{
			Type:      "noteOn",
			Time:      n.Start,
			Note:      freqToNote(n.Frequency),
			Velocity:  n.Velocity,
			Frequency: n.Frequency,
			NoteKey:   n.NoteKey,
		}, clipEventJSON{
			Type:      "noteOff",
			Time:      n.Start + n.Duration,
			Note:      freqToNote(n.Frequency),
			Velocity:  n.Velocity,
			Frequency: n.Frequency,
			NoteKey:   n.NoteKey,
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time < events[j].Time
	})
	return json.Marshal(&clipJSON{
		ID:        c.ID,
		StartTime: c.Start,
		Length:    c.Length,
		Events:    events,
	})
}

func (c *Clip) UnmarshalJSON(data []byte) error {
	var j clipJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	c.ID = j.ID
	c.Start = j.StartTime
	c.Length = j.Length
	c.Notes = c.Notes[:0]
	for _, e := range j.Events {
		switch e.Type {
		case "noteOn":
			c.Notes = append(c.Notes, &RecordedNote{
				Frequency: e.Frequency,
				NoteKey:   e.NoteKey,
				Start:     e.Time,
				Velocity:  e.Velocity,
				open:      true,
			})
		case "noteOff":
			// innermost open note for the key, so rapid re-presses of the
			// same key pair up correctly
			for i := len(c.Notes) - 1; i >= 0; i-- {
				n := c.Notes[i]
				if n.open && n.NoteKey == e.NoteKey {
					n.Duration = e.Time - n.Start
					n.open = false
					break
				}
			}
		}
	}
	for _, n := range c.Notes {
		if n.open {
			n.Duration = minNoteDurationBeats
			n.open = false
		}
	}
	return nil
}
