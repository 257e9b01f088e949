package audio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigDefaultsWhenFileMissing(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	expectNoError(t, err)
	if config.Bpm != 120 {
		t.Errorf("expected default bpm 120, got %v", config.Bpm)
	}
	if config.LeadInBeats != 4 {
		t.Errorf("expected default lead-in of 4 beats, got %v", config.LeadInBeats)
	}
}

func TestConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "bpm: 90\nloopBars: 8\nmetronome: false\n"
	expectNoError(t, os.WriteFile(path, []byte(data), 0644))
	config, err := LoadConfig(path)
	expectNoError(t, err)
	if config.Bpm != 90 {
		t.Errorf("expected bpm 90, got %v", config.Bpm)
	}
	if config.LoopBars != 8 {
		t.Errorf("expected loopBars 8, got %v", config.LoopBars)
	}
	if config.Metronome {
		t.Errorf("expected metronome off")
	}
	// untouched fields keep their defaults
	if config.BeatsPerBar != 4 {
		t.Errorf("expected default beatsPerBar, got %v", config.BeatsPerBar)
	}
}

func TestConfigRejectsOutOfRangeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	expectNoError(t, os.WriteFile(path, []byte("bpm: 10000\n"), 0644))
	if _, err := LoadConfig(path); err == nil {
		t.Errorf("expected an error for an out-of-range bpm")
	}
}
