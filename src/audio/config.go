package audio

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the engine configuration, loaded from a YAML file. A missing
// file is not an error; every field has a usable default.
type Config struct {
	PresetDir       string  `yaml:"presetDir"`
	Bpm             float64 `yaml:"bpm"`
	BeatsPerBar     int     `yaml:"beatsPerBar"`
	LoopBars        int     `yaml:"loopBars"`
	LeadInBeats     float64 `yaml:"leadInBeats"`
	LookaheadMillis float64 `yaml:"lookaheadMillis"`
	Metronome       bool    `yaml:"metronome"`
	MidiIn          bool    `yaml:"midiIn"`
	SocketPath      string  `yaml:"socketPath"`
}

// DefaultConfig ...
func DefaultConfig() *Config {
	return &Config{
		PresetDir:       "presets",
		Bpm:             120,
		BeatsPerBar:     4,
		LoopBars:        4,
		LeadInBeats:     4,
		LookaheadMillis: 120,
		Metronome:       true,
		MidiIn:          true,
		SocketPath:      "/tmp/daw-engine.sock",
	}
}

// LoadConfig reads path over the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	bytes, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(bytes, config); err != nil {
		return nil, fmt.Errorf("cannot parse config %v: %w", path, err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Bpm < 20 || c.Bpm > 999 {
		return fmt.Errorf("bpm out of range: %v", c.Bpm)
	}
	if c.BeatsPerBar < 1 || c.BeatsPerBar > 16 {
		return fmt.Errorf("beatsPerBar out of range: %v", c.BeatsPerBar)
	}
	if c.LoopBars < 1 {
		return fmt.Errorf("loopBars out of range: %v", c.LoopBars)
	}
	if c.LeadInBeats < 0 {
		return fmt.Errorf("leadInBeats out of range: %v", c.LeadInBeats)
	}
	if c.LookaheadMillis <= 0 {
		return fmt.Errorf("lookaheadMillis out of range: %v", c.LookaheadMillis)
	}
	return nil
}
