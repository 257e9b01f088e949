package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/hajimehoshi/oto"
	"github.com/viterin/vek"
)

const (
	sampleRate      = 48000
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
	ringSize        = 4096 // rolling waveform buffer, power of two
	maxVoices       = 16
)
const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096
const secPerSample = 1.0 / sampleRate
const baseFreq = 442.0
const oscGain = 0.07

// ----- Utility ----- //

func now() float64 {
	return float64(time.Now().UnixNano()) / 1000 / 1000 / 1000
}
func positiveMod(a float64, b float64) float64 {
	if b < 0 {
		panic("b should not be negative")
	}
	for a < 0 {
		a += b
	}
	return math.Mod(a, b)
}
func clamp(v float64, min float64, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
func noteToFreq(note int) float64 {
	return baseFreq * math.Pow(2, float64(note-69)/12)
}
func freqToNote(freq float64) int {
	note := int(math.Round(math.Log2(freq/baseFreq)*12.0)) + 69
	if note < 0 {
		note = 0
	}
	if note >= 128 {
		note = 127
	}
	return note
}
func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}

// ----- Changes ----- //

// Changes is a dirty-flag set consumed by the report loop.
type Changes struct {
	sync.Mutex
	dict map[string]struct{}
}

func (c *Changes) Add(key string) {
	c.Lock()
	c.dict[key] = struct{}{}
	c.Unlock()
}

func (c *Changes) Has(key string) bool {
	c.Lock()
	_, ok := c.dict[key]
	c.Unlock()
	return ok
}

func (c *Changes) Delete(key string) {
	c.Lock()
	delete(c.dict, key)
	c.Unlock()
}

// ----- Notifications ----- //

const (
	NotifyLoopComplete         = "loopComplete"
	NotifyRecordingStart       = "recordingStart"
	NotifyRecordingActualStart = "recordingActualStart"
	NotifyRecordingStop        = "recordingStop"
	NotifyRecordingFailed      = "recordingFailed"
)

// Notification is an engine event for the UI process. Sends are always
// non-blocking; a slow consumer misses notifications rather than stalling
// the engine.
type Notification struct {
	Kind    string
	Beat    float64
	Clip    *Clip
	Capture []float64
}

func trySend(ch chan<- Notification, n Notification) bool {
	select {
	case ch <- n:
		return true
	default:
		return false
	}
}

// ----- State ----- //

type state struct {
	sync.Mutex
	params    *params
	pool      *voicePool
	lfo       *lfo
	chain     *effectChain
	transport *transport
	metro     *metronome
	recorder  *recorder
	scheduler *scheduler
	samplePos int64
	ring      []float64 // rolling output samples for the waveform UI
	lastRead  float64
}

func newState(config *Config) *state {
	params := newParams()
	return &state{
		params:    params,
		pool:      newVoicePool(maxVoices),
		lfo:       newLfo(params.lfo),
		chain:     newEffectChain(),
		transport: newTransport(config.Bpm, config.BeatsPerBar, config.LoopBars),
		metro:     &metronome{enabled: config.Metronome},
		recorder:  newRecorder(config.LeadInBeats),
		scheduler: newScheduler(config.LookaheadMillis / 1000),
		ring:      make([]float64, ringSize),
	}
}

// ----- Audio ----- //

// Audio is the engine root: it owns the synth state and renders into the
// oto player via io.Reader. Commands arrive over CommandCh; engine events
// leave over Notifications.
type Audio struct {
	ctx           context.Context
	otoContext    *oto.Context
	CommandCh     chan []string
	Notifications chan Notification
	Changes       *Changes
	state         *state
	presets       *presetManager
	fftResult     []float64
}

var _ io.Reader = (*Audio)(nil)

var fft = NewFFT(ringSize, false)

// NewAudio opens the audio device and starts the command loop.
func NewAudio(config *Config) (*Audio, error) {
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	commandCh := make(chan []string, 256)
	audio := &Audio{
		ctx:           context.Background(),
		otoContext:    otoContext,
		CommandCh:     commandCh,
		Notifications: make(chan Notification, 256),
		Changes: &Changes{
			dict: make(map[string]struct{}),
		},
		state:     newState(config),
		presets:   newPresetManager(config.PresetDir),
		fftResult: make([]float64, ringSize),
	}
	if err := audio.presets.watch(audio.Changes); err != nil {
		log.Printf("preset watch disabled: %v", err)
	}
	go processCommands(audio, commandCh)
	return audio, nil
}

func processCommands(audio *Audio, commandCh <-chan []string) {
	for command := range commandCh {
		if err := audio.update(command); err != nil {
			log.Printf("command %v failed: %v", command, err)
		}
	}
	log.Println("processCommands() ended.")
}

// Close ...
func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	close(a.CommandCh)
	return a.otoContext.Close()
}

// Start renders until ctx is cancelled.
func (a *Audio) Start(ctx context.Context) error {
	p := a.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	a.ctx = ctx

	// block until cancel() called
	if _, err := io.CopyBuffer(p, a, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}

// ----- Render ----- //

func (a *Audio) Read(buf []byte) (int, error) {
	select {
	case <-a.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
		a.state.Lock()
		defer a.state.Unlock()
		timestamp := now()
		bufSamples := len(buf) / bytesPerSample
		a.renderCycle(buf, bufSamples)
		a.state.lastRead = timestamp
		return len(buf), nil
	}
}

// renderCycle produces bufSamples samples. It is the single driver: the
// transport advances on the sample clock, the scheduler polls once per
// cycle with its lookahead, and due note commands apply at their exact
// sample. Nothing in here blocks.
func (a *Audio) renderCycle(buf []byte, bufSamples int) {
	s := a.state
	t := s.transport
	s.lfo.applyParams(s.params.lfo)
	s.chain.applyParams(s.params)
	s.pool.applyParams(s.params)
	s.scheduler.poll(t, s.samplePos)
	for i := 0; i < bufSamples; i++ {
		s.samplePos++
		t.advance(s.samplePos)
		if t.wrapped {
			trySend(a.Notifications, Notification{Kind: NotifyLoopComplete, Beat: t.posBeat})
		}
		if t.beatTicked && (s.recorder.state == recLeadIn || s.recorder.state == recRecording) {
			beatInBar := int(t.totalBeat) % t.beatsPerBar
			s.metro.trigger(beatInBar == 0)
		}
		if s.recorder.advance(t.totalBeat, t.posBeat) {
			trySend(a.Notifications, Notification{Kind: NotifyRecordingActualStart, Beat: t.posBeat})
		}
		for {
			cmd, ok := s.scheduler.due(s.samplePos)
			if !ok {
				break
			}
			if cmd.on {
				s.pool.noteOn(s.params, s.params.lfo.target, cmd.freq, cmd.key, cmd.velocity, s.samplePos)
			} else {
				s.pool.noteOff(cmd.key)
			}
		}
		s.lfo.step()
		value := s.pool.step(s.lfo)
		value = s.chain.step(value)
		if s.recorder.recording() {
			s.recorder.captureSample(value)
		}
		value += s.metro.step()
		s.ring[s.samplePos&(ringSize-1)] = value
		writeSample(buf, i, value)
	}
}

func writeSample(buf []byte, i int, value float64) {
	const max = 32767
	v := clamp(value, -1, 1)
	b := int16(v * max)
	for ch := 0; ch < channelNum; ch++ {
		buf[bytesPerSample*i+2*ch] = byte(b)
		buf[bytesPerSample*i+2*ch+1] = byte(b >> 8)
	}
}

// ----- Commands ----- //

func (a *Audio) update(command []string) error {
	a.state.Lock()
	defer a.state.Unlock()
	s := a.state
	t := s.transport

	switch command[0] {
	case "set":
		if len(command) != 4 {
			return fmt.Errorf("invalid set command %v", command)
		}
		if err := s.params.set(command[1], command[2], command[3]); err != nil {
			return err
		}
		a.Changes.Add("data")
	case "note_on":
		if len(command) != 4 {
			return fmt.Errorf("invalid note_on command %v", command)
		}
		freq, err := strconv.ParseFloat(command[2], 64)
		if err != nil {
			return err
		}
		velocity, err := strconv.ParseFloat(command[3], 64)
		if err != nil {
			return err
		}
		a.noteOn(command[1], freq, velocity)
	case "note_off":
		if len(command) != 2 {
			return fmt.Errorf("invalid note_off command %v", command)
		}
		a.noteOff(command[1])
	case "play":
		t.play(s.samplePos)
	case "stop":
		a.finishRecording()
		t.stop()
		s.scheduler.reset()
		s.pool.stopAll()
	case "seek":
		if len(command) != 2 {
			return fmt.Errorf("invalid seek command %v", command)
		}
		sec, err := strconv.ParseFloat(command[1], 64)
		if err != nil {
			return err
		}
		t.seek(sec, s.samplePos)
		s.scheduler.reset()
	case "set_bpm":
		if len(command) != 2 {
			return fmt.Errorf("invalid set_bpm command %v", command)
		}
		bpm, err := strconv.ParseFloat(command[1], 64)
		if err != nil {
			return err
		}
		t.setBpm(bpm, s.samplePos)
		a.Changes.Add("data")
	case "set_loop_bars":
		if len(command) != 2 {
			return fmt.Errorf("invalid set_loop_bars command %v", command)
		}
		bars, err := strconv.ParseInt(command[1], 10, 64)
		if err != nil {
			return err
		}
		t.setLoopBars(int(bars), s.samplePos)
		s.scheduler.reset()
		a.Changes.Add("data")
	case "record":
		if s.recorder.state == recIdle {
			s.recorder.record(t.totalBeat)
			t.play(s.samplePos)
			t.recording = true
			trySend(a.Notifications, Notification{Kind: NotifyRecordingStart, Beat: t.posBeat})
		}
	case "stop_recording":
		a.finishRecording()
	case "load_preset":
		if len(command) != 2 {
			return fmt.Errorf("invalid load_preset command %v", command)
		}
		if err := a.presets.applyToParams(command[1], s.params); err != nil {
			return err
		}
		a.Changes.Add("data")
	case "list_presets":
		a.Changes.Add("presets")
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	return nil
}

// finishRecording finalizes an in-flight take, whether ended explicitly
// or by stopping the transport. A stopped transport must not leave the
// recorder capturing against a frozen clock.
func (a *Audio) finishRecording() {
	s := a.state
	t := s.transport
	clip, capture, err := s.recorder.stop(t.totalBeat)
	t.recording = false
	if clip == nil {
		return
	}
	if err != nil {
		log.Printf("capture failed: %v", err)
		trySend(a.Notifications, Notification{Kind: NotifyRecordingFailed, Clip: clip})
	} else {
		trySend(a.Notifications, Notification{Kind: NotifyRecordingStop, Clip: clip, Capture: capture})
	}
	s.scheduler.setClip(clip)
}

func (a *Audio) noteOn(key string, freq float64, velocity float64) {
	s := a.state
	s.pool.noteOn(s.params, s.params.lfo.target, freq, key, velocity, s.samplePos)
	s.recorder.noteOn(freq, key, velocity, s.transport.totalBeat)
}

func (a *Audio) noteOff(key string) {
	s := a.state
	s.pool.noteOff(key)
	s.recorder.noteOff(key, s.transport.totalBeat)
}

// ----- Reports ----- //

// Status is the per-tick transport snapshot for the playhead UI.
type Status struct {
	Beat      float64 `json:"beat"`
	Bar       int     `json:"bar"`
	Time      float64 `json:"time"`
	Bpm       float64 `json:"bpm"`
	Playing   bool    `json:"playing"`
	Recording bool    `json:"recording"`
}

func (a *Audio) GetStatus() Status {
	a.state.Lock()
	defer a.state.Unlock()
	t := a.state.transport
	return Status{
		Beat:      t.posBeat,
		Bar:       t.currentBar(),
		Time:      t.currentTime(),
		Bpm:       t.bpm,
		Playing:   t.playing,
		Recording: t.recording,
	}
}

// GetWaveform copies the most recent output samples, oldest first.
func (a *Audio) GetWaveform(out []float64) {
	a.state.Lock()
	defer a.state.Unlock()
	n := int64(len(out))
	for i := int64(0); i < n; i++ {
		out[i] = a.state.ring[(a.state.samplePos+1+i-n)&(ringSize-1)]
	}
}

// GetMeter returns the RMS and peak level of the rolling output buffer.
func (a *Audio) GetMeter() (rms float64, peak float64) {
	a.state.Lock()
	ring := make([]float64, ringSize)
	copy(ring, a.state.ring)
	a.state.Unlock()
	vek.Abs_Inplace(ring)
	peak = vek.Max(ring)
	vek.Mul_Inplace(ring, ring)
	rms = math.Sqrt(vek.Mean(ring))
	return rms, peak
}

// GetFFT returns the magnitude spectrum of the rolling output buffer.
func (a *Audio) GetFFT(ctx context.Context) []float64 {
	select {
	case <-ctx.Done():
		return nil
	default:
	}
	a.state.Lock()
	offset := a.state.samplePos & (ringSize - 1)
	copy(a.fftResult, a.state.ring[offset:])
	copy(a.fftResult[ringSize-offset:], a.state.ring[:offset])
	a.state.Unlock()
	applyWindow(a.fftResult, han)
	fft.CalcAbs(a.fftResult)
	for i, value := range a.fftResult {
		a.fftResult[i] = value * 2 / ringSize
	}
	return a.fftResult[:ringSize/2]
}

// ApplyJSON replaces the whole parameter set (UI state push).
func (a *Audio) ApplyJSON(data []byte) {
	a.state.Lock()
	defer a.state.Unlock()
	a.state.params.applyJSON(data)
}

// ToJSON dumps the whole parameter set (UI state pull).
func (a *Audio) ToJSON() []byte {
	a.state.Lock()
	defer a.state.Unlock()
	bytes, err := json.Marshal(a.state.params.toJSON())
	if err != nil {
		panic(err)
	}
	return bytes
}

// GetPresetList returns the preset names currently on disk.
func (a *Audio) GetPresetList() ([]string, error) {
	return a.presets.getList()
}

// AddMidiEvent translates a raw MIDI message into note commands.
func (a *Audio) AddMidiEvent(data []byte) {
	if len(data) < 3 {
		return
	}
	key := "midi:" + strconv.Itoa(int(data[1]))
	if data[0]>>4 == 8 || data[0]>>4 == 9 && data[2] == 0 {
		a.state.Lock()
		a.noteOff(key)
		a.state.Unlock()
	} else if data[0]>>4 == 9 && data[2] > 0 {
		a.state.Lock()
		a.noteOn(key, noteToFreq(int(data[1])), float64(data[2])/127)
		a.state.Unlock()
	}
}
