// Package synth is the polyphonic synthesizer of the instrument.
//
// The Engine is the control side: it is owned by a single goroutine, keeps
// track of the sounding notes and sends messages to the Player, which renders
// audio on the goroutine of the audio output. Nothing but the message
// channel is shared between the two.
package synth

import (
	"fmt"
	"log"
	"slices"

	"github.com/vsariola/bayan"
)

// Engine implements bayan.Synth.
type Engine struct {
	output  bayan.AudioContext
	catalog *Catalog
	logger  *log.Logger

	toPlayer chan any
	player   *Player

	preset *bayan.Preset // never modified after being set
	volume int
	active map[int]int // note -> number of voices started for it

	started bool
	warned  bool // an activation failure has been logged
}

// MaxVolume is the volume percentage giving the highest gain.
const MaxVolume = 100

// maxGain is the master gain at full volume, leaving headroom for chords.
const maxGain = 0.5

const messageQueueSize = 1024

var _ bayan.Synth = (*Engine)(nil)

// NewEngine returns an engine rendering through output with presets from
// catalog. A nil catalog means the builtin one, a nil logger log.Default().
// The output is not touched before Init.
func NewEngine(output bayan.AudioContext, catalog *Catalog, logger *log.Logger) *Engine {
	if catalog == nil || catalog.Len() == 0 {
		catalog = Builtin()
	}
	if logger == nil {
		logger = log.Default()
	}
	if output == nil {
		output = bayan.NullAudioContext{}
	}
	e := &Engine{
		output:   output,
		catalog:  catalog,
		logger:   logger,
		toPlayer: make(chan any, messageQueueSize),
		volume:   MaxVolume,
		active:   map[int]int{},
	}
	e.player = NewPlayer(output.SampleRate(), e.toPlayer, Gain(MaxVolume))
	e.preset = e.lookup(DefaultPreset)
	return e
}

// Gain returns the master gain for a volume percentage.
func Gain(percent int) float32 {
	percent = min(max(percent, 0), MaxVolume)
	return float32(percent) / MaxVolume * maxGain
}

func (e *Engine) lookup(name string) *bayan.Preset {
	p, ok := e.catalog.Lookup(name)
	if !ok {
		e.logger.Printf("synth: unknown preset %q, using %q", name, DefaultPreset)
		p, ok = e.catalog.Lookup(DefaultPreset)
		if !ok {
			// a custom catalog without the default; take the first one
			p, _ = e.catalog.Lookup(e.catalog.names[0])
		}
	}
	return &p
}

// Init activates the audio output: the first successful call starts pulling
// audio from the engine, later calls resume a suspended device. Failures are
// logged once and returned; the next call tries again.
func (e *Engine) Init() error {
	if !e.started {
		if err := e.output.Start(e); err != nil {
			return e.activationFailed(fmt.Errorf("could not start audio output: %w", err))
		}
		e.started = true
	}
	if err := e.output.Resume(); err != nil {
		return e.activationFailed(fmt.Errorf("could not resume audio output: %w", err))
	}
	e.warned = false
	return nil
}

// Resume is the same as Init.
func (e *Engine) Resume() error { return e.Init() }

func (e *Engine) activationFailed(err error) error {
	if !e.warned {
		e.logger.Printf("synth: %v", err)
		e.warned = true
	}
	return err
}

// ReadAudio renders the next buffer; it is called by the audio output.
func (e *Engine) ReadAudio(buf bayan.AudioBuffer) error {
	return e.player.ReadAudio(buf)
}

// Player returns the render side. Its methods may only be called from the
// goroutine that reads audio from the engine.
func (e *Engine) Player() *Player { return e.player }

// SetPreset releases all sounding voices and switches the register for the
// notes played after it. Unknown names fall back to the default preset.
func (e *Engine) SetPreset(name string) {
	e.ReleaseAll()
	e.preset = e.lookup(name)
}

// Preset returns the name of the current preset.
func (e *Engine) Preset() string { return e.preset.Name }

// SetVolume sets the master volume in percent, clamped to 0..100. It applies
// to the sounding voices too.
func (e *Engine) SetVolume(percent int) {
	percent = min(max(percent, 0), MaxVolume)
	if !e.send(gainMsg{gain: Gain(percent)}) {
		e.logger.Printf("synth: message queue full, volume change to %d%% dropped", percent)
		return
	}
	e.volume = percent
}

func (e *Engine) Volume() int { return e.volume }

// Gain returns the master gain of the current volume.
func (e *Engine) Gain() float32 { return Gain(e.volume) }

// NoteOn starts one voice per reed of the current preset. It does nothing
// if the note is already sounding. Reeds that would sound above the Nyquist
// frequency are left out.
func (e *Engine) NoteOn(note int) {
	if _, ok := e.active[note]; ok {
		return
	}
	nyquist := float64(e.output.SampleRate()) / 2
	freqs := make([]float64, 0, len(e.preset.Reeds))
	for _, r := range e.preset.Reeds {
		f := bayan.NoteFrequency(float64(note+r.Offset) + r.Detune/100)
		if f < nyquist {
			freqs = append(freqs, f)
		}
	}
	if len(freqs) == 0 {
		return
	}
	if !e.send(startMsg{note: note, preset: e.preset, freqs: freqs}) {
		e.logger.Printf("synth: message queue full, note %d dropped", note)
		return
	}
	e.active[note] = len(freqs)
}

// NoteOff releases the voices of the note. It does nothing if the note is
// not sounding.
func (e *Engine) NoteOff(note int) {
	if _, ok := e.active[note]; !ok {
		return
	}
	if !e.send(releaseMsg{note: note}) {
		// the note stays active so that ReleaseAll retries it
		e.logger.Printf("synth: message queue full, release of note %d dropped", note)
		return
	}
	delete(e.active, note)
}

// ReleaseAll releases every sounding voice.
func (e *Engine) ReleaseAll() {
	if len(e.active) == 0 {
		return
	}
	if !e.send(releaseAllMsg{}) {
		e.logger.Printf("synth: message queue full, could not release %d notes", len(e.active))
		return
	}
	clear(e.active)
}

// ActiveNotes returns the sounding notes in ascending order.
func (e *Engine) ActiveNotes() []int {
	notes := make([]int, 0, len(e.active))
	for n := range e.active {
		notes = append(notes, n)
	}
	slices.Sort(notes)
	return notes
}

// VoiceCount returns the number of voices started for note, zero if it is
// not sounding.
func (e *Engine) VoiceCount(note int) int { return e.active[note] }

// Close releases everything and closes the output.
func (e *Engine) Close() error {
	e.ReleaseAll()
	if err := e.output.Close(); err != nil {
		return fmt.Errorf("could not close audio output: %w", err)
	}
	return nil
}

func (e *Engine) send(msg any) bool {
	select {
	case e.toPlayer <- msg:
		return true
	default:
		return false
	}
}
