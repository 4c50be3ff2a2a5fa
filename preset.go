package bayan

import (
	"errors"
	"fmt"
)

type (
	// Preset is a register of the instrument: the timbre of a single reed and
	// the combination of reeds that sound together for every key.
	Preset struct {
		Name     string   `yaml:"-"`
		Title    string   `yaml:",omitempty"`
		Waveform Waveform
		// Unison is the number of oscillators per reed, spread evenly over
		// Spread cents. Zero and one both mean a single oscillator.
		Unison   int     `yaml:",omitempty"`
		Spread   float64 `yaml:",omitempty"`
		Envelope Envelope
		Cutoff   float64 // lowpass cutoff in Hz
		Level    float64 // peak amplitude of one key, shared by its reeds
		Reeds    []Reed  `yaml:",flow"`
	}

	// Reed is one voice of a register, Offset semitones away from the played
	// note (16' = -12, 8' = 0, 4' = +12) and detuned by Detune cents.
	Reed struct {
		Offset int
		Detune float64 `yaml:",omitempty"`
	}

	// Envelope is a linear ADSR envelope. Times are in seconds, Sustain is a
	// level between 0 and 1.
	Envelope struct {
		Attack  float64
		Decay   float64
		Sustain float64
		Release float64
	}

	Waveform int
)

const (
	Sine Waveform = iota
	Triangle
	Sawtooth
	Square
)

var waveformNames = [...]string{"sine", "triangle", "sawtooth", "square"}

var (
	errNoReeds  = errors.New("preset has no reeds")
	errBadLevel = errors.New("preset level must be in (0, 1]")
)

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
	return waveformNames[w]
}

func (w Waveform) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *Waveform) UnmarshalText(text []byte) error {
	for i, n := range waveformNames {
		if n == string(text) {
			*w = Waveform(i)
			return nil
		}
	}
	return fmt.Errorf("unknown waveform %q", string(text))
}

// Offsets returns the semitone offsets of the reeds.
func (p *Preset) Offsets() []int {
	ret := make([]int, len(p.Reeds))
	for i, r := range p.Reeds {
		ret[i] = r.Offset
	}
	return ret
}

// Validate checks that the preset can be played.
func (p *Preset) Validate() error {
	if len(p.Reeds) == 0 {
		return errNoReeds
	}
	if p.Level <= 0 || p.Level > 1 {
		return errBadLevel
	}
	if p.Cutoff <= 0 {
		return fmt.Errorf("preset cutoff must be positive, got %v", p.Cutoff)
	}
	e := p.Envelope
	if e.Attack < 0 || e.Decay < 0 || e.Release < 0 || e.Sustain < 0 || e.Sustain > 1 {
		return fmt.Errorf("invalid envelope %+v", e)
	}
	return nil
}

// Copy returns a deep copy of the preset.
func (p *Preset) Copy() Preset {
	ret := *p
	ret.Reeds = append([]Reed(nil), p.Reeds...)
	return ret
}
