package bayan

import (
	"fmt"
	"math"
)

type (
	// Button is one key of the generated board. BoardRow is the horizontal
	// axis of the board (the accordion "row"), BoardCol the position of the
	// button inside that row. Buttons are produced in bulk by GenerateLayout
	// and should be treated as immutable.
	Button struct {
		ID        string  `json:"id" yaml:"id"`
		BoardRow  int     `json:"boardRow" yaml:"boardRow"`
		BoardCol  int     `json:"boardCol" yaml:"boardCol"`
		Note      int     `json:"note" yaml:"note"`
		Label     string  `json:"label" yaml:"label"`
		IsBlack   bool    `json:"isBlack" yaml:"isBlack"`
		Frequency float64 `json:"frequency" yaml:"frequency"`
	}

	// Accidental selects how the black keys are spelled in labels.
	Accidental int
)

const (
	Sharp Accidental = iota
	Flat
)

var (
	sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	flatNames  = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}
)

func (a Accidental) String() string {
	if a == Flat {
		return "flat"
	}
	return "sharp"
}

func (a Accidental) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Accidental) UnmarshalText(text []byte) error {
	switch string(text) {
	case "sharp", "":
		*a = Sharp
	case "flat":
		*a = Flat
	default:
		return fmt.Errorf("unknown accidental type %q", string(text))
	}
	return nil
}

// PitchClass returns the note modulo 12, always in the range 0..11.
func PitchClass(note int) int {
	return ((note % 12) + 12) % 12
}

// Octave returns the scientific pitch notation octave of a MIDI note; middle
// C (60) is in octave 4.
func Octave(note int) int {
	o := note / 12
	if note < 0 && note%12 != 0 {
		o--
	}
	return o - 1
}

// IsBlack reports whether the note is one of the black keys of a piano
// keyboard (C#, D#, F#, G#, A#).
func IsBlack(note int) bool {
	switch PitchClass(note) {
	case 1, 3, 6, 8, 10:
		return true
	}
	return false
}

// NoteName returns the pitch class name of the note without the octave.
func NoteName(note int, a Accidental) string {
	if a == Flat {
		return flatNames[PitchClass(note)]
	}
	return sharpNames[PitchClass(note)]
}

// NoteLabel returns the name of the note followed by its octave, e.g. "C#3"
// or "Db3" for note 49.
func NoteLabel(note int, a Accidental) string {
	return fmt.Sprintf("%s%d", NoteName(note, a), Octave(note))
}

// NoteFrequency converts a (possibly fractional) MIDI note number to Hz in
// 12-tone equal temperament with A4 = 440 Hz.
func NoteFrequency(note float64) float64 {
	return 440 * math.Exp2((note-69)/12)
}
