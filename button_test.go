package bayan_test

import (
	"math"
	"testing"

	"github.com/vsariola/bayan"
)

func TestIsBlack(t *testing.T) {
	for note := -24; note < 160; note++ {
		pc := ((note % 12) + 12) % 12
		want := pc == 1 || pc == 3 || pc == 6 || pc == 8 || pc == 10
		if got := bayan.IsBlack(note); got != want {
			t.Errorf("IsBlack(%d) = %v, want %v", note, got, want)
		}
	}
}

func TestNoteLabel(t *testing.T) {
	tests := []struct {
		note  int
		sharp string
		flat  string
	}{
		{49, "C#3", "Db3"},
		{48, "C3", "C3"},
		{60, "C4", "C4"},
		{69, "A4", "A4"},
		{70, "A#4", "Bb4"},
		{0, "C-1", "C-1"},
		{11, "B-1", "B-1"},
		{127, "G9", "G9"},
	}
	for _, tt := range tests {
		if got := bayan.NoteLabel(tt.note, bayan.Sharp); got != tt.sharp {
			t.Errorf("sharp label of %d = %q, want %q", tt.note, got, tt.sharp)
		}
		if got := bayan.NoteLabel(tt.note, bayan.Flat); got != tt.flat {
			t.Errorf("flat label of %d = %q, want %q", tt.note, got, tt.flat)
		}
	}
}

// sharp and flat spellings must always name the same pitch class
func TestEnharmonicLabels(t *testing.T) {
	semitone := map[string]int{
		"C": 0, "C#": 1, "Db": 1, "D": 2, "D#": 3, "Eb": 3, "E": 4, "F": 5, "F#": 6,
		"Gb": 6, "G": 7, "G#": 8, "Ab": 8, "A": 9, "A#": 10, "Bb": 10, "B": 11,
	}
	for note := 0; note < 128; note++ {
		s := semitone[bayan.NoteName(note, bayan.Sharp)]
		f := semitone[bayan.NoteName(note, bayan.Flat)]
		if s != f || s != note%12 {
			t.Fatalf("note %d: sharp %q and flat %q disagree", note,
				bayan.NoteName(note, bayan.Sharp), bayan.NoteName(note, bayan.Flat))
		}
	}
}

func TestNoteFrequency(t *testing.T) {
	if f := bayan.NoteFrequency(69); f != 440 {
		t.Fatalf("A4 = %v Hz", f)
	}
	if f := bayan.NoteFrequency(81); math.Abs(f-880) > 1e-9 {
		t.Fatalf("A5 = %v Hz", f)
	}
	if f := bayan.NoteFrequency(60); math.Abs(f-261.6256) > 1e-3 {
		t.Fatalf("C4 = %v Hz", f)
	}
}

func TestAccidentalText(t *testing.T) {
	var a bayan.Accidental
	if err := a.UnmarshalText([]byte("flat")); err != nil || a != bayan.Flat {
		t.Fatalf("unmarshal flat: %v %v", a, err)
	}
	if err := a.UnmarshalText([]byte("natural")); err == nil {
		t.Fatal("expected an error for an unknown accidental")
	}
}
