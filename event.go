package bayan

import "fmt"

type (
	// Event is produced by the gesture engine for the synthesizer and the
	// UI. Note is set for NoteOn and NoteOff; DX, DY (delta from the drag
	// start) and PanX, PanY (resulting pan offset) for PanOffsetChanged.
	Event struct {
		Kind EventKind
		Note int
		DX   float64
		DY   float64
		PanX float64
		PanY float64
	}

	EventKind int
)

const (
	NoteOn EventKind = iota
	NoteOff
	PanOffsetChanged
)

func NoteOnEvent(note int) Event  { return Event{Kind: NoteOn, Note: note} }
func NoteOffEvent(note int) Event { return Event{Kind: NoteOff, Note: note} }

func (k EventKind) String() string {
	switch k {
	case NoteOn:
		return "NoteOn"
	case NoteOff:
		return "NoteOff"
	case PanOffsetChanged:
		return "PanOffsetChanged"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

func (e Event) String() string {
	if e.Kind == PanOffsetChanged {
		return fmt.Sprintf("%v(%g,%g)", e.Kind, e.DX, e.DY)
	}
	return fmt.Sprintf("%v(%d)", e.Kind, e.Note)
}
