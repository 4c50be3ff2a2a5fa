package bayan

import "fmt"

type (
	// Layout is the set of parameters the button grid is generated from. It
	// is also the key of LayoutCache.
	Layout struct {
		Rows        int
		Cols        int
		StartOctave int
		Accidental  Accidental
	}

	// LayoutCache memoizes the last generated grid, so that unrelated
	// settings changes do not regenerate the buttons. The zero value is ready
	// to use. LayoutCache is not safe for concurrent use.
	LayoutCache struct {
		key     Layout
		buttons []Button
		valid   bool
	}
)

// BaseNote is the note of the first button of the first row when StartOctave
// is 3 (C3).
const BaseNote = 48

const (
	MinStartOctave = -1
	MaxStartOctave = 9
)

// RowOffsets are the semitone offsets of the C-system rows. Rows 3 and 4
// repeat rows 0 and 1.
var RowOffsets = [...]int{0, 1, 2, 0, 1}

// MaxRows is the number of rows a layout can have.
const MaxRows = len(RowOffsets)

// DefaultLayout is the layout of a full size five row instrument starting at
// C3.
var DefaultLayout = Layout{Rows: 5, Cols: 14, StartOctave: 3, Accidental: Sharp}

// Clamp returns a copy of the layout with all parameters forced into their
// valid ranges: at least one row and column, at most MaxRows rows, and no
// more columns than fit below MIDI note 127.
func (l Layout) Clamp() Layout {
	l.Rows = min(max(l.Rows, 1), MaxRows)
	l.StartOctave = min(max(l.StartOctave, MinStartOctave), MaxStartOctave)
	if l.Accidental != Flat {
		l.Accidental = Sharp
	}
	l.Cols = min(max(l.Cols, 1), l.maxCols())
	return l
}

func (l Layout) maxCols() int {
	highest := 0
	for _, o := range RowOffsets[:l.Rows] {
		highest = max(highest, o)
	}
	// the last column must satisfy base + 3*(cols-1) + highest <= 127
	return (127-l.base()-highest)/3 + 1
}

func (l Layout) base() int {
	return BaseNote + 12*(l.StartOctave-3)
}

// Note returns the MIDI note of the button at row r, column c. The layout is
// isomorphic: one column up is a minor third, one row across a semitone.
func (l Layout) Note(r, c int) int {
	return l.base() + 3*c + RowOffsets[r]
}

func (l Layout) String() string {
	return fmt.Sprintf("%dx%d@%d/%v", l.Rows, l.Cols, l.StartOctave, l.Accidental)
}

// GenerateLayout returns the buttons of the layout ordered row by row. The
// layout is clamped first, so the result always has Rows*Cols buttons with
// unique ids and notes in 0..127.
func GenerateLayout(l Layout) []Button {
	l = l.Clamp()
	buttons := make([]Button, 0, l.Rows*l.Cols)
	for r := 0; r < l.Rows; r++ {
		for c := 0; c < l.Cols; c++ {
			note := l.Note(r, c)
			buttons = append(buttons, Button{
				ID:        fmt.Sprintf("r%d-c%d", r, c),
				BoardRow:  r,
				BoardCol:  c,
				Note:      note,
				Label:     NoteLabel(note, l.Accidental),
				IsBlack:   IsBlack(note),
				Frequency: NoteFrequency(float64(note)),
			})
		}
	}
	return buttons
}

// Buttons returns the grid for the layout, regenerating it only when the
// clamped parameters differ from the previous call. The returned slice is
// shared between calls and must not be modified.
func (c *LayoutCache) Buttons(l Layout) []Button {
	l = l.Clamp()
	if c.valid && c.key == l {
		return c.buttons
	}
	c.key = l
	c.buttons = GenerateLayout(l)
	c.valid = true
	return c.buttons
}

// Layout returns the clamped parameters of the cached grid.
func (c *LayoutCache) Layout() (Layout, bool) {
	return c.key, c.valid
}
