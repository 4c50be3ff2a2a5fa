// Package geometry places the buttons of a layout on the screen and finds the
// button under a point.
//
// The note math of a layout knows nothing about pixels: board rows run
// across the screen and board columns run down it. Here every row is shifted
// down by RowOffset relative to the previous one to get the staggered look
// of a button accordion, and the rows that repeat the first two (3 and 4)
// are pulled back up by two offsets so that they line up with them.
package geometry

import (
	"math"

	"github.com/vsariola/bayan"
	"github.com/vsariola/bayan/gesture"
)

type (
	// Metrics are the presentation settings the placement depends on. Width
	// and Height are the size of the viewport and are only needed for
	// Rotate180.
	Metrics struct {
		ButtonSize float64
		RowGap     float64
		ColGap     float64
		RowOffset  float64
		PanX, PanY float64
		Rotate180  bool
		Width      float64
		Height     float64
	}

	// Circle is a circular hit area.
	Circle struct {
		X, Y, Radius float64
	}

	// Key is a button placed on the board.
	Key struct {
		bayan.Button
		Circle
	}

	// Board is the placed grid. It implements gesture.HitTester.
	Board struct {
		keys    []Key
		metrics Metrics
	}
)

// Origin of the first button, leaving room for the toolbar.
const (
	OriginX = 20
	OriginY = 50
)

// staggerRow is the first row that repeats an earlier row and is pulled
// back up.
const staggerRow = 3

var _ gesture.HitTester = (*Board)(nil)

// MetricsFromSettings returns the metrics for the settings and a viewport of
// the given size.
func MetricsFromSettings(s bayan.Settings, width, height float64) Metrics {
	return Metrics{
		ButtonSize: s.ButtonSize,
		RowGap:     s.RowGap,
		ColGap:     s.ColGap,
		RowOffset:  s.RowOffset,
		PanX:       s.PanX,
		PanY:       s.PanY,
		Rotate180:  s.Rotate180,
		Width:      width,
		Height:     height,
	}
}

func (c Circle) Contains(x, y float64) bool {
	dx, dy := x-c.X, y-c.Y
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// Position returns the top left corner of the button at row r, column c,
// before panning.
func (m Metrics) Position(r, c int) (left, top float64) {
	left = OriginX + float64(r)*(m.ButtonSize+m.ColGap)
	top = OriginY + float64(c)*(m.ButtonSize+m.RowGap) + float64(r)*m.RowOffset
	if r >= staggerRow {
		top -= 2 * m.RowOffset
	}
	return left, top
}

// NewBoard places the buttons. The buttons are not copied; the slice must
// not be modified while the board is in use.
func NewBoard(buttons []bayan.Button, m Metrics) *Board {
	keys := make([]Key, len(buttons))
	r := m.ButtonSize / 2
	for i, b := range buttons {
		left, top := m.Position(b.BoardRow, b.BoardCol)
		keys[i] = Key{Button: b, Circle: Circle{X: left + r, Y: top + r, Radius: r}}
	}
	return &Board{keys: keys, metrics: m}
}

// Keys returns the placed buttons in layout order, in board coordinates. The
// slice must not be modified.
func (b *Board) Keys() []Key { return b.keys }

func (b *Board) Metrics() Metrics { return b.metrics }

// WithPan returns a board moved to the pan offset (x, y). The receiver is
// left as it is, so a board handed to another goroutine stays valid; the
// keys are shared since nothing modifies them after NewBoard.
func (b *Board) WithPan(x, y float64) *Board {
	ret := *b
	ret.metrics.PanX, ret.metrics.PanY = x, y
	return &ret
}

// ToBoard converts a viewport point into board coordinates, undoing the
// rotation and the pan.
func (b *Board) ToBoard(p gesture.Point) gesture.Point {
	if b.metrics.Rotate180 {
		p = gesture.Point{X: b.metrics.Width - p.X, Y: b.metrics.Height - p.Y}
	}
	return gesture.Point{X: p.X - b.metrics.PanX, Y: p.Y - b.metrics.PanY}
}

// NoteAt returns the note of the button under the viewport point p. When
// buttons overlap, the one whose center is nearest wins.
func (b *Board) NoteAt(p gesture.Point) (int, bool) {
	k, ok := b.KeyAt(p)
	if !ok {
		return 0, false
	}
	return k.Note, true
}

// KeyAt returns the button under the viewport point p.
func (b *Board) KeyAt(p gesture.Point) (Key, bool) {
	q := b.ToBoard(p)
	best, bestDist := -1, math.Inf(1)
	for i, k := range b.keys {
		if !k.Contains(q.X, q.Y) {
			continue
		}
		if d := math.Hypot(q.X-k.X, q.Y-k.Y); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Key{}, false
	}
	return b.keys[best], true
}

// Bounds returns the bounding box of the board in board coordinates.
func (b *Board) Bounds() (minX, minY, maxX, maxY float64) {
	if len(b.keys) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, k := range b.keys {
		minX = min(minX, k.X-k.Radius)
		minY = min(minY, k.Y-k.Radius)
		maxX = max(maxX, k.X+k.Radius)
		maxY = max(maxY, k.Y+k.Radius)
	}
	return
}
