// Package gesture turns concurrent pointer streams into note and pan events.
//
// The Engine tracks which note every pointer is holding. A note sounds as
// long as at least one pointer holds it: the first pointer to reach a note
// emits NoteOn and the last one to leave it emits NoteOff. This gives
// chording (two fingers on one button sound it once) and glissando (a
// sliding finger releases the old note and presses the new one in the same
// event) for free.
//
// The Engine is not safe for concurrent use; all events must be handled by a
// single owner.
package gesture

import (
	"fmt"
	"slices"

	"github.com/vsariola/bayan"
)

type (
	// PointerID identifies one contact point (finger, pen, mouse) for the
	// lifetime of a press.
	PointerID int64

	// Point is a position in viewport coordinates.
	Point struct {
		X, Y float64
	}

	// PointerEvent is one sample of a pointer stream. Pressed tells whether
	// any button of the pointer is down; hosts without the notion pass true
	// for moves during a press.
	PointerEvent struct {
		ID      PointerID
		Kind    PointerKind
		Pos     Point
		Pressed bool
	}

	PointerKind int

	// HitTester finds the note of the button under a point. It is queried on
	// every down and move, so that a finger sliding over neighbouring
	// buttons resolves to whatever is under it now.
	HitTester interface {
		NoteAt(p Point) (note int, ok bool)
	}

	// Engine is the pointer state machine.
	Engine struct {
		pointers map[PointerID]*pointer
		holders  map[int]int // note -> number of pointers holding it
		locked   bool
		pan      Point
		hit      HitTester
	}

	pointer struct {
		note     int
		hasNote  bool
		dragging bool
		start    Point
		initial  Point // pan offset when the drag started
	}
)

const (
	Down PointerKind = iota
	Move
	Up
	Cancel
	Leave
)

// NewEngine returns a locked engine using hit for hit-testing. hit may be nil
// until the first layout is available; every press then misses.
func NewEngine(hit HitTester) *Engine {
	return &Engine{
		pointers: map[PointerID]*pointer{},
		holders:  map[int]int{},
		locked:   true,
		hit:      hit,
	}
}

var pointerKindNames = [...]string{"down", "move", "up", "cancel", "leave"}

func (k PointerKind) String() string {
	if k < 0 || int(k) >= len(pointerKindNames) {
		return "unknown"
	}
	return pointerKindNames[k]
}

func (k PointerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PointerKind) UnmarshalText(text []byte) error {
	for i, n := range pointerKindNames {
		if n == string(text) {
			*k = PointerKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown pointer event kind %q", string(text))
}

// SetHitTester replaces the hit tester, e.g. after the layout or the board
// geometry changed. Notes already held stay held until their pointers move
// or lift.
func (e *Engine) SetHitTester(hit HitTester) { e.hit = hit }

// Locked reports whether presses play notes (true) or pan the board (false).
func (e *Engine) Locked() bool { return e.locked }

// SetLocked switches between playing and panning. Changing the mode releases
// every held note and ends every drag, so no note can stick across the
// switch. The NoteOff events are appended to dst.
func (e *Engine) SetLocked(locked bool, dst []bayan.Event) []bayan.Event {
	if e.locked == locked {
		return dst
	}
	dst = e.ReleaseAll(dst)
	e.locked = locked
	return dst
}

// PanOffset returns the current pan offset.
func (e *Engine) PanOffset() Point { return e.pan }

// SetPanOffset sets the pan offset new drags start from.
func (e *Engine) SetPanOffset(p Point) { e.pan = p }

// Handle processes one pointer event and appends the resulting events to
// dst.
func (e *Engine) Handle(ev PointerEvent, dst []bayan.Event) []bayan.Event {
	switch ev.Kind {
	case Down:
		return e.down(ev, dst)
	case Move:
		return e.move(ev, dst)
	case Up, Cancel, Leave:
		return e.Release(ev.ID, dst)
	}
	return dst
}

func (e *Engine) down(ev PointerEvent, dst []bayan.Event) []bayan.Event {
	if !e.locked {
		dst = e.Release(ev.ID, dst)
		e.pointers[ev.ID] = &pointer{dragging: true, start: ev.Pos, initial: e.pan}
		return dst
	}
	note, ok := e.noteAt(ev.Pos)
	if !ok {
		// a press on empty space is not tracked; a later pressed move can
		// still slide onto a button
		return e.Release(ev.ID, dst)
	}
	return e.Hold(ev.ID, note, dst)
}

func (e *Engine) move(ev PointerEvent, dst []bayan.Event) []bayan.Event {
	p, tracked := e.pointers[ev.ID]
	if !e.locked {
		if !tracked || !p.dragging {
			return dst
		}
		dx, dy := ev.Pos.X-p.start.X, ev.Pos.Y-p.start.Y
		e.pan = Point{p.initial.X + dx, p.initial.Y + dy}
		return append(dst, bayan.Event{Kind: bayan.PanOffsetChanged, DX: dx, DY: dy, PanX: e.pan.X, PanY: e.pan.Y})
	}
	if !tracked && !ev.Pressed {
		return dst
	}
	note, ok := e.noteAt(ev.Pos)
	if tracked && p.hasNote && ok && p.note == note {
		return dst
	}
	if !ok {
		return e.Release(ev.ID, dst)
	}
	return e.Hold(ev.ID, note, dst)
}

// Hold makes the pointer hold note, releasing whatever it held before. It is
// used for pointers without a position, such as the keys of a MIDI keyboard,
// and works regardless of the lock mode.
func (e *Engine) Hold(id PointerID, note int, dst []bayan.Event) []bayan.Event {
	if p, ok := e.pointers[id]; ok && p.hasNote && p.note == note {
		return dst
	}
	dst = e.Release(id, dst)
	e.pointers[id] = &pointer{note: note, hasNote: true}
	e.holders[note]++
	if e.holders[note] == 1 {
		dst = append(dst, bayan.NoteOnEvent(note))
	}
	return dst
}

// Release ends the pointer: a drag simply stops, a held note is released
// and NoteOff is emitted if no other pointer still holds it. Releasing an
// unknown pointer does nothing.
func (e *Engine) Release(id PointerID, dst []bayan.Event) []bayan.Event {
	p, ok := e.pointers[id]
	if !ok {
		return dst
	}
	delete(e.pointers, id)
	if !p.hasNote {
		return dst
	}
	e.holders[p.note]--
	if e.holders[p.note] > 0 {
		return dst
	}
	delete(e.holders, p.note)
	return append(dst, bayan.NoteOffEvent(p.note))
}

// ReleaseAll releases every pointer, emitting NoteOff for every sounding
// note in ascending note order.
func (e *Engine) ReleaseAll(dst []bayan.Event) []bayan.Event {
	for _, note := range e.ActiveNotes() {
		dst = append(dst, bayan.NoteOffEvent(note))
	}
	clear(e.pointers)
	clear(e.holders)
	return dst
}

// Holders returns the number of pointers holding note.
func (e *Engine) Holders(note int) int { return e.holders[note] }

// ActiveNotes returns the sounding notes in ascending order.
func (e *Engine) ActiveNotes() []int {
	notes := make([]int, 0, len(e.holders))
	for n := range e.holders {
		notes = append(notes, n)
	}
	slices.Sort(notes)
	return notes
}

// Pointers returns the number of tracked pointers, holding or dragging.
func (e *Engine) Pointers() int { return len(e.pointers) }

func (e *Engine) noteAt(p Point) (int, bool) {
	if e.hit == nil {
		return 0, false
	}
	return e.hit.NoteAt(p)
}
