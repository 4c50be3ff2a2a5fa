package gesture

import (
	"math/rand"
	"testing"

	"github.com/vsariola/bayan"
)

type grid struct{}

// 4 notes in 4 stripes 10 units wide, everything else misses
func (grid) NoteAt(p Point) (int, bool) {
	if p.X < 0 || p.X >= 40 {
		return 0, false
	}
	return 50 + int(p.X)/10, true
}

func (e *Engine) checkInvariants(t *testing.T, sounding map[int]bool, events []bayan.Event) {
	t.Helper()
	derived := map[int]int{}
	for _, p := range e.pointers {
		if p.hasNote {
			derived[p.note]++
		}
	}
	for note, n := range derived {
		if e.holders[note] != n {
			t.Fatalf("note %d: tally %d, derived %d", note, e.holders[note], n)
		}
	}
	for note, n := range e.holders {
		if n <= 0 || derived[note] != n {
			t.Fatalf("note %d: tally %d, derived %d", note, n, derived[note])
		}
	}
	for _, ev := range events {
		switch ev.Kind {
		case bayan.NoteOn:
			if sounding[ev.Note] {
				t.Fatalf("duplicate NoteOn(%d)", ev.Note)
			}
			sounding[ev.Note] = true
		case bayan.NoteOff:
			if !sounding[ev.Note] {
				t.Fatalf("NoteOff(%d) for a silent note", ev.Note)
			}
			delete(sounding, ev.Note)
		}
	}
	if len(sounding) != len(e.holders) {
		t.Fatalf("emitted events leave %v sounding, engine holds %v", sounding, e.holders)
	}
	for note := range sounding {
		if e.holders[note] == 0 {
			t.Fatalf("note %d sounds without a holder", note)
		}
	}
}

func TestRandomInterleavings(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 200; round++ {
		e := NewEngine(grid{})
		sounding := map[int]bool{}
		for step := 0; step < 300; step++ {
			var events []bayan.Event
			id := PointerID(rng.Intn(6))
			pos := Point{X: rng.Float64()*50 - 5, Y: 0}
			switch r := rng.Intn(100); {
			case r < 30:
				events = e.Handle(PointerEvent{ID: id, Kind: Down, Pos: pos, Pressed: true}, events)
			case r < 70:
				events = e.Handle(PointerEvent{ID: id, Kind: Move, Pos: pos, Pressed: rng.Intn(2) == 0}, events)
			case r < 85:
				events = e.Handle(PointerEvent{ID: id, Kind: PointerKind(2 + rng.Intn(3)), Pos: pos}, events)
			case r < 93:
				events = e.Hold(100+id, 50+rng.Intn(4), events)
			case r < 98:
				events = e.Release(100+id, events)
			default:
				events = e.SetLocked(!e.Locked(), events)
			}
			e.checkInvariants(t, sounding, events)
		}
		e.checkInvariants(t, sounding, e.ReleaseAll(nil))
		if len(sounding) != 0 {
			t.Fatalf("notes %v still sounding after ReleaseAll", sounding)
		}
	}
}
