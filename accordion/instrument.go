// Package accordion ties the layout, the gesture engine and the synthesizer
// into a playable instrument.
//
// An Instrument is the single owner of all the state: pointer events, MIDI
// notes and settings updates are handled one at a time, either by calling
// Dispatch from a loop the host already owns, or by posting them to the
// broker and running Run in a goroutine of its own.
package accordion

import (
	"context"
	"log"

	"github.com/vsariola/bayan"
	"github.com/vsariola/bayan/geometry"
	"github.com/vsariola/bayan/gesture"
)

type (
	Instrument struct {
		broker   *Broker
		synth    bayan.Synth
		logger   *log.Logger
		settings bayan.Settings
		applied  bool // settings have been applied at least once

		layouts  bayan.LayoutCache
		buttons  []bayan.Button
		board    *geometry.Board
		viewport Viewport
		gestures *gesture.Engine

		events []bayan.Event // scratch, reused between messages
	}

	// MIDINote is a key of a MIDI keyboard going down (On) or up.
	MIDINote struct {
		Note     int
		On       bool
		Velocity int
	}

	// Viewport is the size of the area the board is drawn in.
	Viewport struct {
		Width, Height float64
	}

	// Layout is sent to the UI whenever the button grid is regenerated. Its
	// Board keeps the pan offset of that moment; later pans arrive as
	// bayan.PanOffsetChanged events and can be applied with Board.WithPan.
	Layout struct {
		Buttons []bayan.Button
		Board   *geometry.Board
	}

	// ReleaseAll stops every sounding note, e.g. when the host loses focus.
	ReleaseAll struct{}
)

// New returns an instrument configured with settings. A nil broker gets a
// new one, a nil logger means log.Default().
func New(broker *Broker, synth bayan.Synth, settings bayan.Settings, logger *log.Logger) *Instrument {
	if broker == nil {
		broker = NewBroker()
	}
	if logger == nil {
		logger = log.Default()
	}
	i := &Instrument{
		broker:   broker,
		synth:    synth,
		logger:   logger,
		gestures: gesture.NewEngine(nil),
	}
	i.ApplySettings(settings)
	return i
}

// MIDIPointer is the pointer id used for a MIDI key. MIDI keys are negative
// so they never collide with the ids of the pointer host.
func MIDIPointer(note int) gesture.PointerID {
	return gesture.PointerID(-1 - note)
}

func (i *Instrument) Broker() *Broker { return i.broker }

// Events returns the channel of messages for the UI: bayan.Event for every
// note and pan change and Layout whenever the board is rebuilt.
func (i *Instrument) Events() <-chan any { return i.broker.ToUI }

// Post queues a message for Run without blocking. It returns false if the
// queue is full.
func (i *Instrument) Post(msg any) bool {
	return TrySend(i.broker.ToInstrument, msg)
}

// Run dispatches messages from the broker until ctx is done or the broker
// asks the instrument to close. All notes are released on return.
func (i *Instrument) Run(ctx context.Context) {
	defer close(i.broker.FinishedInstrument)
	defer i.Dispatch(ReleaseAll{})
	for {
		select {
		case <-ctx.Done():
			return
		case <-i.broker.CloseInstrument:
			return
		case msg := <-i.broker.ToInstrument:
			i.Dispatch(msg)
		}
	}
}

// Dispatch handles one message: a gesture.PointerEvent, a MIDINote, a
// bayan.Settings, a Viewport or ReleaseAll. Unknown messages are ignored.
func (i *Instrument) Dispatch(msg any) {
	ev := i.events[:0]
	switch m := msg.(type) {
	case gesture.PointerEvent:
		if m.Kind == gesture.Down {
			// audio can only be activated from a user gesture on some
			// platforms; the synth logs failures itself
			_ = i.synth.Init()
		}
		ev = i.gestures.Handle(m, ev)
	case MIDINote:
		if m.On && m.Velocity > 0 {
			_ = i.synth.Init()
			ev = i.gestures.Hold(MIDIPointer(m.Note), m.Note, ev)
		} else {
			ev = i.gestures.Release(MIDIPointer(m.Note), ev)
		}
	case bayan.Settings:
		i.ApplySettings(m)
		return
	case Viewport:
		i.viewport = m
		i.rebuildBoard()
		return
	case ReleaseAll:
		ev = i.gestures.ReleaseAll(ev)
	default:
		i.logger.Printf("accordion: ignoring message of type %T", msg)
		return
	}
	i.deliver(ev)
	i.events = ev
}

// ApplySettings takes a new settings object into use. Only what changed is
// applied: the grid is regenerated only when the layout parameters change,
// and the synth is told only about a changed volume or register.
func (i *Instrument) ApplySettings(s bayan.Settings) {
	s = s.Normalize()
	old, first := i.settings, !i.applied
	i.settings, i.applied = s, true

	buttons := i.layouts.Buttons(s.Layout())
	layoutChanged := first || len(buttons) != len(i.buttons) || &buttons[0] != &i.buttons[0]
	i.buttons = buttons
	if layoutChanged || geometryChanged(old, s) {
		i.rebuildBoard()
	}

	ev := i.gestures.SetLocked(s.IsLocked, i.events[:0])
	i.gestures.SetPanOffset(gesture.Point{X: s.PanX, Y: s.PanY})
	i.deliver(ev)
	i.events = ev

	if first || old.Volume != s.Volume {
		i.synth.SetVolume(s.Volume)
	}
	if first || old.Register != s.Register {
		// SetPreset silences every voice; the holders go with them
		ev = i.gestures.ReleaseAll(i.events[:0])
		i.deliver(ev)
		i.events = ev
		i.synth.SetPreset(s.Register)
	}
}

func geometryChanged(a, b bayan.Settings) bool {
	return a.ButtonSize != b.ButtonSize || a.RowGap != b.RowGap || a.ColGap != b.ColGap ||
		a.RowOffset != b.RowOffset || a.PanX != b.PanX || a.PanY != b.PanY || a.Rotate180 != b.Rotate180
}

func (i *Instrument) rebuildBoard() {
	m := geometry.MetricsFromSettings(i.settings, i.viewport.Width, i.viewport.Height)
	i.board = geometry.NewBoard(i.buttons, m)
	i.gestures.SetHitTester(i.board)
	if !TrySend(i.broker.ToUI, any(Layout{Buttons: i.buttons, Board: i.board})) {
		i.logger.Printf("accordion: UI queue full, layout update dropped")
	}
}

func (i *Instrument) deliver(events []bayan.Event) {
	bayan.Play(i.synth, events...)
	for _, e := range events {
		if e.Kind == bayan.PanOffsetChanged {
			i.settings.PanX, i.settings.PanY = e.PanX, e.PanY
			// boards already sent to the UI are never modified
			i.board = i.board.WithPan(e.PanX, e.PanY)
			i.gestures.SetHitTester(i.board)
		}
		// the UI only mirrors the state; dropping is fine when it lags
		TrySend(i.broker.ToUI, any(e))
	}
}

// Settings returns the settings in use, including the pan offset left by
// the last drag.
func (i *Instrument) Settings() bayan.Settings { return i.settings }

// Buttons returns the current grid. It must not be modified.
func (i *Instrument) Buttons() []bayan.Button { return i.buttons }

// Board returns the current board. A board is never modified once returned;
// panning replaces it.
func (i *Instrument) Board() *geometry.Board { return i.board }

// ActiveNotes returns the notes held by at least one pointer or MIDI key.
func (i *Instrument) ActiveNotes() []int { return i.gestures.ActiveNotes() }

func (i *Instrument) Locked() bool { return i.gestures.Locked() }
