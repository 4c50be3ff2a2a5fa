package bayan

type (
	// Synth is the sound producing side of the instrument. NoteOn and NoteOff
	// are idempotent: a NoteOn for a sounding note and a NoteOff for a silent
	// note do nothing.
	Synth interface {
		NoteOn(note int)
		NoteOff(note int)
		SetPreset(name string)
		SetVolume(percent int)
		Init() error
	}
)

// Play routes note events to the synth. Other event kinds are ignored. It
// returns the number of events that reached the synth.
func Play(synth Synth, events ...Event) int {
	n := 0
	for _, e := range events {
		switch e.Kind {
		case NoteOn:
			synth.NoteOn(e.Note)
		case NoteOff:
			synth.NoteOff(e.Note)
		default:
			continue
		}
		n++
	}
	return n
}
