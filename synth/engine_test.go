package synth_test

import (
	"bytes"
	"errors"
	"log"
	"math"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/vsariola/bayan"
	"github.com/vsariola/bayan/synth"
)

func newEngine(t *testing.T, rate int) (*synth.Engine, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	e := synth.NewEngine(bayan.NullAudioContext{Rate: rate}, nil, log.New(&logs, "", 0))
	return e, &logs
}

// render pulls the given number of frames from the engine and returns the
// peak of the left channel.
func render(t *testing.T, e *synth.Engine, frames int) float32 {
	t.Helper()
	buf := make(bayan.AudioBuffer, 512)
	var peak float32
	for frames > 0 {
		n := min(frames, len(buf))
		if err := e.ReadAudio(buf[:n]); err != nil {
			t.Fatalf("ReadAudio: %v", err)
		}
		for _, s := range buf[:n] {
			if s[0] != s[1] {
				t.Fatalf("channels differ: %v", s)
			}
			peak = max(peak, float32(math.Abs(float64(s[0]))))
		}
		frames -= n
	}
	return peak
}

func TestBuiltinCatalog(t *testing.T) {
	c := synth.Builtin()
	want := []string{"accordion", "bandoneon", "bassoon", "celeste", "clarinet", "full_master",
		"harmonium", "master", "musette", "oboe", "organ", "piccolo", "violin"}
	if got := c.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("preset names %v, want %v", got, want)
	}
	for _, name := range want {
		p, ok := c.Lookup(name)
		if !ok {
			t.Fatalf("preset %v not found", name)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("preset %v: %v", name, err)
		}
		if p.Name != name || p.Title == "" {
			t.Errorf("preset %v has name %q title %q", name, p.Name, p.Title)
		}
	}
	if p, _ := c.Lookup("organ"); p.Title != "Organ" {
		t.Errorf("derived title %q, want Organ", p.Title)
	}
	if p, _ := c.Lookup("master"); !reflect.DeepEqual(p.Offsets(), []int{-12, 0, 12}) {
		t.Errorf("master reeds %v", p.Offsets())
	}
	// lookups return copies
	p, _ := c.Lookup("master")
	p.Reeds[0].Offset = 24
	if q, _ := c.Lookup("master"); q.Reeds[0].Offset != -12 {
		t.Fatal("modifying a looked up preset changed the catalog")
	}
}

func TestLoadCatalogErrors(t *testing.T) {
	good := "waveform: sine\nenvelope: {attack: 0, decay: 0, sustain: 1, release: 0.1}\ncutoff: 1000\nlevel: 0.5\nreeds: [{offset: 0}]\n"
	tests := []struct {
		name string
		data string
	}{
		{"unknown field", good + "vibrato: 3\n"},
		{"no reeds", strings.Replace(good, "reeds: [{offset: 0}]\n", "", 1)},
		{"bad waveform", strings.Replace(good, "sine", "noise", 1)},
		{"bad level", strings.Replace(good, "level: 0.5", "level: 2", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := synth.LoadCatalog(fstest.MapFS{"x.yml": {Data: []byte(tt.data)}}); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
	c, err := synth.LoadCatalog(fstest.MapFS{"my_reed.yml": {Data: []byte(good)}, "readme.txt": {Data: []byte("hi")}})
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if p, ok := c.Lookup("my_reed"); !ok || p.Title != "My Reed" || c.Len() != 1 {
		t.Fatalf("loaded %+v (%v), len %d", p, ok, c.Len())
	}
}

func TestNoteOnIsIdempotent(t *testing.T) {
	e, _ := newEngine(t, 44100)
	e.SetPreset("master")
	e.NoteOn(60)
	e.NoteOn(60)
	if n := e.VoiceCount(60); n != 3 {
		t.Fatalf("master started %d voices, want 3", n)
	}
	render(t, e, 256)
	if n := e.Player().Voices(); n != 3 {
		t.Fatalf("player has %d voices, want 3", n)
	}
	e.NoteOff(61) // silent note
	render(t, e, 256)
	if n := e.Player().Voices(); n != 3 {
		t.Fatalf("releasing a silent note changed the voices: %d", n)
	}
}

func TestNoteOffFreesVoices(t *testing.T) {
	e, _ := newEngine(t, 44100)
	e.NoteOn(69)
	if peak := render(t, e, 4410); peak < 0.05 || peak > 1 {
		t.Fatalf("peak of a sounding note %v", peak)
	}
	e.NoteOff(69)
	e.NoteOff(69)
	if len(e.ActiveNotes()) != 0 {
		t.Fatalf("active notes after NoteOff: %v", e.ActiveNotes())
	}
	render(t, e, 44100/20) // half of the release
	if e.Player().Voices() != 1 {
		t.Fatal("voice was freed before its release finished")
	}
	render(t, e, 44100/5)
	if n := e.Player().Voices(); n != 0 {
		t.Fatalf("%d voices left after the release", n)
	}
	if peak := render(t, e, 512); peak != 0 {
		t.Fatalf("silence has peak %v", peak)
	}
}

func TestSetPresetReleasesVoices(t *testing.T) {
	e, _ := newEngine(t, 44100)
	e.NoteOn(60)
	e.NoteOn(64)
	render(t, e, 512)
	e.SetPreset("organ")
	if e.Preset() != "organ" || len(e.ActiveNotes()) != 0 {
		t.Fatalf("preset %v, active %v", e.Preset(), e.ActiveNotes())
	}
	render(t, e, 44100/2)
	if n := e.Player().Voices(); n != 0 {
		t.Fatalf("%d voices of the old preset left", n)
	}
	e.NoteOn(60)
	if n := e.VoiceCount(60); n != 3 {
		t.Fatalf("organ started %d voices, want 3", n)
	}
}

func TestUnknownPresetFallsBack(t *testing.T) {
	e, logs := newEngine(t, 44100)
	e.SetPreset("organ")
	e.SetPreset("kazoo")
	if e.Preset() != synth.DefaultPreset {
		t.Fatalf("preset %v, want %v", e.Preset(), synth.DefaultPreset)
	}
	if !strings.Contains(logs.String(), "kazoo") {
		t.Fatalf("fallback was not logged: %q", logs.String())
	}
}

func TestVolume(t *testing.T) {
	for _, tt := range []struct {
		percent int
		gain    float32
	}{{100, 0.5}, {50, 0.25}, {0, 0}, {150, 0.5}, {-5, 0}} {
		if g := synth.Gain(tt.percent); g != tt.gain {
			t.Errorf("Gain(%d) = %v, want %v", tt.percent, g, tt.gain)
		}
	}
	e, _ := newEngine(t, 44100)
	if e.Volume() != 100 || e.Gain() != 0.5 {
		t.Fatalf("initial volume %d gain %v", e.Volume(), e.Gain())
	}
	e.NoteOn(57)
	render(t, e, 2048)
	e.SetVolume(0)
	render(t, e, synth.GainRampSamples)
	if g := e.Player().Gain(); g != 0 {
		t.Fatalf("gain after the ramp %v", g)
	}
	if peak := render(t, e, 1024); peak != 0 {
		t.Fatalf("volume 0 is not silent: %v", peak)
	}
	e.SetVolume(250)
	if e.Volume() != 100 {
		t.Fatalf("volume not clamped: %d", e.Volume())
	}
	if peak := render(t, e, 1024); peak == 0 {
		t.Fatal("sounding note stayed silent after raising the volume")
	}
	if g := e.Player().Gain(); g != 0.5 {
		t.Fatalf("gain %v, want 0.5", g)
	}
}

func TestNyquist(t *testing.T) {
	e, _ := newEngine(t, 8000)
	e.NoteOn(127)
	if len(e.ActiveNotes()) != 0 {
		t.Fatal("note above Nyquist started voices")
	}
	e.SetPreset("master")
	e.NoteOn(100) // the 4' reed is above 4 kHz
	if n := e.VoiceCount(100); n != 2 {
		t.Fatalf("%d voices, want 2", n)
	}
}

type flakyOutput struct {
	bayan.NullAudioContext
	failures int
	starts   int
	resumes  int
}

func (o *flakyOutput) Start(bayan.AudioSource) error {
	o.starts++
	if o.failures > 0 {
		o.failures--
		return errors.New("device busy")
	}
	return nil
}

func (o *flakyOutput) Resume() error { o.resumes++; return nil }

func TestInitRetries(t *testing.T) {
	out := &flakyOutput{failures: 2}
	var logs bytes.Buffer
	e := synth.NewEngine(out, nil, log.New(&logs, "", 0))
	if err := e.Init(); err == nil {
		t.Fatal("expected the first Init to fail")
	}
	if err := e.Init(); err == nil {
		t.Fatal("expected the second Init to fail")
	}
	if n := strings.Count(logs.String(), "device busy"); n != 1 {
		t.Fatalf("failure logged %d times", n)
	}
	e.NoteOn(60) // playing before the device is up is fine
	if err := e.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := e.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if out.starts != 3 || out.resumes != 2 {
		t.Fatalf("starts %d resumes %d", out.starts, out.resumes)
	}
}

func TestFullQueueDropsNote(t *testing.T) {
	e, logs := newEngine(t, 44100)
	for i := 0; i < 1024; i++ {
		e.SetVolume(i % 100)
	}
	e.NoteOn(61)
	if len(e.ActiveNotes()) != 0 {
		t.Fatal("note started although the queue was full")
	}
	if !strings.Contains(logs.String(), "note 61 dropped") {
		t.Fatalf("drop was not logged: %q", logs.String())
	}
	render(t, e, 64)
	e.NoteOn(61)
	if n := e.VoiceCount(61); n != 1 {
		t.Fatalf("%d voices after draining the queue", n)
	}
}
