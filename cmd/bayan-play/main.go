package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/vsariola/bayan"
	"github.com/vsariola/bayan/accordion"
	"github.com/vsariola/bayan/cmd"
	"github.com/vsariola/bayan/midiin"
	"github.com/vsariola/bayan/oto"
	"github.com/vsariola/bayan/synth"
	"github.com/vsariola/bayan/version"
)

// releaseTail is how long to keep the device running after a script ends,
// so the last release envelopes are heard.
const releaseTail = 500 * time.Millisecond

func main() {
	defaultSettings, _ := bayan.SettingsPath()
	settingsPath := flag.String("settings", defaultSettings, "Settings file. Missing keys and a missing file fall back to the defaults.")
	midiInput := flag.String("midi-input", "", "Listen to the first MIDI input whose name starts with this prefix.")
	midiFirst := flag.Bool("midi-first", false, "Listen to the first MIDI input found.")
	scriptFile := flag.String("script", "", "Replay a pointer script (.yml or .json) and exit when it ends.")
	preset := flag.String("preset", "", "Register to play with, overriding the settings.")
	volume := flag.Int("volume", -1, "Volume in percent (0-100), overriding the settings.")
	sampleRate := flag.Int("rate", oto.DefaultSampleRate, "Output sample rate.")
	width := flag.Float64("width", 1024, "Width of the viewport the script coordinates refer to.")
	height := flag.Float64("height", 768, "Height of the viewport the script coordinates refer to.")
	listPresets := flag.Bool("list-presets", false, "List the registers and exit.")
	save := flag.Bool("save", false, "Save the settings, including the overrides and the final pan offset, on exit.")
	verbose := flag.Bool("verbose", false, "Print every note and pan event.")
	versionFlag := flag.Bool("v", false, "Print version.")
	help := flag.Bool("h", false, "Show help.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if *help {
		flag.Usage()
		os.Exit(0)
	}
	if *listPresets {
		catalog := synth.Builtin()
		for _, name := range catalog.Names() {
			p, _ := catalog.Lookup(name)
			fmt.Printf("%-12s %s\n", name, p.Title)
		}
		os.Exit(0)
	}
	if *scriptFile == "" && *midiInput == "" && !*midiFirst {
		fmt.Fprintf(os.Stderr, "nothing to play: give -script, -midi-input or -midi-first\n")
		flag.Usage()
		os.Exit(1)
	}
	if err := run(options{
		settingsPath: *settingsPath,
		midiInput:    *midiInput,
		midiFirst:    *midiFirst,
		scriptFile:   *scriptFile,
		preset:       *preset,
		volume:       *volume,
		sampleRate:   *sampleRate,
		viewport:     accordion.Viewport{Width: *width, Height: *height},
		save:         *save,
		verbose:      *verbose,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

type options struct {
	settingsPath string
	midiInput    string
	midiFirst    bool
	scriptFile   string
	preset       string
	volume       int
	sampleRate   int
	viewport     accordion.Viewport
	save         bool
	verbose      bool
}

func run(o options) error {
	logger := log.New(os.Stderr, "", log.LstdFlags)
	settings := bayan.DefaultSettings()
	if o.settingsPath != "" {
		var err error
		if settings, err = bayan.LoadSettings(o.settingsPath); err != nil {
			logger.Printf("using default settings: %v", err)
		}
	}
	if o.preset != "" {
		settings.Register = o.preset
	}
	if o.volume >= 0 {
		settings.Volume = o.volume
	}
	var steps []Step
	if o.scriptFile != "" {
		data, err := os.ReadFile(o.scriptFile)
		if err != nil {
			return fmt.Errorf("could not read script %v: %w", o.scriptFile, err)
		}
		if steps, err = ParseScript(data); err != nil {
			return fmt.Errorf("%v: %w", o.scriptFile, err)
		}
	}

	audio := oto.NewContext(o.sampleRate)
	engine := synth.NewEngine(audio, nil, logger)
	defer engine.Close()
	instrument := accordion.New(nil, engine, settings, logger)
	instrument.Dispatch(o.viewport)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go instrument.Run(ctx)
	if o.verbose {
		go printEvents(ctx, instrument.Events())
	}

	if o.midiInput != "" || o.midiFirst {
		midiContext := midiin.NewContext(cmd.NewMidiDriver(), instrument.Post, logger)
		defer midiContext.Close()
		in, err := midiContext.OpenBy(o.midiInput, o.midiFirst)
		if err != nil {
			return err
		}
		logger.Printf("listening to MIDI input %v", in)
	}

	if steps != nil {
		if err := Replay(ctx, steps, instrument.Post); err != nil && ctx.Err() == nil {
			return err
		}
		select {
		case <-ctx.Done():
		case <-time.After(releaseTail):
		}
	} else {
		<-ctx.Done()
	}

	accordion.TrySend(instrument.Broker().CloseInstrument, struct{}{})
	select {
	case <-instrument.Broker().FinishedInstrument:
	case <-time.After(3 * time.Second):
		logger.Printf("instrument did not finish in time")
	}
	if o.save && o.settingsPath != "" {
		if err := bayan.SaveSettings(o.settingsPath, instrument.Settings()); err != nil {
			return err
		}
	}
	return nil
}

func printEvents(ctx context.Context, events <-chan any) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-events:
			if e, ok := m.(bayan.Event); ok {
				fmt.Println(e)
			}
		}
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Button accordion player.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
