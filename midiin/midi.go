// Package midiin feeds the keys of a MIDI keyboard to the instrument.
package midiin

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/vsariola/bayan/accordion"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

type (
	// Context listens to one MIDI input at a time and posts every note on
	// and note off to the sink, typically accordion.Instrument.Post. The
	// sink is called from the driver's goroutine and must not block.
	Context struct {
		driver    drivers.Driver
		currentIn drivers.In
		stop      func()
		sink      func(msg any) bool
		logger    *log.Logger
	}
)

var errNoDriver = errors.New("no MIDI driver available")

// NewContext returns a context using driver, which may be nil when MIDI is
// not available on the platform.
func NewContext(driver drivers.Driver, sink func(msg any) bool, logger *log.Logger) *Context {
	if logger == nil {
		logger = log.Default()
	}
	return &Context{driver: driver, sink: sink, logger: logger}
}

// Inputs lists the MIDI inputs of the driver.
func (c *Context) Inputs() ([]drivers.In, error) {
	if c.driver == nil {
		return nil, errNoDriver
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return nil, fmt.Errorf("listing MIDI inputs failed: %w", err)
	}
	return ins, nil
}

// Open starts listening to in, closing the input that was open before.
func (c *Context) Open(in drivers.In) error {
	if c.currentIn == in {
		return nil
	}
	c.closeCurrent()
	if err := in.Open(); err != nil {
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	stop, err := midi.ListenTo(in, c.HandleMessage)
	if err != nil {
		in.Close()
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	c.currentIn, c.stop = in, stop
	return nil
}

// OpenBy opens the first input whose name starts with namePrefix, or the
// very first input if takeFirst is set.
func (c *Context) OpenBy(namePrefix string, takeFirst bool) (drivers.In, error) {
	ins, err := c.Inputs()
	if err != nil {
		return nil, err
	}
	for _, in := range ins {
		if takeFirst || strings.HasPrefix(in.String(), namePrefix) {
			return in, c.Open(in)
		}
	}
	if takeFirst {
		return nil, errors.New("could not find any MIDI input")
	}
	return nil, fmt.Errorf("could not find a MIDI input starting with %q", namePrefix)
}

func (c *Context) HasDeviceOpen() bool {
	return c.currentIn != nil && c.currentIn.IsOpen()
}

// HandleMessage turns note ons and note offs into accordion.MIDINote
// messages. A note on with zero velocity is a note off. Everything else is
// ignored.
func (c *Context) HandleMessage(msg midi.Message, timestampms int32) {
	var channel, key, velocity uint8
	var note accordion.MIDINote
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		note = accordion.MIDINote{Note: int(key), On: velocity > 0, Velocity: int(velocity)}
	case msg.GetNoteOff(&channel, &key, &velocity):
		note = accordion.MIDINote{Note: int(key), Velocity: int(velocity)}
	default:
		return
	}
	if !c.sink(note) {
		c.logger.Printf("midiin: queue full, dropped %v", msg)
	}
}

func (c *Context) closeCurrent() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.currentIn = nil
}

// Close stops listening and closes the driver.
func (c *Context) Close() error {
	c.closeCurrent()
	if c.driver == nil {
		return nil
	}
	if err := c.driver.Close(); err != nil {
		return fmt.Errorf("closing MIDI driver failed: %w", err)
	}
	return nil
}
