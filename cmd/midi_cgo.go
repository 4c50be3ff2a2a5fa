//go:build cgo

package cmd

import (
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// NewMidiDriver opens the RtMidi driver. There's not much we can do if this
// fails, so nil is returned to indicate no driver available.
func NewMidiDriver() drivers.Driver {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil
	}
	return driver
}
