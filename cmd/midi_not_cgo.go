//go:build !cgo

package cmd

import "gitlab.com/gomidi/midi/v2/drivers"

func NewMidiDriver() drivers.Driver {
	// with no cgo, we cannot use MIDI
	return nil
}
