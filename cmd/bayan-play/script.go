package main

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vsariola/bayan/accordion"
	"github.com/vsariola/bayan/gesture"
)

// Step is one line of a pointer script. Kind is a pointer event kind (down,
// move, up, cancel, leave) or noteon / noteoff for a MIDI key. At is the
// time in seconds from the start of the script.
type Step struct {
	At      float64 `json:"at" yaml:"at"`
	Kind    string  `json:"kind" yaml:"kind"`
	ID      int64   `json:"id,omitempty" yaml:"id,omitempty"`
	X       float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y       float64 `json:"y,omitempty" yaml:"y,omitempty"`
	Pressed bool    `json:"pressed,omitempty" yaml:"pressed,omitempty"`
	Note    int     `json:"note,omitempty" yaml:"note,omitempty"`
}

// ParseScript reads a script as .json or, failing that, as .yml. The steps
// are returned in time order.
func ParseScript(data []byte) ([]Step, error) {
	var steps []Step
	if errJSON := json.Unmarshal(data, &steps); errJSON != nil {
		steps = nil
		if errYaml := yaml.Unmarshal(data, &steps); errYaml != nil {
			return nil, fmt.Errorf("the script could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	for i, s := range steps {
		if _, err := s.Message(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	slices.SortStableFunc(steps, func(a, b Step) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		}
		return 0
	})
	return steps, nil
}

// Message converts the step into the message the instrument understands.
func (s Step) Message() (any, error) {
	switch s.Kind {
	case "noteon":
		return accordion.MIDINote{Note: s.Note, On: true, Velocity: 100}, nil
	case "noteoff":
		return accordion.MIDINote{Note: s.Note}, nil
	}
	var kind gesture.PointerKind
	if err := kind.UnmarshalText([]byte(s.Kind)); err != nil {
		return nil, err
	}
	pressed := s.Pressed || kind == gesture.Down
	return gesture.PointerEvent{
		ID:      gesture.PointerID(s.ID),
		Kind:    kind,
		Pos:     gesture.Point{X: s.X, Y: s.Y},
		Pressed: pressed,
	}, nil
}

// Replay posts the steps at their times. It returns early when ctx is done.
func Replay(ctx context.Context, steps []Step, post func(msg any) bool) error {
	start := time.Now()
	for _, s := range steps {
		wait := time.Until(start.Add(time.Duration(s.At * float64(time.Second))))
		if wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		msg, err := s.Message()
		if err != nil {
			return err
		}
		if !post(msg) {
			return fmt.Errorf("instrument queue full at %.3f s", s.At)
		}
	}
	return nil
}
