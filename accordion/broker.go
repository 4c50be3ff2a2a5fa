package accordion

import (
	"time"
)

type (
	// Broker carries the messages between the hosts and the instrument. It
	// is many-to-one: every input source (pointer host, MIDI input, settings
	// panel) sends to ToInstrument, and the instrument sends everything the
	// UI should know about to ToUI.
	//
	// For closing the instrument goroutine there are two channels:
	// CloseInstrument has a capacity of 1, so an empty struct can always be
	// sent to it without blocking; if it is already full, someone else has
	// already asked the instrument to close. FinishedInstrument is closed
	// when the goroutine is done. Waiting for it is best combined with a
	// timeout:
	//    select {
	//      case <-FinishedInstrument:
	//      case <-time.After(3 * time.Second):
	//    }
	Broker struct {
		ToInstrument chan any
		ToUI         chan any

		CloseInstrument    chan struct{}
		FinishedInstrument chan struct{}
	}
)

const brokerQueueSize = 1024

func NewBroker() *Broker {
	return &Broker{
		ToInstrument:       make(chan any, brokerQueueSize),
		ToUI:               make(chan any, brokerQueueSize),
		CloseInstrument:    make(chan struct{}, 1),
		FinishedInstrument: make(chan struct{}),
	}
}

// TrySend delivers v unless c is full, and never blocks. The result tells
// whether v went through.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive waits at most t for a value from c. ok is false both on a
// timeout and on a closed channel.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
