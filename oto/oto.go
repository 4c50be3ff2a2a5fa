// Package oto is the audio output of the instrument on top of
// github.com/ebitengine/oto/v3.
package oto

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/vsariola/bayan"
)

type (
	// Context implements bayan.AudioContext. The device is opened lazily by
	// the first Start, so that creating a Context never fails and never
	// makes a sound.
	Context struct {
		sampleRate int

		mu     sync.Mutex
		once   sync.Once
		ctx    *oto.Context
		err    error
		player *oto.Player
	}

	// reader adapts a bayan.AudioSource to the io.Reader oto pulls from.
	reader struct {
		src     bayan.AudioSource
		buf     bayan.AudioBuffer
		frame   [bytesPerFrame]byte
		pending []byte // unread tail of frame
	}
)

const (
	DefaultSampleRate = 44100
	channelCount      = 2
	bytesPerFrame     = channelCount * 2
)

var errNotStarted = errors.New("audio output has not been started")

var _ bayan.AudioContext = (*Context)(nil)

func NewContext(sampleRate int) *Context {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Context{sampleRate: sampleRate}
}

func (c *Context) SampleRate() int { return c.sampleRate }

// device opens the oto context. oto allows only one context per process, so
// a failure is permanent and returned by every later call.
func (c *Context) device() (*oto.Context, error) {
	c.once.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   c.sampleRate,
			ChannelCount: channelCount,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			c.err = fmt.Errorf("cannot create oto context: %w", err)
			return
		}
		<-ready
		c.ctx = ctx
	})
	return c.ctx, c.err
}

// Start opens the device and starts pulling audio from src. Calls after the
// first successful one do nothing.
func (c *Context) Start(src bayan.AudioSource) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.player != nil {
		return nil
	}
	ctx, err := c.device()
	if err != nil {
		return err
	}
	c.player = ctx.NewPlayer(&reader{src: src})
	c.player.Play()
	return nil
}

// Resume wakes up a suspended device.
func (c *Context) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return errNotStarted
	}
	if err := c.ctx.Resume(); err != nil {
		return fmt.Errorf("cannot resume oto context: %w", err)
	}
	return nil
}

// Close stops the player and suspends the device.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.player == nil {
		return nil
	}
	err := c.player.Close()
	c.player = nil
	if err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// Read renders as many whole frames as fit in p. A p shorter than a frame
// gets the first bytes of one frame and the rest on the next call, so every
// call with a non-empty p makes progress.
func (r *reader) Read(p []byte) (int, error) {
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	n += r.render(p[n:])
	if rest := p[n:]; n == 0 && len(rest) > 0 {
		r.render(r.frame[:])
		c := copy(rest, r.frame[:])
		r.pending = r.frame[c:]
		n += c
	}
	return n, nil
}

func (r *reader) render(p []byte) int {
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0
	}
	if cap(r.buf) < frames {
		r.buf = make(bayan.AudioBuffer, frames)
	}
	buf := r.buf[:frames]
	if err := r.src.ReadAudio(buf); err != nil {
		// keep the device running; a broken source plays silence
		clear(buf)
	}
	return len(FloatBufferTo16BitLE(buf, p[:0]))
}
