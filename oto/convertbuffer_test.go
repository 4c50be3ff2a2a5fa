package oto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/vsariola/bayan"
)

func TestFloatBufferTo16BitLE(t *testing.T) {
	in := bayan.AudioBuffer{{0, 1}, {-1, 0.5}, {2, -3}}
	want := []byte{
		0x00, 0x00, 0xff, 0x7f,
		0x01, 0x80, 0xff, 0x3f,
		0xff, 0x7f, 0x01, 0x80,
	}
	if got := FloatBufferTo16BitLE(in, nil); !bytes.Equal(got, want) {
		t.Fatalf("got % x, want % x", got, want)
	}
}

type constSource float32

func (s constSource) ReadAudio(buf bayan.AudioBuffer) error {
	for i := range buf {
		buf[i] = [2]float32{float32(s), float32(s)}
	}
	return nil
}

type brokenSource struct{}

func (brokenSource) ReadAudio(buf bayan.AudioBuffer) error {
	for i := range buf {
		buf[i] = [2]float32{1, 1}
	}
	return errors.New("broken")
}

func TestReader(t *testing.T) {
	r := &reader{src: constSource(1)}
	p := make([]byte, 10) // two whole frames and a half
	n, err := r.Read(p)
	if err != nil || n != 8 {
		t.Fatalf("Read = %d, %v", n, err)
	}
	if !bytes.Equal(p[:8], []byte{0xff, 0x7f, 0xff, 0x7f, 0xff, 0x7f, 0xff, 0x7f}) {
		t.Fatalf("read % x", p[:8])
	}
	r = &reader{src: brokenSource{}}
	n, err = r.Read(p)
	if err != nil || n != 8 || !bytes.Equal(p[:8], make([]byte, 8)) {
		t.Fatalf("broken source gave %d, %v, % x", n, err, p[:8])
	}
}

func TestReaderShortBuffer(t *testing.T) {
	r := &reader{src: constSource(1)}
	var got []byte
	for k := 0; k < 3; k++ {
		p := make([]byte, 3)
		n, err := r.Read(p)
		if err != nil || n == 0 {
			t.Fatalf("Read #%d = %d, %v", k, n, err)
		}
		got = append(got, p[:n]...)
	}
	want := []byte{0xff, 0x7f, 0xff, 0x7f, 0xff, 0x7f, 0xff}
	if !bytes.Equal(got, want) {
		t.Fatalf("read % x, want % x", got, want)
	}
}

func TestNewContext(t *testing.T) {
	if c := NewContext(0); c.SampleRate() != DefaultSampleRate {
		t.Fatalf("sample rate %d", c.SampleRate())
	}
	c := NewContext(48000)
	if c.SampleRate() != 48000 {
		t.Fatalf("sample rate %d", c.SampleRate())
	}
	if err := c.Resume(); err == nil {
		t.Fatal("Resume before Start should fail")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close before Start: %v", err)
	}
}
