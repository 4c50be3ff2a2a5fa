package bayan

type (
	// AudioBuffer is a buffer of stereo frames, each channel in the range
	// [-1, 1].
	AudioBuffer [][2]float32

	// AudioSource fills buffers on demand. ReadAudio is called from the audio
	// output goroutine and must not block.
	AudioSource interface {
		ReadAudio(buf AudioBuffer) error
	}

	// AudioContext is the platform audio output. Start and Resume must be
	// idempotent: Start begins pulling audio from src the first time it
	// succeeds, and Resume wakes a suspended device. Either may fail when the
	// device is unavailable; callers retry on the next user gesture.
	AudioContext interface {
		SampleRate() int
		Start(src AudioSource) error
		Resume() error
		Close() error
	}

	// NullAudioContext is an AudioContext without a device. Nothing pulls
	// audio from the source, so the owner has to call ReadAudio itself.
	NullAudioContext struct {
		Rate int
	}
)

func (c NullAudioContext) SampleRate() int {
	if c.Rate <= 0 {
		return 44100
	}
	return c.Rate
}

func (NullAudioContext) Start(AudioSource) error { return nil }
func (NullAudioContext) Resume() error           { return nil }
func (NullAudioContext) Close() error            { return nil }
