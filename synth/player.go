package synth

import (
	"math"

	"github.com/viterin/vek/vek32"
	"github.com/vsariola/bayan"
)

type (
	// Player is the render side of the engine, run by the audio output
	// goroutine. It is controlled only by messages from the Engine, which
	// are processed at the start of every buffer in the order they were sent.
	Player struct {
		sampleRate float64
		messages   <-chan any
		voices     []voice

		gain     float32 // current master gain
		target   float32 // gain being ramped to
		rampStep float32
		rampLeft int

		mix     []float32
		scratch []float32
	}

	voice struct {
		note     int
		wave     bayan.Waveform
		phases   [maxUnison]float64
		incs     [maxUnison]float64
		unison   int
		amp      float64
		env      envelope
		filter   svf
		filterF  float64
		released bool
	}

	envelope struct {
		stage envStage
		level float64
		// per sample increments, precomputed when the stage starts
		attackInc, decayInc, releaseInc float64
		sustain, releaseTime            float64
		sampleRate                      float64
	}

	envStage int

	// Chamberlin state-variable filter, only the lowpass output is used
	svf struct {
		low, band float64
	}
)

// messages from the engine to the player
type (
	startMsg struct {
		note   int
		preset *bayan.Preset
		freqs  []float64 // one per reed that fits below Nyquist
	}
	releaseMsg    struct{ note int }
	releaseAllMsg struct{}
	gainMsg       struct{ gain float32 }
)

const (
	envAttack envStage = iota
	envDecay
	envSustain
	envRelease
	envDone
)

const (
	maxUnison = 8
	// MinRelease is the shortest release time. Stopping a voice faster than
	// this clicks.
	MinRelease = 0.005
	// GainRampSamples is the length of the linear ramp used when the master
	// gain changes.
	GainRampSamples = 64
	// Butterworth damping of the lowpass
	filterDamping = 1.4142135623730951
)

// NewPlayer returns a player rendering at sampleRate, receiving messages from
// the channel.
func NewPlayer(sampleRate int, messages <-chan any, gain float32) *Player {
	return &Player{
		sampleRate: float64(sampleRate),
		messages:   messages,
		gain:       gain,
		target:     gain,
	}
}

// ReadAudio renders the next buffer. It implements bayan.AudioSource.
func (p *Player) ReadAudio(buf bayan.AudioBuffer) error {
	p.processMessages()
	n := len(buf)
	if cap(p.mix) < n {
		p.mix = make([]float32, n)
		p.scratch = make([]float32, n)
	}
	mix, scratch := p.mix[:n], p.scratch[:n]
	clear(mix)
	alive := p.voices[:0]
	for i := range p.voices {
		v := &p.voices[i]
		v.render(scratch)
		vek32.Add_Inplace(mix, scratch)
		if v.env.stage != envDone {
			alive = append(alive, *v)
		}
	}
	clear(p.voices[len(alive):])
	p.voices = alive
	p.applyGain(mix)
	for i, s := range mix {
		buf[i] = [2]float32{s, s}
	}
	return nil
}

// Voices returns the number of voices still sounding, releasing ones
// included. It must only be called from the goroutine calling ReadAudio.
func (p *Player) Voices() int { return len(p.voices) }

// Gain returns the master gain currently applied.
func (p *Player) Gain() float32 { return p.gain }

func (p *Player) processMessages() {
	for {
		select {
		case msg := <-p.messages:
			switch m := msg.(type) {
			case startMsg:
				p.start(m)
			case releaseMsg:
				for i := range p.voices {
					if p.voices[i].note == m.note {
						p.voices[i].release()
					}
				}
			case releaseAllMsg:
				for i := range p.voices {
					p.voices[i].release()
				}
			case gainMsg:
				p.target = m.gain
				p.rampLeft = GainRampSamples
				p.rampStep = (p.target - p.gain) / GainRampSamples
			default:
				// ignore unknown messages
			}
		default:
			return
		}
	}
}

func (p *Player) applyGain(mix []float32) {
	i := 0
	for ; i < len(mix) && p.rampLeft > 0; i++ {
		p.gain += p.rampStep
		p.rampLeft--
		if p.rampLeft == 0 {
			p.gain = p.target
		}
		mix[i] *= p.gain
	}
	if i < len(mix) {
		vek32.MulNumber_Inplace(mix[i:], p.gain)
	}
}

func (p *Player) start(m startMsg) {
	pr := m.preset
	unison := min(max(pr.Unison, 1), maxUnison)
	cutoff := min(pr.Cutoff, p.sampleRate/6) // keeps the filter stable
	for _, freq := range m.freqs {
		v := voice{
			note:    m.note,
			wave:    pr.Waveform,
			unison:  unison,
			amp:     pr.Level / float64(len(pr.Reeds)) / float64(unison),
			env:     newEnvelope(pr.Envelope, p.sampleRate),
			filterF: 2 * math.Sin(math.Pi*cutoff/p.sampleRate),
		}
		for k := 0; k < unison; k++ {
			cents := 0.0
			if unison > 1 {
				cents = pr.Spread * (float64(k)/float64(unison-1) - 0.5)
			}
			v.incs[k] = freq * math.Pow(2, cents/1200) / p.sampleRate
			// spread the phases so unison voices do not start in phase
			v.phases[k] = float64(k) / float64(unison)
		}
		p.voices = append(p.voices, v)
	}
}

func (v *voice) release() {
	if !v.released {
		v.released = true
		v.env.release()
	}
}

func (v *voice) render(out []float32) {
	for i := range out {
		var s float64
		for k := 0; k < v.unison; k++ {
			s += oscillate(v.wave, v.phases[k], v.incs[k])
			v.phases[k] += v.incs[k]
			if v.phases[k] >= 1 {
				v.phases[k] -= 1
			}
		}
		// lowpass
		v.filter.low += v.filterF * v.filter.band
		high := s - v.filter.low - filterDamping*v.filter.band
		v.filter.band += v.filterF * high
		out[i] = float32(v.filter.low * v.amp * v.env.next())
	}
}

func oscillate(w bayan.Waveform, t, dt float64) float64 {
	switch w {
	case bayan.Sawtooth:
		return 2*t - 1 - polyBLEP(t, dt)
	case bayan.Square:
		s := -1.0
		if t < 0.5 {
			s = 1
		}
		return s + polyBLEP(t, dt) - polyBLEP(math.Mod(t+0.5, 1), dt)
	case bayan.Triangle:
		return 1 - 4*math.Abs(t-0.5)
	default:
		return math.Sin(2 * math.Pi * t)
	}
}

// polyBLEP is the polynomial correction that removes most of the aliasing of
// a step discontinuity at phase 0.
func polyBLEP(t, dt float64) float64 {
	switch {
	case t < dt:
		t /= dt
		return t + t - t*t - 1
	case t > 1-dt:
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func newEnvelope(e bayan.Envelope, sampleRate float64) envelope {
	env := envelope{
		sustain:     e.Sustain,
		releaseTime: max(e.Release, MinRelease),
		sampleRate:  sampleRate,
	}
	if e.Attack > 0 {
		env.attackInc = 1 / (e.Attack * sampleRate)
	} else {
		env.level = 1
		env.stage = envDecay
	}
	if e.Decay > 0 {
		env.decayInc = (1 - e.Sustain) / (e.Decay * sampleRate)
	}
	return env
}

func (e *envelope) release() {
	if e.stage == envDone {
		return
	}
	e.stage = envRelease
	e.releaseInc = e.level / (e.releaseTime * e.sampleRate)
}

// next advances the envelope by one sample and returns the level.
func (e *envelope) next() float64 {
	switch e.stage {
	case envAttack:
		e.level += e.attackInc
		if e.level >= 1 {
			e.level = 1
			e.stage = envDecay
		}
	case envDecay:
		if e.decayInc <= 0 || e.level <= e.sustain {
			e.level = e.sustain
			e.stage = envSustain
			break
		}
		e.level -= e.decayInc
	case envRelease:
		e.level -= e.releaseInc
		if e.level <= 0 || e.releaseInc <= 0 {
			e.level = 0
			e.stage = envDone
		}
	}
	return e.level
}
