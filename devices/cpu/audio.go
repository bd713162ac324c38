package cpu

import (
	"encoding/binary"
	"math"
)

// FrameRate is the number of frames per emulated second.
const FrameRate = 60

// Audio defaults.
const (
	DefaultFrequency  = 4000.0
	DefaultSampleRate = 44100
	DefaultChannels   = 2
	patternBits       = 128
)

// DefaultPattern is the square wave buzzer used until a program loads its own pattern.
var DefaultPattern = Row{Hi: 0x0000ffff0000ffff, Lo: 0x0000ffff0000ffff}

// Audio generates output samples from the 128 bit pattern buffer in lock
// step with instruction execution.
type Audio struct {
	channels     int       // Samples emitted per boundary.
	samplePeriod float64   // Seconds per output sample; 0 disables generation.
	instrPeriod  float64   // Seconds per executed instruction.
	elapsed      float64   // Emulated time not yet turned into samples.
	pattern      Row       // Waveform bits, played from bit 0 upwards.
	frequency    float64   // Pattern bits per second.
	phase        float64   // Oscillator position in the pattern, in bits.
	queue        []float32 // Emitted samples.
	head         int       // Index of the oldest pending sample in queue.
}

func (a *Audio) reset(clock, sampleRate, channels int) {
	*a = Audio{
		channels:    channels,
		instrPeriod: 1 / float64(FrameRate*clock),
		pattern:     DefaultPattern,
		frequency:   DefaultFrequency,
		queue:       a.queue[:0],
	}
	if sampleRate > 0 {
		a.samplePeriod = 1 / float64(sampleRate)
	}
}

// Enabled returns true if samples are generated.
func (a *Audio) Enabled() bool { return a.samplePeriod > 0 }

// Pattern returns the current waveform pattern.
func (a *Audio) Pattern() Row { return a.pattern }

// Frequency returns the pattern playback rate in bits per second.
func (a *Audio) Frequency() float64 { return a.frequency }

// Phase returns the oscillator position.
func (a *Audio) Phase() float64 { return a.phase }

// setPattern loads a pattern from 16 big endian bytes.
func (a *Audio) setPattern(p []byte) {
	a.pattern = Row{
		Hi: binary.BigEndian.Uint64(p[:8]),
		Lo: binary.BigEndian.Uint64(p[8:16]),
	}
}

// setPitch maps a register value onto the playback rate.
func (a *Audio) setPitch(v uint8) {
	a.frequency = DefaultFrequency * math.Pow(2, (float64(v)-64)/48)
}

// advance accounts for one executed instruction. It returns true if a
// sample boundary was crossed.
func (a *Audio) advance(sound uint8) bool {
	if a.samplePeriod == 0 {
		return false
	}

	a.elapsed += a.instrPeriod
	if a.elapsed < a.samplePeriod {
		return false
	}

	a.elapsed -= a.samplePeriod
	a.phase = math.Mod(a.phase+a.samplePeriod*a.frequency, patternBits)

	var v float32
	if sound > 0 && a.pattern.Bit(uint(a.phase)) {
		v = 1
	}
	for i := 0; i < a.channels; i++ {
		a.queue = append(a.queue, v)
	}
	return true
}

// Len returns the number of pending samples.
func (a *Audio) Len() int {
	return len(a.queue) - a.head
}

// pop returns the oldest pending sample, or silence if there is none.
func (a *Audio) pop() float32 {
	if a.head >= len(a.queue) {
		return 0
	}
	v := a.queue[a.head]
	a.head++
	if a.head == len(a.queue) {
		a.queue = a.queue[:0]
		a.head = 0
	}
	return v
}
