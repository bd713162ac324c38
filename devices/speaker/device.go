// Package speaker plays the audio generated by the core through oto.
package speaker

import (
	"context"
	"sync"
	"time"
	"unsafe"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"

	"github.com/hexaflex/chippy/devices"
)

// Mode selects how samples are pulled from the machine.
type Mode int

// Known modes.
const (
	// AudioSync steps the machine on demand until enough samples exist.
	// The audio device clock paces emulation.
	AudioSync Mode = iota

	// VSync only drains already queued samples and pads with silence.
	// Emulation is paced by an external frame clock.
	VSync
)

// BufferSize is the amount of audio buffered by the output device.
const BufferSize = 50 * time.Millisecond

// Only one oto context may exist per process.
var (
	otoOnce    sync.Once
	otoContext *oto.Context
	otoErr     error
)

// Device plays float32 samples pulled from the machine.
type Device struct {
	m          sync.Mutex
	logger     *log.Logger
	reader     *Reader
	player     *oto.Player
	sampleRate int
	channels   int
}

var _ devices.Device = &Device{}

// New creates a new speaker.
func New(ctx context.Context, logger *log.Logger, sampleRate, channels int, mode Mode) *Device {
	return &Device{
		logger:     logger,
		reader:     NewReader(ctx, mode, logger),
		sampleRate: sampleRate,
		channels:   channels,
	}
}

// ID returns the device id.
func (d *Device) ID() devices.ID {
	return devices.SpeakerID
}

// Startup opens the audio output and starts playback.
func (d *Device) Startup(m devices.Machine) error {
	d.m.Lock()
	defer d.m.Unlock()

	otoOnce.Do(func() {
		var ready chan struct{}
		otoContext, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   d.sampleRate,
			ChannelCount: d.channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   BufferSize,
		})
		if otoErr == nil {
			<-ready
		}
	})

	if otoErr != nil {
		return errors.Wrap(otoErr, "failed to open audio output")
	}

	d.reader.SetMachine(m)
	d.player = otoContext.NewPlayer(d.reader)
	d.player.Play()

	d.logger.Debug("audio output started",
		log.Int("sample_rate", d.sampleRate),
		log.Int("channels", d.channels))
	return nil
}

// Shutdown stops playback.
func (d *Device) Shutdown() error {
	d.m.Lock()
	defer d.m.Unlock()

	d.reader.SetMachine(nil)

	if d.player == nil {
		return nil
	}

	err := d.player.Close()
	d.player = nil
	return err
}

// Reader implements io.Reader over the machine's sample stream,
// producing float32 little endian PCM.
type Reader struct {
	ctx     context.Context
	mode    Mode
	logger  *log.Logger
	machine machineRef
	samples []float32
	failed  bool // A machine error was already logged.
}

// NewReader creates a reader pulling samples in the given mode.
func NewReader(ctx context.Context, mode Mode, logger *log.Logger) *Reader {
	return &Reader{
		ctx:    ctx,
		mode:   mode,
		logger: logger,
	}
}

// SetMachine changes the sample source. A nil machine yields silence.
func (r *Reader) SetMachine(m devices.Machine) {
	r.machine.Store(m)
}

// Read fills p with whole samples. It never fails, since an error would
// stop the player for good; machine errors produce silence instead.
func (r *Reader) Read(p []byte) (int, error) {
	n := len(p) / 4
	if n == 0 {
		return 0, nil
	}

	if cap(r.samples) < n {
		r.samples = make([]float32, n)
	}
	samples := r.samples[:n]

	if err := r.fill(samples); err != nil {
		clear(samples)
		if !r.failed {
			r.failed = true
			r.logger.Debug("audio source failed", log.Err(err))
		}
	} else {
		r.failed = false
	}

	copy(p, unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), n*4))
	return n * 4, nil
}

func (r *Reader) fill(samples []float32) error {
	m := r.machine.Load()
	if m == nil {
		clear(samples)
		return nil
	}

	if r.mode == VSync {
		_, err := m.Drain(r.ctx, samples)
		return err
	}

	return m.Samples(r.ctx, samples)
}

// machineRef guards the machine shared with the player goroutine.
type machineRef struct {
	m       sync.Mutex
	machine devices.Machine
}

func (a *machineRef) Store(m devices.Machine) {
	a.m.Lock()
	a.machine = m
	a.m.Unlock()
}

func (a *machineRef) Load() devices.Machine {
	a.m.Lock()
	defer a.m.Unlock()
	return a.machine
}
