// Package cartridge implements a file backed program image.
package cartridge

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"

	"github.com/hexaflex/chippy/devices"
	"github.com/hexaflex/chippy/devices/cpu"
)

// Known error conditions.
var (
	ErrNoMedia  = errors.New("no program file")
	ErrTooLarge = errors.New("program too large")
	ErrEmpty    = errors.New("program is empty")
)

// Device holds the program image read from disk.
type Device struct {
	m       sync.Mutex
	logger  *log.Logger
	machine devices.Machine
	file    string // Backing file for program data.
	data    []byte // Program data.
}

var _ devices.Device = &Device{}

// New creates a cartridge for the given file.
func New(file string, logger *log.Logger) *Device {
	return &Device{
		file:   file,
		logger: logger,
	}
}

// ID returns the device identifier.
func (d *Device) ID() devices.ID {
	return devices.CartridgeID
}

// File returns the path of the backing file.
func (d *Device) File() string {
	return d.file
}

// Startup reads the program if it has not been loaded yet.
func (d *Device) Startup(m devices.Machine) error {
	d.m.Lock()
	d.machine = m
	loaded := d.data != nil
	d.m.Unlock()

	if loaded {
		return nil
	}

	_, err := d.Load()
	return err
}

// Shutdown releases the program data.
func (d *Device) Shutdown() error {
	d.m.Lock()
	defer d.m.Unlock()

	d.machine = nil
	d.data = nil
	return nil
}

// Load reads the program from disk and returns a copy of it.
func (d *Device) Load() ([]byte, error) {
	d.m.Lock()
	defer d.m.Unlock()

	if len(d.file) == 0 {
		return nil, ErrNoMedia
	}

	d.logger.Debug("reading program", log.String("file", d.file))

	data, err := os.ReadFile(d.file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", d.file)
	}

	if len(data) == 0 {
		return nil, errors.Wrapf(ErrEmpty, "%s", d.file)
	}

	if len(data) > cpu.MaxProgramSize {
		return nil, errors.Wrapf(ErrTooLarge, "%s: have %d bytes, want at most %d",
			d.file, len(data), cpu.MaxProgramSize)
	}

	d.data = data
	return append([]byte(nil), data...), nil
}

// Program returns a copy of the loaded program.
// Returns nil if nothing has been loaded.
func (d *Device) Program() []byte {
	d.m.Lock()
	defer d.m.Unlock()

	if d.data == nil {
		return nil
	}
	return append([]byte(nil), d.data...)
}

// Reload reads the program from disk again and resets the machine with it.
func (d *Device) Reload(ctx context.Context) error {
	program, err := d.Load()
	if err != nil {
		return err
	}

	d.m.Lock()
	m := d.machine
	d.m.Unlock()

	if m == nil {
		return nil
	}

	return m.Reset(ctx, program)
}
