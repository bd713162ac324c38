// Package devices defines the peripherals which surround the interpreter core.
package devices

import (
	"context"

	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"

	"github.com/hexaflex/chippy/devices/cpu"
)

// Manufacturer is the manufacturer id shared by all bundled devices.
const Manufacturer = 0xc8c8

// Machine is the interface devices use to talk to the running core.
// It is implemented by *cpu.Controller.
type Machine interface {
	// Press and Release forward keypad edges.
	Press(ctx context.Context, key int) error
	Release(ctx context.Context, key int) error

	// RunFrame executes one frame worth of instructions.
	RunFrame(ctx context.Context) error

	// Samples fills dst with audio samples, stepping the core as needed.
	Samples(ctx context.Context, dst []float32) error

	// Drain fills dst with queued samples and pads the rest with silence.
	Drain(ctx context.Context, dst []float32) (int, error)

	// Reset reloads the core with a new program.
	Reset(ctx context.Context, program []byte) error

	// Frame returns the most recently published display state.
	Frame() *cpu.Frame
}

var _ Machine = (*cpu.Controller)(nil)

// Device represents a peripheral device.
type Device interface {
	// ID yields the manufacturer and serial number for the device.
	ID() ID

	// Startup initializes internal resources.
	//
	// Machine represents the core the device drives or feeds.
	Startup(Machine) error

	// Shutdown cleans up internal resources.
	Shutdown() error
}

// Map contains a list of registered peripherals.
type Map []Device

// Connect adds the given device to the device map.
// Returns false if the device type is already present in the set.
func (dm *Map) Connect(dev Device) bool {
	if (*dm).Find(dev.ID()) > -1 {
		return false
	}

	*dm = append(*dm, dev)
	return true
}

// Startup initializes internal resources.
func (dm Map) Startup(m Machine, logger *log.Logger) error {
	var errorset ErrorSet

	for _, dev := range dm {
		logger.Debug("device startup", log.String("device", dev.ID().String()))
		if err := dev.Startup(m); err != nil {
			errorset.Append(errors.Wrapf(err, "%s", dev.ID()))
		}
	}

	if errorset.Len() == 0 {
		return nil
	}

	return errorset
}

// Shutdown cleans up internal resources. Devices are shut down in
// reverse order of their startup.
func (dm Map) Shutdown(logger *log.Logger) error {
	var errorset ErrorSet

	for i := len(dm) - 1; i >= 0; i-- {
		dev := dm[i]
		logger.Debug("device shutdown", log.String("device", dev.ID().String()))
		if err := dev.Shutdown(); err != nil {
			errorset.Append(errors.Wrapf(err, "%s", dev.ID()))
		}
	}

	if errorset.Len() == 0 {
		return nil
	}

	return errorset
}

// Find returns the index for the device with the given id.
// Returns -1 if it can't be found.
func (dm Map) Find(id ID) int {
	for i, dev := range dm {
		if dev.ID() == id {
			return i
		}
	}
	return -1
}
