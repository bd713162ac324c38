// Package clock implements the frame pacer used in vsync mode.
package clock

import (
	"context"
	"sync"
	"time"

	"github.com/retroenv/retrogolib/log"

	"github.com/hexaflex/chippy/devices"
	"github.com/hexaflex/chippy/devices/cpu"
)

// Interval is the time between two frames.
const Interval = time.Second / cpu.FrameRate

// Device runs one machine frame per tick.
type Device struct {
	ctx      context.Context
	logger   *log.Logger
	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

var _ devices.Device = &Device{}

// New creates a clock ticking at the given interval.
// A zero interval selects Interval.
func New(ctx context.Context, logger *log.Logger, interval time.Duration) *Device {
	if interval <= 0 {
		interval = Interval
	}
	return &Device{
		ctx:      ctx,
		logger:   logger,
		interval: interval,
	}
}

// ID returns the device id.
func (d *Device) ID() devices.ID {
	return devices.ClockID
}

// Startup starts driving the machine.
func (d *Device) Startup(m devices.Machine) error {
	ctx, cancel := context.WithCancel(d.ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.poll(ctx, m)
	}()

	return nil
}

// Shutdown stops the clock and waits for the current frame to finish.
func (d *Device) Shutdown() error {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	return nil
}

// poll runs a frame on every tick until ctx is done or the machine fails.
func (d *Device) poll(ctx context.Context, m devices.Machine) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.RunFrame(ctx); err != nil {
				if ctx.Err() == nil {
					d.logger.Debug("clock stopped", log.Err(err))
				}
				return
			}
		}
	}
}
