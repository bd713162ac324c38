package cpu

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"
)

// ErrStopped is returned by Controller commands once the controller has stopped.
var ErrStopped = errors.New("controller stopped")

// command is a unit of work executed on the controller goroutine.
type command struct {
	fn    func(*CPU) error
	reply chan error
}

// Controller owns a CPU and serializes access to it. All interaction goes
// through commands processed by Run on a single goroutine. The buffered
// display is published as an immutable Frame after every frame boundary.
type Controller struct {
	cpu      *CPU
	logger   *log.Logger
	commands chan command
	frame    atomic.Pointer[Frame]
	done     chan struct{}
	stopOnce sync.Once
	err      error // Set before done is closed.
}

// NewController creates a controller for the given CPU. The CPU must not
// be used directly afterwards.
func NewController(c *CPU, logger *log.Logger) *Controller {
	ctl := &Controller{
		cpu:      c,
		logger:   logger,
		commands: make(chan command),
		done:     make(chan struct{}),
	}
	ctl.frame.Store(c.Frame())
	return ctl
}

// Run processes commands until ctx is cancelled or the CPU faults.
// Returns nil if the program exited through 00FD or ctx was cancelled.
func (ctl *Controller) Run(ctx context.Context) error {
	ctl.logger.Debug("controller started",
		log.String("target", ctl.cpu.Target().String()),
		log.Int("clock", ctl.cpu.Clock()))

	for {
		select {
		case <-ctx.Done():
			ctl.stop(nil)
			return nil

		case cmd := <-ctl.commands:
			err := cmd.fn(ctl.cpu)
			cmd.reply <- err

			if fault := ctl.cpu.Err(); fault != nil {
				if fault == io.EOF {
					ctl.logger.Info("program exited")
					ctl.stop(nil)
					return nil
				}
				ctl.logger.Error("cpu fault",
					log.Err(fault),
					log.String("target", ctl.cpu.Target().String()))
				ctl.stop(fault)
				return fault
			}
		}
	}
}

// Done returns a channel which is closed once Run has returned.
func (ctl *Controller) Done() <-chan struct{} {
	return ctl.done
}

// Err returns the fault which stopped the controller, if any.
// It is only valid after Done is closed.
func (ctl *Controller) Err() error {
	select {
	case <-ctl.done:
		return ctl.err
	default:
		return nil
	}
}

// Frame returns the most recently published frame.
func (ctl *Controller) Frame() *Frame {
	return ctl.frame.Load()
}

// Press marks keypad key k as held.
func (ctl *Controller) Press(ctx context.Context, key int) error {
	return ctl.do(ctx, func(c *CPU) error {
		c.Press(key)
		return nil
	})
}

// Release marks keypad key k as released.
func (ctl *Controller) Release(ctx context.Context, key int) error {
	return ctl.do(ctx, func(c *CPU) error {
		c.Release(key)
		return nil
	})
}

// RunFrame executes one frame and publishes its display state.
func (ctl *Controller) RunFrame(ctx context.Context) error {
	return ctl.do(ctx, func(c *CPU) error {
		err := c.RunFrame()
		ctl.publish(c)
		return err
	})
}

// Samples fills dst with audio samples, stepping the CPU as far as needed
// to produce them.
func (ctl *Controller) Samples(ctx context.Context, dst []float32) error {
	return ctl.do(ctx, func(c *CPU) error {
		frames := c.Frames()
		defer func() {
			if c.Frames() != frames {
				ctl.publish(c)
			}
		}()

		if !c.Audio().Enabled() {
			for i := range dst {
				dst[i] = 0
			}
			return nil
		}

		for i := range dst {
			for c.SampleQueueLen() == 0 {
				if _, err := c.Step(); err != nil {
					for ; i < len(dst); i++ {
						dst[i] = 0
					}
					return err
				}
			}
			dst[i] = c.PopSample()
		}
		return nil
	})
}

// Drain fills dst with whatever samples are queued and pads the rest with
// silence. It returns the number of queued samples copied.
func (ctl *Controller) Drain(ctx context.Context, dst []float32) (int, error) {
	var n int
	err := ctl.do(ctx, func(c *CPU) error {
		n = c.SampleQueueLen()
		if n > len(dst) {
			n = len(dst)
		}
		for i := range dst {
			dst[i] = c.PopSample()
		}
		return nil
	})
	return n, err
}

// Reset reloads the CPU with the given program.
func (ctl *Controller) Reset(ctx context.Context, program []byte) error {
	return ctl.do(ctx, func(c *CPU) error {
		if err := c.Reset(program); err != nil {
			return err
		}
		ctl.publish(c)
		ctl.logger.Info("program loaded", log.Int("size", len(program)))
		return nil
	})
}

// Inspect runs fn on the controller goroutine with exclusive access to the CPU.
func (ctl *Controller) Inspect(ctx context.Context, fn func(*CPU)) error {
	return ctl.do(ctx, func(c *CPU) error {
		fn(c)
		return nil
	})
}

// do submits fn and waits for its result.
func (ctl *Controller) do(ctx context.Context, fn func(*CPU) error) error {
	cmd := command{fn: fn, reply: make(chan error, 1)}

	select {
	case ctl.commands <- cmd:
	case <-ctl.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	return <-cmd.reply
}

func (ctl *Controller) publish(c *CPU) {
	ctl.frame.Store(c.Frame())
}

func (ctl *Controller) stop(err error) {
	ctl.stopOnce.Do(func() {
		ctl.err = err
		close(ctl.done)
	})
}
