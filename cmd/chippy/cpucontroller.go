package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/retroenv/retrogolib/log"

	"github.com/hexaflex/chippy/devices"
	"github.com/hexaflex/chippy/devices/cpu"
)

// CPUController controls the execution of a CPU. It implements
// devices.Machine on top of a cpu.Controller and adds pausing.
// A reset after the program has exited or faulted starts a fresh
// controller, so devices keep talking to the same machine.
type CPUController struct {
	m       sync.Mutex
	ctx     context.Context
	logger  *log.Logger
	config  cpu.Config
	ctl     *cpu.Controller
	cancel  context.CancelFunc
	running atomic.Bool
	start   time.Time // Time at which frame counting started.
	first   uint64    // Frame number at start.
}

var _ devices.Machine = (*CPUController)(nil)

// NewCPUController creates a new CPU controller running program.
// Execution starts paused.
func NewCPUController(ctx context.Context, logger *log.Logger, config cpu.Config, program []byte) (*CPUController, error) {
	c := &CPUController{
		ctx:    ctx,
		logger: logger,
		config: config,
	}

	if err := c.restart(program); err != nil {
		return nil, err
	}

	return c, nil
}

// Running returns true if the CPU is currently running.
func (c *CPUController) Running() bool {
	return c.running.Load()
}

// Frequency returns the measured instruction rate in herz.
func (c *CPUController) Frequency() float64 {
	if !c.Running() {
		return 0
	}

	c.m.Lock()
	start, first := c.start, c.first
	c.m.Unlock()

	elapsed := time.Since(start).Seconds()
	if elapsed <= 0 {
		return 0
	}

	frames := c.Frame().Number - first
	return float64(frames) * float64(c.config.Clock) / elapsed
}

// ToggleRun starts or stops program execution.
func (c *CPUController) ToggleRun() {
	c.setRunning(!c.Running())
}

// Start begins execution of the program.
func (c *CPUController) Start() {
	c.setRunning(true)
}

// Stop pauses execution of the program.
func (c *CPUController) Stop() {
	c.setRunning(false)
}

// Done returns a channel closed when the current program stops.
func (c *CPUController) Done() <-chan struct{} {
	return c.current().Done()
}

// Err returns the fault which stopped the current program, if any.
func (c *CPUController) Err() error {
	return c.current().Err()
}

// Step runs a single frame, even while paused.
func (c *CPUController) Step(ctx context.Context) error {
	return c.current().RunFrame(ctx)
}

// Press marks a keypad key as held.
func (c *CPUController) Press(ctx context.Context, key int) error {
	return c.current().Press(ctx, key)
}

// Release marks a keypad key as released.
func (c *CPUController) Release(ctx context.Context, key int) error {
	return c.current().Release(ctx, key)
}

// RunFrame runs one frame unless execution is paused.
func (c *CPUController) RunFrame(ctx context.Context) error {
	if !c.Running() {
		return nil
	}
	return c.current().RunFrame(ctx)
}

// Samples produces audio samples, stepping the CPU as needed.
// Yields silence while paused.
func (c *CPUController) Samples(ctx context.Context, dst []float32) error {
	if !c.Running() {
		clear(dst)
		return nil
	}
	return c.current().Samples(ctx, dst)
}

// Drain copies queued audio samples into dst.
func (c *CPUController) Drain(ctx context.Context, dst []float32) (int, error) {
	return c.current().Drain(ctx, dst)
}

// Frame returns the most recently published frame.
func (c *CPUController) Frame() *cpu.Frame {
	return c.current().Frame()
}

// Reset loads the given program and resumes execution.
func (c *CPUController) Reset(ctx context.Context, program []byte) error {
	ctl := c.current()

	select {
	case <-ctl.Done():
		if err := c.restart(program); err != nil {
			return err
		}
	default:
		if err := ctl.Reset(ctx, program); err != nil {
			return err
		}
	}

	c.Start()
	return nil
}

// Shutdown stops the current controller and waits for it to finish.
func (c *CPUController) Shutdown() {
	c.m.Lock()
	cancel, ctl := c.cancel, c.ctl
	c.m.Unlock()

	if cancel != nil {
		cancel()
		<-ctl.Done()
	}
}

func (c *CPUController) current() *cpu.Controller {
	c.m.Lock()
	defer c.m.Unlock()
	return c.ctl
}

// restart replaces the controller with a fresh one running program.
func (c *CPUController) restart(program []byte) error {
	core, err := cpu.New(c.config, program)
	if err != nil {
		return err
	}

	ctl := cpu.NewController(core, c.logger)
	ctx, cancel := context.WithCancel(c.ctx)

	c.m.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.ctl = ctl
	c.cancel = cancel
	c.m.Unlock()

	go func() {
		_ = ctl.Run(ctx)
	}()

	c.logger.Info("program loaded", log.Int("size", len(program)))
	return nil
}

// setRunning determines if the CPU is running or is paused.
func (c *CPUController) setRunning(v bool) {
	c.running.Store(v)

	number := c.Frame().Number

	c.m.Lock()
	c.start = time.Now()
	c.first = number
	c.m.Unlock()
}
