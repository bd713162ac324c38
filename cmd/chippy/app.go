package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"

	"github.com/hexaflex/chippy/devices"
	"github.com/hexaflex/chippy/devices/cartridge"
	"github.com/hexaflex/chippy/devices/clock"
	"github.com/hexaflex/chippy/devices/cpu"
	"github.com/hexaflex/chippy/devices/display"
	"github.com/hexaflex/chippy/devices/keypad"
	"github.com/hexaflex/chippy/devices/speaker"
)

// App defines application context.
type App struct {
	ctx          context.Context
	config       *Config           // Application configuration.
	logger       *log.Logger       // Application logger.
	window       *glfw.Window      // OpenGL/GLFW context.
	cpu          *CPUController    // Machine running the program.
	devices      devices.Map       // Started peripherals.
	cartridge    *cartridge.Device // Program image.
	display      *display.Device   // Window presentation.
	keypad       *keypad.Device    // Keyboard and gamepad input.
	trace        atomic.Bool       // Print instruction trace data?
	exited       bool              // Program stop has been reported.
	titleUpdated time.Time         // Value used to periodically update window title.
	lastRendered time.Time         // Last time a frame was rendered.
}

// NewApp creates a new application instance using the given configuration.
func NewApp(config *Config, logger *log.Logger, cart *cartridge.Device) *App {
	a := &App{
		config:    config,
		logger:    logger,
		cartridge: cart,
		display:   display.New(nil),
	}
	a.trace.Store(config.Trace)
	return a
}

// Run runs the application and does not return until it is finished
// or an error occurred during initialization.
func (a *App) Run(ctx context.Context, program []byte) error {
	a.ctx = ctx

	cfg := a.config.CPUConfig()
	tracer := newTracer(os.Stdout)
	cfg.Trace = func(i *cpu.Instruction) {
		if a.trace.Load() {
			tracer(i)
		}
	}

	var err error
	a.cpu, err = NewCPUController(ctx, a.logger, cfg, program)
	if err != nil {
		return err
	}

	if err = a.initGL(); err != nil {
		a.cpu.Shutdown()
		return err
	}

	defer a.dispose()

	if err = a.startDevices(); err != nil {
		return err
	}

	printHelp(a.logger)
	a.cpu.Start()

	for !a.window.ShouldClose() {
		if ctx.Err() != nil {
			a.window.SetShouldClose(true)
		}
		a.mainLoop()
	}

	return nil
}

// startDevices connects and starts all peripherals. A missing audio
// device is not fatal; emulation falls back to vsync pacing.
func (a *App) startDevices() error {
	a.keypad = keypad.New(a.ctx, a.logger)

	sync := a.config.Sync
	if !a.config.Mute {
		spk := speaker.New(a.ctx, a.logger, a.config.SampleRate, a.config.Channels, sync)
		if err := spk.Startup(a.cpu); err != nil {
			a.logger.Error("audio unavailable, using vsync", log.Err(err))
			sync = speaker.VSync
		} else {
			a.devices.Connect(spk)
		}
	}

	dm := devices.Map{a.cartridge, a.display, a.keypad}
	if sync == speaker.VSync {
		dm = append(dm, clock.New(a.ctx, a.logger, clock.Interval))
	}

	if err := dm.Startup(a.cpu, a.logger); err != nil {
		_ = dm.Shutdown(a.logger)
		return err
	}

	// The speaker was started first; keep it last so it stops first.
	a.devices = append(dm, a.devices...)
	return nil
}

// mainLoop performs all main loop operations.
func (a *App) mainLoop() {
	a.keypad.Update()

	// Periodically render display contents.
	if time.Since(a.lastRendered) >= time.Second/cpu.FrameRate {
		a.lastRendered = time.Now()
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		a.display.Draw()
		a.window.SwapBuffers()
	}

	// Periodically update the window title to show the current clock frequency.
	if time.Since(a.titleUpdated) >= time.Second*2 {
		a.titleUpdated = time.Now()
		a.window.SetTitle(a.title())
	}

	a.checkStopped()
	glfw.WaitEventsTimeout(0.002)
}

// title returns the window title.
func (a *App) title() string {
	state := prettyFrequency(a.cpu.Frequency())
	if !a.cpu.Running() {
		state = "paused"
	}

	select {
	case <-a.cpu.Done():
		state = "stopped"
	default:
	}

	return fmt.Sprintf("%s %s - %s - %s", AppName, a.config.Target, a.cartridge.File(), state)
}

// checkStopped pauses execution once the program exited or faulted,
// so the last frame stays visible.
func (a *App) checkStopped() {
	select {
	case <-a.cpu.Done():
	default:
		a.exited = false
		return
	}

	if a.exited {
		return
	}

	a.exited = true
	a.cpu.Stop()
	a.window.SetTitle(a.title())
}

// dispose ensures openGL/GLFW and other resources are cleaned up.
func (a *App) dispose() {
	if err := a.devices.Shutdown(a.logger); err != nil {
		a.logger.Error("device shutdown failed", log.Err(err))
	}
	a.devices = nil

	a.cpu.Shutdown()

	if a.window != nil {
		a.window.Destroy()
		a.window = nil
	}

	glfw.Terminate()
}

func (a *App) keyCallback(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if a.keypad.HandleKey(key, action) || action != glfw.Press {
		return
	}

	var err error

	switch key {
	case glfw.KeyEscape:
		a.window.SetShouldClose(true)
	case glfw.KeyF1:
		printHelp(a.logger)
	case glfw.KeyF5:
		err = a.cartridge.Reload(a.ctx)
	case glfw.KeyF6:
		a.cpu.ToggleRun()
	case glfw.KeyF7:
		err = a.cpu.Step(a.ctx)
	case glfw.KeyF8:
		a.trace.Store(!a.trace.Load())
	}

	if err != nil && !errors.Is(err, cpu.ErrStopped) {
		a.logger.Error("command failed", log.Err(err))
	}
}

// initGL initializes GLFW and openGL.
func (a *App) initGL() error {
	err := glfw.Init()
	if err != nil {
		return errors.Wrapf(err, "glfw.Init failed")
	}

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.Visible, glfw.True)
	glfw.WindowHint(glfw.Focused, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	var monitor *glfw.Monitor

	width := display.Width * a.config.ScaleFactor
	height := display.Height * a.config.ScaleFactor

	if a.config.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
		mode := monitor.GetVideoMode()

		width = mode.Width
		height = mode.Height

		glfw.WindowHint(glfw.Decorated, glfw.False)
		glfw.WindowHint(glfw.Maximized, glfw.True)
	} else {
		glfw.WindowHint(glfw.Decorated, glfw.True)
		glfw.WindowHint(glfw.Maximized, glfw.False)
	}

	a.window, err = glfw.CreateWindow(width, height, AppName, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return errors.Wrapf(err, "glfw.CreateWindow failed")
	}

	a.window.MakeContextCurrent()
	a.window.SetKeyCallback(a.keyCallback)

	glfw.SwapInterval(1)

	err = gl.Init()
	if err != nil {
		a.window.Destroy()
		a.window = nil
		glfw.Terminate()
		return errors.Wrapf(err, "gl.Init failed")
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0, 0, 0, 1.0)
	return nil
}

// printHelp writes a short overview of supported shortcut keys.
func printHelp(logger *log.Logger) {
	var sb strings.Builder
	sb.WriteString("shortcut keys:\n")
	sb.WriteString(" ESC      Exit the program.\n")
	sb.WriteString(" F1       Display this help.\n")
	sb.WriteString(" F5       (re)load the program from disk and reset the cpu.\n")
	sb.WriteString(" F6       Pause/Resume program execution.\n")
	sb.WriteString(" F7       Run a single frame.\n")
	sb.WriteString(" F8       Enable/Disable instruction trace output.\n")
	sb.WriteString(" 1-4, Q-R, A-F, Z-V  Hex keypad.")
	logger.Info(sb.String())
}

// prettyFrequency returns a human-readable version of the given clock frequency in herz.
func prettyFrequency(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.2f GHz", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2f MHz", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.2f KHz", v/1e3)
	default:
		return fmt.Sprintf("%.2f Hz", v)
	}
}
