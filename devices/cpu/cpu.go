// Package cpu implements the CHIP-8 interpreter core.
package cpu

import (
	"github.com/pkg/errors"

	"github.com/hexaflex/chippy/arch"
)

// TraceFunc represents a callback handler for debug trace output.
type TraceFunc func(*Instruction)

// Config defines the construction parameters of a CPU.
type Config struct {
	Target     arch.Target  // Dialect to run.
	Clock      int          // Instructions per frame.
	SampleRate int          // Output samples per second; 0 disables audio generation.
	Channels   int          // Output channels; every sample is emitted once per channel.
	Random     RandomSource // Source for Cxkk; defaults to a time seeded generator.
	Trace      TraceFunc    // Optional handler for debug trace output.
}

// CPU implements the runtime.
type CPU struct {
	config    Config                    // Construction parameters.
	quirks    arch.Quirks               // Target specific behavior.
	memory    Memory                    // System memory.
	v         [arch.RegisterCount]uint8 // General purpose registers.
	i         int                       // Index register.
	pc        int                       // Program counter.
	sp        int                       // Stack pointer.
	stack     [arch.StackDepth]uint16   // Return addresses.
	delay     uint8                     // Delay timer.
	sound     uint8                     // Sound timer.
	remaining int                       // Instructions left in the current frame.
	frames    uint64                    // Completed frames.
	halt      haltState                 // Halting state machine.
	instr     Instruction               // Decoded instruction data.
	display   Display                   // Bit planes.
	audio     Audio                     // Sample generator.
	keys      Keypad                    // Input latch.
	rng       RandomSource              // Source for Cxkk.
	trace     TraceFunc                 // Handler for debug trace output.
	err       error                     // Sticky fault.
}

// New creates a new CPU for the given program.
// Returns ErrInvalidClock if the clock rate is not positive and
// ErrProgramTooLarge if the program does not fit in memory.
func New(config Config, program []byte) (*CPU, error) {
	if config.Target < arch.Original || config.Target > arch.Extended {
		return nil, errors.Wrapf(arch.ErrUnknownTarget, "%d", int(config.Target))
	}

	if config.Clock <= 0 {
		return nil, errors.Wrapf(ErrInvalidClock, "clock %d", config.Clock)
	}

	if config.Channels < 0 {
		config.Channels = 0
	}

	if config.Random == nil {
		config.Random = defaultRandom()
	}

	trace := config.Trace
	if trace == nil {
		trace = func(*Instruction) { /* nop */ }
	}

	c := &CPU{
		config: config,
		quirks: config.Target.Quirks(),
		memory: make(Memory, MemoryCapacity),
		rng:    config.Random,
		trace:  trace,
	}

	if err := c.Reset(program); err != nil {
		return nil, err
	}
	return c, nil
}

// Reset reinitializes the machine with the given program. Target, clock
// and audio settings are retained.
func (c *CPU) Reset(program []byte) error {
	if len(program) > MaxProgramSize {
		return errors.Wrapf(ErrProgramTooLarge, "%d bytes, limit is %d", len(program), MaxProgramSize)
	}

	c.memory.load(program)
	c.v = [arch.RegisterCount]uint8{}
	c.i = 0
	c.pc = ProgramStart
	c.sp = 0
	c.stack = [arch.StackDepth]uint16{}
	c.delay = 0
	c.sound = 0
	c.remaining = c.config.Clock
	c.frames = 0
	c.halt = haltState{}
	c.instr = Instruction{}
	c.display.reset()
	c.audio.reset(c.config.Clock, c.config.SampleRate, c.config.Channels)
	c.keys = Keypad{}
	c.err = nil
	return nil
}

// Target returns the active target.
func (c *CPU) Target() arch.Target { return c.config.Target }

// Clock returns the number of instructions per frame.
func (c *CPU) Clock() int { return c.config.Clock }

// Memory returns the cpu's internal memory bank.
func (c *CPU) Memory() Memory { return c.memory }

// V returns the value of register Vn.
func (c *CPU) V(n int) uint8 { return c.v[n&0xf] }

// SetV sets register Vn.
func (c *CPU) SetV(n int, value uint8) { c.v[n&0xf] = value }

// I returns the index register.
func (c *CPU) I() int { return c.i }

// PC returns the program counter.
func (c *CPU) PC() int { return c.pc }

// SP returns the stack pointer.
func (c *CPU) SP() int { return c.sp }

// DelayTimer returns the delay timer.
func (c *CPU) DelayTimer() uint8 { return c.delay }

// SoundTimer returns the sound timer.
func (c *CPU) SoundTimer() uint8 { return c.sound }

// Remaining returns the number of instructions left in the current frame.
func (c *CPU) Remaining() int { return c.remaining }

// Frames returns the number of completed frames.
func (c *CPU) Frames() uint64 { return c.frames }

// Halt returns the state of the halting state machine.
func (c *CPU) Halt() Halt { return c.halt.state }

// Display returns the display planes.
func (c *CPU) Display() *Display { return &c.display }

// Audio returns the sample generator.
func (c *CPU) Audio() *Audio { return &c.audio }

// Err returns the fault which stopped the CPU, if any.
func (c *CPU) Err() error { return c.err }

// Press marks keypad key k as held. Keys outside 0-15 are ignored.
func (c *CPU) Press(key int) {
	if key >= 0 && key < KeyCount {
		c.keys.press(key)
	}
}

// Release marks keypad key k as released. Keys outside 0-15 are ignored.
func (c *CPU) Release(key int) {
	if key >= 0 && key < KeyCount {
		c.keys.release(key)
	}
}

// SampleQueueLen returns the number of pending audio samples.
func (c *CPU) SampleQueueLen() int {
	return c.audio.Len()
}

// PopSample returns the oldest pending audio sample, or silence if none is queued.
func (c *CPU) PopSample() float32 {
	return c.audio.pop()
}

// Draw renders the buffered planes into dst using the default palette.
func (c *CPU) Draw(dst []byte) error {
	return c.Frame().Draw(dst, &DefaultPalette)
}

// Frame returns a snapshot of the buffered display and the input latch.
func (c *CPU) Frame() *Frame {
	return &Frame{
		Planes:  c.display.buffer,
		HighRes: c.display.hires,
		Keys:    c.keys.curr,
		Number:  c.frames,
	}
}

// Step performs a single execution step. While halted the saved
// instruction is retried. It returns true if an audio sample boundary was
// crossed.
//
// Returns io.EOF once the program executed 00FD. Any error is sticky:
// subsequent calls return it again until Reset is called.
func (c *CPU) Step() (bool, error) {
	if c.err != nil {
		return false, c.err
	}

	crossed, err := c.step()
	if err != nil {
		c.err = err
	}
	return crossed, err
}

// RunFrame steps until the current frame's instruction quota is consumed.
func (c *CPU) RunFrame() error {
	for {
		if _, err := c.Step(); err != nil {
			return err
		}
		if c.remaining == c.config.Clock {
			return nil
		}
	}
}

func (c *CPU) step() (bool, error) {
	c.remaining--

	addr := c.pc
	word := c.halt.word

	if c.halt.state.Halted() {
		addr -= 2
	} else {
		var err error
		if word, err = c.memory.U16(c.pc); err != nil {
			c.instr = Instruction{Addr: addr}
			return false, c.fault(err)
		}
		c.pc += 2
	}

	skip := arch.Size(c.memory.peek16(c.pc))

	instr := &c.instr
	if err := instr.Decode(addr, word, c.config.Target); err != nil {
		return false, err
	}

	c.trace(instr)

	if err := c.exec(instr, skip); err != nil {
		return false, c.fault(err)
	}

	c.halt.word = word
	crossed := c.audio.advance(c.sound)

	if c.remaining == 0 {
		c.endFrame()
	}

	return crossed, nil
}

// endFrame applies the frame boundary effects.
func (c *CPU) endFrame() {
	c.remaining = c.config.Clock
	c.frames++

	if c.delay > 0 {
		c.delay--
	}
	if c.sound > 0 {
		c.sound--
	}
	if c.sound == 0 {
		c.audio.phase = 0
	}

	c.display.publish()
}

// fault attaches the current instruction and target to core faults.
func (c *CPU) fault(err error) error {
	var e *Error
	if errors.As(err, &e) {
		e.Instruction = c.instr
		e.Target = c.config.Target
	}
	return err
}
