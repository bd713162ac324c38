package cpu

import (
	"bytes"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/assert"

	"github.com/hexaflex/chippy/arch"
)

func TestLDVB(t *testing.T) {
	//   LD VA, $42

	ct := newCodeTest(arch.Extended)
	ct.emit(0x6a42)
	ct.loop()

	ct.want[0xa] = 0x42
	c := runTest(t, ct)
	assert.Equal(t, 0x202, c.PC())
}

func TestADDVB(t *testing.T) {
	//   LD V0, $ff
	//  ADD V0, $02

	ct := newCodeTest(arch.Extended)
	ct.emit(0x60ff, 0x7002)
	ct.loop()

	ct.want[0x0] = 0x01
	ct.want[0xf] = 0x00
	runTest(t, ct)
}

func TestADDCarry(t *testing.T) {
	//   LD V0, $ff
	//   LD V1, $02
	//  ADD V0, V1

	ct := newCodeTest(arch.Extended)
	ct.emit(0x60ff, 0x6102, 0x8014)
	ct.loop()

	ct.want[0x0] = 0x01
	ct.want[0xf] = 0x01
	runTest(t, ct)
}

func TestADDNoCarry(t *testing.T) {
	ct := newCodeTest(arch.Extended)
	ct.emit(0x6001, 0x6102, 0x8014)
	ct.loop()

	ct.want[0x0] = 0x03
	ct.want[0xf] = 0x00
	runTest(t, ct)
}

func TestSUB(t *testing.T) {
	tests := []struct {
		name   string
		vx, vy uint8
		result uint8
		flag   uint8
	}{
		{"no borrow", 5, 3, 2, 1},
		{"borrow", 3, 5, 0xfe, 0},
		{"equal", 5, 5, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := newCodeTest(arch.Extended)
			ct.emit(0x6000|uint16(tt.vx), 0x6100|uint16(tt.vy), 0x8015)
			ct.loop()

			ct.want[0x0] = tt.result
			ct.want[0xf] = tt.flag
			runTest(t, ct)
		})
	}
}

func TestSUBN(t *testing.T) {
	tests := []struct {
		name   string
		vx, vy uint8
		result uint8
		flag   uint8
	}{
		{"no borrow", 3, 5, 2, 1},
		{"borrow", 5, 3, 0xfe, 0},
		{"equal", 5, 5, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := newCodeTest(arch.Extended)
			ct.emit(0x6000|uint16(tt.vx), 0x6100|uint16(tt.vy), 0x8017)
			ct.loop()

			ct.want[0x0] = tt.result
			ct.want[0xf] = tt.flag
			runTest(t, ct)
		})
	}
}

func TestSUBSameRegister(t *testing.T) {
	tests := []struct {
		name string
		op   uint16
	}{
		{"SUB", 0x8335},
		{"SUBN", 0x8337},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			//   LD V3, $05
			//   SUB(N) V3, V3
			ct := newCodeTest(arch.Extended)
			ct.emit(0x6305, tt.op)
			ct.loop()

			ct.want[0x3] = 0x00
			ct.want[0xf] = 0x01
			runTest(t, ct)
		})
	}
}

func TestFlagRegisterDestination(t *testing.T) {
	//   LD VF, $ff
	//   LD V1, $01
	//  ADD VF, V1

	ct := newCodeTest(arch.Extended)
	ct.emit(0x6fff, 0x6101, 0x8f14)
	ct.loop()

	ct.want[0xf] = 0x01
	runTest(t, ct)
}

func TestLDVV(t *testing.T) {
	ct := newCodeTest(arch.Original)
	ct.emit(0x6133, 0x8010)
	ct.loop()

	ct.want[0x0] = 0x33
	ct.want[0x1] = 0x33
	runTest(t, ct)
}

func TestCALLRET(t *testing.T) {
	//   CALL sub
	//   LD V1, $01
	// loop:
	//   JP loop
	// sub:
	//   LD V0, $07
	//   RET

	ct := newCodeTest(arch.Original)
	ct.emit(0x2206, 0x6101, 0x1204, 0x6007, 0x00ee)

	ct.want[0x0] = 0x07
	ct.want[0x1] = 0x01
	c := runTest(t, ct)
	assert.Equal(t, 0, c.SP())
	assert.Equal(t, 0x204, c.PC())
}

func TestStackOverflow(t *testing.T) {
	c := newCPU(t, arch.Original, words(0x2200))

	var err error
	for i := 0; i < 32 && err == nil; i++ {
		_, err = c.Step()
	}

	assert.True(t, errors.Is(err, ErrStackOverflow))
	assert.Equal(t, arch.StackDepth, c.SP())
}

func TestStackUnderflow(t *testing.T) {
	c := newCPU(t, arch.Original, words(0x00ee))

	_, err := c.Step()
	assert.True(t, errors.Is(err, ErrStackUnderflow))

	var fault *Error
	assert.True(t, errors.As(err, &fault))
	assert.Equal(t, 0x200, fault.Addr)
	assert.Equal(t, uint16(0x00ee), fault.Word)
}

func TestSkips(t *testing.T) {
	tests := []struct {
		name    string
		cond    uint16
		skipped bool
	}{
		{"SE Vx, byte taken", 0x3005, true},
		{"SE Vx, byte not taken", 0x3006, false},
		{"SNE Vx, byte taken", 0x4006, true},
		{"SNE Vx, byte not taken", 0x4005, false},
		{"SE Vx, Vy taken", 0x5010, true},
		{"SE Vx, Vy not taken", 0x5020, false},
		{"SNE Vx, Vy taken", 0x9020, true},
		{"SNE Vx, Vy not taken", 0x9010, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			//   LD V0, $05
			//   LD V1, $05
			//   LD V2, $06
			//   <cond>
			//   LD V3, $01
			//   LD V4, $02

			ct := newCodeTest(arch.Original)
			ct.emit(0x6005, 0x6105, 0x6206, tt.cond, 0x6301, 0x6402)
			ct.loop()

			ct.want[0x3] = 0x01
			if tt.skipped {
				ct.want[0x3] = 0x00
			}
			ct.want[0x4] = 0x02
			runTest(t, ct)
		})
	}
}

func TestSkipOverLongLoad(t *testing.T) {
	//   LD V0, $05
	//   SE V0, $05
	//   LD I, long $1234
	//   LD V2, $02

	for _, target := range arch.Targets {
		t.Run(target.String(), func(t *testing.T) {
			ct := newCodeTest(target)
			ct.emit(0x6005, 0x3005, 0xf000, 0x1234, 0x6202)
			ct.loop()

			ct.want[0x2] = 0x02
			c := runTest(t, ct)
			assert.Equal(t, 0, c.I())
		})
	}
}

func TestLDIW(t *testing.T) {
	ct := newCodeTest(arch.Extended)
	ct.emit(0xf000, 0x1234)
	ct.loop()

	c := runTest(t, ct)
	assert.Equal(t, 0x1234, c.I())
	assert.Equal(t, 0x204, c.PC())
}

func TestADDI(t *testing.T) {
	ct := newCodeTest(arch.Original)
	ct.emit(0xa100, 0x6005, 0xf01e)
	ct.loop()

	c := runTest(t, ct)
	assert.Equal(t, 0x105, c.I())
}

func TestFontAddresses(t *testing.T) {
	ct := newCodeTest(arch.SuperModern)
	ct.emit(0x601a, 0xf029)
	ct.loop()

	c := runTest(t, ct)
	assert.Equal(t, 10*5, c.I())

	ct = newCodeTest(arch.SuperModern)
	ct.emit(0x601a, 0xf030)
	ct.loop()

	c = runTest(t, ct)
	assert.Equal(t, BigFontAddr+10*10, c.I())
}

func TestBCD(t *testing.T) {
	//   LD V0, 254
	//   LD I, $300
	//   LD B, V0

	ct := newCodeTest(arch.Original)
	ct.emit(0x60fe, 0xa300, 0xf033)
	ct.loop()

	c := runTest(t, ct)
	assert.Equal(t, []byte{2, 5, 4}, []byte(c.Memory()[0x300:0x303]))
	assert.Equal(t, 0x300, c.I())
}

func TestTimers(t *testing.T) {
	//   LD V0, $09
	//   LD DT, V0
	//   LD ST, V0
	//   LD V1, DT

	ct := newCodeTest(arch.Extended)
	ct.emit(0x6009, 0xf015, 0xf018, 0xf107)
	ct.loop()

	ct.want[0x1] = 0x09
	c := runTest(t, ct)
	assert.Equal(t, uint8(9), c.DelayTimer())
	assert.Equal(t, uint8(9), c.SoundTimer())
}

func TestSaveRestoreRange(t *testing.T) {
	//   LD I, $300
	//   LD V0, $11
	//   LD V1, $22
	//   LD V2, $33
	//   SAVE V0 - V2

	ct := newCodeTest(arch.Extended)
	ct.emit(0xa300, 0x6011, 0x6122, 0x6233, 0x5022)
	ct.loop()

	c := runTest(t, ct)
	assert.Equal(t, []byte{0x11, 0x22, 0x33}, []byte(c.Memory()[0x300:0x303]))
	assert.Equal(t, 0x300, c.I())

	//   SAVE V2 - V0

	ct = newCodeTest(arch.Extended)
	ct.emit(0xa300, 0x6011, 0x6122, 0x6233, 0x5202)
	ct.loop()

	c = runTest(t, ct)
	assert.Equal(t, []byte{0x33, 0x22, 0x11}, []byte(c.Memory()[0x300:0x303]))

	//   LD I, data
	//   LOAD V0 - V1
	// loop:
	//   JP loop
	// data:
	//   db $aa, $bb

	ct = newCodeTest(arch.Extended)
	ct.emit(0xa206, 0x5013, 0x1204)
	ct.data(0xaa, 0xbb)

	ct.want[0x0] = 0xaa
	ct.want[0x1] = 0xbb
	c = runTest(t, ct)
	assert.Equal(t, 0x206, c.I())
}

func TestRND(t *testing.T) {
	ct := newCodeTest(arch.Original)
	ct.emit(0xc00f, 0xc1f0)
	ct.loop()

	ct.random = fixedRandom{0xab}
	ct.want[0x0] = 0x0b
	ct.want[0x1] = 0xa0
	runTest(t, ct)
}

func TestRNDSeeded(t *testing.T) {
	program := words(0xc0ff, 0xc1ff, 0xc2ff, 0x1206)

	run := func() [3]uint8 {
		c, err := New(Config{Target: arch.Original, Clock: 10, Random: NewRandom(42)}, program)
		assert.NoError(t, err)
		assert.NoError(t, c.RunFrame())
		return [3]uint8{c.V(0), c.V(1), c.V(2)}
	}

	assert.Equal(t, run(), run())
}

func TestEXIT(t *testing.T) {
	c := newCPU(t, arch.SuperModern, words(0x6001, 0x00fd, 0x6002))

	_, err := c.Step()
	assert.NoError(t, err)
	_, err = c.Step()
	assert.Equal(t, io.EOF, err)
	_, err = c.Step()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, uint8(1), c.V(0))
	assert.Equal(t, 0x204, c.PC())
}

func TestFaultIsSticky(t *testing.T) {
	c := newCPU(t, arch.Extended, words(0x0000))

	_, err := c.Step()
	assert.True(t, errors.Is(err, ErrUnsupportedOpcode))
	pc := c.PC()

	_, again := c.Step()
	assert.Equal(t, err, again)
	assert.Equal(t, pc, c.PC())

	assert.NoError(t, c.Reset(words(0x6001)))
	_, err = c.Step()
	assert.NoError(t, err)
}

func TestAddressRange(t *testing.T) {
	//   LD I, long $ffff
	//   LD [I], V1

	c := newCPU(t, arch.Extended, words(0xf000, 0xffff, 0xf155))

	_, err := c.Step()
	assert.NoError(t, err)
	_, err = c.Step()
	assert.True(t, errors.Is(err, ErrAddressRange))

	var fault *Error
	assert.True(t, errors.As(err, &fault))
	assert.Equal(t, 0x204, fault.Addr)
	assert.Equal(t, uint16(0xf155), fault.Word)
	assert.Equal(t, arch.Extended, fault.Target)
	assert.Equal(t, "0204: f155: address out of range 10000 (xo-chip)", fault.Error())
}

func TestFetchOutOfRange(t *testing.T) {
	//   LD V0, $00
	//   JP V0, $fff

	c := newCPU(t, arch.Original, words(0x6000, 0xbfff))

	_, err := c.Step()
	assert.NoError(t, err)
	_, err = c.Step()
	assert.NoError(t, err)
	assert.Equal(t, 0xfff, c.PC())

	c = newCPU(t, arch.Extended, words(0x1200))
	c.pc = 0xffff
	_, err = c.Step()
	assert.True(t, errors.Is(err, ErrAddressRange))
}

func TestNewRejectsInvalidClock(t *testing.T) {
	for _, clock := range []int{0, -1} {
		c, err := New(Config{Target: arch.Original, Clock: clock}, words(0x1200))
		assert.True(t, errors.Is(err, ErrInvalidClock))
		assert.Nil(t, c)
	}
}

func TestNewRejectsLargeProgram(t *testing.T) {
	_, err := New(Config{Target: arch.Extended, Clock: 1000}, make([]byte, MaxProgramSize+1))
	assert.True(t, errors.Is(err, ErrProgramTooLarge))

	_, err = New(Config{Target: arch.Extended, Clock: 1000}, make([]byte, MaxProgramSize))
	assert.NoError(t, err)
}

func TestNewRejectsUnknownTarget(t *testing.T) {
	_, err := New(Config{Target: arch.Target(9), Clock: 10}, nil)
	assert.True(t, errors.Is(err, arch.ErrUnknownTarget))
}

func TestMemoryLayout(t *testing.T) {
	c := newCPU(t, arch.Extended, []byte{0x12, 0x34})
	mem := c.Memory()

	assert.Equal(t, MemoryCapacity, len(mem))
	assert.Equal(t, smallFont[:], []byte(mem[SmallFontAddr:SmallFontAddr+len(smallFont)]))
	assert.Equal(t, bigFont[:], []byte(mem[BigFontAddr:BigFontAddr+len(bigFont)]))
	assert.Equal(t, []byte{0x12, 0x34}, []byte(mem[ProgramStart:ProgramStart+2]))
	assert.Equal(t, ProgramStart, c.PC())
}

func TestTrace(t *testing.T) {
	var seen []arch.Opcode
	cfg := Config{
		Target: arch.Original,
		Clock:  10,
		Trace:  func(i *Instruction) { seen = append(seen, i.Opcode) },
	}

	c, err := New(cfg, words(0x00e0, 0x6001, 0x1204))
	assert.NoError(t, err)
	assert.NoError(t, c.RunFrame())
	assert.Equal(t, []arch.Opcode{arch.CLS, arch.LDVB, arch.JP, arch.JP}, seen[:4])
	assert.Len(t, seen, 10)
}

// runTest executes the program until it reaches its final self jump,
// exits or runs for a bounded number of steps, and checks the wanted
// register values.
func runTest(t *testing.T, ct *codeTest) *CPU {
	t.Helper()

	cfg := Config{
		Target: ct.target,
		Clock:  1000,
		Random: ct.random,
	}

	c, err := New(cfg, ct.program.Bytes())
	if err != nil {
		t.Fatalf("New failure: %v", err)
	}

	for i := 0; i < 10000; i++ {
		pc := c.PC()
		if _, err := c.Step(); err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("Step failure: %v", err)
		}
		if c.PC() == pc && !c.Halt().Halted() {
			break
		}
	}

	for reg, want := range ct.want {
		if have := c.V(reg); have != want {
			t.Fatalf("state mismatch at V%X:\nwant: %02x\nhave: %02x\n", reg, want, have)
		}
	}

	return c
}

type codeTest struct {
	target  arch.Target
	random  RandomSource
	program bytes.Buffer
	want    map[int]uint8
}

func newCodeTest(target arch.Target) *codeTest {
	return &codeTest{
		target: target,
		random: NewRandom(1),
		want:   make(map[int]uint8),
	}
}

// emit appends the given instruction words.
func (ct *codeTest) emit(words ...uint16) {
	for _, w := range words {
		ct.program.WriteByte(byte(w >> 8))
		ct.program.WriteByte(byte(w))
	}
}

// data appends raw bytes.
func (ct *codeTest) data(p ...byte) {
	ct.program.Write(p)
}

// loop appends a jump to itself which ends the test run.
func (ct *codeTest) loop() {
	ct.emit(0x1000 | uint16(ProgramStart+ct.program.Len()))
}

// newCPU creates a CPU running the given program with audio disabled.
func newCPU(t *testing.T, target arch.Target, program []byte) *CPU {
	t.Helper()

	c, err := New(Config{Target: target, Clock: 1000, Random: NewRandom(1)}, program)
	if err != nil {
		t.Fatalf("New failure: %v", err)
	}
	return c
}

func words(w ...uint16) []byte {
	p := make([]byte, 0, len(w)*2)
	for _, v := range w {
		p = append(p, byte(v>>8), byte(v))
	}
	return p
}

type fixedRandom []uint8

func (r fixedRandom) Byte() uint8 {
	return r[0]
}
