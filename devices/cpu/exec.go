package cpu

import (
	"io"

	"github.com/hexaflex/chippy/arch"
)

// exec executes the decoded instruction. skip is the distance a
// conditional skip moves the program counter.
func (c *CPU) exec(instr *Instruction, skip int) error {
	mem := c.memory
	q := &c.quirks
	x := instr.X()
	y := instr.Y()
	vx := c.v[x]
	vy := c.v[y]

	switch instr.Opcode {
	case arch.CLS:
		c.display.clear()
	case arch.RET:
		if c.sp == 0 {
			return &Error{Kind: ErrStackUnderflow}
		}
		c.sp--
		c.pc = int(c.stack[c.sp])
	case arch.SCR:
		c.display.scrollRight()
	case arch.SCL:
		c.display.scrollLeft()
	case arch.EXIT:
		return io.EOF
	case arch.LOW:
		c.display.hires = false
		if q.ResolutionClears {
			c.display.clearAll()
		}
	case arch.HIGH:
		c.display.hires = true
		if q.ResolutionClears {
			c.display.clearAll()
		}
	case arch.LDIW:
		v, err := mem.U16(c.pc)
		if err != nil {
			return err
		}
		c.i = int(v)
		c.pc += 2
	case arch.AUDIO:
		var p [16]byte
		if err := mem.Read(c.i, p[:]); err != nil {
			return err
		}
		c.audio.setPattern(p[:])

	case arch.SCD:
		n := instr.N()
		if q.HalveLowResScroll && !c.display.hires {
			n >>= 1
		}
		c.display.scrollDown(n)
	case arch.SCU:
		c.display.scrollUp(instr.N())

	case arch.SKP:
		if c.keys.Pressed(int(vx)) {
			c.pc += skip
		}
	case arch.SKNP:
		if !c.keys.Pressed(int(vx)) {
			c.pc += skip
		}
	case arch.PLANE:
		c.display.enabled = uint8(x & 0x3)
	case arch.LDVDT:
		c.v[x] = c.delay
	case arch.LDK:
		c.halt.state = WaitKey
		if key, ok := c.keys.released(); ok {
			c.halt.state = Running
			c.v[x] = uint8(key)
		}
	case arch.LDDT:
		c.delay = vx
	case arch.LDST:
		c.sound = vx
	case arch.ADDI:
		c.i += int(vx)
	case arch.LDF:
		c.i = SmallFontAddr + int(vx&0xf)*5
	case arch.LDHF:
		c.i = BigFontAddr + int(vx&0xf)*10
	case arch.BCD:
		return mem.Write(c.i, []byte{vx / 100 % 10, vx / 10 % 10, vx % 10})
	case arch.PITCH:
		c.audio.setPitch(vx)
	case arch.STORE:
		if err := mem.Write(c.i, c.v[:x+1]); err != nil {
			return err
		}
		if q.LoadStoreIncrementsI {
			c.i += x + 1
		}
	case arch.LOAD:
		if err := mem.Read(c.i, c.v[:x+1]); err != nil {
			return err
		}
		if q.LoadStoreIncrementsI {
			c.i += x + 1
		}

	case arch.SEVV:
		if vx == vy {
			c.pc += skip
		}
	case arch.SAVE:
		return c.saveRange(x, y)
	case arch.RESTOR:
		return c.restoreRange(x, y)
	case arch.LDVV:
		c.v[x] = vy
	case arch.OR:
		c.v[x] = vx | vy
		if q.LogicResetsFlag {
			c.v[arch.FlagRegister] = 0
		}
	case arch.AND:
		c.v[x] = vx & vy
		if q.LogicResetsFlag {
			c.v[arch.FlagRegister] = 0
		}
	case arch.XOR:
		c.v[x] = vx ^ vy
		if q.LogicResetsFlag {
			c.v[arch.FlagRegister] = 0
		}
	case arch.ADDVV:
		sum := uint16(vx) + uint16(vy)
		c.v[x] = uint8(sum)
		c.v[arch.FlagRegister] = flag(sum > 0xff)
	case arch.SUB:
		c.v[x] = vx - vy
		c.v[arch.FlagRegister] = flag(vx >= vy)
	case arch.SHR:
		src := vy
		if !q.ShiftReadsVY {
			src = vx
		}
		c.v[x] = src >> 1
		c.v[arch.FlagRegister] = src & 1
	case arch.SUBN:
		c.v[x] = vy - vx
		c.v[arch.FlagRegister] = flag(vy >= vx)
	case arch.SHL:
		src := vy
		if !q.ShiftReadsVY {
			src = vx
		}
		c.v[x] = src << 1
		c.v[arch.FlagRegister] = src >> 7

	case arch.JP:
		c.pc = instr.NNN()
	case arch.CALL:
		if c.sp >= len(c.stack) {
			return &Error{Kind: ErrStackOverflow}
		}
		c.stack[c.sp] = uint16(c.pc)
		c.sp++
		c.pc = instr.NNN()
	case arch.SEVB:
		if vx == instr.KK() {
			c.pc += skip
		}
	case arch.SNEVB:
		if vx != instr.KK() {
			c.pc += skip
		}
	case arch.LDVB:
		c.v[x] = instr.KK()
	case arch.ADDVB:
		c.v[x] = vx + instr.KK()
	case arch.SNEVV:
		if vx != vy {
			c.pc += skip
		}
	case arch.LDI:
		c.i = instr.NNN()
	case arch.JPV:
		nnn := instr.NNN()
		offset := c.v[0]
		if q.JumpWithVX {
			offset = c.v[(nnn>>8)&0xf]
		}
		c.pc = nnn + int(offset)
	case arch.RND:
		c.v[x] = c.rng.Byte() & instr.KK()
	case arch.DRW:
		return c.draw(instr)

	default:
		return &Error{Kind: ErrUnsupportedOpcode}
	}

	return nil
}

// saveRange writes registers Vx through Vy to memory at I. I is not modified.
func (c *CPU) saveRange(x, y int) error {
	step, n := 1, y-x
	if x > y {
		step, n = -1, x-y
	}
	for k := 0; k <= n; k++ {
		if err := c.memory.SetU8(c.i+k, c.v[x+k*step]); err != nil {
			return err
		}
	}
	return nil
}

// restoreRange loads registers Vx through Vy from memory at I. I is not modified.
func (c *CPU) restoreRange(x, y int) error {
	step, n := 1, y-x
	if x > y {
		step, n = -1, x-y
	}
	for k := 0; k <= n; k++ {
		v, err := c.memory.U8(c.i + k)
		if err != nil {
			return err
		}
		c.v[x+k*step] = v
	}
	return nil
}

// draw executes Dxyn. Targets that wait for vblank halt until the last
// instruction slot of the frame.
func (c *CPU) draw(instr *Instruction) error {
	q := &c.quirks
	d := &c.display

	allowed := c.remaining == 0
	switch q.VBlank {
	case arch.VBlankNever:
		allowed = true
	case arch.VBlankLowRes:
		allowed = allowed || d.hires
	}

	if !allowed {
		c.halt.state = WaitVBlank
		return nil
	}
	c.halt.state = Running

	s := sprite{
		x:      int(c.v[instr.X()]),
		y:      int(c.v[instr.Y()]),
		width:  8,
		height: instr.N(),
		wrap:   q.WrapSprites,
	}

	if s.height == 0 && q.BigSprites {
		s.height = 16
		if !q.NarrowLowResBigSprite || d.hires {
			s.width = 16
		}
	}

	stride := s.width / 8
	collision, drawn, err := d.draw(s, func(pass, i int) (Row, error) {
		addr := c.i + (pass*s.height+i)*stride
		if stride == 2 {
			v, err := c.memory.U16(addr)
			return RowFrom(uint64(v)), err
		}
		v, err := c.memory.U8(addr)
		return RowFrom(uint64(v)), err
	})
	if err != nil {
		return err
	}

	if drawn {
		c.v[arch.FlagRegister] = flag(collision)
	}
	return nil
}

func flag(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
