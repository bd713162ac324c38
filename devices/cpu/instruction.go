package cpu

import (
	"fmt"

	"github.com/hexaflex/chippy/arch"
)

// Instruction defines decoded instruction data.
type Instruction struct {
	Addr   int         // Instruction address.
	Word   uint16      // Raw instruction word.
	Opcode arch.Opcode // Decoded opcode.
}

// Decode decodes the given instruction word for target t.
// Returns ErrUnsupportedOpcode if t defines no matching instruction.
func (i *Instruction) Decode(addr int, word uint16, t arch.Target) error {
	i.Addr = addr
	i.Word = word

	op, ok := arch.Decode(word, t)
	i.Opcode = op
	if !ok {
		return &Error{Instruction: *i, Target: t, Kind: ErrUnsupportedOpcode}
	}
	return nil
}

// X returns the first register operand.
func (i *Instruction) X() int { return int(i.Word>>8) & 0xf }

// Y returns the second register operand.
func (i *Instruction) Y() int { return int(i.Word>>4) & 0xf }

// N returns the lowest nibble.
func (i *Instruction) N() int { return int(i.Word) & 0xf }

// KK returns the lowest byte.
func (i *Instruction) KK() uint8 { return uint8(i.Word) }

// NNN returns the lowest 12 bits.
func (i *Instruction) NNN() int { return int(i.Word) & 0xfff }

func (i *Instruction) String() string {
	return fmt.Sprintf("%04x %04x %v", i.Addr, i.Word, i.Opcode)
}
