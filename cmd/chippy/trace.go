package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"

	"github.com/hexaflex/chippy/arch"
	"github.com/hexaflex/chippy/devices/cpu"
)

// newTracer returns a trace handler writing one line per executed
// instruction to w. Consecutive executions of the same address, such as
// a halted key wait or a jump to self, are printed once.
func newTracer(w io.Writer) cpu.TraceFunc {
	last := -1
	return func(i *cpu.Instruction) {
		if i.Addr == last {
			return
		}
		last = i.Addr

		var sb strings.Builder
		sb.Grow(48)

		name, _ := arch.Name(i.Opcode)
		fmt.Fprintf(&sb, "%04x  %04x  %-12s %s", i.Addr, i.Word, name, operands(i))

		if base := baseMnemonic(i.Word); base != "" {
			pad(&sb, 40)
			fmt.Fprintf(&sb, "; %s", base)
		}

		sb.WriteByte('\n')
		_, _ = io.WriteString(w, sb.String())
	}
}

// operands formats the arguments of i.
func operands(i *cpu.Instruction) string {
	switch i.Opcode {
	case arch.SCD, arch.SCU:
		return fmt.Sprintf("%d", i.N())
	case arch.JP, arch.CALL, arch.LDI, arch.JPV:
		return fmt.Sprintf("%03x", i.NNN())
	case arch.SEVB, arch.SNEVB, arch.LDVB, arch.ADDVB, arch.RND:
		return fmt.Sprintf("%s, %02x", arch.RegisterName(i.X()), i.KK())
	case arch.SEVV, arch.SNEVV, arch.LDVV, arch.OR, arch.AND, arch.XOR,
		arch.ADDVV, arch.SUB, arch.SHR, arch.SUBN, arch.SHL, arch.SAVE, arch.RESTOR:
		return fmt.Sprintf("%s, %s", arch.RegisterName(i.X()), arch.RegisterName(i.Y()))
	case arch.DRW:
		return fmt.Sprintf("%s, %s, %d", arch.RegisterName(i.X()), arch.RegisterName(i.Y()), i.N())
	case arch.PLANE:
		return fmt.Sprintf("%d", i.X())
	case arch.SKP, arch.SKNP, arch.LDVDT, arch.LDK, arch.LDDT, arch.LDST, arch.ADDI,
		arch.LDF, arch.LDHF, arch.BCD, arch.PITCH, arch.STORE, arch.LOAD:
		return arch.RegisterName(i.X())
	}
	return ""
}

// baseMnemonic returns the classic CHIP-8 mnemonic for word, if it is
// part of the original instruction set.
func baseMnemonic(word uint16) string {
	for _, op := range chip8.Opcodes[int(word>>12)] {
		if op.Info.Mask&word == op.Info.Value && op.Instruction != nil {
			return op.Instruction.Name
		}
	}
	return ""
}

// pad pads sb with spaces until it reaches the given size.
func pad(sb *strings.Builder, size int) {
	if n := size - sb.Len(); n > 0 {
		sb.WriteString(strings.Repeat(" ", n))
	}
}
