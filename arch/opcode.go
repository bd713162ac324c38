// Package arch defines the CHIP-8 instruction set, the supported target
// dialects and the quirks that set them apart.
package arch

// Opcode identifies a decoded instruction.
type Opcode int

// Known opcodes.
const (
	Invalid Opcode = iota

	CLS   // 00E0
	RET   // 00EE
	SCR   // 00FB
	SCL   // 00FC
	EXIT  // 00FD
	LOW   // 00FE
	HIGH  // 00FF
	LDIW  // F000 nnnn
	AUDIO // F002

	SCD // 00Cn
	SCU // 00Dn

	SKP    // Ex9E
	SKNP   // ExA1
	PLANE  // Fx01
	LDVDT  // Fx07
	LDK    // Fx0A
	LDDT   // Fx15
	LDST   // Fx18
	ADDI   // Fx1E
	LDF    // Fx29
	LDHF   // Fx30
	BCD    // Fx33
	PITCH  // Fx3A
	STORE  // Fx55
	LOAD   // Fx65
	SEVV   // 5xy0
	SAVE   // 5xy2
	RESTOR // 5xy3
	LDVV   // 8xy0
	OR     // 8xy1
	AND    // 8xy2
	XOR    // 8xy3
	ADDVV  // 8xy4
	SUB    // 8xy5
	SHR    // 8xy6
	SUBN   // 8xy7
	SHL    // 8xyE

	JP    // 1nnn
	CALL  // 2nnn
	SEVB  // 3xkk
	SNEVB // 4xkk
	LDVB  // 6xkk
	ADDVB // 7xkk
	SNEVV // 9xy0
	LDI   // Annn
	JPV   // Bnnn
	RND   // Cxkk
	DRW   // Dxyn

	opcodeCount
)

// OpcodeCount is the number of distinct opcodes, including Invalid.
const OpcodeCount = int(opcodeCount)

var names = [...]string{
	Invalid: "???",
	CLS:     "CLS",
	RET:     "RET",
	SCR:     "SCR",
	SCL:     "SCL",
	EXIT:    "EXIT",
	LOW:     "LOW",
	HIGH:    "HIGH",
	LDIW:    "LD I, long",
	AUDIO:   "AUDIO",
	SCD:     "SCD",
	SCU:     "SCU",
	SKP:     "SKP",
	SKNP:    "SKNP",
	PLANE:   "PLANE",
	LDVDT:   "LD Vx, DT",
	LDK:     "LD Vx, K",
	LDDT:    "LD DT, Vx",
	LDST:    "LD ST, Vx",
	ADDI:    "ADD I, Vx",
	LDF:     "LD F, Vx",
	LDHF:    "LD HF, Vx",
	BCD:     "LD B, Vx",
	PITCH:   "PITCH",
	STORE:   "LD [I], Vx",
	LOAD:    "LD Vx, [I]",
	SEVV:    "SE Vx, Vy",
	SAVE:    "SAVE Vx-Vy",
	RESTOR:  "LOAD Vx-Vy",
	LDVV:    "LD Vx, Vy",
	OR:      "OR",
	AND:     "AND",
	XOR:     "XOR",
	ADDVV:   "ADD Vx, Vy",
	SUB:     "SUB",
	SHR:     "SHR",
	SUBN:    "SUBN",
	SHL:     "SHL",
	JP:      "JP",
	CALL:    "CALL",
	SEVB:    "SE Vx, byte",
	SNEVB:   "SNE Vx, byte",
	LDVB:    "LD Vx, byte",
	ADDVB:   "ADD Vx, byte",
	SNEVV:   "SNE Vx, Vy",
	LDI:     "LD I, addr",
	JPV:     "JP V, addr",
	RND:     "RND",
	DRW:     "DRW",
}

// Name returns the mnemonic for the given opcode.
// Returns false if the opcode is not recognized.
func Name(op Opcode) (string, bool) {
	if op <= Invalid || op >= opcodeCount {
		return names[Invalid], false
	}
	return names[op], true
}

func (op Opcode) String() string {
	name, _ := Name(op)
	return name
}

// Pattern matches instruction words against a fixed bit pattern.
type Pattern struct {
	Mask    uint16 // Bits that must equal Value.
	Value   uint16 // Expected bits after masking.
	Targets Set    // Dialects that define the instruction.
	Opcode  Opcode // Instruction selected on a match.
}

// Matches returns true if word matches the pattern on the given target.
func (p *Pattern) Matches(word uint16, t Target) bool {
	return word&p.Mask == p.Value && p.Targets.Has(t)
}

// Patterns lists every instruction encoding in precedence order: full
// 16 bit literals first, then patterns with a low nibble parameter, then
// single register parameters, then two register parameters and finally
// the opcode class in the top nibble. The first match wins.
var Patterns = []Pattern{
	{0xffff, 0x00e0, AllTargets, CLS},
	{0xffff, 0x00ee, AllTargets, RET},
	{0xffff, 0x00fb, SuperTargets, SCR},
	{0xffff, 0x00fc, SuperTargets, SCL},
	{0xffff, 0x00fd, SuperTargets, EXIT},
	{0xffff, 0x00fe, SuperTargets, LOW},
	{0xffff, 0x00ff, SuperTargets, HIGH},
	{0xffff, 0xf000, ExtendedOnly, LDIW},
	{0xffff, 0xf002, ExtendedOnly, AUDIO},

	{0xfff0, 0x00c0, SuperTargets, SCD},
	{0xfff0, 0x00d0, ExtendedOnly, SCU},

	{0xf0ff, 0xe09e, AllTargets, SKP},
	{0xf0ff, 0xe0a1, AllTargets, SKNP},
	{0xf0ff, 0xf001, ExtendedOnly, PLANE},
	{0xf0ff, 0xf007, AllTargets, LDVDT},
	{0xf0ff, 0xf00a, AllTargets, LDK},
	{0xf0ff, 0xf015, AllTargets, LDDT},
	{0xf0ff, 0xf018, AllTargets, LDST},
	{0xf0ff, 0xf01e, AllTargets, ADDI},
	{0xf0ff, 0xf029, AllTargets, LDF},
	{0xf0ff, 0xf030, SuperTargets, LDHF},
	{0xf0ff, 0xf033, AllTargets, BCD},
	{0xf0ff, 0xf03a, ExtendedOnly, PITCH},
	{0xf0ff, 0xf055, AllTargets, STORE},
	{0xf0ff, 0xf065, AllTargets, LOAD},

	{0xf00f, 0x5000, AllTargets, SEVV},
	{0xf00f, 0x5002, ExtendedOnly, SAVE},
	{0xf00f, 0x5003, ExtendedOnly, RESTOR},
	{0xf00f, 0x8000, AllTargets, LDVV},
	{0xf00f, 0x8001, AllTargets, OR},
	{0xf00f, 0x8002, AllTargets, AND},
	{0xf00f, 0x8003, AllTargets, XOR},
	{0xf00f, 0x8004, AllTargets, ADDVV},
	{0xf00f, 0x8005, AllTargets, SUB},
	{0xf00f, 0x8006, AllTargets, SHR},
	{0xf00f, 0x8007, AllTargets, SUBN},
	{0xf00f, 0x800e, AllTargets, SHL},

	{0xf000, 0x1000, AllTargets, JP},
	{0xf000, 0x2000, AllTargets, CALL},
	{0xf000, 0x3000, AllTargets, SEVB},
	{0xf000, 0x4000, AllTargets, SNEVB},
	{0xf000, 0x6000, AllTargets, LDVB},
	{0xf000, 0x7000, AllTargets, ADDVB},
	{0xf000, 0x9000, AllTargets, SNEVV},
	{0xf000, 0xa000, AllTargets, LDI},
	{0xf000, 0xb000, AllTargets, JPV},
	{0xf000, 0xc000, AllTargets, RND},
	{0xf000, 0xd000, AllTargets, DRW},
}

// Decode returns the opcode for the given instruction word on target t.
// Returns Invalid and false if no pattern applies.
func Decode(word uint16, t Target) (Opcode, bool) {
	for i := range Patterns {
		if Patterns[i].Matches(word, t) {
			return Patterns[i].Opcode, true
		}
	}
	return Invalid, false
}

// Size returns the number of bytes a skip has to jump over to pass the
// instruction starting with word. F000 carries a 16 bit operand word.
// The rule holds on every target, since a skip only looks at the next word.
func Size(word uint16) int {
	if word == 0xf000 {
		return 4
	}
	return 2
}
